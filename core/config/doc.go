// Package config provides configuration management for the TBL merger.
//
// Configuration is read from environment variables, optionally seeded from a
// .env file. Every field declares its key and default through struct tags;
// nested sections map to prefixed variables (cache.dir is CACHE_DIR).
//
// # Configuration Structure
//
//   - Server: HTTP listen port and API key
//   - Log: level and format
//   - Storage: MinIO credentials and the bucket holding baseline tables
//   - Database: merge history connection (sqlite or mysql)
//   - Cache: merged artifact directory and expiry
//   - Merge: worker count, lookup prefixes, table registry overrides
//   - Mods: mods directory and load order
//   - Containers: directories and bucket prefixes searched for baselines
//   - History, Watch: optional features
//
// # Usage
//
//	cfg, err := config.LoadConfig(".")
//	if err != nil {
//	    log.Fatal(err)
//	}
//	fmt.Println(cfg.Cache.Dir)
package config
