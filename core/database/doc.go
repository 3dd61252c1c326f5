// Package database handles database connections.
//
// It wraps GORM and configures either a MySQL server or a local SQLite file
// from the application's configuration. The database is optional: it only
// backs the merge history, and commands keep working when Connect fails.
//
// # Usage
//
//	db, err := database.Connect(cfg.Database)
//	if err != nil {
//	    logg.Warn("Optional database connection failed", zap.Error(err))
//	}
package database
