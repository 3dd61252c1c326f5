package merge

// Config holds configuration for merge passes.
type Config struct {
	// Workers bounds the number of tables merged at once. Zero uses one per CPU.
	Workers int `mapstructure:"workers" default:"0"`
	// StripPrefixes are removed from logical paths before container lookup.
	StripPrefixes []string `mapstructure:"strip_prefixes" default:"R2/"`
	// Tables overrides the default registry with "path=type" pairs.
	Tables []string `mapstructure:"tables" default:""`
}

// Registry returns the configured table registry.
func (c Config) Registry() (Registry, error) {
	if len(c.Tables) == 0 {
		return DefaultRegistry(), nil
	}
	return ParseRegistry(c.Tables)
}
