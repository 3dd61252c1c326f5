package history

// Config holds configuration for merge history.
type Config struct {
	// Enabled stores every pass in the database.
	Enabled bool `mapstructure:"enabled" default:"false"`
	// Keep is how many passes to retain after each recorded pass. Zero keeps all.
	Keep int `mapstructure:"keep" default:"100"`
}
