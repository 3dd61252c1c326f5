package cache

// Config holds configuration for the merged file cache.
type Config struct {
	// Dir is the root directory for merged artifacts and the index snapshot.
	Dir string `mapstructure:"dir" default:"cache"`
	// IndexFile is the snapshot file name inside Dir.
	IndexFile string `mapstructure:"index_file" default:"index.cbor"`
	// RetainPasses is how many passes before the current one an entry may go
	// untouched before RemoveExpiredItems deletes it.
	RetainPasses int `mapstructure:"retain_passes" default:"1"`
}
