package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadConfig_Defaults(t *testing.T) {
	cfg, err := LoadConfig(t.TempDir())
	require.NoError(t, err)

	assert.Equal(t, "8080", cfg.Server.Port)
	assert.Equal(t, "info", cfg.Log.Level)
	assert.Equal(t, "cache", cfg.Cache.Dir)
	assert.Equal(t, "index.cbor", cfg.Cache.IndexFile)
	assert.Equal(t, 1, cfg.Cache.RetainPasses)
	assert.Equal(t, "mods", cfg.Mods.Dir)
	assert.Equal(t, []string{"R2/"}, cfg.Merge.StripPrefixes)
	assert.Empty(t, cfg.Merge.Tables)
	assert.Equal(t, "sqlite", cfg.Database.Driver)
	assert.False(t, cfg.History.Enabled)
	assert.Equal(t, 100, cfg.History.Keep)
	assert.Equal(t, 500, cfg.Watch.DebounceMs)
	assert.False(t, cfg.Storage.Enabled)
}

func TestLoadConfig_EnvFile(t *testing.T) {
	dir := t.TempDir()
	env := "CACHE_DIR=/var/cache/tbl\nMERGE_WORKERS=3\nMODS_LOAD_ORDER=base,patch\nCONTAINERS_DIRS=/game/data\nHISTORY_ENABLED=true\n"
	require.NoError(t, os.WriteFile(filepath.Join(dir, ".env"), []byte(env), 0o644))
	for _, key := range []string{"CACHE_DIR", "MERGE_WORKERS", "MODS_LOAD_ORDER", "CONTAINERS_DIRS", "HISTORY_ENABLED"} {
		t.Setenv(key, "")
	}

	cfg, err := LoadConfig(dir)
	require.NoError(t, err)

	assert.Equal(t, "/var/cache/tbl", cfg.Cache.Dir)
	assert.Equal(t, 3, cfg.Merge.Workers)
	assert.Equal(t, []string{"base", "patch"}, cfg.Mods.LoadOrder)
	assert.Equal(t, []string{"/game/data"}, cfg.Containers.Dirs)
	assert.True(t, cfg.History.Enabled)
}
