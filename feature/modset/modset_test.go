package modset

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeMod(t *testing.T, dir, mod, rel string) string {
	t.Helper()
	full := filepath.Join(dir, mod, filepath.FromSlash(rel))
	require.NoError(t, os.MkdirAll(filepath.Dir(full), 0o755))
	require.NoError(t, os.WriteFile(full, []byte(mod), 0o644))
	return full
}

func TestMods_Order(t *testing.T) {
	dir := t.TempDir()
	for _, mod := range []string{"zeta", "alpha", "beta", "gamma"} {
		writeMod(t, dir, mod, "R2/X.TBL")
	}
	require.NoError(t, os.WriteFile(filepath.Join(dir, "README.txt"), nil, 0o644))

	tests := []struct {
		name string
		cfg  Config
		want []string
	}{
		{"name order", Config{}, []string{"alpha", "beta", "gamma", "zeta"}},
		{"load order first", Config{LoadOrder: []string{"zeta", "beta"}}, []string{"zeta", "beta", "alpha", "gamma"}},
		{"unknown and duplicate ids ignored", Config{LoadOrder: []string{"ghost", "gamma", "gamma"}}, []string{"gamma", "alpha", "beta", "zeta"}},
		{"disabled", Config{LoadOrder: []string{"zeta"}, Disabled: []string{"zeta", "beta"}}, []string{"alpha", "gamma"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tt.cfg.Dir = dir
			mods, err := NewProvider(tt.cfg, nil).Mods()
			require.NoError(t, err)
			assert.Equal(t, tt.want, mods)
		})
	}
}

func TestCollect(t *testing.T) {
	dir := t.TempDir()
	a := writeMod(t, dir, "mod-a", `R2/battle/table/skill.tbl`)
	b := writeMod(t, dir, "mod-b", `R2/BATTLE/TABLE/SKILL.TBL`)
	writeMod(t, dir, "mod-b", "R2/FIELD/MAP.BIN")
	stamp := time.Date(2024, 5, 1, 8, 30, 0, 0, time.Local)
	require.NoError(t, os.Chtimes(a, stamp, stamp))

	files, err := NewProvider(Config{Dir: dir, LoadOrder: []string{"mod-b", "mod-a"}}, nil).Collect(context.Background())
	require.NoError(t, err)

	cands, ok := files.Get("R2/BATTLE/TABLE/SKILL.TBL")
	require.True(t, ok)
	require.Len(t, cands, 2)
	assert.Equal(t, "mod-b", cands[0].Origin)
	assert.Equal(t, b, cands[0].Path)
	assert.Equal(t, "mod-a", cands[1].Origin)
	assert.True(t, stamp.Equal(cands[1].LastWrite))
	assert.Equal(t, time.UTC, cands[1].LastWrite.Location())

	_, ok = files.Get("R2/FIELD/MAP.BIN")
	assert.True(t, ok)
}

func TestCollect_MissingDir(t *testing.T) {
	_, err := NewProvider(Config{Dir: filepath.Join(t.TempDir(), "missing")}, nil).Collect(context.Background())
	assert.Error(t, err)
}

func TestCollect_Cancelled(t *testing.T) {
	dir := t.TempDir()
	writeMod(t, dir, "mod-a", "A.TBL")
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := NewProvider(Config{Dir: dir}, nil).Collect(ctx)
	assert.ErrorIs(t, err, context.Canceled)
}
