package watch

import (
	"context"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestWatcher_CoalescesBursts(t *testing.T) {
	root := t.TempDir()
	w, err := New(root, Config{DebounceMs: 100}, zap.NewNop())
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	var calls atomic.Int32
	done := make(chan error, 1)
	go func() {
		done <- w.Run(ctx, func(context.Context) { calls.Add(1) })
	}()

	for i := 0; i < 5; i++ {
		require.NoError(t, os.WriteFile(filepath.Join(root, "a.tbl"), []byte{byte(i)}, 0o644))
	}

	assert.Eventually(t, func() bool { return calls.Load() == 1 }, 2*time.Second, 10*time.Millisecond)
	time.Sleep(300 * time.Millisecond)
	assert.EqualValues(t, 1, calls.Load())

	cancel()
	assert.NoError(t, <-done)
}

func TestWatcher_FollowsNewDirectories(t *testing.T) {
	root := t.TempDir()
	w, err := New(root, Config{DebounceMs: 50}, zap.NewNop())
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	var calls atomic.Int32
	go w.Run(ctx, func(context.Context) { calls.Add(1) })

	mod := filepath.Join(root, "new-mod")
	require.NoError(t, os.Mkdir(mod, 0o755))
	assert.Eventually(t, func() bool { return calls.Load() == 1 }, 2*time.Second, 10*time.Millisecond)

	require.NoError(t, os.WriteFile(filepath.Join(mod, "SKILL.TBL"), []byte{1}, 0o644))
	assert.Eventually(t, func() bool { return calls.Load() == 2 }, 2*time.Second, 10*time.Millisecond)
}

func TestNew_MissingRoot(t *testing.T) {
	_, err := New(filepath.Join(t.TempDir(), "missing"), Config{}, nil)
	assert.Error(t, err)
}

func TestConfig_Debounce(t *testing.T) {
	assert.Equal(t, 500*time.Millisecond, Config{}.Debounce())
	assert.Equal(t, 20*time.Millisecond, Config{DebounceMs: 20}.Debounce())
}
