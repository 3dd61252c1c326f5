package watch

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"
)

// Config holds configuration for watch mode.
type Config struct {
	// DebounceMs is how long the tree must stay quiet before a change fires.
	DebounceMs int `mapstructure:"debounce_ms" default:"500"`
}

// Debounce returns the configured quiet period.
func (c Config) Debounce() time.Duration {
	if c.DebounceMs <= 0 {
		return 500 * time.Millisecond
	}
	return time.Duration(c.DebounceMs) * time.Millisecond
}

// Watcher reports changes anywhere under a directory tree, coalescing bursts
// of events into one notification.
type Watcher struct {
	root     string
	debounce time.Duration
	watcher  *fsnotify.Watcher
	logger   *zap.Logger
}

// New watches root and every directory below it.
func New(root string, cfg Config, logger *zap.Logger) (*Watcher, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("failed to create watcher: %w", err)
	}
	w := &Watcher{root: root, debounce: cfg.Debounce(), watcher: fw, logger: logger}
	if err := w.addTree(root); err != nil {
		fw.Close()
		return nil, err
	}
	return w, nil
}

// addTree watches dir and its subdirectories.
func (w *Watcher) addTree(dir string) error {
	return filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() {
			return nil
		}
		if err := w.watcher.Add(path); err != nil {
			return fmt.Errorf("failed to watch %s: %w", path, err)
		}
		return nil
	})
}

// Run calls onChange after each burst of changes until ctx is cancelled.
// Calls are sequential; changes that arrive while onChange runs produce one
// more call afterwards.
func (w *Watcher) Run(ctx context.Context, onChange func(ctx context.Context)) error {
	defer w.watcher.Close()

	var (
		timer   *time.Timer
		pending <-chan time.Time
	)
	for {
		select {
		case <-ctx.Done():
			if timer != nil {
				timer.Stop()
			}
			return nil

		case ev, ok := <-w.watcher.Events:
			if !ok {
				return errors.New("watcher closed")
			}
			if ev.Has(fsnotify.Chmod) && !ev.Has(fsnotify.Write) {
				continue
			}
			if ev.Has(fsnotify.Create) {
				if info, err := os.Stat(ev.Name); err == nil && info.IsDir() {
					if err := w.addTree(ev.Name); err != nil {
						w.logger.Warn("Failed to watch new directory", zap.String("path", ev.Name), zap.Error(err))
					}
				}
			}
			w.logger.Debug("Change detected", zap.String("path", ev.Name), zap.String("op", ev.Op.String()))
			if timer == nil {
				timer = time.NewTimer(w.debounce)
			} else {
				timer.Reset(w.debounce)
			}
			pending = timer.C

		case err, ok := <-w.watcher.Errors:
			if !ok {
				return errors.New("watcher closed")
			}
			w.logger.Warn("Watcher error", zap.Error(err))

		case <-pending:
			pending = nil
			onChange(ctx)
		}
	}
}
