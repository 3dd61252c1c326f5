package cache

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"sync"

	"tbl-merger/core/codec"

	"go.uber.org/zap"
)

// MergedFileCache maps cache keys to merged artifacts on disk.
//
// The index is guarded by one RWMutex; artifact files are written without it
// and published with an atomic rename. Add is not single-flight: two callers
// that miss on the same key both build and both write, and the last Add wins.
type MergedFileCache struct {
	dir       string
	indexPath string
	retain    uint64
	logger    *zap.Logger

	mu         sync.RWMutex
	entries    map[Key]*Entry
	generation uint64

	persistMu sync.Mutex
}

// Open creates the cache directory if needed and loads the index snapshot.
// A missing or unreadable snapshot yields an empty cache.
func Open(cfg Config, logger *zap.Logger) (*MergedFileCache, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	dir := cfg.Dir
	if dir == "" {
		dir = "cache"
	}
	indexFile := cfg.IndexFile
	if indexFile == "" {
		indexFile = "index.cbor"
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, &CacheIOError{Op: "create", Path: dir, Err: err}
	}

	c := &MergedFileCache{
		dir:        dir,
		indexPath:  filepath.Join(dir, indexFile),
		retain:     uint64(max(cfg.RetainPasses, 0)),
		logger:     logger,
		entries:    make(map[Key]*Entry),
	}
	c.load()
	return c, nil
}

// load restores the index from the snapshot file.
func (c *MergedFileCache) load() {
	data, err := os.ReadFile(c.indexPath)
	if errors.Is(err, fs.ErrNotExist) {
		return
	}
	if err != nil {
		c.logger.Warn("Failed to read cache index, starting empty", zap.String("path", c.indexPath), zap.Error(err))
		return
	}

	var snap snapshot
	if err := codec.Unmarshal(data, &snap); err != nil {
		c.logger.Warn("Corrupt cache index, starting empty", zap.String("path", c.indexPath), zap.Error(err))
		return
	}
	if snap.Version != snapshotVersion {
		c.logger.Warn("Unsupported cache index version, starting empty", zap.Int("version", snap.Version))
		return
	}

	for i := range snap.Entries {
		e := snap.Entries[i]
		c.entries[e.Key] = &e
	}
	if snap.Generation > 0 {
		c.generation = snap.Generation
	}
	c.logger.Debug("Loaded cache index", zap.Int("entries", len(c.entries)), zap.Uint64("generation", c.generation))
}

// Dir returns the cache root directory.
func (c *MergedFileCache) Dir() string {
	return c.dir
}

// Path returns the absolute location of an artifact relative path.
func (c *MergedFileCache) Path(relative string) string {
	return filepath.Join(c.dir, filepath.FromSlash(relative))
}

// Generation returns the generation of the current pass, or of the last one
// started when no pass is running. A fresh cache is at generation 0.
func (c *MergedFileCache) Generation() uint64 {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.generation
}

// TryGet returns the artifact path for key if the recorded sources match
// sources exactly, in order. Any lookup of a known key marks it as used in the
// current pass.
func (c *MergedFileCache) TryGet(key Key, sources []Source) (string, bool) {
	c.mu.Lock()
	e, ok := c.entries[key]
	if !ok {
		c.mu.Unlock()
		return "", false
	}
	e.Generation = c.generation
	match := sourcesEqual(e.Sources, sources)
	relative := e.RelativePath
	c.mu.Unlock()

	if !match {
		return "", false
	}

	full := c.Path(relative)
	if _, err := os.Stat(full); err != nil {
		c.logger.Debug("Cached artifact missing, dropping entry", zap.String("key", string(key)), zap.Error(err))
		c.mu.Lock()
		if cur, ok := c.entries[key]; ok && cur.RelativePath == relative && sourcesEqual(cur.Sources, sources) {
			delete(c.entries, key)
		}
		c.mu.Unlock()
		return "", false
	}
	return full, true
}

// Add writes data as the artifact for key and registers it with sources.
// Repeated adds for a key overwrite the same file.
func (c *MergedFileCache) Add(key Key, sources []Source, data []byte) (Entry, error) {
	relative := relativePath(key)
	full := c.Path(relative)

	if err := writeFileAtomic(full, data); err != nil {
		return Entry{}, &CacheIOError{Op: "write", Path: full, Err: err}
	}

	c.mu.Lock()
	e := &Entry{
		Key:          key,
		RelativePath: relative,
		Sources:      cloneSources(sources),
		Generation:   c.generation,
	}
	c.entries[key] = e
	out := *e
	c.mu.Unlock()

	return out, nil
}

// BeginPass starts a new merge pass and returns its generation. Lookups and
// adds made afterwards mark entries as used in that pass.
func (c *MergedFileCache) BeginPass() uint64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.generation++
	return c.generation
}

// RemoveExpiredItems deletes every entry not used in the current pass or the
// configured number of passes before it, along with its artifact. It does not
// start a new pass, so repeated sweeps remove nothing more. Artifacts that are
// already gone are ignored.
func (c *MergedFileCache) RemoveExpiredItems() int {
	c.mu.Lock()
	defer c.mu.Unlock()

	removed := 0
	for key, e := range c.entries {
		if e.Generation+c.retain >= c.generation {
			continue
		}
		delete(c.entries, key)
		removed++
		c.removeArtifact(e.RelativePath)
	}
	return removed
}

// Clear removes every entry and artifact.
func (c *MergedFileCache) Clear() int {
	c.mu.Lock()
	defer c.mu.Unlock()

	n := len(c.entries)
	for key, e := range c.entries {
		delete(c.entries, key)
		c.removeArtifact(e.RelativePath)
	}
	return n
}

// removeArtifact deletes an artifact. Called with c.mu held.
func (c *MergedFileCache) removeArtifact(relative string) {
	full := c.Path(relative)
	if err := os.Remove(full); err != nil && !errors.Is(err, fs.ErrNotExist) {
		c.logger.Warn("Failed to remove cached artifact", zap.String("path", full), zap.Error(err))
	}
}

// Entries returns a copy of the index sorted by key.
func (c *MergedFileCache) Entries() []Entry {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.entriesLocked()
}

func (c *MergedFileCache) entriesLocked() []Entry {
	out := make([]Entry, 0, len(c.entries))
	for _, e := range c.entries {
		cp := *e
		cp.Sources = append([]Source(nil), e.Sources...)
		out = append(out, cp)
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].Key < out[j].Key
	})
	return out
}

// Persist writes the index snapshot. Safe to call while lookups and adds are
// running; concurrent calls are serialized.
func (c *MergedFileCache) Persist() error {
	c.persistMu.Lock()
	defer c.persistMu.Unlock()

	c.mu.RLock()
	snap := snapshot{Version: snapshotVersion, Generation: c.generation, Entries: c.entriesLocked()}
	c.mu.RUnlock()

	data, err := codec.Marshal(snap)
	if err != nil {
		return &PersistError{Path: c.indexPath, Err: fmt.Errorf("encode: %w", err)}
	}
	if err := writeFileAtomic(c.indexPath, data); err != nil {
		return &PersistError{Path: c.indexPath, Err: err}
	}
	return nil
}

// PersistAsync runs Persist in the background. Failures are logged; the
// returned channel yields the result once and is then closed.
func (c *MergedFileCache) PersistAsync() <-chan error {
	done := make(chan error, 1)
	go func() {
		defer close(done)
		err := c.Persist()
		if err != nil {
			c.logger.Warn("Failed to persist cache index", zap.Error(err))
		}
		done <- err
	}()
	return done
}

// relativePath derives the artifact location from the key, sharded by the
// first two hex characters.
func relativePath(key Key) string {
	k := string(key)
	if len(k) < 2 {
		return k
	}
	return k[:2] + "/" + k
}

func writeFileAtomic(path string, data []byte) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}
	tmp, err := os.CreateTemp(dir, ".tmp-*")
	if err != nil {
		return err
	}
	tmpName := tmp.Name()
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return err
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return err
	}
	if err := os.Rename(tmpName, path); err != nil {
		os.Remove(tmpName)
		return err
	}
	return nil
}
