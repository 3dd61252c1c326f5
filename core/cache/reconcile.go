package cache

import (
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"sort"

	"go.uber.org/zap"
)

// ReconcilePlan lists where the index and the cache directory disagree.
type ReconcilePlan struct {
	// Orphans are files under the cache directory that no entry refers to,
	// relative to the directory. Leftover temp files from interrupted writes
	// land here too.
	Orphans []string `json:"orphans"`
	// Missing are entries whose artifact no longer exists.
	Missing []Key `json:"missing"`
}

// Empty reports whether the index and the directory agree.
func (p *ReconcilePlan) Empty() bool {
	return len(p.Orphans) == 0 && len(p.Missing) == 0
}

// Reconcile compares the index with the files on disk. It does not change
// anything; use ApplyPlan for that. Must not run during a merge pass, since
// in-flight writes look like orphans.
func (c *MergedFileCache) Reconcile() (*ReconcilePlan, error) {
	c.mu.RLock()
	referenced := make(map[string]Key, len(c.entries))
	for key, e := range c.entries {
		referenced[filepath.FromSlash(e.RelativePath)] = key
	}
	c.mu.RUnlock()

	plan := &ReconcilePlan{}
	seen := make(map[string]struct{}, len(referenced))
	err := filepath.WalkDir(c.dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() || path == c.indexPath {
			return nil
		}
		rel, err := filepath.Rel(c.dir, path)
		if err != nil {
			return err
		}
		if _, ok := referenced[rel]; ok {
			seen[rel] = struct{}{}
			return nil
		}
		plan.Orphans = append(plan.Orphans, filepath.ToSlash(rel))
		return nil
	})
	if err != nil {
		return nil, &CacheIOError{Op: "scan", Path: c.dir, Err: err}
	}

	for rel, key := range referenced {
		if _, ok := seen[rel]; !ok {
			plan.Missing = append(plan.Missing, key)
		}
	}
	sort.Strings(plan.Orphans)
	sort.Slice(plan.Missing, func(i, j int) bool { return plan.Missing[i] < plan.Missing[j] })
	return plan, nil
}

// ApplyPlan deletes orphan files and drops entries whose artifact is missing.
// Items that changed since the plan was made are left alone. It returns the
// number of fixes made.
func (c *MergedFileCache) ApplyPlan(plan *ReconcilePlan) (int, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	referenced := make(map[string]struct{}, len(c.entries))
	for _, e := range c.entries {
		referenced[e.RelativePath] = struct{}{}
	}

	fixed := 0
	var errs []error
	for _, rel := range plan.Orphans {
		if _, ok := referenced[rel]; ok {
			continue
		}
		full := c.Path(rel)
		if err := os.Remove(full); err != nil {
			if !errors.Is(err, fs.ErrNotExist) {
				errs = append(errs, &CacheIOError{Op: "remove", Path: full, Err: err})
			}
			continue
		}
		fixed++
	}

	for _, key := range plan.Missing {
		e, ok := c.entries[key]
		if !ok {
			continue
		}
		if _, err := os.Stat(c.Path(e.RelativePath)); err == nil {
			continue
		}
		delete(c.entries, key)
		fixed++
	}

	if fixed > 0 {
		c.logger.Info("Cache reconciled", zap.Int("fixed", fixed))
	}
	return fixed, errors.Join(errs...)
}
