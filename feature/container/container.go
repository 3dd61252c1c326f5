package container

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sync"

	"tbl-merger/core/tbl"
)

// ErrNotFound is returned when no container holds a requested table.
var ErrNotFound = errors.New("table not found in any container")

// Container is a read-only source of baseline tables.
type Container interface {
	// ID identifies the container in logs and reports.
	ID() string
	// Has reports whether the container holds path.
	Has(ctx context.Context, path tbl.LogicalPath) (bool, error)
	// Read returns the bytes stored at path.
	Read(ctx context.Context, path tbl.LogicalPath) ([]byte, error)
}

// DirContainer serves tables from a directory holding an extracted archive.
// Paths are matched case-insensitively; the directory is indexed on first use.
type DirContainer struct {
	root string

	once  sync.Once
	index map[tbl.LogicalPath]string
	err   error
}

// NewDirContainer creates a container rooted at root.
func NewDirContainer(root string) *DirContainer {
	return &DirContainer{root: root}
}

// ID returns the container root.
func (d *DirContainer) ID() string {
	return d.root
}

func (d *DirContainer) buildIndex() {
	d.index = make(map[tbl.LogicalPath]string)
	d.err = filepath.WalkDir(d.root, func(path string, entry fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if entry.IsDir() {
			return nil
		}
		rel, err := filepath.Rel(d.root, path)
		if err != nil {
			return err
		}
		d.index[tbl.NormalizePath(filepath.ToSlash(rel))] = path
		return nil
	})
	if d.err != nil {
		d.err = fmt.Errorf("index container %s: %w", d.root, d.err)
	}
}

// Has reports whether the directory holds path.
func (d *DirContainer) Has(_ context.Context, path tbl.LogicalPath) (bool, error) {
	d.once.Do(d.buildIndex)
	if d.err != nil {
		return false, d.err
	}
	_, ok := d.index[path]
	return ok, nil
}

// Read returns the file stored at path.
func (d *DirContainer) Read(ctx context.Context, path tbl.LogicalPath) ([]byte, error) {
	ok, err := d.Has(ctx, path)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, fmt.Errorf("%s in %s: %w", path, d.root, ErrNotFound)
	}
	return os.ReadFile(d.index[path])
}
