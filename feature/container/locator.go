package container

import (
	"context"
	"fmt"

	"tbl-merger/core/storage"
	"tbl-merger/core/tbl"

	"go.uber.org/zap"
)

// Config lists the containers searched for baseline tables, in order.
type Config struct {
	// Dirs are extracted archive directories.
	Dirs []string `mapstructure:"dirs" default:""`
	// BucketPrefixes are prefixes inside the storage bucket, searched after Dirs.
	BucketPrefixes []string `mapstructure:"bucket_prefixes" default:""`
}

// Locator searches an ordered list of containers and returns the first one
// holding a table.
type Locator struct {
	containers []Container
	logger     *zap.Logger
}

// NewLocator creates a locator over containers, searched in the given order.
func NewLocator(logger *zap.Logger, containers ...Container) *Locator {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Locator{containers: containers, logger: logger}
}

// Containers returns the searched containers in order.
func (l *Locator) Containers() []Container {
	return append([]Container(nil), l.containers...)
}

// Locate returns the first container holding path. A container that fails to
// answer is logged and skipped.
func (l *Locator) Locate(ctx context.Context, path tbl.LogicalPath) (Container, error) {
	for _, c := range l.containers {
		ok, err := c.Has(ctx, path)
		if err != nil {
			l.logger.Warn("Container lookup failed", zap.String("container", c.ID()), zap.String("logical_path", string(path)), zap.Error(err))
			continue
		}
		if ok {
			return c, nil
		}
	}
	return nil, fmt.Errorf("%s: %w", path, ErrNotFound)
}

// FindBaseline returns the identity of the first container holding path and
// the table bytes.
func (l *Locator) FindBaseline(ctx context.Context, path tbl.LogicalPath) (string, []byte, error) {
	c, err := l.Locate(ctx, path)
	if err != nil {
		return "", nil, err
	}
	data, err := c.Read(ctx, path)
	if err != nil {
		return "", nil, fmt.Errorf("read %s from %s: %w", path, c.ID(), err)
	}
	return c.ID(), data, nil
}

// Build creates a locator from configuration. Directories are searched first,
// then bucket prefixes; bucket prefixes are ignored when client is nil.
func Build(ctx context.Context, cfg Config, client storage.Client, bucket string, logger *zap.Logger) (*Locator, error) {
	var containers []Container
	for _, dir := range cfg.Dirs {
		if dir == "" {
			continue
		}
		containers = append(containers, NewDirContainer(dir))
	}
	if client != nil {
		for _, prefix := range cfg.BucketPrefixes {
			bc, err := NewBucketContainer(ctx, client, bucket, prefix)
			if err != nil {
				return nil, err
			}
			containers = append(containers, bc)
		}
	}
	return NewLocator(logger, containers...), nil
}
