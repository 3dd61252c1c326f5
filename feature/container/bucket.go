package container

import (
	"context"
	"fmt"
	"io"
	"strings"
	"sync"

	"tbl-merger/core/storage"
	"tbl-merger/core/tbl"

	"github.com/minio/minio-go/v7"
)

// BucketContainer serves tables stored under a prefix of an object-storage
// bucket. The prefix is listed once, on first use.
type BucketContainer struct {
	client storage.Client
	bucket string
	prefix string

	mu      sync.Mutex
	indexed bool
	index   map[tbl.LogicalPath]string
}

// NewBucketContainer verifies the bucket is reachable and returns a container
// over bucket/prefix.
func NewBucketContainer(ctx context.Context, client storage.Client, bucket, prefix string) (*BucketContainer, error) {
	exists, err := client.BucketExists(ctx, bucket)
	if err != nil {
		return nil, fmt.Errorf("check bucket %s: %w", bucket, err)
	}
	if !exists {
		return nil, fmt.Errorf("bucket %s does not exist", bucket)
	}

	prefix = strings.Trim(prefix, "/")
	if prefix != "" {
		prefix += "/"
	}
	return &BucketContainer{client: client, bucket: bucket, prefix: prefix}, nil
}

// ID returns the container location as bucket/prefix.
func (b *BucketContainer) ID() string {
	return b.bucket + "/" + b.prefix
}

// load lists the prefix. A failed listing is retried on the next call.
func (b *BucketContainer) load(ctx context.Context) (map[tbl.LogicalPath]string, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.indexed {
		return b.index, nil
	}

	index := make(map[tbl.LogicalPath]string)
	for obj := range b.client.ListObjects(ctx, b.bucket, minio.ListObjectsOptions{Prefix: b.prefix, Recursive: true}) {
		if obj.Err != nil {
			return nil, fmt.Errorf("list %s: %w", b.ID(), obj.Err)
		}
		if strings.HasSuffix(obj.Key, "/") {
			continue
		}
		index[tbl.NormalizePath(strings.TrimPrefix(obj.Key, b.prefix))] = obj.Key
	}

	b.index = index
	b.indexed = true
	return index, nil
}

// Has reports whether the bucket prefix holds path.
func (b *BucketContainer) Has(ctx context.Context, path tbl.LogicalPath) (bool, error) {
	index, err := b.load(ctx)
	if err != nil {
		return false, err
	}
	_, ok := index[path]
	return ok, nil
}

// Read downloads the object stored at path.
func (b *BucketContainer) Read(ctx context.Context, path tbl.LogicalPath) ([]byte, error) {
	index, err := b.load(ctx)
	if err != nil {
		return nil, err
	}
	key, ok := index[path]
	if !ok {
		return nil, fmt.Errorf("%s in %s: %w", path, b.ID(), ErrNotFound)
	}

	obj, err := b.client.GetObject(ctx, b.bucket, key, minio.GetObjectOptions{})
	if err != nil {
		return nil, fmt.Errorf("get %s: %w", key, err)
	}
	defer obj.Close()

	data, err := io.ReadAll(obj)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", key, err)
	}
	return data, nil
}
