// Package storage provides an abstraction layer for object storage services.
//
// It wraps the MinIO Go client to provide a simplified interface for the read-only operations the
// merger needs: checking bucket access, listing objects and downloading them. Baseline tables can be
// served from a bucket instead of a local extraction directory. This abstraction supports both AWS S3
// and self-hosted MinIO instances.
//
// # Client Interface
//
// The Client interface abstracts the underlying storage provider, making it easier
// to mock storage interactions for unit testing (see core/storage/mocks).
//
// # Operations
//
//   - BucketExists: Verifies access to the target bucket.
//   - ListObjects: Lists objects in a bucket (supports prefix/recursive).
//   - GetObject: Retrieves content as a stream.
//
// # Usage
//
//	client, err := storage.NewClient(config)
//	exists, err := client.BucketExists(ctx, "baselines")
package storage
