// Package storage provides an abstraction layer for object storage services.
//
// It wraps the MinIO Go client so that elevation tiles can be mirrored from an S3 bucket
// (AWS S3 or a self-hosted MinIO instance). Sources whose download URL has the form
// s3://bucket/prefix are fetched through this client.
//
// # Client Interface
//
// The Client interface abstracts the underlying storage provider, making it easier
// to mock storage interactions for unit testing (as seen in core/storage/mocks).
//
// # Operations
//
//   - BucketExists: Verifies access to the tile bucket.
//   - GetObject: Retrieves a tile archive as a stream.
//   - ListObjects: Lists the tiles available under a prefix.
//
// # Usage
//
//	client, err := storage.NewClient(config)
//	exists, err := client.BucketExists(ctx, "dem")
package storage
