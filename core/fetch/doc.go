// Package fetch downloads missing elevation tiles in the background.
//
// A Pool runs a fixed number of download workers fed by a bounded queue. Fetch never blocks:
// when the queue is full or the pool is closed it returns ErrRejected and the caller decides
// what to do with the tile.
//
// # Transports
//
// The transport is chosen from the scheme of the source's download URL:
//
//   - http:// and https:// are fetched with a plain GET of <url>/<id>.hgt.zip.
//   - s3://bucket/prefix is fetched through core/storage, so the same code serves AWS S3
//     and self-hosted MinIO mirrors.
//
// Archives are written to a temporary file in the source directory and renamed into place,
// so readers never observe a partial file.
//
// # Listener
//
// Progress is reported through the Listener passed to Fetch. Callbacks run on the worker
// goroutine and must not block for long. Concurrent requests for the same tile and source
// share one transfer.
package fetch
