// Package ledger keeps a persistent record of tile downloads.
//
// Every download attempt moves a row in the tile_downloads table through the same
// statuses the cache uses (DOWNLOAD_SCHEDULED, DOWNLOADING, READING_SCHEDULED on success,
// DOWNLOAD_FAILED on failure). One row exists per tile and source; Attempts counts how
// often a transfer was started and LastError keeps the most recent failure.
//
// The ledger is optional. A Ledger built without a database accepts every call and
// records nothing, so callers never need to check whether persistence is configured.
//
// # Usage
//
//	db, _ := database.Connect(cfg.Database)
//	l := ledger.New(db, logger)
//	if err := l.Migrate(ctx); err != nil { ... }
//	l.Record(ctx, "N46E007", "SRTM3", tile.StatusDownloading, nil)
package ledger
