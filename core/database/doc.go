// Package database handles database connections and schema inspection.
//
// It provides a wrapper around GORM (Go Object Relational Mapping) to configure
// MySQL or SQLite connections based on the application's configuration. The database
// backs the tile download ledger (core/ledger) and is optional: the service runs
// without it.
//
// # Connect
//
// Connect establishes a connection for the configured driver and verifies it with a ping
// bounded by TimeoutSeconds.
//
// # Schema Inspection
//
// GetTableColumns lists the columns of a table for both dialects. The ledger uses it to
// detect a table that was created by an incompatible version.
//
// # Usage
//
//	db, err := database.Connect(cfg.Database)
//	if err != nil {
//	    logger.Warn("Download ledger disabled", zap.Error(err))
//	}
//
//	columns, err := database.GetTableColumns(db, "tile_downloads")
package database
