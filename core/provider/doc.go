// Package provider is the single entry point for elevation queries.
//
// A Provider owns the tile cache, the single-worker read queue and, when downloads are
// enabled, a tile fetcher. Tile never blocks: a cache miss scans the configured sources in
// resolution preference order and either schedules a read of the local file, schedules a
// download, or records a FILE_MISSING placeholder so the filesystem is not scanned again.
// Data arrives asynchronously; callers poll the returned tile or grid, or register a
// Listener that fires once a grid has settled.
//
// # Locality
//
// The most recently returned tile and the most recently built grid are kept in slots of
// their own, guarded by locks distinct from the cache lock. A grid is reused while it
// covers the requested bounds and is not more than 1.5 times wider or taller than them.
// Evicting or clearing a tile empties the slots that reference it.
//
// # Failures
//
// I/O and queue errors never reach query callers. A failed read leaves the tile
// FILE_INVALID, a failed download DOWNLOAD_FAILED, and a rejected submission removes the
// placeholder so a later query starts over. Missing data reads as void.
//
// # Usage
//
//	p, err := provider.New(cfg.Elevation, source.FromConfig(cfg.Sources),
//	    provider.WithLogger(logger),
//	    provider.WithLedger(ledger.New(db, logger)),
//	    provider.WithFetcher(func() (provider.Fetcher, error) {
//	        return fetch.NewPool(cfg.Fetch, logger, fetch.WithStorage(store)), nil
//	    }),
//	)
//	defer p.Close(ctx)
//
//	sample := p.Elevation(orb.Point{7.5, 46.5})
//	sets, ok := p.ContourLines(bounds, 100, -500, 9000)
package provider
