// Package tilecache provides the size-bounded, thread-safe store of elevation tiles.
//
// Tiles are keyed by their identifier. The cache tracks the aggregate byte size of every
// cached tile and evicts in least-recently-used order (by tile access time) whenever an
// insert or a limit change pushes the aggregate over the configured limit. Placeholder tiles
// without samples weigh nothing and are never evicted.
//
// # Concurrency
//
// A single mutex guards the map and the size counter; an upsert and its eviction pass run in
// the same critical section. Evict hooks run after the lock has been released.
//
// # Usage
//
//	cache := tilecache.New(512<<20, tilecache.WithLogger(log))
//	t, err := cache.Apply("N46E007", tile.EventScheduleRead, tile.TypeUnknown, nil)
package tilecache
