// Package reconcile compares the three views of an elevation source: the tile files in
// its local directory, the tiles its s3:// download location lists, and the rows of the
// download ledger.
//
// # Architecture
//
//  1. Indexer: loads each view (TileIndexer reads the directory, lists the bucket through
//     the storage client and reads the ledger).
//  2. Engine: builds the union of tile ids and a Result per tile.
//  3. Cache: TTL-based index cache per source with stampede protection.
//  4. Plan: turns results into repairs. Tiles listed remotely but missing locally are
//     downloaded; ledger rows contradicted by the directory are forgotten.
//
// Sources downloading over plain HTTP cannot be listed; their plans report
// RemoteListed=false and never contain downloads.
//
// # Usage Example
//
//	r := reconcile.New(reconcile.TileIndexer{Client: store, Ledger: l}, time.Minute)
//	plan, err := r.ReconcileWithPlan(ctx, src, reconcile.Options{Download: true, Forget: true})
//	executed, err := r.ApplyPlan(ctx, src, plan, opts, executor)
package reconcile
