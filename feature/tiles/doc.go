// Package tiles provides the administration endpoints of the tile cache.
//
// # Endpoints
//
//   - GET /tiles: cache counters, settings and cached tiles
//   - DELETE /tiles?status=: drop tiles in a status so they are looked up again
//   - POST /tiles/prefetch?bbox=: schedule every tile of a box
//   - GET /tiles/downloads?status=: download ledger rows
//   - DELETE /tiles/downloads/{id}: forget the ledger rows of a tile
//   - PUT /tiles/settings: cache size, auto download, preferred resolution, interpolation
//
// Settings updates are validated as a whole before any of them is applied.
package tiles
