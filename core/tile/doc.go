// Package tile models a single one-degree cell of SRTM elevation samples.
//
// A Tile is identified by the signed integer latitude/longitude of its south-west corner,
// encoded as "[N|S]dd[E|W]ddd" (for example "N46E007"). It carries its resolution Type,
// its load Status and, once valid, a flat slice of signed 16-bit samples.
//
// # Orientation
//
// Samples are stored in file order: rows run north to south and columns west to east.
// Every index accepted by this package counts rows from the SOUTH edge instead, so latIndex 0
// is the southern row of the tile. The conversion happens in a single place (Tile.ElevationAt).
//
// # State Machine
//
// The legal status transitions live in Status.Transition. Callers drive a tile through
// events rather than assigning statuses directly:
//
//	READING_SCHEDULED -> READING -> VALID | FILE_INVALID
//	DOWNLOAD_SCHEDULED -> DOWNLOADING -> READING_SCHEDULED | DOWNLOAD_FAILED
//	(new) -> FILE_MISSING
//
// # Concurrency
//
// Each Tile guards its type, data, status and access time with its own lock, so a background
// reader can replace a tile's contents without holding any cache-wide lock.
package tile
