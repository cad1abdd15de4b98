// Package grid stitches neighbouring tiles into one virtual raster.
//
// A Grid covers the whole-degree cells intersecting a requested bounding box grown by a
// margin of three raster steps. Adjacent tiles share their boundary row and column, so a
// grid of R×C tiles exposes (R·(side-1)+1) × (C·(side-1)+1) samples. Global indices count
// rows from the south edge and columns from the west edge of the grid; a grid that crosses
// the ±180° meridian keeps counting eastwards past 180 and reports coordinates folded back
// into [-180, 180].
//
// The sample spacing of a grid follows its resolution type. Tiles of another type are read
// with nearest-neighbour resampling, so SRTM1 and SRTM3 sources can be mixed.
//
// Grids never block. Until every tile reached a terminal status the grid reads as void and
// the derivation methods report not ready.
package grid
