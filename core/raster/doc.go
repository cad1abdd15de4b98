// Package raster derives renderable products from a stitched elevation raster.
//
// All functions read samples through an Accessor, which addresses the raster by global
// indices: rows count from south to north and columns from west to east. An IndexBounds
// selects the inclusive index rectangle a product is computed for.
//
// # Products
//
//   - ElevationRaster: a thin view exposing (row, column) → (coordinate, elevation).
//   - Contours: isolines extracted with marching squares. A corner counts as "above" an
//     isovalue when its elevation is >= the isovalue. The two ambiguous saddle
//     configurations are resolved by comparing the average of the four corners with the
//     isovalue. Cells touching a void sample are skipped and zero length segments are
//     dropped. Segments are unordered.
//   - Hillshade: shaded relief using Horn's 3×3 gradient. The sun altitude is measured
//     from the horizon and the azimuth clockwise from north. Cells with a void neighbour
//     are transparent. Image row 0 is the northernmost row.
//   - FindExtremes: lowest and highest elevation with every point tied at each extreme.
//
// Void samples (tile.Void) never take part in arithmetic.
package raster
