// Package elevation exposes the elevation queries of the tile provider over HTTP.
//
// # Endpoints
//
//   - GET /elevation?lat=&lon=: point elevation with the configured interpolation
//   - GET /elevation/raster?bbox=: raw samples, void samples as null
//   - GET /elevation/contours?bbox=&step=&lower=&upper=: GeoJSON isolines
//   - GET /elevation/hillshade?bbox=&altitude=&azimuth=&perimeter=&width=: PNG relief
//   - GET /elevation/extremes?bbox=: lowest and highest points
//
// Bounding boxes are "west,south,east,north"; a west edge greater than the east edge
// crosses the 180° meridian.
//
// # Pending Data
//
// Raster queries never block on tile I/O. While the tiles of a box are loading or
// downloading the endpoints answer 202 with {"status":"pending"}; clients retry until
// they receive 200.
package elevation
