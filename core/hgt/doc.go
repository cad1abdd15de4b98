// Package hgt reads SRTM height files.
//
// An HGT file is a square grid of big-endian signed 16-bit samples stored row by row from
// north to south, west to east. Files may be plain (N46E007.hgt) or zipped
// (N46E007.hgt.zip, N46E007.SRTMGL1.hgt.zip); zipped files hold a single entry.
//
// # Usage
//
//	path, ok := hgt.Locate(dir, "N46E007", tile.SRTM3)
//	samples, err := hgt.Reader{}.ReadTile(path, tile.SRTM3)
package hgt
