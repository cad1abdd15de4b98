package raster

import (
	"dem-manager/core/tile"

	"github.com/paulmach/orb"
)

// Accessor reads a stitched raster by global index.
type Accessor interface {
	// ElevationAtIndex returns the sample or tile.Void.
	ElevationAtIndex(latIndex, lonIndex int) int16
	// CoordinateAtIndex returns the location of a sample.
	CoordinateAtIndex(latIndex, lonIndex int) orb.Point
	// Step is the sample spacing in degrees.
	Step() float64
}

// IndexBounds is an inclusive rectangle of raster indices.
type IndexBounds struct {
	South int `json:"south"`
	North int `json:"north"`
	West  int `json:"west"`
	East  int `json:"east"`
}

// Width is the number of columns.
func (b IndexBounds) Width() int { return b.East - b.West + 1 }

// Height is the number of rows.
func (b IndexBounds) Height() int { return b.North - b.South + 1 }

// Empty reports whether the rectangle holds no sample.
func (b IndexBounds) Empty() bool { return b.Width() <= 0 || b.Height() <= 0 }

// Expand grows the rectangle by n samples on every side.
func (b IndexBounds) Expand(n int) IndexBounds {
	return IndexBounds{South: b.South - n, North: b.North + n, West: b.West - n, East: b.East + n}
}

// Point is a located elevation sample.
type Point struct {
	Coordinate orb.Point
	Elevation  int16
}

// Valid reports whether the sample holds data.
func (p Point) Valid() bool { return p.Elevation != tile.Void }

// ElevationRaster exposes the samples of an index rectangle.
type ElevationRaster struct {
	acc    Accessor
	bounds IndexBounds
}

// NewElevationRaster creates a view over bounds.
func NewElevationRaster(acc Accessor, bounds IndexBounds) *ElevationRaster {
	return &ElevationRaster{acc: acc, bounds: bounds}
}

// Bounds returns the global index rectangle of the view.
func (r *ElevationRaster) Bounds() IndexBounds { return r.bounds }

// Width is the number of columns.
func (r *ElevationRaster) Width() int { return r.bounds.Width() }

// Height is the number of rows.
func (r *ElevationRaster) Height() int { return r.bounds.Height() }

// Step is the sample spacing in degrees.
func (r *ElevationRaster) Step() float64 { return r.acc.Step() }

// At returns the sample at a view-relative row (0 = south) and column (0 = west).
func (r *ElevationRaster) At(row, col int) Point {
	i, j := r.bounds.South+row, r.bounds.West+col
	return Point{
		Coordinate: r.acc.CoordinateAtIndex(i, j),
		Elevation:  r.acc.ElevationAtIndex(i, j),
	}
}

// Rows copies the samples into rows ordered south to north.
func (r *ElevationRaster) Rows() [][]int16 {
	rows := make([][]int16, r.Height())
	for row := range rows {
		line := make([]int16, r.Width())
		for col := range line {
			line[col] = r.acc.ElevationAtIndex(r.bounds.South+row, r.bounds.West+col)
		}
		rows[row] = line
	}
	return rows
}

// Extremes holds the lowest and highest samples of a region.
type Extremes struct {
	Lowest        int16
	Highest       int16
	LowestPoints  []orb.Point
	HighestPoints []orb.Point
}

// Valid reports whether the region held at least one sample.
func (e Extremes) Valid() bool { return e.Lowest != tile.Void }

// Range returns the lowest and highest sample of bounds. ok is false when the region
// holds no data.
func Range(acc Accessor, bounds IndexBounds) (lo, hi int16, ok bool) {
	lo, hi = tile.Void, tile.Void
	for i := bounds.South; i <= bounds.North; i++ {
		for j := bounds.West; j <= bounds.East; j++ {
			v := acc.ElevationAtIndex(i, j)
			if v == tile.Void {
				continue
			}
			if !ok {
				lo, hi, ok = v, v, true
				continue
			}
			if v < lo {
				lo = v
			}
			if v > hi {
				hi = v
			}
		}
	}
	return lo, hi, ok
}

// FindExtremes scans bounds once. A region without data reports tile.Void for both extremes.
func FindExtremes(acc Accessor, bounds IndexBounds) Extremes {
	ex := Extremes{Lowest: tile.Void, Highest: tile.Void}
	for i := bounds.South; i <= bounds.North; i++ {
		for j := bounds.West; j <= bounds.East; j++ {
			v := acc.ElevationAtIndex(i, j)
			if v == tile.Void {
				continue
			}
			if ex.Lowest == tile.Void {
				p := acc.CoordinateAtIndex(i, j)
				ex.Lowest, ex.Highest = v, v
				ex.LowestPoints = []orb.Point{p}
				ex.HighestPoints = []orb.Point{p}
				continue
			}
			switch {
			case v < ex.Lowest:
				ex.Lowest = v
				ex.LowestPoints = []orb.Point{acc.CoordinateAtIndex(i, j)}
			case v == ex.Lowest:
				ex.LowestPoints = append(ex.LowestPoints, acc.CoordinateAtIndex(i, j))
			}
			switch {
			case v > ex.Highest:
				ex.Highest = v
				ex.HighestPoints = []orb.Point{acc.CoordinateAtIndex(i, j)}
			case v == ex.Highest:
				ex.HighestPoints = append(ex.HighestPoints, acc.CoordinateAtIndex(i, j))
			}
		}
	}
	return ex
}
