package grid

import (
	"fmt"
	"math"
	"sync/atomic"

	"dem-manager/core/raster"
	"dem-manager/core/tile"

	"github.com/paulmach/orb"
)

// MarginSteps is the number of raster steps added around a requested box.
const MarginSteps = 3

// TileSource supplies the tiles of a grid.
type TileSource interface {
	// Tile returns the tile for id, scheduling its load when needed. Never nil.
	Tile(id string) *tile.Tile
	// CacheTiles schedules every tile intersecting b without waiting.
	CacheTiles(b orb.Bound) []string
}

// Grid is a rectangular arrangement of tiles.
type Grid struct {
	nominal orb.Bound
	typ     tile.Type
	side    int

	latMin, lonMin int
	rows, cols     int
	tiles          [][]*tile.Tile // [row][col], row 0 is the southern row

	settled atomic.Bool
}

// cellRange is the whole-degree cell range covering a box.
type cellRange struct {
	latMin, latMax int
	lonMin         int
	cols           int
}

// Margin returns the margin in degrees for a resolution.
func Margin(typ tile.Type) float64 {
	return MarginSteps / float64(typ.SideLength()-1)
}

// Crosses reports whether b crosses the ±180° meridian.
func Crosses(b orb.Bound) bool {
	return b.Min.Lon() > b.Max.Lon()
}

// Expand grows b by margin degrees, clamped to the globe. The meridian flag of b is kept.
func Expand(b orb.Bound, margin float64) orb.Bound {
	s := math.Max(-90, b.Min.Lat()-margin)
	n := math.Min(90, b.Max.Lat()+margin)
	w, e := b.Min.Lon()-margin, b.Max.Lon()+margin
	if Crosses(b) {
		w = math.Min(180, w)
		e = math.Max(-180, e)
	} else {
		w = math.Max(-180, w)
		e = math.Min(180, e)
	}
	return orb.Bound{Min: orb.Point{w, s}, Max: orb.Point{e, n}}
}

func clampInt(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

func lastCell(v float64, lo, hi int) int {
	return clampInt(int(math.Ceil(v))-1, lo, hi)
}

// rangeFor returns the cells intersecting an expanded box.
func rangeFor(e orb.Bound) cellRange {
	r := cellRange{
		latMin: clampInt(int(math.Floor(e.Min.Lat())), -90, 89),
		latMax: lastCell(e.Max.Lat(), -90, 89),
		lonMin: clampInt(int(math.Floor(e.Min.Lon())), -180, 179),
	}
	if r.latMax < r.latMin {
		r.latMax = r.latMin
	}
	lonMax := lastCell(e.Max.Lon(), -180, 179)
	if Crosses(e) {
		r.cols = (179 - r.lonMin + 1) + (lonMax + 180 + 1)
	} else {
		if lonMax < r.lonMin {
			lonMax = r.lonMin
		}
		r.cols = lonMax - r.lonMin + 1
	}
	return r
}

// wrapLon folds a whole-degree longitude into [-180, 179].
func wrapLon(lon int) int {
	return ((lon+180)%360+360)%360 - 180
}

// CellIDs returns the ids of every tile intersecting b, ordered south to north, then west
// to east. A box crossing the meridian yields the cells up to E179 followed by those from
// W180.
func CellIDs(b orb.Bound) []string {
	r := rangeFor(b)
	ids := make([]string, 0, (r.latMax-r.latMin+1)*r.cols)
	for lat := r.latMin; lat <= r.latMax; lat++ {
		for c := 0; c < r.cols; c++ {
			ids = append(ids, tile.FormatID(lat, wrapLon(r.lonMin+c)))
		}
	}
	return ids
}

// New builds a grid of typ resolution covering b. Tiles are requested from src and may
// still be loading when New returns.
func New(src TileSource, b orb.Bound, typ tile.Type) *Grid {
	if typ.SideLength() == 0 {
		panic(fmt.Sprintf("grid: unsupported tile type %v", typ))
	}
	expanded := Expand(b, Margin(typ))
	r := rangeFor(expanded)

	g := &Grid{
		nominal: b,
		typ:     typ,
		side:    typ.SideLength(),
		latMin:  r.latMin,
		lonMin:  r.lonMin,
		rows:    r.latMax - r.latMin + 1,
		cols:    r.cols,
	}

	src.CacheTiles(expanded)

	g.tiles = make([][]*tile.Tile, g.rows)
	for row := range g.tiles {
		g.tiles[row] = make([]*tile.Tile, g.cols)
		for col := range g.tiles[row] {
			g.tiles[row][col] = src.Tile(tile.FormatID(g.latMin+row, wrapLon(g.lonMin+col)))
		}
	}
	return g
}

// Type returns the resolution of the raster.
func (g *Grid) Type() tile.Type { return g.typ }

// Nominal returns the requested bounds.
func (g *Grid) Nominal() orb.Bound { return g.nominal }

// Rendering returns the whole-degree bounds covered by the tiles.
func (g *Grid) Rendering() orb.Bound {
	e := float64(wrapLon(g.lonMin+g.cols-1) + 1)
	return orb.Bound{
		Min: orb.Point{float64(g.lonMin), float64(g.latMin)},
		Max: orb.Point{e, float64(g.latMin + g.rows)},
	}
}

// NominalWidth is the longitudinal extent of the requested bounds in degrees.
func (g *Grid) NominalWidth() float64 { return Width(g.nominal) }

// NominalHeight is the latitudinal extent of the requested bounds in degrees.
func (g *Grid) NominalHeight() float64 { return g.nominal.Max.Lat() - g.nominal.Min.Lat() }

// Width is the longitudinal extent of b in degrees, across the meridian when b crosses it.
func Width(b orb.Bound) float64 {
	w := b.Max.Lon() - b.Min.Lon()
	if Crosses(b) {
		w += 360
	}
	return w
}

// TileIDs lists the tiles of the grid, south to north then west to east.
func (g *Grid) TileIDs() []string {
	ids := make([]string, 0, g.rows*g.cols)
	for _, row := range g.tiles {
		for _, t := range row {
			ids = append(ids, t.ID())
		}
	}
	return ids
}

// HasTile reports whether id is part of the grid.
func (g *Grid) HasTile(id string) bool {
	for _, row := range g.tiles {
		for _, t := range row {
			if t.ID() == id {
				return true
			}
		}
	}
	return false
}

// Height is the number of raster rows.
func (g *Grid) Height() int { return g.rows*(g.side-1) + 1 }

// Width is the number of raster columns.
func (g *Grid) Width() int { return g.cols*(g.side-1) + 1 }

// Step is the sample spacing in degrees.
func (g *Grid) Step() float64 { return 1 / float64(g.side-1) }

// AllTilesCached reports whether every tile reached a terminal status. Detached tiles never
// count as settled. Once true it stays true for the lifetime of the grid.
func (g *Grid) AllTilesCached() bool {
	if g.settled.Load() {
		return true
	}
	for _, row := range g.tiles {
		for _, t := range row {
			if t.Detached() || !t.Status().IsTerminal() {
				return false
			}
		}
	}
	g.settled.Store(true)
	return true
}

// Detached reports whether the grid holds a tile whose load was never scheduled. Such a
// grid must be rebuilt to retry it.
func (g *Grid) Detached() bool {
	for _, row := range g.tiles {
		for _, t := range row {
			if t.Detached() {
				return true
			}
		}
	}
	return false
}

// Covers reports whether b and its margin lie inside the tiles of the grid.
func (g *Grid) Covers(b orb.Bound) bool {
	r := rangeFor(Expand(b, Margin(g.typ)))
	if r.latMin < g.latMin || r.latMax > g.latMin+g.rows-1 {
		return false
	}
	offset := ((r.lonMin-g.lonMin)%360 + 360) % 360
	return offset+r.cols <= g.cols
}

// Ready reports whether derivations for b can run now.
func (g *Grid) Ready(b orb.Bound) bool {
	return g.AllTilesCached() && g.Covers(b)
}

// Touch refreshes the access time of every tile.
func (g *Grid) Touch() {
	for _, row := range g.tiles {
		for _, t := range row {
			t.Touch()
		}
	}
}

func (g *Grid) checkIndex(latIndex, lonIndex int) {
	if latIndex < 0 || latIndex >= g.Height() || lonIndex < 0 || lonIndex >= g.Width() {
		panic(fmt.Sprintf("grid: index (%d,%d) outside %dx%d", latIndex, lonIndex, g.Height(), g.Width()))
	}
}

// split turns a global index into a tile position and a tile-local index. The shared
// boundary after the last tile belongs to that tile.
func (g *Grid) split(index, count int) (int, int) {
	n := g.side - 1
	cell, local := index/n, index%n
	if cell == count {
		cell, local = count-1, n
	}
	return cell, local
}

// ElevationAtIndex returns the sample at a global index, or tile.Void while tiles are
// still loading.
func (g *Grid) ElevationAtIndex(latIndex, lonIndex int) int16 {
	g.checkIndex(latIndex, lonIndex)
	if !g.AllTilesCached() {
		return tile.Void
	}
	row, i := g.split(latIndex, g.rows)
	col, j := g.split(lonIndex, g.cols)
	return g.tiles[row][col].ElevationAtResolution(i, j, g.side)
}

// CoordinateAtIndex returns the location of a global index.
func (g *Grid) CoordinateAtIndex(latIndex, lonIndex int) orb.Point {
	g.checkIndex(latIndex, lonIndex)
	n := float64(g.side - 1)
	lat := float64(g.latMin) + float64(latIndex)/n
	lon := float64(g.lonMin) + float64(lonIndex)/n
	if lon > 180 {
		lon -= 360
	}
	return orb.Point{lon, lat}
}

// unwrap moves a longitude east of the meridian when the grid continues past 180.
func (g *Grid) unwrap(lon float64) float64 {
	if lon < float64(g.lonMin) {
		return lon + 360
	}
	return lon
}

func (g *Grid) index(coord float64, origin int, size int) int {
	return clampInt(int(math.Round((coord-float64(origin))*float64(g.side-1))), 0, size-1)
}

// RasterIndexBounds maps b to the global indices of its nearest samples.
func (g *Grid) RasterIndexBounds(b orb.Bound) raster.IndexBounds {
	return raster.IndexBounds{
		South: g.index(b.Min.Lat(), g.latMin, g.Height()),
		North: g.index(b.Max.Lat(), g.latMin, g.Height()),
		West:  g.index(g.unwrap(b.Min.Lon()), g.lonMin, g.Width()),
		East:  g.index(g.unwrap(b.Max.Lon()), g.lonMin, g.Width()),
	}
}

// clip limits bounds to the raster.
func (g *Grid) clip(b raster.IndexBounds) raster.IndexBounds {
	return raster.IndexBounds{
		South: clampInt(b.South, 0, g.Height()-1),
		North: clampInt(b.North, 0, g.Height()-1),
		West:  clampInt(b.West, 0, g.Width()-1),
		East:  clampInt(b.East, 0, g.Width()-1),
	}
}

// Isovalues returns the multiples of step between the lowest and highest sample of bounds,
// limited to [lower, upper]. A region without data yields no isovalue.
func (g *Grid) Isovalues(bounds raster.IndexBounds, step, lower, upper int) []int {
	if step <= 0 {
		return nil
	}
	low, high, ok := raster.Range(g, bounds)
	if !ok {
		return nil
	}
	lo := max(int(low), lower)
	hi := min(int(high), upper)
	if lo > hi {
		return nil
	}
	var out []int
	for v := floorTo(lo, step); v <= floorTo(hi, step); v += step {
		out = append(out, v)
	}
	return out
}

func floorTo(v, step int) int {
	q := v / step
	if v%step != 0 && v < 0 {
		q--
	}
	return q * step
}

// ElevationRaster returns the samples of b.
func (g *Grid) ElevationRaster(b orb.Bound) (*raster.ElevationRaster, bool) {
	if !g.Ready(b) {
		return nil, false
	}
	g.Touch()
	return raster.NewElevationRaster(g, g.RasterIndexBounds(b)), true
}

// ContourLines extracts isolines at multiples of step over b and one extra sample around
// it, so lines reach the edge of b.
func (g *Grid) ContourLines(b orb.Bound, step, lower, upper int) ([]raster.ContourSet, bool) {
	if !g.Ready(b) {
		return nil, false
	}
	g.Touch()
	nominal := g.RasterIndexBounds(b)
	rendering := g.clip(nominal.Expand(1))
	return raster.Contours(g, rendering, g.Isovalues(nominal, step, lower, upper)), true
}

// Hillshade shades b. The neighbourhood of the edge samples comes from the margin.
func (g *Grid) Hillshade(b orb.Bound, altitude, azimuth float64, withPerimeter bool) (*raster.HillshadeImage, bool, error) {
	if !g.Ready(b) {
		return nil, false, nil
	}
	g.Touch()
	img, err := raster.Hillshade(g, g.clip(g.RasterIndexBounds(b).Expand(1)), altitude, azimuth, withPerimeter)
	if err != nil {
		return nil, false, err
	}
	return img, true, nil
}

// Extremes returns the lowest and highest points of b.
func (g *Grid) Extremes(b orb.Bound) (raster.Extremes, bool) {
	if !g.Ready(b) {
		return raster.Extremes{}, false
	}
	g.Touch()
	return raster.FindExtremes(g, g.RasterIndexBounds(b)), true
}
