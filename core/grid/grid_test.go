package grid_test

import (
	"sync"
	"testing"

	"dem-manager/core/grid"
	"dem-manager/core/raster"
	"dem-manager/core/tile"

	"github.com/paulmach/orb"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeSource struct {
	mu     sync.Mutex
	tiles  map[string]*tile.Tile
	cached []orb.Bound
}

func newFakeSource() *fakeSource {
	return &fakeSource{tiles: map[string]*tile.Tile{}}
}

func (f *fakeSource) Tile(id string) *tile.Tile {
	f.mu.Lock()
	defer f.mu.Unlock()
	t, ok := f.tiles[id]
	if !ok {
		var err error
		t, err = tile.New(id)
		if err != nil {
			panic(err)
		}
		f.tiles[id] = t
	}
	return t
}

func (f *fakeSource) CacheTiles(b orb.Bound) []string {
	f.mu.Lock()
	f.cached = append(f.cached, b)
	f.mu.Unlock()
	ids := grid.CellIDs(b)
	for _, id := range ids {
		f.Tile(id)
	}
	return ids
}

// fill makes every tile valid with a constant elevation.
func (f *fakeSource) fill(values map[string]int16) {
	for id, v := range values {
		data := make([]int16, tile.SRTM3.SampleCount())
		for i := range data {
			data[i] = v
		}
		f.Tile(id).Update(tile.SRTM3, data, tile.StatusValid)
	}
}

func bound(w, s, e, n float64) orb.Bound {
	return orb.Bound{Min: orb.Point{w, s}, Max: orb.Point{e, n}}
}

func TestCellIDs(t *testing.T) {
	tests := []struct {
		name string
		b    orb.Bound
		want []string
	}{
		{name: "Inside", b: bound(7.2, 46.2, 7.8, 46.8), want: []string{"N46E007"}},
		{name: "Span", b: bound(6.5, 45.5, 7.5, 46.5), want: []string{"N45E006", "N45E007", "N46E006", "N46E007"}},
		{name: "Meridian", b: bound(179, 10.2, -179, 10.8), want: []string{"N10E179", "N10W180"}},
		{name: "PoleAndAntimeridianEdge", b: bound(179.5, 89.5, 180, 90), want: []string{"N89E179"}},
		{name: "Point", b: bound(7, 46, 7, 46), want: []string{"N46E007"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, grid.CellIDs(tt.b))
		})
	}
}

func TestNew(t *testing.T) {
	t.Run("SingleTile", func(t *testing.T) {
		src := newFakeSource()
		g := grid.New(src, bound(7.2, 46.2, 7.8, 46.8), tile.SRTM3)

		assert.Equal(t, []string{"N46E007"}, g.TileIDs())
		assert.Equal(t, 1201, g.Height())
		assert.Equal(t, 1201, g.Width())
		assert.InDelta(t, 1.0/1200, g.Step(), 1e-15)
		require.Len(t, src.cached, 1)
		assert.InDelta(t, 7.2-3.0/1200, src.cached[0].Min.Lon(), 1e-12)
		assert.Equal(t, bound(7, 46, 8, 47), g.Rendering())
	})

	t.Run("MarginReachesNeighbours", func(t *testing.T) {
		src := newFakeSource()
		g := grid.New(src, bound(7.0, 46.0, 7.5, 46.5), tile.SRTM3)
		assert.Equal(t, []string{"N45E006", "N45E007", "N46E006", "N46E007"}, g.TileIDs())
		assert.Equal(t, 2401, g.Height())
		assert.Equal(t, 2401, g.Width())
	})

	t.Run("Meridian", func(t *testing.T) {
		src := newFakeSource()
		g := grid.New(src, bound(179.5, 10.2, -179.5, 10.8), tile.SRTM3)
		assert.Equal(t, []string{"N10E179", "N10W180"}, g.TileIDs())
		assert.Equal(t, 2401, g.Width())

		r := g.Rendering()
		assert.True(t, grid.Crosses(r))
		assert.Equal(t, 179.0, r.Min.Lon())
		assert.Equal(t, -179.0, r.Max.Lon())

		assert.Equal(t, 180.0, g.CoordinateAtIndex(0, 1200).Lon())
		assert.InDelta(t, -180+1.0/1200, g.CoordinateAtIndex(0, 1201).Lon(), 1e-9)

		idx := g.RasterIndexBounds(bound(179.5, 10.5, -179.5, 10.5))
		assert.Equal(t, 600, idx.West)
		assert.Equal(t, 1800, idx.East)
		assert.Equal(t, 600, idx.South)
		assert.Equal(t, 600, idx.North)
	})
}

func TestElevationAtIndex(t *testing.T) {
	src := newFakeSource()
	g := grid.New(src, bound(7.0, 46.2, 7.5, 46.8), tile.SRTM3)
	require.Equal(t, []string{"N46E006", "N46E007"}, g.TileIDs())

	assert.Equal(t, tile.Void, g.ElevationAtIndex(0, 0))

	src.fill(map[string]int16{"N46E006": 600, "N46E007": 700})
	assert.Equal(t, int16(600), g.ElevationAtIndex(0, 0))
	assert.Equal(t, int16(600), g.ElevationAtIndex(1200, 1199))
	assert.Equal(t, int16(700), g.ElevationAtIndex(0, 1200))
	// The last column and the northern row resolve to the last tile.
	assert.Equal(t, int16(700), g.ElevationAtIndex(1200, 2400))

	assert.Panics(t, func() { g.ElevationAtIndex(1201, 0) })
	assert.Panics(t, func() { g.ElevationAtIndex(0, -1) })
}

func TestAllTilesCached(t *testing.T) {
	src := newFakeSource()
	g := grid.New(src, bound(7.2, 46.2, 7.8, 46.8), tile.SRTM3)
	tl := src.Tile("N46E007")

	tl.Update(tile.TypeUnknown, nil, tile.StatusReadingScheduled)
	assert.False(t, g.AllTilesCached())

	tl.Update(tile.TypeUnknown, nil, tile.StatusFileMissing)
	assert.True(t, g.AllTilesCached())

	// Memoized.
	tl.Update(tile.TypeUnknown, nil, tile.StatusReadingScheduled)
	assert.True(t, g.AllTilesCached())
}

func TestDetachedTilesNeverSettle(t *testing.T) {
	src := newFakeSource()
	g := grid.New(src, bound(7.2, 46.2, 8.8, 46.8), tile.SRTM3)
	assert.False(t, g.Detached())

	src.fill(map[string]int16{"N46E008": 1})
	src.Tile("N46E007").Detach()

	assert.True(t, g.Detached())
	assert.False(t, g.AllTilesCached())
	assert.False(t, g.Ready(bound(7.3, 46.3, 8.7, 46.7)))
}

func TestCovers(t *testing.T) {
	src := newFakeSource()
	g := grid.New(src, bound(7.2, 46.2, 7.8, 46.8), tile.SRTM3)

	assert.True(t, g.Covers(bound(7.3, 46.3, 7.4, 46.4)))
	assert.True(t, g.Covers(bound(7.2, 46.2, 7.8, 46.8)))
	assert.False(t, g.Covers(bound(7.0, 46.2, 7.8, 46.8)))
	assert.False(t, g.Covers(bound(8.2, 46.2, 8.3, 46.3)))

	mg := grid.New(src, bound(179.5, 10.2, -179.5, 10.8), tile.SRTM3)
	assert.True(t, mg.Covers(bound(179.6, 10.3, -179.6, 10.4)))
	assert.True(t, mg.Covers(bound(-179.8, 10.3, -179.6, 10.4)))
	assert.True(t, mg.Covers(bound(179.2, 10.3, 179.4, 10.4)))
	assert.False(t, mg.Covers(bound(178.5, 10.3, -179.6, 10.4)))
}

func TestIsovalues(t *testing.T) {
	src := newFakeSource()
	g := grid.New(src, bound(7.2, 46.2, 7.8, 46.8), tile.SRTM3)
	all := raster.IndexBounds{South: 0, North: 10, West: 0, East: 10}

	t.Run("NotSettled", func(t *testing.T) {
		assert.Empty(t, g.Isovalues(all, 100, -1000, 9000))
	})

	data := make([]int16, tile.SRTM3.SampleCount())
	for i := range data {
		data[i] = 1000
	}
	// Raise the south-west corner; file rows are north first.
	data[1200*1201] = 1730
	data[1200*1201+1] = -20
	src.Tile("N46E007").Update(tile.SRTM3, data, tile.StatusValid)

	tests := []struct {
		name         string
		step         int
		lower, upper int
		want         []int
	}{
		{name: "Full", step: 500, lower: -1000, upper: 9000, want: []int{-500, 0, 500, 1000, 1500}},
		{name: "Clamped", step: 500, lower: 0, upper: 1200, want: []int{0, 500, 1000}},
		{name: "Inverted", step: 500, lower: 2000, upper: 3000, want: nil},
		{name: "BadStep", step: 0, lower: 0, upper: 1000, want: nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, g.Isovalues(all, tt.step, tt.lower, tt.upper))
		})
	}
}

func TestIsovalues_VoidRegion(t *testing.T) {
	src := newFakeSource()
	g := grid.New(src, bound(7.2, 46.2, 7.8, 46.8), tile.SRTM3)
	src.Tile("N46E007").Update(tile.TypeUnknown, nil, tile.StatusFileMissing)

	assert.Empty(t, g.Isovalues(raster.IndexBounds{South: 0, North: 5, West: 0, East: 5}, 100, -1000, 9000))
}

func TestDerivations(t *testing.T) {
	src := newFakeSource()
	b := bound(7.2, 46.2, 7.3, 46.3)
	g := grid.New(src, b, tile.SRTM3)

	_, ok := g.ElevationRaster(b)
	assert.False(t, ok)
	_, ok = g.ContourLines(b, 100, -1000, 9000)
	assert.False(t, ok)
	_, ok, err := g.Hillshade(b, 45, 315, false)
	require.NoError(t, err)
	assert.False(t, ok)
	_, ok = g.Extremes(b)
	assert.False(t, ok)

	src.fill(map[string]int16{"N46E007": 1234})

	r, ok := g.ElevationRaster(b)
	require.True(t, ok)
	assert.Equal(t, 121, r.Width())
	assert.Equal(t, 121, r.Height())
	assert.Equal(t, int16(1234), r.At(0, 0).Elevation)

	sets, ok := g.ContourLines(b, 100, -1000, 9000)
	require.True(t, ok)
	assert.Zero(t, raster.Count(sets))

	hs, ok, err := g.Hillshade(b, 45, 315, false)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, 121, hs.Image.Bounds().Dx())

	ex, ok := g.Extremes(b)
	require.True(t, ok)
	assert.Equal(t, int16(1234), ex.Lowest)
	assert.Len(t, ex.HighestPoints, 121*121)

	// Outside the grid.
	_, ok = g.ElevationRaster(bound(8.2, 46.2, 8.3, 46.3))
	assert.False(t, ok)
}

func TestWidth(t *testing.T) {
	assert.InDelta(t, 2.0, grid.Width(bound(179, 0, -179, 1)), 1e-12)
	assert.InDelta(t, 0.5, grid.Width(bound(7, 0, 7.5, 1)), 1e-12)
}
