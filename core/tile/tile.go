package tile

import (
	"fmt"
	"math"
	"sync"
	"sync/atomic"

	"github.com/paulmach/orb"
)

// Void marks a sample without elevation data.
const Void int16 = math.MinInt16

// accessClock hands out strictly increasing access stamps shared by all tiles.
var accessClock atomic.Int64

func nextAccess() int64 {
	return accessClock.Add(1)
}

// Sample is an elevation query result.
type Sample struct {
	// Coordinate is the location the elevation belongs to. With nearest-cell lookups this is
	// the coordinate of the raster cell, otherwise the queried coordinate.
	Coordinate orb.Point
	// Elevation in meters; meaningless when Valid is false.
	Elevation float64
	// Valid is false when no elevation is available at Coordinate.
	Valid bool
}

// Tile holds the samples of one whole-degree cell.
type Tile struct {
	id     string
	latDeg int
	lonDeg int

	mu     sync.RWMutex
	typ    Type
	data   []int16
	status Status
	access atomic.Int64

	detached atomic.Bool
}

// New creates an empty tile for the given identifier.
func New(id string) (*Tile, error) {
	lat, lon, err := ParseID(id)
	if err != nil {
		return nil, err
	}
	t := &Tile{id: id, latDeg: lat, lonDeg: lon}
	t.access.Store(nextAccess())
	return t, nil
}

// ID returns the tile identifier.
func (t *Tile) ID() string { return t.id }

// Lat returns the latitude of the south-west corner.
func (t *Tile) Lat() int { return t.latDeg }

// Lon returns the longitude of the south-west corner.
func (t *Tile) Lon() int { return t.lonDeg }

// Update atomically replaces type, data and status and refreshes the access time.
// Data is dropped for any status other than StatusValid; a valid tile must carry exactly
// typ.SampleCount() samples.
func (t *Tile) Update(typ Type, data []int16, status Status) {
	if status == StatusValid {
		if want := typ.SampleCount(); want == 0 || len(data) != want {
			panic(fmt.Sprintf("tile %s: %d samples for %s, want %d", t.id, len(data), typ, want))
		}
	} else {
		data = nil
	}

	t.mu.Lock()
	t.typ = typ
	t.data = data
	t.status = status
	t.access.Store(nextAccess())
	t.mu.Unlock()
}

// Detach marks a tile that was dropped before its load could be scheduled. It reads as
// missing, and holders should ask for the tile again.
func (t *Tile) Detach() {
	t.detached.Store(true)
	t.Update(TypeUnknown, nil, StatusFileMissing)
}

// Detached reports whether Detach was called.
func (t *Tile) Detached() bool {
	return t.detached.Load()
}

// Touch marks the tile as recently used.
func (t *Tile) Touch() {
	t.access.Store(nextAccess())
}

// Status returns the current load status.
func (t *Tile) Status() Status {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.status
}

// Type returns the resolution of the tile.
func (t *Tile) Type() Type {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.typ
}

// AccessTime returns the stamp of the most recent read or write.
func (t *Tile) AccessTime() int64 {
	return t.access.Load()
}

// SizeBytes returns the memory held by the samples.
func (t *Tile) SizeBytes() int64 {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return int64(2 * len(t.data))
}

// ElevationAt returns the sample at the tile-local index, counting rows from the south edge.
// Tiles without valid data return Void. An index outside the tile panics.
func (t *Tile) ElevationAt(latIndex, lonIndex int) int16 {
	t.mu.RLock()
	defer t.mu.RUnlock()
	if t.status != StatusValid {
		return Void
	}
	return t.sampleLocked(latIndex, lonIndex)
}

// ElevationAtResolution is ElevationAt for an index into a raster with side samples per
// edge. Tiles of another resolution return their nearest sample.
func (t *Tile) ElevationAtResolution(latIndex, lonIndex, side int) int16 {
	if latIndex < 0 || latIndex >= side || lonIndex < 0 || lonIndex >= side {
		panic(fmt.Sprintf("tile %s: index (%d,%d) outside %dx%d", t.id, latIndex, lonIndex, side, side))
	}
	t.mu.RLock()
	defer t.mu.RUnlock()
	if t.status != StatusValid {
		return Void
	}
	if own := t.typ.SideLength(); own != side {
		scale := float64(own-1) / float64(side-1)
		latIndex = int(math.Round(float64(latIndex) * scale))
		lonIndex = int(math.Round(float64(lonIndex) * scale))
	}
	return t.sampleLocked(latIndex, lonIndex)
}

func (t *Tile) sampleLocked(latIndex, lonIndex int) int16 {
	side := t.typ.SideLength()
	if latIndex < 0 || latIndex >= side || lonIndex < 0 || lonIndex >= side {
		panic(fmt.Sprintf("tile %s: index (%d,%d) outside %dx%d", t.id, latIndex, lonIndex, side, side))
	}
	return t.data[(side-1-latIndex)*side+lonIndex]
}

// CoordinateToIndex maps a coordinate to the nearest index along one axis of a tile
// whose edge starts at origin.
func CoordinateToIndex(origin int, coord float64, side int) int {
	return int(math.Round((coord - float64(origin)) * float64(side-1)))
}

// IndexToCoordinate is the inverse of CoordinateToIndex.
func IndexToCoordinate(origin, index, side int) float64 {
	return float64(origin) + float64(index)/float64(side-1)
}

// Contains reports whether (lat, lon) lies inside the tile, edges included.
func (t *Tile) Contains(lat, lon float64) bool {
	return lat >= float64(t.latDeg) && lat <= float64(t.latDeg+1) &&
		lon >= float64(t.lonDeg) && lon <= float64(t.lonDeg+1)
}

// SampleValueAndCoordinate returns the elevation at (lat, lon), which must lie inside the tile.
// Bilinear interpolation reports no valid elevation when any of the four corners is void.
func (t *Tile) SampleValueAndCoordinate(lat, lon float64, mode Interpolation) Sample {
	if !t.Contains(lat, lon) {
		panic(fmt.Sprintf("tile %s: coordinate (%f,%f) outside tile", t.id, lat, lon))
	}
	t.Touch()

	t.mu.RLock()
	defer t.mu.RUnlock()

	query := orb.Point{lon, lat}
	if t.status != StatusValid {
		return Sample{Coordinate: query}
	}

	side := t.typ.SideLength()
	fy := (lat - float64(t.latDeg)) * float64(side-1)
	fx := (lon - float64(t.lonDeg)) * float64(side-1)

	if mode == Bilinear {
		i0, j0 := int(math.Floor(fy)), int(math.Floor(fx))
		// On the northern/eastern edge the last cell is used with a full fraction.
		if i0 >= side-1 {
			i0 = side - 2
		}
		if j0 >= side-1 {
			j0 = side - 2
		}
		ty, tx := fy-float64(i0), fx-float64(j0)

		v00 := t.sampleLocked(i0, j0)
		v01 := t.sampleLocked(i0, j0+1)
		v10 := t.sampleLocked(i0+1, j0)
		v11 := t.sampleLocked(i0+1, j0+1)
		if v00 == Void || v01 == Void || v10 == Void || v11 == Void {
			return Sample{Coordinate: query}
		}
		e := float64(v00)*(1-tx)*(1-ty) +
			float64(v01)*tx*(1-ty) +
			float64(v10)*(1-tx)*ty +
			float64(v11)*tx*ty
		return Sample{Coordinate: query, Elevation: e, Valid: true}
	}

	i := CoordinateToIndex(t.latDeg, lat, side)
	j := CoordinateToIndex(t.lonDeg, lon, side)
	cell := orb.Point{IndexToCoordinate(t.lonDeg, j, side), IndexToCoordinate(t.latDeg, i, side)}
	v := t.sampleLocked(i, j)
	if v == Void {
		return Sample{Coordinate: cell}
	}
	return Sample{Coordinate: cell, Elevation: float64(v), Valid: true}
}
