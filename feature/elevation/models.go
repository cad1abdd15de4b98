package elevation

import (
	"dem-manager/core/raster"
	"dem-manager/core/tile"

	"github.com/paulmach/orb"
)

// PointResponse is the elevation at one coordinate.
type PointResponse struct {
	Lat float64 `json:"lat"`
	Lon float64 `json:"lon"`
	// Elevation is null when no data is available.
	Elevation *float64 `json:"elevation"`
	Valid     bool     `json:"valid"`
}

func newPointResponse(s tile.Sample) PointResponse {
	resp := PointResponse{Lat: s.Coordinate.Lat(), Lon: s.Coordinate.Lon(), Valid: s.Valid}
	if s.Valid {
		e := s.Elevation
		resp.Elevation = &e
	}
	return resp
}

// RasterResponse holds the samples of a bounding box. Rows run south to north, columns
// west to east; void samples are null.
type RasterResponse struct {
	BBox   [4]float64 `json:"bbox"`
	Width  int        `json:"width"`
	Height int        `json:"height"`
	Step   float64    `json:"step"`
	// Origin is the [lon, lat] of the south-west sample.
	Origin [2]float64 `json:"origin"`
	Rows   [][]*int16 `json:"rows"`
}

func newRasterResponse(b orb.Bound, r *raster.ElevationRaster) *RasterResponse {
	resp := &RasterResponse{
		BBox:   [4]float64{b.Min.Lon(), b.Min.Lat(), b.Max.Lon(), b.Max.Lat()},
		Width:  r.Width(),
		Height: r.Height(),
		Step:   r.Step(),
		Rows:   make([][]*int16, 0, r.Height()),
	}
	if r.Width() > 0 && r.Height() > 0 {
		sw := r.At(0, 0).Coordinate
		resp.Origin = [2]float64{sw.Lon(), sw.Lat()}
	}
	for _, row := range r.Rows() {
		line := make([]*int16, len(row))
		for i := range row {
			if row[i] != tile.Void {
				line[i] = &row[i]
			}
		}
		resp.Rows = append(resp.Rows, line)
	}
	return resp
}

// Level is one extreme elevation and every point it occurs at.
type Level struct {
	Elevation int16        `json:"elevation"`
	Points    [][2]float64 `json:"points"`
}

// ExtremesResponse holds the lowest and highest points of a bounding box. Both are null
// when the box holds no data.
type ExtremesResponse struct {
	Lowest  *Level `json:"lowest"`
	Highest *Level `json:"highest"`
}

func newExtremesResponse(e raster.Extremes) *ExtremesResponse {
	if !e.Valid() {
		return &ExtremesResponse{}
	}
	level := func(v int16, pts []orb.Point) *Level {
		l := &Level{Elevation: v, Points: make([][2]float64, len(pts))}
		for i, p := range pts {
			l.Points[i] = [2]float64{p.Lon(), p.Lat()}
		}
		return l
	}
	return &ExtremesResponse{
		Lowest:  level(e.Lowest, e.LowestPoints),
		Highest: level(e.Highest, e.HighestPoints),
	}
}
