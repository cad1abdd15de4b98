package elevation

import (
	"errors"
	"fmt"

	"dem-manager/core/grid"
	"dem-manager/core/raster"
	"dem-manager/core/server"
	"dem-manager/core/tile"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geojson"
	"go.uber.org/zap"
)

// ErrAreaTooLarge is returned for bounding boxes larger than the configured limit.
var ErrAreaTooLarge = errors.New("requested area too large")

// Engine answers elevation queries. It is implemented by *provider.Provider.
type Engine interface {
	Elevation(pt orb.Point) tile.Sample
	ElevationRaster(b orb.Bound) (*raster.ElevationRaster, bool)
	ContourLines(b orb.Bound, step, lower, upper int) ([]raster.ContourSet, bool)
	Hillshade(b orb.Bound, altitude, azimuth float64, withPerimeter bool) (*raster.HillshadeImage, bool, error)
	Extremes(b orb.Bound) (raster.Extremes, bool)
}

// Service serves elevation queries.
type Service struct {
	engine Engine
	limits server.Config
	logger *zap.Logger
}

// NewService creates a new elevation service.
func NewService(engine Engine, limits server.Config, logger *zap.Logger) *Service {
	return &Service{
		engine: engine,
		limits: limits,
		logger: logger,
	}
}

func (s *Service) checkArea(b orb.Bound) error {
	width, height := grid.Width(b), b.Max.Lat()-b.Min.Lat()
	if !s.limits.AllowsArea(width, height) {
		return fmt.Errorf("%w: %.3f square degrees exceeds %.3f", ErrAreaTooLarge, width*height, s.limits.MaxAreaDegrees)
	}
	return nil
}

// Point returns the elevation at pt.
func (s *Service) Point(pt orb.Point) PointResponse {
	return newPointResponse(s.engine.Elevation(pt))
}

// Raster returns the samples of b. ok is false while tiles are still loading.
func (s *Service) Raster(b orb.Bound) (*RasterResponse, bool, error) {
	if err := s.checkArea(b); err != nil {
		return nil, false, err
	}
	r, ok := s.engine.ElevationRaster(b)
	if !ok {
		return nil, false, nil
	}
	return newRasterResponse(b, r), true, nil
}

// Contours returns the isolines of b as GeoJSON.
func (s *Service) Contours(b orb.Bound, step, lower, upper int) (*geojson.FeatureCollection, bool, error) {
	if step <= 0 {
		return nil, false, fmt.Errorf("step must be positive, got %d", step)
	}
	if lower > upper {
		return nil, false, fmt.Errorf("lower cutoff %d above upper cutoff %d", lower, upper)
	}
	if err := s.checkArea(b); err != nil {
		return nil, false, err
	}
	sets, ok := s.engine.ContourLines(b, step, lower, upper)
	if !ok {
		return nil, false, nil
	}
	s.logger.Debug("Contours extracted",
		zap.Int("isovalues", len(sets)),
		zap.Int("segments", raster.Count(sets)))
	return raster.FeatureCollection(sets), true, nil
}

// Hillshade shades b.
func (s *Service) Hillshade(b orb.Bound, altitude, azimuth float64, withPerimeter bool) (*raster.HillshadeImage, bool, error) {
	if !(altitude >= 0 && altitude <= 90) {
		return nil, false, fmt.Errorf("altitude must be within [0,90], got %v", altitude)
	}
	if err := s.checkArea(b); err != nil {
		return nil, false, err
	}
	return s.engine.Hillshade(b, altitude, azimuth, withPerimeter)
}

// Extremes returns the lowest and highest points of b.
func (s *Service) Extremes(b orb.Bound) (*ExtremesResponse, bool, error) {
	if err := s.checkArea(b); err != nil {
		return nil, false, err
	}
	e, ok := s.engine.Extremes(b)
	if !ok {
		return nil, false, nil
	}
	return newExtremesResponse(e), true, nil
}

// MaxWidth returns the widest hillshade image the service renders.
func (s *Service) MaxWidth() int {
	return s.limits.HillshadeMaxWidth
}
