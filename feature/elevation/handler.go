package elevation

import (
	"bytes"
	"errors"

	"dem-manager/core/logger"
	"dem-manager/core/utils"

	"github.com/gofiber/fiber/v2"
	"github.com/paulmach/orb"
	"go.uber.org/zap"
)

const (
	defaultStep     = 100
	defaultLower    = -500
	defaultUpper    = 9000
	defaultAltitude = 45.0
	defaultAzimuth  = 315.0
)

// Handler handles HTTP requests for elevation queries.
type Handler struct {
	service *Service
}

// NewHandler creates a new elevation handler.
func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

// RegisterRoutes registers the elevation routes.
func (h *Handler) RegisterRoutes(app fiber.Router) {
	group := app.Group("/elevation")
	group.Get("/", h.HandlePoint)
	group.Get("/raster", h.HandleRaster)
	group.Get("/contours", h.HandleContours)
	group.Get("/hillshade", h.HandleHillshade)
	group.Get("/extremes", h.HandleExtremes)
}

func pending(c *fiber.Ctx) error {
	return c.Status(fiber.StatusAccepted).JSON(fiber.Map{"status": "pending"})
}

func badRequest(c *fiber.Ctx, err error) error {
	return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
}

func queryErr(c *fiber.Ctx, err error) error {
	if errors.Is(err, ErrAreaTooLarge) {
		return c.Status(fiber.StatusRequestEntityTooLarge).JSON(fiber.Map{"error": err.Error()})
	}
	return badRequest(c, err)
}

func bbox(c *fiber.Ctx) (orb.Bound, error) {
	return utils.ParseBBox(c.Query("bbox"))
}

// HandlePoint returns the elevation at a coordinate.
// @Summary Point elevation
// @Description Returns the elevation at lat/lon using the configured interpolation. The elevation is null while the tile loads or when no data exists.
// @Tags elevation
// @Produce json
// @Param lat query number true "Latitude"
// @Param lon query number true "Longitude"
// @Success 200 {object} PointResponse
// @Failure 400 {object} map[string]string "Bad Request"
// @Router /elevation [get]
func (h *Handler) HandlePoint(c *fiber.Ctx) error {
	pt, err := utils.ParseLatLon(c.Query("lat"), c.Query("lon"))
	if err != nil {
		return badRequest(c, err)
	}
	return c.JSON(h.service.Point(pt))
}

// HandleRaster returns the raw samples of a bounding box.
// @Summary Elevation raster
// @Description Returns the samples covering bbox, rows ordered south to north. Responds 202 while tiles load.
// @Tags elevation
// @Produce json
// @Param bbox query string true "west,south,east,north"
// @Success 200 {object} RasterResponse
// @Success 202 {object} map[string]string "Pending"
// @Failure 400 {object} map[string]string "Bad Request"
// @Failure 413 {object} map[string]string "Area too large"
// @Router /elevation/raster [get]
func (h *Handler) HandleRaster(c *fiber.Ctx) error {
	b, err := bbox(c)
	if err != nil {
		return badRequest(c, err)
	}
	resp, ok, err := h.service.Raster(b)
	if err != nil {
		return queryErr(c, err)
	}
	if !ok {
		return pending(c)
	}
	return c.JSON(resp)
}

// HandleContours returns isolines as GeoJSON.
// @Summary Contour lines
// @Description Extracts isolines at multiples of step within [lower, upper]. One MultiLineString feature per elevation. Responds 202 while tiles load.
// @Tags elevation
// @Produce json
// @Param bbox query string true "west,south,east,north"
// @Param step query int false "Isoline spacing in meters" default(100)
// @Param lower query int false "Lower cutoff in meters" default(-500)
// @Param upper query int false "Upper cutoff in meters" default(9000)
// @Success 200 {object} map[string]interface{} "GeoJSON FeatureCollection"
// @Success 202 {object} map[string]string "Pending"
// @Failure 400 {object} map[string]string "Bad Request"
// @Failure 413 {object} map[string]string "Area too large"
// @Router /elevation/contours [get]
func (h *Handler) HandleContours(c *fiber.Ctx) error {
	l := logger.WithRayID(h.service.logger, c)
	b, err := bbox(c)
	if err != nil {
		return badRequest(c, err)
	}
	step := utils.ToInt(c.Query("step"), defaultStep)
	lower := utils.ToInt(c.Query("lower"), defaultLower)
	upper := utils.ToInt(c.Query("upper"), defaultUpper)

	fc, ok, err := h.service.Contours(b, step, lower, upper)
	if err != nil {
		return queryErr(c, err)
	}
	if !ok {
		return pending(c)
	}

	body, err := fc.MarshalJSON()
	if err != nil {
		l.Error("Failed to encode contours", zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": err.Error()})
	}
	c.Set(fiber.HeaderContentType, "application/geo+json")
	return c.Send(body)
}

// HandleHillshade renders a shaded relief PNG.
// @Summary Hillshade
// @Description Renders a grayscale shaded relief of bbox lit from azimuth (clockwise from north) at altitude above the horizon. Responds 202 while tiles load.
// @Tags elevation
// @Produce png
// @Param bbox query string true "west,south,east,north"
// @Param altitude query number false "Sun altitude in degrees" default(45)
// @Param azimuth query number false "Sun azimuth in degrees" default(315)
// @Param perimeter query boolean false "Keep a transparent border so the image spans bbox"
// @Param width query int false "Output width in pixels"
// @Success 200 {file} binary "PNG image"
// @Success 202 {object} map[string]string "Pending"
// @Failure 400 {object} map[string]string "Bad Request"
// @Failure 413 {object} map[string]string "Area too large"
// @Router /elevation/hillshade [get]
func (h *Handler) HandleHillshade(c *fiber.Ctx) error {
	l := logger.WithRayID(h.service.logger, c)
	b, err := bbox(c)
	if err != nil {
		return badRequest(c, err)
	}
	altitude := utils.ToFloat(c.Query("altitude"), defaultAltitude)
	azimuth := utils.ToFloat(c.Query("azimuth"), defaultAzimuth)
	perimeter := utils.ToBool(c.Query("perimeter"), false)
	width := utils.ToInt(c.Query("width"), 0)
	if width < 0 || width > h.service.MaxWidth() {
		return badRequest(c, errors.New("width out of range"))
	}

	img, ok, err := h.service.Hillshade(b, altitude, azimuth, perimeter)
	if err != nil {
		return queryErr(c, err)
	}
	if !ok {
		return pending(c)
	}

	var buf bytes.Buffer
	if err := img.EncodePNG(&buf, width); err != nil {
		l.Error("Failed to encode hillshade", zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": err.Error()})
	}
	c.Set(fiber.HeaderContentType, "image/png")
	return c.Send(buf.Bytes())
}

// HandleExtremes returns the lowest and highest points of a bounding box.
// @Summary Extremes
// @Description Returns the lowest and highest elevations of bbox with every point they occur at. Responds 202 while tiles load.
// @Tags elevation
// @Produce json
// @Param bbox query string true "west,south,east,north"
// @Success 200 {object} ExtremesResponse
// @Success 202 {object} map[string]string "Pending"
// @Failure 400 {object} map[string]string "Bad Request"
// @Failure 413 {object} map[string]string "Area too large"
// @Router /elevation/extremes [get]
func (h *Handler) HandleExtremes(c *fiber.Ctx) error {
	b, err := bbox(c)
	if err != nil {
		return badRequest(c, err)
	}
	resp, ok, err := h.service.Extremes(b)
	if err != nil {
		return queryErr(c, err)
	}
	if !ok {
		return pending(c)
	}
	return c.JSON(resp)
}
