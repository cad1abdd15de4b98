package tiles

import (
	"errors"

	"dem-manager/core/logger"
	"dem-manager/core/utils"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
)

// Handler handles HTTP requests for tile administration.
type Handler struct {
	service *Service
}

// NewHandler creates a new tiles handler.
func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

// RegisterRoutes registers the tile routes.
func (h *Handler) RegisterRoutes(app fiber.Router) {
	group := app.Group("/tiles")
	group.Get("/", h.HandleOverview)
	group.Delete("/", h.HandleClear)
	group.Post("/prefetch", h.HandlePrefetch)
	group.Get("/downloads", h.HandleDownloads)
	group.Delete("/downloads/:id", h.HandleForgetDownloads)
	group.Put("/settings", h.HandleSettings)
}

func (h *Handler) fail(c *fiber.Ctx, err error) error {
	if errors.Is(err, ErrInvalidArgument) {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
	}
	logger.WithRayID(h.service.logger, c).Error("Tile request failed", zap.Error(err))
	return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": err.Error()})
}

// HandleOverview lists the cached tiles.
// @Summary Tile cache overview
// @Description Returns the cache counters, the runtime settings and every cached tile with its status.
// @Tags tiles
// @Produce json
// @Success 200 {object} Overview
// @Router /tiles [get]
func (h *Handler) HandleOverview(c *fiber.Ctx) error {
	return c.JSON(h.service.Overview())
}

// HandlePrefetch schedules the tiles of a bounding box.
// @Summary Prefetch tiles
// @Description Schedules loading (or downloading) of every tile intersecting bbox without waiting.
// @Tags tiles
// @Produce json
// @Param bbox query string true "west,south,east,north"
// @Success 202 {object} map[string]interface{} "Scheduled tiles"
// @Failure 400 {object} map[string]string "Bad Request"
// @Router /tiles/prefetch [post]
func (h *Handler) HandlePrefetch(c *fiber.Ctx) error {
	b, err := utils.ParseBBox(c.Query("bbox"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
	}
	ids, err := h.service.Prefetch(b)
	if err != nil {
		return h.fail(c, err)
	}
	return c.Status(fiber.StatusAccepted).JSON(fiber.Map{
		"status":    "scheduled",
		"scheduled": ids,
	})
}

// HandleClear removes tiles in a status so they are looked up again.
// @Summary Clear tiles
// @Description Removes every cached tile in the given status, e.g. FILE_MISSING after new files were copied into a source directory.
// @Tags tiles
// @Produce json
// @Param status query string true "Tile status" Enums(VALID, FILE_MISSING, FILE_INVALID, DOWNLOAD_FAILED)
// @Success 200 {object} map[string]interface{} "Cleared count"
// @Failure 400 {object} map[string]string "Bad Request"
// @Router /tiles [delete]
func (h *Handler) HandleClear(c *fiber.Ctx) error {
	n, err := h.service.Clear(c.Query("status"))
	if err != nil {
		return h.fail(c, err)
	}
	return c.JSON(fiber.Map{"cleared": n})
}

// HandleDownloads lists the download ledger.
// @Summary Download ledger
// @Description Lists every recorded tile download, optionally filtered by status. Empty when the ledger is disabled.
// @Tags tiles
// @Produce json
// @Param status query string false "Tile status"
// @Success 200 {array} ledger.TileDownload
// @Failure 400 {object} map[string]string "Bad Request"
// @Failure 500 {object} map[string]string "Internal Server Error"
// @Router /tiles/downloads [get]
func (h *Handler) HandleDownloads(c *fiber.Ctx) error {
	rows, err := h.service.Downloads(c.Context(), c.Query("status"))
	if err != nil {
		return h.fail(c, err)
	}
	return c.JSON(rows)
}

// HandleForgetDownloads drops the ledger rows of a tile.
// @Summary Forget downloads
// @Description Removes the download ledger rows of one tile.
// @Tags tiles
// @Param id path string true "Tile id, e.g. N46E007"
// @Success 204 "No Content"
// @Failure 400 {object} map[string]string "Bad Request"
// @Failure 500 {object} map[string]string "Internal Server Error"
// @Router /tiles/downloads/{id} [delete]
func (h *Handler) HandleForgetDownloads(c *fiber.Ctx) error {
	if err := h.service.ForgetDownloads(c.Context(), c.Params("id")); err != nil {
		return h.fail(c, err)
	}
	return c.SendStatus(fiber.StatusNoContent)
}

// HandleSettings updates the runtime settings.
// @Summary Update settings
// @Description Changes the cache size, auto download, preferred resolution or interpolation. Omitted fields are kept.
// @Tags tiles
// @Accept json
// @Produce json
// @Param settings body SettingsUpdate true "Settings"
// @Success 200 {object} provider.Settings
// @Failure 400 {object} map[string]string "Bad Request"
// @Failure 500 {object} map[string]string "Internal Server Error"
// @Router /tiles/settings [put]
func (h *Handler) HandleSettings(c *fiber.Ctx) error {
	var u SettingsUpdate
	if err := c.BodyParser(&u); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid settings body"})
	}
	settings, err := h.service.UpdateSettings(u)
	if err != nil {
		return h.fail(c, err)
	}
	logger.WithRayID(h.service.logger, c).Info("Settings updated",
		zap.Int64("cache_size_mib", settings.CacheSizeMiB),
		zap.Bool("auto_download", settings.AutoDownload),
		zap.String("preferred_resolution", settings.PreferredResolution),
		zap.String("interpolation", settings.Interpolation))
	return c.JSON(settings)
}
