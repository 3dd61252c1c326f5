package merge

import (
	"tbl-merger/core/logger"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
)

// Handler handles HTTP requests for merge passes and the merge cache.
type Handler struct {
	service *Service
}

// NewHandler creates a new HTTP handler.
func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

// RegisterRoutes registers the merge routes.
func (h *Handler) RegisterRoutes(app fiber.Router) {
	group := app.Group("/merge")
	group.Post("/", h.HandleMerge)
	group.Get("/last", h.HandleLastReport)
	group.Get("/stats", h.HandleStats)
	group.Get("/cache", h.HandleListCache)
	group.Delete("/cache/expired", h.HandleSweepCache)
}

// HandleMerge runs a merge pass over the current mod set.
func (h *Handler) HandleMerge(c *fiber.Ctx) error {
	l := logger.WithRayID(h.service.logger, c)
	l.Info("Triggering merge pass")

	report, files, err := h.service.RunPass(c.Context())
	if err != nil {
		l.Error("Merge pass failed", zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": err.Error()})
	}

	return c.JSON(fiber.Map{
		"report": report,
		"files":  files.Snapshot(),
	})
}

// HandleLastReport returns the report of the latest pass.
func (h *Handler) HandleLastReport(c *fiber.Ctx) error {
	report := h.service.LastReport()
	if report == nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "no merge pass has run"})
	}
	return c.JSON(report)
}

// HandleStats returns merge counters.
func (h *Handler) HandleStats(c *fiber.Ctx) error {
	return c.JSON(h.service.Stats())
}

// HandleListCache lists cached merges.
func (h *Handler) HandleListCache(c *fiber.Ctx) error {
	entries := h.service.CacheEntries()
	return c.JSON(fiber.Map{
		"count":   len(entries),
		"entries": entries,
	})
}

// HandleSweepCache removes expired cache entries.
func (h *Handler) HandleSweepCache(c *fiber.Ctx) error {
	l := logger.WithRayID(h.service.logger, c)
	removed := h.service.SweepExpired()
	l.Info("Cache sweep requested", zap.Int("removed", removed))
	return c.JSON(fiber.Map{"removed": removed})
}
