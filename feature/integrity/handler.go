package integrity

import (
	"tbl-merger/core/logger"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
)

// Handler handles HTTP requests for integrity checks.
type Handler struct {
	service *Service
}

// NewHandler creates a new HTTP handler.
func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

// RegisterRoutes registers the integrity routes.
func (h *Handler) RegisterRoutes(app fiber.Router) {
	group := app.Group("/integrity")
	group.Get("/", h.HandleBaselineCheck)
	group.Get("/baselines", h.HandleBaselineCheck)
	group.Get("/mods", h.HandleModCheck)
}

// HandleBaselineCheck checks every registered baseline table.
func (h *Handler) HandleBaselineCheck(c *fiber.Ctx) error {
	l := logger.WithRayID(h.service.logger, c)
	report := h.service.CheckBaselines(c.Context())
	l.Info("Baseline check completed",
		zap.Int("ok", report.Counts[StatusOK]),
		zap.Int("missing", report.Counts[StatusMissing]),
		zap.Int("malformed", report.Counts[StatusMalformed]))
	return c.JSON(report)
}

// HandleModCheck validates every mod's copy of a registered table.
func (h *Handler) HandleModCheck(c *fiber.Ctx) error {
	l := logger.WithRayID(h.service.logger, c)
	report, err := h.service.CheckMods(c.Context())
	if err != nil {
		l.Error("Mod check failed", zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": err.Error()})
	}
	return c.JSON(report)
}
