package history

import (
	"errors"
	"strconv"

	"tbl-merger/core/logger"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
)

const defaultLimit = 20

// Handler serves stored merge passes.
type Handler struct {
	repo   *Repository
	logger *zap.Logger
}

// NewHandler creates a new HTTP handler.
func NewHandler(repo *Repository, logger *zap.Logger) *Handler {
	return &Handler{repo: repo, logger: logger}
}

// RegisterRoutes registers the history routes.
func (h *Handler) RegisterRoutes(app fiber.Router) {
	group := app.Group("/history")
	group.Get("/", h.HandleList)
	group.Get("/:id", h.HandleGet)
}

// HandleList returns the latest passes.
func (h *Handler) HandleList(c *fiber.Ctx) error {
	l := logger.WithRayID(h.logger, c)

	limit := defaultLimit
	if raw := c.Query("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n <= 0 {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "limit must be a positive integer"})
		}
		limit = n
	}

	passes, err := h.repo.Recent(c.Context(), limit)
	if err != nil {
		l.Error("Failed to list merge history", zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": err.Error()})
	}
	return c.JSON(fiber.Map{"passes": passes})
}

// HandleGet returns one pass with its units.
func (h *Handler) HandleGet(c *fiber.Ctx) error {
	l := logger.WithRayID(h.logger, c)

	pass, err := h.repo.Get(c.Context(), c.Params("id"))
	if errors.Is(err, ErrNotFound) {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": err.Error()})
	}
	if err != nil {
		l.Error("Failed to load merge pass", zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": err.Error()})
	}
	return c.JSON(pass)
}
