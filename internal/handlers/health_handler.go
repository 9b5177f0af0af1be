package handlers

import (
	"context"
	"time"

	"albumportal/internal/logging"

	"github.com/gofiber/fiber/v2"
)

// Pinger reports whether the datastore is reachable.
type Pinger interface {
	PingContext(ctx context.Context) error
}

// HealthHandler reports service health.
type HealthHandler struct {
	db  Pinger
	log logging.Logger
}

// NewHealthHandler creates a new HealthHandler.
func NewHealthHandler(db Pinger, log logging.Logger) *HealthHandler {
	return &HealthHandler{db: db, log: log.With("component", "health")}
}

// RegisterRoutes registers the health route with the Fiber app.
func (h *HealthHandler) RegisterRoutes(router fiber.Router) {
	router.Get("/health", h.HandleHealth)
}

// HandleHealth pings the datastore.
func (h *HealthHandler) HandleHealth(c *fiber.Ctx) error {
	ctx, cancel := context.WithTimeout(c.UserContext(), 5*time.Second)
	defer cancel()

	now := time.Now().Format(time.RFC3339)
	if err := h.db.PingContext(ctx); err != nil {
		h.log.Error(ctx, "health check failed", "error", err)
		return c.Status(fiber.StatusServiceUnavailable).JSON(fiber.Map{
			"status": "unavailable",
			"time":   now,
		})
	}
	return c.JSON(fiber.Map{
		"status": "healthy",
		"time":   now,
	})
}
