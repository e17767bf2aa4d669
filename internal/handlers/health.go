package handlers

import (
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/example/bazzarly/internal/services"
)

// HealthHandler answers liveness probes and the public statistics page.
type HealthHandler struct {
	stats       *services.StatsService
	environment string
	started     time.Time
}

func NewHealthHandler(stats *services.StatsService, environment string, started time.Time) *HealthHandler {
	return &HealthHandler{stats: stats, environment: environment, started: started}
}

func (h *HealthHandler) Health(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{
		"status":      "OK",
		"message":     "Bazzarly API is running",
		"environment": h.environment,
		"timestamp":   time.Now().UTC(),
		"uptime":      time.Since(h.started).Round(time.Second).String(),
	})
}

func (h *HealthHandler) PublicStats(c *fiber.Ctx) error {
	stats, err := h.stats.Public(c.UserContext())
	if err != nil {
		return err
	}
	return ok(c, stats)
}
