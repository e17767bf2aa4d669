package middleware

import (
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/limiter"
	"go.uber.org/zap"

	"github.com/example/bazzarly/internal/logging"
)

// RateLimit allows max requests per client IP in every window. Exceeding it
// answers 429 with message and records a security event.
func RateLimit(name string, max int, window time.Duration, message string, log *zap.Logger) fiber.Handler {
	return limiter.New(limiter.Config{
		Max:        max,
		Expiration: window,
		KeyGenerator: func(c *fiber.Ctx) string {
			return name + ":" + c.IP()
		},
		LimitReached: func(c *fiber.Ctx) error {
			logging.Security(log, "rate limit exceeded",
				zap.String("limiter", name),
				zap.String("ip", c.IP()),
				zap.String("path", c.Path()),
				zap.String("userAgent", c.Get(fiber.HeaderUserAgent)),
			)
			return c.Status(fiber.StatusTooManyRequests).JSON(fiber.Map{
				"success": false,
				"message": message,
			})
		},
	})
}
