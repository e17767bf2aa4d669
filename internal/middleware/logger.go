package middleware

import (
	"errors"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/segmentio/ksuid"
	"go.uber.org/zap"

	"github.com/example/bazzarly/internal/errs"
)

const requestIDKey = "requestid"

// NewRequestID generates the id stamped on every request.
func NewRequestID() string {
	return ksuid.New().String()
}

// RequestLogger writes one structured line per request. 4xx and 5xx
// responses are logged at error level.
func RequestLogger(log *zap.Logger) fiber.Handler {
	return func(c *fiber.Ctx) error {
		start := time.Now()
		chainErr := c.Next()

		status := c.Response().StatusCode()
		if chainErr != nil {
			status = errs.StatusCode(chainErr)
			var fe *fiber.Error
			if errors.As(chainErr, &fe) {
				status = fe.Code
			}
		}

		fields := []zap.Field{
			zap.String("requestId", requestID(c)),
			zap.String("method", c.Method()),
			zap.String("path", c.OriginalURL()),
			zap.Int("status", status),
			zap.Duration("duration", time.Since(start)),
			zap.String("ip", c.IP()),
			zap.String("userAgent", c.Get(fiber.HeaderUserAgent)),
		}
		if id, ok := GetCurrentUserID(c); ok {
			fields = append(fields, zap.String("userId", id.String()))
		}
		if chainErr != nil {
			fields = append(fields, zap.Error(chainErr))
		}

		if status >= fiber.StatusBadRequest {
			log.Error("request", fields...)
		} else {
			log.Info("request", fields...)
		}
		return chainErr
	}
}

func requestID(c *fiber.Ctx) string {
	if id, ok := c.Locals(requestIDKey).(string); ok {
		return id
	}
	return c.GetRespHeader(fiber.HeaderXRequestID)
}
