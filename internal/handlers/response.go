package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"math"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/example/bazzarly/internal/errs"
	"github.com/example/bazzarly/internal/middleware"
	"github.com/example/bazzarly/internal/services"
	"github.com/example/bazzarly/internal/utils"
	"github.com/example/bazzarly/internal/validation"
)

func respond(c *fiber.Ctx, status int, message string, data any) error {
	body := fiber.Map{"success": true}
	if message != "" {
		body["message"] = message
	}
	if data != nil {
		body["data"] = data
	}
	return c.Status(status).JSON(body)
}

func ok(c *fiber.Ctx, data any) error {
	return respond(c, fiber.StatusOK, "", data)
}

func paginated(c *fiber.Ctx, data any, meta utils.Meta) error {
	return c.JSON(fiber.Map{
		"success":    true,
		"data":       data,
		"pagination": meta,
	})
}

// ErrorHandler is the single place where errors become HTTP responses.
// Unexpected errors are logged and only described to clients in development.
func ErrorHandler(log *zap.Logger, dev bool) fiber.ErrorHandler {
	return func(c *fiber.Ctx, err error) error {
		var verr *errs.ValidationError
		if errors.As(err, &verr) {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
				"success": false,
				"message": verr.Message,
				"errors":  verr.Fields,
			})
		}

		var fe *fiber.Error
		if errors.As(err, &fe) {
			return c.Status(fe.Code).JSON(fiber.Map{"success": false, "message": fe.Message})
		}

		status := errs.StatusCode(err)
		if status < fiber.StatusInternalServerError {
			return c.Status(status).JSON(fiber.Map{"success": false, "message": errs.Message(err)})
		}

		log.Error("unhandled error",
			zap.Error(err),
			zap.String("method", c.Method()),
			zap.String("path", c.Path()),
			zap.String("ip", c.IP()),
		)
		if errors.Is(err, errs.ErrUnknownSchema) {
			return c.Status(status).JSON(fiber.Map{"success": false, "message": errs.ErrUnknownSchema.Error()})
		}
		body := fiber.Map{"success": false, "message": "Something went wrong!"}
		if dev {
			body["error"] = err.Error()
		}
		return c.Status(status).JSON(body)
	}
}

// NotFound answers requests no route matched.
func NotFound(c *fiber.Ctx) error {
	return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
		"success":  false,
		"message":  "Route not found",
		"endpoint": c.OriginalURL(),
	})
}

func rawBody(c *fiber.Ctx) (map[string]any, error) {
	raw := map[string]any{}
	if len(c.Body()) == 0 {
		return raw, nil
	}
	if err := json.Unmarshal(c.Body(), &raw); err != nil {
		return nil, fiber.NewError(fiber.StatusBadRequest, "invalid request body")
	}
	return raw, nil
}

// bind validates the JSON body against schema, replaces the submitted fields
// with their sanitized values and decodes the result into dst.
func bind(c *fiber.Ctx, schema string, dst any) error {
	raw, err := rawBody(c)
	if err != nil {
		return err
	}

	res, err := validation.Validate(schema, raw)
	if err != nil {
		return err
	}
	return apply(raw, res, dst)
}

// bindPartial validates only the fields present in the body, for updates.
func bindPartial(c *fiber.Ctx, schema string, dst any) error {
	raw, err := rawBody(c)
	if err != nil {
		return err
	}

	res, err := validation.ValidatePartial(schema, raw)
	if err != nil {
		return err
	}
	return apply(raw, res, dst)
}

func apply(raw map[string]any, res validation.Result, dst any) error {
	if !res.IsValid {
		return errs.NewValidation("Validation failed", res.Errors)
	}

	for k, v := range res.Data {
		if _, present := raw[k]; present {
			raw[k] = v
		}
	}
	return remarshal(raw, dst)
}

// decode reads a body that has no schema.
func decode(c *fiber.Ctx, dst any) error {
	raw, err := rawBody(c)
	if err != nil {
		return err
	}
	return remarshal(raw, dst)
}

func remarshal(raw map[string]any, dst any) error {
	buf, err := json.Marshal(raw)
	if err != nil {
		return err
	}
	if err := json.Unmarshal(buf, dst); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
	}
	return nil
}

// validQuery checks the query string; failures answer 400 with message.
func validQuery(c *fiber.Ctx, check func(map[string]string) validation.QueryResult, message string) (map[string]any, error) {
	res := check(c.Queries())
	if !res.IsValid {
		return nil, errs.NewValidation(message, res.Errors)
	}
	return res.Params, nil
}

func stringParam(params map[string]any, key string) string {
	s, _ := params[key].(string)
	return s
}

func floatParam(params map[string]any, key string) *float64 {
	if f, ok := params[key].(float64); ok && !math.IsNaN(f) {
		return &f
	}
	return nil
}

func pathID(c *fiber.Ctx, name, label string) (uuid.UUID, error) {
	id, err := uuid.Parse(c.Params(name))
	if err != nil {
		return uuid.Nil, fiber.NewError(fiber.StatusBadRequest, fmt.Sprintf("Invalid %s ID", label))
	}
	return id, nil
}

func currentUserID(c *fiber.Ctx) (uuid.UUID, error) {
	id, ok := middleware.GetCurrentUserID(c)
	if !ok {
		return uuid.Nil, errs.ErrUnauthorized
	}
	return id, nil
}

// viewer is nil for anonymous requests.
func viewer(c *fiber.Ctx) *services.Viewer {
	id, ok := middleware.GetCurrentUserID(c)
	if !ok {
		return nil
	}
	return &services.Viewer{ID: id, Role: middleware.GetCurrentRole(c)}
}
