package api

import (
	"errors"

	"github.com/gofiber/fiber/v3"

	"github.com/cognicore/destek/pkg/destek/internalerr"
)

// jsonSuccess returns a 200 response with data wrapped in the standard envelope.
func jsonSuccess(c fiber.Ctx, data any) error {
	return c.JSON(fiber.Map{
		"status": "ok",
		"data":   data,
	})
}

// jsonCreated is jsonSuccess with a 201 status.
func jsonCreated(c fiber.Ctx, data any) error {
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"status": "ok",
		"data":   data,
	})
}

// jsonError returns an error response with the given HTTP status code.
func jsonError(c fiber.Ctx, status int, message string) error {
	return c.Status(status).JSON(fiber.Map{
		"status": "error",
		"error":  message,
	})
}

// statusFor maps the engine's error taxonomy onto HTTP status codes.
// Validation wins over not-found: a learn request naming a missing
// entity is the caller's mistake.
func statusFor(err error) int {
	switch {
	case errors.Is(err, internalerr.ErrInvalidInput):
		return fiber.StatusBadRequest
	case errors.Is(err, internalerr.ErrNotFound):
		return fiber.StatusNotFound
	case errors.Is(err, internalerr.ErrDuplicate):
		return fiber.StatusConflict
	default:
		return fiber.StatusInternalServerError
	}
}
