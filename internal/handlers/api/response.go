package api

import (
	"errors"

	"github.com/gofiber/fiber/v3"

	"github.com/captainbotgit/mission-control/internal/review"
)

// jsonSuccess returns a 200 response with data wrapped in the standard envelope.
func jsonSuccess(c fiber.Ctx, data any) error {
	return c.JSON(fiber.Map{
		"status": "ok",
		"data":   data,
	})
}

// jsonCreated returns a 201 response with data wrapped in the standard envelope.
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

// jsonValidationError returns a 400 naming the offending field.
func jsonValidationError(c fiber.Ctx, verr *review.ValidationError) error {
	body := fiber.Map{
		"status": "error",
		"error":  verr.Message,
	}
	if verr.Field != "" {
		body["field"] = verr.Field
	}
	return c.Status(fiber.StatusBadRequest).JSON(body)
}

// reviewError maps review workflow errors onto HTTP statuses.
func reviewError(c fiber.Ctx, err error, fallback string) error {
	var verr *review.ValidationError
	switch {
	case errors.As(err, &verr):
		return jsonValidationError(c, verr)
	case errors.Is(err, review.ErrNotFound):
		return jsonError(c, fiber.StatusNotFound, "review not found")
	case errors.Is(err, review.ErrPendingExist):
		return jsonError(c, fiber.StatusConflict, err.Error())
	case errors.Is(err, review.ErrUnavailable):
		return jsonError(c, fiber.StatusServiceUnavailable, err.Error())
	default:
		return jsonError(c, fiber.StatusInternalServerError, fallback)
	}
}
