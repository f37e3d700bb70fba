package handlers

import (
	"errors"

	"project-review-system/services"

	"github.com/gofiber/fiber/v2"
)

// serviceError maps the service error taxonomy onto HTTP statuses. Every
// failure carries one actionable message; store-level noise never leaks to
// callers.
func serviceError(c *fiber.Ctx, err error) error {
	var ve *services.ValidationError
	if errors.As(err, &ve) {
		body := fiber.Map{"error": ve.Message}
		if ve.Field != "" {
			body["field"] = ve.Field
		}
		return c.Status(fiber.StatusBadRequest).JSON(body)
	}

	var ce *services.ConflictError
	if errors.As(err, &ce) {
		return c.Status(fiber.StatusConflict).JSON(fiber.Map{"error": ce.Reason})
	}

	switch {
	case errors.Is(err, services.ErrNotFound):
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "not found"})
	case errors.Is(err, services.ErrForbidden):
		return c.Status(fiber.StatusForbidden).JSON(fiber.Map{"error": "you are not allowed to do that"})
	}

	return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
		"error": "internal error",
		"cause": err.Error(),
	})
}

// badJSON is the malformed-body response, kept distinct from field-level
// validation failures.
func badJSON(c *fiber.Ctx) error {
	return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid JSON body"})
}
