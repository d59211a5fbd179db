package handlers

import (
	"log"

	"github.com/gofiber/fiber/v2"

	"github.com/sahyadri-heights/carpool-backend/internal/apperr"
)

// respondError maps a service error to an HTTP response. Unexpected
// errors are logged server-side and returned as a generic failure.
func respondError(c *fiber.Ctx, err error) error {
	if apperr.KindOf(err) == apperr.KindUnexpected {
		log.Printf("Unexpected error on %s %s: %v", c.Method(), c.Path(), err)
	}
	return c.Status(apperr.StatusCode(err)).JSON(fiber.Map{
		"error": apperr.Message(err),
	})
}
