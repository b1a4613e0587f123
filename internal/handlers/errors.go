package handlers

import (
	"errors"
	"log"

	"github.com/gofiber/fiber/v2"

	"github.com/example/foodhunter/internal/services"
)

// respondError maps service failures to their stable code and HTTP status.
// Anything else is logged server-side and answered with a generic
// persistence failure, so driver or query text never reaches a client.
func respondError(c *fiber.Ctx, err error) error {
	var svcErr *services.ServiceError
	if !errors.As(err, &svcErr) {
		log.Printf("[HTTP] %s %s failed: %v", c.Method(), c.Path(), err)
		svcErr = services.ErrPersistenceFailure
	}
	return c.Status(svcErr.Status).JSON(fiber.Map{
		"success":   false,
		"code":      svcErr.Code,
		"message":   svcErr.Message,
		"retryable": svcErr.Retryable(),
	})
}
