package middleware

import (
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"

	"github.com/example/foodhunter/internal/config"
	"github.com/example/foodhunter/internal/utils"
)

const (
	userContextKey   = "currentUserID"
	vendorContextKey = "currentVendorID"
)

// AuthMiddleware validates JWT tokens for the given role and loads the
// authenticated subject ID into context.
func AuthMiddleware(cfg *config.Config, role string) fiber.Handler {
	return func(c *fiber.Ctx) error {
		authHeader := c.Get("Authorization")
		if authHeader == "" {
			return fiber.NewError(fiber.StatusUnauthorized, "missing authorization header")
		}

		parts := strings.SplitN(authHeader, " ", 2)
		if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
			return fiber.NewError(fiber.StatusUnauthorized, "invalid authorization header")
		}

		subjectID, tokenRole, err := utils.ParseToken(cfg.JWTSecret, parts[1])
		if err != nil {
			return fiber.NewError(fiber.StatusUnauthorized, "invalid token")
		}
		if tokenRole != role {
			return fiber.NewError(fiber.StatusForbidden, "wrong account type for this endpoint")
		}

		switch role {
		case utils.RoleVendor:
			c.Locals(vendorContextKey, subjectID)
		default:
			c.Locals(userContextKey, subjectID)
		}
		return c.Next()
	}
}

// GetCurrentUserID extracts the authenticated customer ID from context.
func GetCurrentUserID(c *fiber.Ctx) (uuid.UUID, bool) {
	return localUUID(c, userContextKey)
}

// GetCurrentVendorID extracts the authenticated vendor ID from context.
func GetCurrentVendorID(c *fiber.Ctx) (uuid.UUID, bool) {
	return localUUID(c, vendorContextKey)
}

func localUUID(c *fiber.Ctx, key string) (uuid.UUID, bool) {
	value := c.Locals(key)
	if value == nil {
		return uuid.Nil, false
	}

	if id, ok := value.(uuid.UUID); ok {
		return id, true
	}

	return uuid.Nil, false
}
