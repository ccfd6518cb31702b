package middleware

import (
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/sirupsen/logrus"
	"github.com/theleywin/talent-nest-friends/src/lib"
)

const userIDKey = "userId"

// ProtectRoute checks the bearer token and attaches the caller's user id to
// the request context. Issuing tokens is handled by the auth service.
func ProtectRoute(secret string) fiber.Handler {
	return func(c *fiber.Ctx) error {
		authHeader := c.Get(fiber.HeaderAuthorization)
		if authHeader == "" {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
				"success": false,
				"error":   "Unauthorized - no token provided",
			})
		}

		token, ok := strings.CutPrefix(authHeader, "Bearer ")
		if !ok || token == "" {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
				"success": false,
				"error":   "Unauthorized - invalid token format",
			})
		}

		userID, err := lib.VerifyJWT(secret, token)
		if err != nil {
			logrus.WithFields(logrus.Fields{
				"function": "ProtectRoute",
				"path":     c.Path(),
			}).WithError(err).Debug("Rejected token")
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
				"success": false,
				"error":   "Unauthorized - invalid token",
			})
		}

		c.Locals(userIDKey, userID)
		return c.Next()
	}
}

// UserID returns the id attached by ProtectRoute.
func UserID(c *fiber.Ctx) string {
	id, _ := c.Locals(userIDKey).(string)
	return id
}
