package middleware

import (
	"github.com/gofiber/fiber/v2"
)

// APIKeyAuth guards operator routes with a static key from configuration.
func APIKeyAuth(expectedAPIKey string) fiber.Handler {
	return func(c *fiber.Ctx) error {
		apiKey := c.Get("X-API-KEY")

		if apiKey == "" || expectedAPIKey == "" || apiKey != expectedAPIKey {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"status": false, "error": "unauthorized"})
		}

		return c.Next()
	}
}
