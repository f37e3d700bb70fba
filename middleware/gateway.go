// middleware/gateway_auth.go
package middleware

import (
	"log"
	"os"
	"strings"

	"github.com/gofiber/fiber/v2"
)

// GatewayAuthMiddleware validates the shared service token from the Gateway.
// Every request, public or secured, must come through the Gateway.
func GatewayAuthMiddleware() fiber.Handler {
	expectedToken := os.Getenv("REVIEW_SERVICE_TOKEN")
	if expectedToken == "" {
		log.Fatal("❌ REVIEW_SERVICE_TOKEN is not set — service cannot authenticate Gateway")
	}

	return func(c *fiber.Ctx) error {
		token := c.Get("X-Service-Token")
		if token == "" {
			// some Gateway deployments send it as a bearer header instead
			token = strings.TrimPrefix(c.Get("Authorization"), "Bearer ")
		}

		if token == "" {
			log.Printf("🚫 [GATEWAY_AUTH] Missing service token for %s", c.Path())
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
				"error": "gateway authentication token missing",
			})
		}

		if token != expectedToken {
			log.Printf("❌ [GATEWAY_AUTH] Invalid service token for %s", c.Path())
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
				"error": "invalid gateway authentication token",
			})
		}

		return c.Next()
	}
}
