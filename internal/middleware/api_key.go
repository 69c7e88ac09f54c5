package middleware

import (
	"crypto/subtle"

	"github.com/gofiber/fiber/v2"
)

// Protected returns a Fiber middleware function that checks the X-API-Key
// shared secret. An absent header (401) is deliberately reported differently
// from a wrong key (403): "didn't send a key" and "sent the wrong key" are
// distinct client mistakes.
// It retrieves the request-scoped logger from the context.
func Protected(apiKey string) fiber.Handler {
	keyBytes := []byte(apiKey)
	return func(c *fiber.Ctx) error {
		logger := GetRequestFileLogger(c)

		provided := c.Get(APIKeyHeader)
		if provided == "" {
			logger.Warn("Missing X-API-Key header") // Now logs with request_id
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
				"error":   "Access denied",
				"message": "Missing 'X-API-Key' header in request.",
			})
		}

		if subtle.ConstantTimeCompare([]byte(provided), keyBytes) != 1 {
			logger.Warn("Invalid API key presented") // Never log the key itself
			return c.Status(fiber.StatusForbidden).JSON(fiber.Map{
				"error":   "Access denied",
				"message": "Invalid API key.",
			})
		}

		// Proceed to the next handler
		return c.Next()
	}
}
