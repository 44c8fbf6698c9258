package http

import (
	"crypto/subtle"
	"strings"

	"github.com/gofiber/fiber/v2"
)

// AdminMiddleware requires "Authorization: Bearer <token>" on library writes.
func AdminMiddleware(token string) fiber.Handler {
	return func(c *fiber.Ctx) error {
		if token == "" {
			return errForbidden(c, "library writes are disabled")
		}
		got, ok := strings.CutPrefix(c.Get(fiber.HeaderAuthorization), "Bearer ")
		if !ok || subtle.ConstantTimeCompare([]byte(got), []byte(token)) != 1 {
			return errUnauthorized(c, "missing or invalid admin token")
		}
		return c.Next()
	}
}
