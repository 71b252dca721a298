package middleware

import (
	"net/http"
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/azure-wallet/azure_wallet/internal/auth"
)

// UsernameKey is the locals key under which the authenticated username is stored.
const UsernameKey = "username"

// SessionAuth validates bearer session tokens and stores the authenticated
// username in request locals.
func SessionAuth(tokens *auth.Service) fiber.Handler {
	return func(c *fiber.Ctx) error {
		authz := c.Get(fiber.HeaderAuthorization)
		if !strings.HasPrefix(strings.ToLower(authz), "bearer ") {
			return fiber.NewError(http.StatusUnauthorized, "missing bearer token")
		}
		username, err := tokens.Verify(strings.TrimSpace(authz[len("Bearer "):]))
		if err != nil {
			return fiber.NewError(http.StatusUnauthorized, "invalid token")
		}
		c.Locals(UsernameKey, username)
		return c.Next()
	}
}

// AdminAuth guards the administrative surface with the shared secret carried
// in the X-Admin-Secret header.
func AdminAuth(authorize func(secret string) error) fiber.Handler {
	return func(c *fiber.Ctx) error {
		if err := authorize(c.Get("X-Admin-Secret")); err != nil {
			return fiber.NewError(http.StatusForbidden, "access denied")
		}
		return c.Next()
	}
}
