package routes

import (
	"github.com/gofiber/fiber/v2"

	"github.com/azure-wallet/azure_wallet/internal/account"
)

// RegisterAccountRoutes wires registration and login endpoints. The rate
// limiter guards login against brute-force PIN guessing on top of the
// account-level lockout.
func RegisterAccountRoutes(r fiber.Router, h *account.Handler, rateLimiter fiber.Handler) {
	r.Post("/accounts/register", h.Register)
	r.Post("/accounts/login", rateLimiter, h.Login)
}
