package routes

import (
	"github.com/gofiber/fiber/v2"

	"github.com/azure-wallet/azure_wallet/internal/admin"
)

// RegisterAdminRoutes wires the administrative surface.
func RegisterAdminRoutes(r fiber.Router, h *admin.Handler) {
	r.Get("/users", h.ListUsers)
	r.Get("/summary", h.Summary)
	r.Get("/revenue", h.Revenue)
	r.Get("/log", h.ActivityLog)
	r.Delete("/users/:username", h.DeleteUser)
	r.Delete("/users", h.DeleteAllUsers)
	r.Post("/wipe", h.Wipe)
	r.Post("/scheduler/run", h.TriggerAccrual)
	r.Post("/vouchers/generate", h.IssueVouchers)
}
