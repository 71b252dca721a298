package admin

import (
	"errors"
	"net/http"

	"github.com/gofiber/fiber/v2"

	"github.com/azure-wallet/azure_wallet/internal/account"
	"github.com/azure-wallet/azure_wallet/internal/scheduler"
)

// Handler exposes the administrative endpoints. Access control happens in the
// AdminAuth middleware; handlers assume the caller is already authorized.
type Handler struct {
	service *Service
}

// NewHandler builds the admin HTTP handler.
func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

// ListUsers returns every registered account.
func (h *Handler) ListUsers(c *fiber.Ctx) error {
	accounts, err := h.service.ListAccounts(c.UserContext())
	if err != nil {
		return fiber.NewError(http.StatusInternalServerError, err.Error())
	}
	out := make([]fiber.Map, 0, len(accounts))
	for _, acc := range accounts {
		out = append(out, fiber.Map{
			"username": acc.Username,
			"mobile":   acc.Mobile,
			"balance":  acc.Balance,
			"points":   acc.Points,
			"rank":     acc.Rank.String(),
		})
	}
	return c.Status(http.StatusOK).JSON(fiber.Map{"users": out})
}

// Summary returns the system dashboard.
func (h *Handler) Summary(c *fiber.Ctx) error {
	sum, err := h.service.Summarize(c.UserContext())
	if err != nil {
		return fiber.NewError(http.StatusInternalServerError, err.Error())
	}
	return c.Status(http.StatusOK).JSON(fiber.Map{
		"total_users":     sum.TotalUsers,
		"active_vouchers": sum.ActiveVouchers,
		"last_accrual":    sum.LastAccrualRun,
		"revenue":         sum.RevenueCollected,
	})
}

// Revenue returns total fees collected.
func (h *Handler) Revenue(c *fiber.Ctx) error {
	total, err := h.service.Revenue(c.UserContext())
	if err != nil {
		return fiber.NewError(http.StatusInternalServerError, err.Error())
	}
	return c.Status(http.StatusOK).JSON(fiber.Map{"revenue": total})
}

// ActivityLog returns the admin action history.
func (h *Handler) ActivityLog(c *fiber.Ctx) error {
	log, err := h.service.ActivityLog(c.UserContext())
	if err != nil {
		return fiber.NewError(http.StatusInternalServerError, err.Error())
	}
	return c.Status(http.StatusOK).JSON(fiber.Map{"log": log})
}

// DeleteUser removes one account.
func (h *Handler) DeleteUser(c *fiber.Ctx) error {
	if err := h.service.DeleteAccount(c.UserContext(), c.Params("username")); err != nil {
		if errors.Is(err, account.ErrNotFound) {
			return fiber.NewError(http.StatusNotFound, err.Error())
		}
		return fiber.NewError(http.StatusInternalServerError, err.Error())
	}
	return c.SendStatus(http.StatusNoContent)
}

// DeleteAllUsers removes every account.
func (h *Handler) DeleteAllUsers(c *fiber.Ctx) error {
	if err := h.service.DeleteAllAccounts(c.UserContext()); err != nil {
		return fiber.NewError(http.StatusInternalServerError, err.Error())
	}
	return c.SendStatus(http.StatusNoContent)
}

// Wipe clears all system data.
func (h *Handler) Wipe(c *fiber.Ctx) error {
	if err := h.service.WipeData(c.UserContext()); err != nil {
		return fiber.NewError(http.StatusInternalServerError, err.Error())
	}
	return c.SendStatus(http.StatusNoContent)
}

// TriggerAccrual runs one interest pass immediately.
func (h *Handler) TriggerAccrual(c *fiber.Ctx) error {
	if err := h.service.TriggerAccrual(c.UserContext()); err != nil {
		if errors.Is(err, scheduler.ErrAlreadyRunning) {
			return fiber.NewError(http.StatusConflict, err.Error())
		}
		return fiber.NewError(http.StatusInternalServerError, err.Error())
	}
	return c.Status(http.StatusOK).JSON(fiber.Map{"status": "completed"})
}

// IssueVouchers grants one voucher per user.
func (h *Handler) IssueVouchers(c *fiber.Ctx) error {
	issued, err := h.service.IssueVouchers(c.UserContext())
	if err != nil {
		return fiber.NewError(http.StatusInternalServerError, err.Error())
	}
	out := make([]fiber.Map, 0, len(issued))
	for _, v := range issued {
		out = append(out, fiber.Map{"owner": v.Owner, "code": v.Code, "value": v.Value})
	}
	return c.Status(http.StatusOK).JSON(fiber.Map{"issued": out})
}
