package wallet

import (
	"errors"
	"net/http"

	"github.com/gofiber/fiber/v2"

	"github.com/azure-wallet/azure_wallet/internal/account"
	"github.com/azure-wallet/azure_wallet/internal/voucher"
)

// Handler exposes the wallet operation endpoints. The authenticated username
// is read from request locals set by the session middleware.
type Handler struct {
	service *Service
}

// NewHandler builds a wallet HTTP handler.
func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, ErrInvalidAmount), errors.Is(err, ErrInvalidPoints):
		return http.StatusBadRequest
	case errors.Is(err, ErrLimitExceeded), errors.Is(err, ErrInsufficientFunds):
		return http.StatusUnprocessableEntity
	case errors.Is(err, ErrRecipientNotFound), errors.Is(err, account.ErrNotFound), errors.Is(err, voucher.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, voucher.ErrAlreadyRedeemed):
		return http.StatusConflict
	case errors.Is(err, voucher.ErrNotOwner):
		return http.StatusForbidden
	default:
		return http.StatusInternalServerError
	}
}

func username(c *fiber.Ctx) string {
	u, _ := c.Locals("username").(string)
	return u
}

func resultJSON(c *fiber.Ctx, res Result) error {
	return c.Status(http.StatusOK).JSON(fiber.Map{
		"balance":       res.Balance,
		"points":        res.Points,
		"points_earned": res.PointsEarned,
		"rank":          res.Rank.String(),
		"rank_changed":  res.RankChanged,
	})
}

type amountRequest struct {
	Amount int64 `json:"amount"`
}

// Deposit credits the authenticated account.
func (h *Handler) Deposit(c *fiber.Ctx) error {
	var req amountRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(http.StatusBadRequest, err.Error())
	}
	res, err := h.service.Deposit(c.UserContext(), username(c), req.Amount)
	if err != nil {
		return fiber.NewError(statusFor(err), err.Error())
	}
	return resultJSON(c, res)
}

// Withdraw debits the authenticated account plus the flat fee.
func (h *Handler) Withdraw(c *fiber.Ctx) error {
	var req amountRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(http.StatusBadRequest, err.Error())
	}
	res, err := h.service.Withdraw(c.UserContext(), username(c), req.Amount)
	if err != nil {
		return fiber.NewError(statusFor(err), err.Error())
	}
	return resultJSON(c, res)
}

type payRequest struct {
	Merchant string `json:"merchant"`
	Amount   int64  `json:"amount"`
}

// Pay debits an online merchant payment.
func (h *Handler) Pay(c *fiber.Ctx) error {
	var req payRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(http.StatusBadRequest, err.Error())
	}
	if req.Merchant == "" {
		return fiber.NewError(http.StatusBadRequest, "merchant is required")
	}
	res, err := h.service.Pay(c.UserContext(), username(c), req.Merchant, req.Amount)
	if err != nil {
		return fiber.NewError(statusFor(err), err.Error())
	}
	return resultJSON(c, res)
}

type transferRequest struct {
	To     string `json:"to"`
	Amount int64  `json:"amount"`
}

// Transfer moves funds to another user.
func (h *Handler) Transfer(c *fiber.Ctx) error {
	var req transferRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(http.StatusBadRequest, err.Error())
	}
	res, err := h.service.Transfer(c.UserContext(), username(c), req.To, req.Amount)
	if err != nil {
		return fiber.NewError(statusFor(err), err.Error())
	}
	return c.Status(http.StatusOK).JSON(fiber.Map{
		"sender_balance":   res.SenderBalance,
		"receiver_balance": res.ReceiverBalance,
	})
}

type redeemPointsRequest struct {
	Points int64 `json:"points"`
}

// RedeemPoints converts loyalty points to balance.
func (h *Handler) RedeemPoints(c *fiber.Ctx) error {
	var req redeemPointsRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(http.StatusBadRequest, err.Error())
	}
	res, err := h.service.RedeemPoints(c.UserContext(), username(c), req.Points)
	if err != nil {
		return fiber.NewError(statusFor(err), err.Error())
	}
	return resultJSON(c, res)
}

type redeemVoucherRequest struct {
	Code string `json:"code"`
}

// RedeemVoucher spends a voucher and credits its value.
func (h *Handler) RedeemVoucher(c *fiber.Ctx) error {
	var req redeemVoucherRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(http.StatusBadRequest, err.Error())
	}
	res, err := h.service.RedeemVoucher(c.UserContext(), username(c), req.Code)
	if err != nil {
		return fiber.NewError(statusFor(err), err.Error())
	}
	return resultJSON(c, res)
}

// Snapshot returns the account dashboard.
func (h *Handler) Snapshot(c *fiber.Ctx) error {
	snap, err := h.service.Snapshot(c.UserContext(), username(c))
	if err != nil {
		return fiber.NewError(statusFor(err), err.Error())
	}
	return c.Status(http.StatusOK).JSON(fiber.Map{
		"username": snap.Username,
		"balance":  snap.Balance,
		"points":   snap.Points,
		"rank":     snap.Rank.String(),
		"vouchers": snap.Vouchers,
	})
}

// Statement returns the transaction history.
func (h *Handler) Statement(c *fiber.Ctx) error {
	records, err := h.service.Statement(c.UserContext(), username(c))
	if err != nil {
		return fiber.NewError(statusFor(err), err.Error())
	}
	out := make([]fiber.Map, 0, len(records))
	for _, rec := range records {
		out = append(out, fiber.Map{
			"id":     rec.ID,
			"kind":   rec.Kind,
			"detail": rec.Detail,
			"amount": rec.Amount,
			"at":     rec.At,
		})
	}
	return c.Status(http.StatusOK).JSON(fiber.Map{"transactions": out})
}

// Vouchers lists the vouchers held by the authenticated user.
func (h *Handler) Vouchers(c *fiber.Ctx) error {
	vouchers, err := h.service.vouchers.ListFor(c.UserContext(), username(c))
	if err != nil {
		return fiber.NewError(statusFor(err), err.Error())
	}
	out := make([]fiber.Map, 0, len(vouchers))
	for _, v := range vouchers {
		out = append(out, fiber.Map{
			"code":     v.Code,
			"value":    v.Value,
			"redeemed": v.Redeemed,
		})
	}
	return c.Status(http.StatusOK).JSON(fiber.Map{"vouchers": out})
}
