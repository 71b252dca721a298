package account

import (
	"errors"
	"net/http"

	"github.com/gofiber/fiber/v2"

	"github.com/azure-wallet/azure_wallet/internal/auth"
)

// Handler exposes registration and login endpoints.
type Handler struct {
	service *Service
	tokens  *auth.Service
}

// NewHandler builds an account HTTP handler.
func NewHandler(service *Service, tokens *auth.Service) *Handler {
	return &Handler{service: service, tokens: tokens}
}

type registerRequest struct {
	Username string `json:"username"`
	PIN      string `json:"pin"`
	Mobile   string `json:"mobile"`
}

// Register creates a new account.
func (h *Handler) Register(c *fiber.Ctx) error {
	var req registerRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(http.StatusBadRequest, err.Error())
	}

	acc, err := h.service.Register(c.UserContext(), Credentials{Username: req.Username, PIN: req.PIN, Mobile: req.Mobile})
	if err != nil {
		switch {
		case errors.Is(err, ErrDuplicateUsername), errors.Is(err, ErrDuplicateMobile):
			return fiber.NewError(http.StatusConflict, err.Error())
		case errors.Is(err, ErrInvalidUsername), errors.Is(err, ErrInvalidMobile), errors.Is(err, ErrInvalidPIN):
			return fiber.NewError(http.StatusBadRequest, err.Error())
		default:
			return fiber.NewError(http.StatusInternalServerError, err.Error())
		}
	}

	return c.Status(http.StatusCreated).JSON(fiber.Map{
		"username": acc.Username,
		"mobile":   acc.Mobile,
		"rank":     acc.Rank.String(),
	})
}

type loginRequest struct {
	Username string `json:"username"`
	PIN      string `json:"pin"`
}

// Login verifies the PIN and issues a session token.
func (h *Handler) Login(c *fiber.Ctx) error {
	var req loginRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(http.StatusBadRequest, err.Error())
	}

	acc, err := h.service.Authenticate(c.UserContext(), req.Username, req.PIN)
	if err != nil {
		var locked *LockedError
		switch {
		case errors.As(err, &locked):
			return c.Status(http.StatusLocked).JSON(fiber.Map{
				"error":             "account locked",
				"remaining_seconds": int64(locked.Remaining.Seconds()),
			})
		case errors.Is(err, ErrNotFound):
			return fiber.NewError(http.StatusNotFound, err.Error())
		case errors.Is(err, ErrWrongPIN):
			return fiber.NewError(http.StatusUnauthorized, err.Error())
		default:
			return fiber.NewError(http.StatusInternalServerError, err.Error())
		}
	}

	token, err := h.tokens.Issue(acc.Username, acc.Rank)
	if err != nil {
		return fiber.NewError(http.StatusInternalServerError, err.Error())
	}

	return c.Status(http.StatusOK).JSON(fiber.Map{
		"username":     acc.Username,
		"rank":         acc.Rank.String(),
		"access_token": token.Value,
		"expires_in":   token.ExpiresIn,
	})
}
