package routes

import (
	"github.com/gofiber/fiber/v2"

	"github.com/azure-wallet/azure_wallet/internal/wallet"
)

// RegisterWalletRoutes wires the wallet operation endpoints.
func RegisterWalletRoutes(r fiber.Router, h *wallet.Handler) {
	r.Get("/wallet", h.Snapshot)
	r.Get("/wallet/transactions", h.Statement)
	r.Get("/wallet/vouchers", h.Vouchers)
	r.Post("/wallet/deposit", h.Deposit)
	r.Post("/wallet/withdraw", h.Withdraw)
	r.Post("/wallet/pay", h.Pay)
	r.Post("/wallet/transfer", h.Transfer)
	r.Post("/wallet/points/redeem", h.RedeemPoints)
	r.Post("/wallet/vouchers/redeem", h.RedeemVoucher)
}
