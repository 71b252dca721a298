package routes

import (
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"

	"github.com/azure-wallet/azure_wallet/internal/account"
	"github.com/azure-wallet/azure_wallet/internal/admin"
	"github.com/azure-wallet/azure_wallet/internal/auth"
	"github.com/azure-wallet/azure_wallet/internal/config"
	"github.com/azure-wallet/azure_wallet/internal/journal"
	"github.com/azure-wallet/azure_wallet/internal/middleware"
	"github.com/azure-wallet/azure_wallet/internal/notification"
	"github.com/azure-wallet/azure_wallet/internal/scheduler"
	"github.com/azure-wallet/azure_wallet/internal/voucher"
	"github.com/azure-wallet/azure_wallet/internal/wallet"
)

// Deps aggregates shared dependencies required to wire routes.
type Deps struct {
	Cfg    config.Config
	DB     *pgxpool.Pool
	Cache  *redis.Client
	Logger *slog.Logger
}

// Setup configures middlewares and all application routes. It returns the
// accrual scheduler so the caller can run its periodic loop.
func Setup(app *fiber.App, d Deps) (*scheduler.Scheduler, error) {
	if !d.Cfg.IsDev() {
		if d.DB == nil {
			return nil, fmt.Errorf("database is required when APP_ENV=%s", d.Cfg.AppEnv)
		}
		if d.Cache == nil {
			return nil, fmt.Errorf("redis is required when APP_ENV=%s", d.Cfg.AppEnv)
		}
	}

	app.Use(recover.New())
	app.Use(middleware.RequestID())
	app.Use(middleware.Audit(d.Logger))

	RegisterHealthRoutes(app, d)

	var accountRepo account.Repository
	var voucherRepo voucher.Repository
	var recorder journal.Recorder
	if d.DB != nil {
		accountRepo = account.NewPostgresRepository(d.DB)
		voucherRepo = voucher.NewPostgresRepository(d.DB)
		recorder = journal.NewPostgresRecorder(d.DB)
	} else {
		accountRepo = account.NewMemoryRepository()
		voucherRepo = voucher.NewMemoryRepository()
		recorder = journal.NewMemoryRecorder()
	}

	locks := account.NewLocker()
	notifier := notification.NewLoggerNotifier(d.Logger)
	accountSvc := account.NewService(accountRepo, locks)
	tokenSvc := auth.NewService(d.Cfg.JWTSecret, d.Cfg.AccessTokenTTL)
	voucherSvc := voucher.NewService(voucherRepo, recorder, voucher.NewDefaultGenerator())
	walletSvc := wallet.NewService(accountRepo, locks, recorder, voucherSvc, notifier, d.Cfg.WithdrawFee)
	sched := scheduler.New(accountRepo, locks, recorder, d.Logger, d.Cfg.AccrualInterval)
	adminSvc := admin.NewService(d.Cfg.AdminSecret, accountRepo, voucherSvc, recorder, sched, d.Logger)

	accountHandler := account.NewHandler(accountSvc, tokenSvc)
	walletHandler := wallet.NewHandler(walletSvc)
	adminHandler := admin.NewHandler(adminSvc)

	api := app.Group("/api/v1")
	api.Get("/ping", func(c *fiber.Ctx) error {
		reqID, _ := c.Locals("X-Request-ID").(string)
		return c.Status(http.StatusOK).JSON(fiber.Map{
			"status":     "ok",
			"request_id": reqID,
			"timestamp":  time.Now().UTC().Format(time.RFC3339Nano),
		})
	})

	rateLimiter := middleware.LoginRateLimit(d.Cache, 5)
	RegisterAccountRoutes(api, accountHandler, rateLimiter)

	protected := api.Group("", middleware.SessionAuth(tokenSvc))
	if d.Cache != nil {
		protected = protected.Group("", middleware.Idempotency(d.Cache, d.Cfg.IdempotencyTTL, d.Logger))
	}
	RegisterWalletRoutes(protected, walletHandler)

	adminGroup := api.Group("/admin", middleware.AdminAuth(adminSvc.Authorize))
	RegisterAdminRoutes(adminGroup, adminHandler)

	return sched, nil
}
