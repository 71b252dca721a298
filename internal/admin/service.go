package admin

import (
	"context"
	"crypto/subtle"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/azure-wallet/azure_wallet/internal/account"
	"github.com/azure-wallet/azure_wallet/internal/journal"
	"github.com/azure-wallet/azure_wallet/internal/scheduler"
	"github.com/azure-wallet/azure_wallet/internal/voucher"
)

// ErrAccessDenied indicates a bad admin secret.
var ErrAccessDenied = errors.New("access denied")

// Service exposes the administrative surface: inspection, bulk deletion,
// data wipe, manual accrual trigger and bulk voucher issuance. Every action
// is appended to the admin activity log.
type Service struct {
	secret    string
	accounts  account.Repository
	vouchers  *voucher.Service
	journal   journal.Recorder
	scheduler *scheduler.Scheduler
	logger    *slog.Logger
}

// NewService builds the admin service guarded by a shared secret.
func NewService(secret string, accounts account.Repository, vouchers *voucher.Service, rec journal.Recorder, sched *scheduler.Scheduler, logger *slog.Logger) *Service {
	return &Service{
		secret:    secret,
		accounts:  accounts,
		vouchers:  vouchers,
		journal:   rec,
		scheduler: sched,
		logger:    logger,
	}
}

// Authorize validates the shared admin secret in constant time.
func (s *Service) Authorize(secret string) error {
	if s.secret == "" || subtle.ConstantTimeCompare([]byte(secret), []byte(s.secret)) != 1 {
		return ErrAccessDenied
	}
	return nil
}

// ListAccounts returns every registered account.
func (s *Service) ListAccounts(ctx context.Context) ([]account.Account, error) {
	accounts, err := s.accounts.List(ctx)
	if err != nil {
		return nil, err
	}
	s.log(ctx, "Viewed all users.")
	return accounts, nil
}

// Summary is the system dashboard snapshot.
type Summary struct {
	TotalUsers       int
	ActiveVouchers   int
	LastAccrualRun   time.Time
	RevenueCollected int64
}

// Summarize builds the system summary dashboard.
func (s *Service) Summarize(ctx context.Context) (Summary, error) {
	users, err := s.accounts.Count(ctx)
	if err != nil {
		return Summary{}, err
	}
	active, err := s.vouchers.CountActive(ctx)
	if err != nil {
		return Summary{}, err
	}
	lastRun, err := s.journal.LastSchedulerRun(ctx)
	if err != nil {
		return Summary{}, err
	}
	revenue, err := s.journal.Revenue(ctx)
	if err != nil {
		return Summary{}, err
	}
	s.log(ctx, "Viewed system summary.")
	return Summary{TotalUsers: users, ActiveVouchers: active, LastAccrualRun: lastRun, RevenueCollected: revenue}, nil
}

// Revenue returns total fees collected.
func (s *Service) Revenue(ctx context.Context) (int64, error) {
	total, err := s.journal.Revenue(ctx)
	if err != nil {
		return 0, err
	}
	s.log(ctx, "Viewed system revenue.")
	return total, nil
}

// ActivityLog returns the admin action history.
func (s *Service) ActivityLog(ctx context.Context) ([]string, error) {
	return s.journal.ListAdminActions(ctx)
}

// DeleteAccount removes one account.
func (s *Service) DeleteAccount(ctx context.Context, username string) error {
	if err := s.accounts.Delete(ctx, username); err != nil {
		return err
	}
	s.log(ctx, fmt.Sprintf("Deleted user: %s", username))
	return nil
}

// DeleteAllAccounts removes every account.
func (s *Service) DeleteAllAccounts(ctx context.Context) error {
	if err := s.accounts.DeleteAll(ctx); err != nil {
		return err
	}
	s.log(ctx, "Deleted all users.")
	return nil
}

// WipeData clears accounts, vouchers and every journal record.
func (s *Service) WipeData(ctx context.Context) error {
	if err := s.accounts.DeleteAll(ctx); err != nil {
		return err
	}
	if err := s.vouchers.Wipe(ctx); err != nil {
		return err
	}
	if err := s.journal.Reset(ctx); err != nil {
		return err
	}
	s.log(ctx, "Cleared all system data.")
	return nil
}

// TriggerAccrual runs one interest pass immediately. A pass already in
// flight surfaces scheduler.ErrAlreadyRunning.
func (s *Service) TriggerAccrual(ctx context.Context) error {
	if err := s.scheduler.Trigger(ctx); err != nil {
		return err
	}
	s.log(ctx, "Scheduler manually executed.")
	return nil
}

// IssueVouchers grants one rank-priced voucher to every user that does not
// already hold one.
func (s *Service) IssueVouchers(ctx context.Context) ([]voucher.Voucher, error) {
	accounts, err := s.accounts.List(ctx)
	if err != nil {
		return nil, err
	}
	holders := make([]voucher.Holder, 0, len(accounts))
	for _, acc := range accounts {
		holders = append(holders, voucher.Holder{Username: acc.Username, Tier: acc.Rank})
	}
	issued, err := s.vouchers.IssueForAll(ctx, holders)
	if err != nil {
		return issued, err
	}
	s.log(ctx, fmt.Sprintf("Generated one voucher per user (%d issued).", len(issued)))
	return issued, nil
}

func (s *Service) log(ctx context.Context, action string) {
	if err := s.journal.AppendAdminAction(ctx, action); err != nil && s.logger != nil {
		s.logger.Warn("append admin action", "error", err)
	}
}
