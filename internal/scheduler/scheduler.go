package scheduler

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"github.com/azure-wallet/azure_wallet/internal/account"
	"github.com/azure-wallet/azure_wallet/internal/journal"
)

// ErrAlreadyRunning reports that a trigger arrived while an accrual pass was
// in flight. The trigger is a no-op; at most one pass runs at a time.
var ErrAlreadyRunning = errors.New("accrual already running")

// Scheduler applies monthly interest to every account. It alternates between
// Idle and Running: a timer tick or a manual trigger moves it to Running,
// and it returns to Idle once the pass finishes.
type Scheduler struct {
	accounts account.Repository
	locks    *account.Locker
	journal  journal.Recorder
	logger   *slog.Logger
	interval time.Duration
	running  atomic.Bool
	now      func() time.Time
}

// New builds an accrual scheduler.
func New(accounts account.Repository, locks *account.Locker, rec journal.Recorder, logger *slog.Logger, interval time.Duration) *Scheduler {
	return &Scheduler{
		accounts: accounts,
		locks:    locks,
		journal:  rec,
		logger:   logger,
		interval: interval,
		now:      time.Now,
	}
}

// WithClock overrides the time source for tests.
func (s *Scheduler) WithClock(now func() time.Time) *Scheduler {
	s.now = now
	return s
}

// Start launches the periodic accrual loop. It returns when ctx is done.
func (s *Scheduler) Start(ctx context.Context) {
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := s.Trigger(ctx); err != nil && !errors.Is(err, ErrAlreadyRunning) {
				s.logger.Error("accrual pass failed", "error", err)
			}
		}
	}
}

// Trigger runs one accrual pass immediately. Triggering while a pass is in
// flight returns ErrAlreadyRunning without touching any account.
func (s *Scheduler) Trigger(ctx context.Context) error {
	if !s.running.CompareAndSwap(false, true) {
		return ErrAlreadyRunning
	}
	defer s.running.Store(false)

	accounts, err := s.accounts.List(ctx)
	if err != nil {
		return err
	}

	credited := 0
	for _, acc := range accounts {
		if err := s.applyInterest(ctx, acc.Username); err != nil {
			// The run timestamp stays unset on failure, so a retried pass
			// revisits every account, including ones credited before the
			// failure.
			return err
		}
		credited++
	}

	runAt := s.now().UTC()
	if s.journal != nil {
		if err := s.journal.RecordSchedulerRun(ctx, runAt); err != nil {
			return err
		}
	}

	s.logger.Info("accrual pass completed", "accounts", credited, "at", runAt)
	return nil
}

// Running reports whether an accrual pass is currently in flight.
func (s *Scheduler) Running() bool {
	return s.running.Load()
}

// applyInterest credits one account under its lock so interest never races a
// concurrent wallet operation on the same account.
func (s *Scheduler) applyInterest(ctx context.Context, username string) error {
	release := s.locks.Acquire(username)
	defer release()

	acc, err := s.accounts.Get(ctx, username)
	if err != nil {
		if errors.Is(err, account.ErrNotFound) {
			// Deleted between List and lock acquisition; nothing to credit.
			return nil
		}
		return err
	}

	interest := acc.Rank.Interest(acc.Balance)
	if interest == 0 {
		return nil
	}

	acc.Balance += interest
	if err := s.accounts.Update(ctx, acc); err != nil {
		return err
	}

	if s.journal != nil {
		err := s.journal.AppendTransaction(ctx, journal.TransactionRecord{
			ID:       uuid.NewString(),
			Username: acc.Username,
			Kind:     journal.KindInterest,
			Amount:   interest,
			At:       s.now().UTC(),
		})
		if err != nil {
			return fmt.Errorf("record interest: %w", err)
		}
	}
	return nil
}
