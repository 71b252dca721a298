package admin

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/azure-wallet/azure_wallet/internal/account"
	"github.com/azure-wallet/azure_wallet/internal/journal"
	"github.com/azure-wallet/azure_wallet/internal/logging"
	"github.com/azure-wallet/azure_wallet/internal/rank"
	"github.com/azure-wallet/azure_wallet/internal/scheduler"
	"github.com/azure-wallet/azure_wallet/internal/voucher"
)

func newTestService(t *testing.T) (*Service, account.Repository) {
	t.Helper()
	accounts := account.NewMemoryRepository()
	locks := account.NewLocker()
	rec := journal.NewMemoryRecorder()
	vouchers := voucher.NewService(voucher.NewMemoryRepository(), rec, voucher.NewGenerator(3))
	sched := scheduler.New(accounts, locks, rec, logging.Discard(), time.Hour)
	return NewService("top-secret", accounts, vouchers, rec, sched, logging.Discard()), accounts
}

func seed(t *testing.T, repo account.Repository, username string, balance int64, tier rank.Tier) {
	t.Helper()
	err := repo.Create(context.Background(), account.Account{
		Username: username,
		Mobile:   "09170000" + username[:3],
		Balance:  balance,
		Rank:     tier,
	})
	if err != nil {
		t.Fatalf("seed %s: %v", username, err)
	}
}

func TestAuthorize(t *testing.T) {
	svc, _ := newTestService(t)

	if err := svc.Authorize("top-secret"); err != nil {
		t.Fatalf("expected access, got %v", err)
	}
	if err := svc.Authorize("wrong"); !errors.Is(err, ErrAccessDenied) {
		t.Fatalf("expected ErrAccessDenied, got %v", err)
	}

	// An unset secret denies everything, including the empty string.
	open := NewService("", nil, nil, nil, nil, logging.Discard())
	if err := open.Authorize(""); !errors.Is(err, ErrAccessDenied) {
		t.Fatalf("expected ErrAccessDenied with unset secret, got %v", err)
	}
}

func TestSummarize(t *testing.T) {
	svc, repo := newTestService(t)
	ctx := context.Background()

	seed(t, repo, "alice", 1_000_00, rank.Bronze)
	seed(t, repo, "bobby", 2_000_00, rank.Gold)

	if _, err := svc.IssueVouchers(ctx); err != nil {
		t.Fatalf("issue vouchers: %v", err)
	}
	if err := svc.TriggerAccrual(ctx); err != nil {
		t.Fatalf("trigger accrual: %v", err)
	}

	sum, err := svc.Summarize(ctx)
	if err != nil {
		t.Fatalf("summarize: %v", err)
	}
	if sum.TotalUsers != 2 {
		t.Fatalf("expected 2 users, got %d", sum.TotalUsers)
	}
	if sum.ActiveVouchers != 2 {
		t.Fatalf("expected 2 active vouchers, got %d", sum.ActiveVouchers)
	}
	if sum.LastAccrualRun.IsZero() {
		t.Fatal("expected accrual run timestamp")
	}
}

func TestIssueVouchersSkipsExistingHolders(t *testing.T) {
	svc, repo := newTestService(t)
	ctx := context.Background()

	seed(t, repo, "alice", 0, rank.Bronze)

	first, err := svc.IssueVouchers(ctx)
	if err != nil {
		t.Fatalf("first run: %v", err)
	}
	if len(first) != 1 {
		t.Fatalf("expected 1 voucher, got %d", len(first))
	}

	second, err := svc.IssueVouchers(ctx)
	if err != nil {
		t.Fatalf("second run: %v", err)
	}
	if len(second) != 0 {
		t.Fatalf("repeat run must issue nothing, got %d", len(second))
	}
}

func TestWipeData(t *testing.T) {
	svc, repo := newTestService(t)
	ctx := context.Background()

	seed(t, repo, "alice", 1_000_00, rank.Bronze)
	if _, err := svc.IssueVouchers(ctx); err != nil {
		t.Fatalf("issue vouchers: %v", err)
	}

	if err := svc.WipeData(ctx); err != nil {
		t.Fatalf("wipe: %v", err)
	}

	sum, err := svc.Summarize(ctx)
	if err != nil {
		t.Fatalf("summarize: %v", err)
	}
	if sum.TotalUsers != 0 || sum.ActiveVouchers != 0 || sum.RevenueCollected != 0 {
		t.Fatalf("expected empty system after wipe, got %+v", sum)
	}
}

func TestActivityLogRecordsActions(t *testing.T) {
	svc, repo := newTestService(t)
	ctx := context.Background()

	seed(t, repo, "alice", 0, rank.Bronze)
	if _, err := svc.ListAccounts(ctx); err != nil {
		t.Fatalf("list: %v", err)
	}
	if err := svc.DeleteAccount(ctx, "alice"); err != nil {
		t.Fatalf("delete: %v", err)
	}

	log, err := svc.ActivityLog(ctx)
	if err != nil {
		t.Fatalf("activity log: %v", err)
	}
	if len(log) != 2 {
		t.Fatalf("expected 2 log entries, got %d", len(log))
	}
}
