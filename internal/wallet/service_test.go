package wallet

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"

	"github.com/azure-wallet/azure_wallet/internal/account"
	"github.com/azure-wallet/azure_wallet/internal/journal"
	"github.com/azure-wallet/azure_wallet/internal/rank"
	"github.com/azure-wallet/azure_wallet/internal/voucher"
)

type fixture struct {
	accounts account.Repository
	vouchers *voucher.Service
	journal  journal.Recorder
	service  *Service
}

func newFixture() *fixture {
	accounts := account.NewMemoryRepository()
	locks := account.NewLocker()
	rec := journal.NewMemoryRecorder()
	vouchers := voucher.NewService(voucher.NewMemoryRepository(), rec, voucher.NewGenerator(1))
	svc := NewService(accounts, locks, rec, vouchers, nil, DefaultWithdrawFee)
	return &fixture{accounts: accounts, vouchers: vouchers, journal: rec, service: svc}
}

func (f *fixture) seed(t *testing.T, username string, balance, totalTransacted int64) {
	t.Helper()
	acc := account.Account{
		Username:        username,
		Mobile:          fmt.Sprintf("0917%07d", len(username)*13+int(balance%1_000_000)),
		Balance:         balance,
		TotalTransacted: totalTransacted,
		Rank:            rank.ForVolume(totalTransacted),
	}
	if err := f.accounts.Create(context.Background(), acc); err != nil {
		t.Fatalf("seed %s: %v", username, err)
	}
}

func (f *fixture) balance(t *testing.T, username string) int64 {
	t.Helper()
	acc, err := f.accounts.Get(context.Background(), username)
	if err != nil {
		t.Fatalf("get %s: %v", username, err)
	}
	return acc.Balance
}

func TestDepositGrowsVolumeRankAndPoints(t *testing.T) {
	f := newFixture()
	f.seed(t, "alice", 0, 0)
	ctx := context.Background()

	// 250,000.00 total deposited across three deposits under the Bronze and
	// Silver limits: volume reaches Silver and earns 250 points.
	for _, amount := range []int64{100_000_00, 100_000_00, 50_000_00} {
		if _, err := f.service.Deposit(ctx, "alice", amount); err != nil {
			t.Fatalf("deposit %d: %v", amount, err)
		}
	}

	acc, _ := f.accounts.Get(ctx, "alice")
	if acc.TotalTransacted != 250_000_00 {
		t.Fatalf("expected volume 250000.00, got %d", acc.TotalTransacted)
	}
	if acc.Rank != rank.Silver {
		t.Fatalf("expected Silver, got %s", acc.Rank)
	}
	if acc.Points != 250 {
		t.Fatalf("expected 250 points, got %d", acc.Points)
	}
}

func TestDepositRankUpIsObservable(t *testing.T) {
	f := newFixture()
	f.seed(t, "alice", 0, 199_000_00)
	res, err := f.service.Deposit(context.Background(), "alice", 50_000_00)
	if err != nil {
		t.Fatalf("deposit: %v", err)
	}
	if !res.RankChanged || res.Rank != rank.Silver {
		t.Fatalf("expected observable rank-up to Silver, got %+v", res)
	}
}

func TestDepositLimitByRank(t *testing.T) {
	f := newFixture()
	// Gold account: volume 600,000.00, deposit limit 300,000.00.
	f.seed(t, "goldie", 0, 600_000_00)

	if _, err := f.service.Deposit(context.Background(), "goldie", 350_000_00); !errors.Is(err, ErrLimitExceeded) {
		t.Fatalf("expected ErrLimitExceeded, got %v", err)
	}
	if got := f.balance(t, "goldie"); got != 0 {
		t.Fatalf("rejected deposit must not change balance, got %d", got)
	}
}

func TestDepositInvalidAmount(t *testing.T) {
	f := newFixture()
	f.seed(t, "alice", 0, 0)
	for _, amount := range []int64{0, -5_00} {
		if _, err := f.service.Deposit(context.Background(), "alice", amount); !errors.Is(err, ErrInvalidAmount) {
			t.Fatalf("amount %d: expected ErrInvalidAmount, got %v", amount, err)
		}
	}
}

func TestWithdrawCoversAmountPlusFee(t *testing.T) {
	f := newFixture()
	f.seed(t, "alice", 100_00, 0)
	ctx := context.Background()

	res, err := f.service.Withdraw(ctx, "alice", 80_00)
	if err != nil {
		t.Fatalf("withdraw: %v", err)
	}
	if res.Balance != 5_00 {
		t.Fatalf("expected balance 5.00, got %d", res.Balance)
	}

	revenue, _ := f.journal.Revenue(ctx)
	if revenue != DefaultWithdrawFee {
		t.Fatalf("expected fee booked as revenue, got %d", revenue)
	}
}

func TestWithdrawInsufficientIncludingFee(t *testing.T) {
	f := newFixture()
	f.seed(t, "alice", 100_00, 0)

	if _, err := f.service.Withdraw(context.Background(), "alice", 90_00); !errors.Is(err, ErrInsufficientFunds) {
		t.Fatalf("expected ErrInsufficientFunds, got %v", err)
	}
	if got := f.balance(t, "alice"); got != 100_00 {
		t.Fatalf("rejected withdraw must not change balance, got %d", got)
	}
}

func TestWithdrawLimit(t *testing.T) {
	f := newFixture()
	f.seed(t, "alice", 500_000_00, 0) // Bronze: limit 100,000.00

	if _, err := f.service.Withdraw(context.Background(), "alice", 150_000_00); !errors.Is(err, ErrLimitExceeded) {
		t.Fatalf("expected ErrLimitExceeded, got %v", err)
	}
}

func TestPayMerchant(t *testing.T) {
	f := newFixture()
	f.seed(t, "alice", 50_00, 0)
	res, err := f.service.Pay(context.Background(), "alice", "acme-store", 20_00)
	if err != nil {
		t.Fatalf("pay: %v", err)
	}
	if res.Balance != 30_00 {
		t.Fatalf("expected balance 30.00, got %d", res.Balance)
	}
}

func TestTransferMovesFundsAtomically(t *testing.T) {
	f := newFixture()
	f.seed(t, "alice", 10_000_00, 0)
	f.seed(t, "bob", 0, 0)

	res, err := f.service.Transfer(context.Background(), "alice", "bob", 2_000_00)
	if err != nil {
		t.Fatalf("transfer: %v", err)
	}
	if res.SenderBalance != 8_000_00 || res.ReceiverBalance != 2_000_00 {
		t.Fatalf("unexpected balances: %+v", res)
	}
}

func TestTransferUnknownRecipient(t *testing.T) {
	f := newFixture()
	f.seed(t, "alice", 10_000_00, 0)

	if _, err := f.service.Transfer(context.Background(), "alice", "ghost", 1_00); !errors.Is(err, ErrRecipientNotFound) {
		t.Fatalf("expected ErrRecipientNotFound, got %v", err)
	}
	if got := f.balance(t, "alice"); got != 10_000_00 {
		t.Fatalf("failed transfer must not change sender balance, got %d", got)
	}
}

func TestTransferSelfIsPermitted(t *testing.T) {
	f := newFixture()
	f.seed(t, "alice", 10_000_00, 0)

	res, err := f.service.Transfer(context.Background(), "alice", "alice", 1_000_00)
	if err != nil {
		t.Fatalf("self transfer: %v", err)
	}
	if res.SenderBalance != 10_000_00 {
		t.Fatalf("self transfer must leave balance unchanged, got %d", res.SenderBalance)
	}
}

// failingRepo simulates a storage fault on Update for chosen usernames.
type failingRepo struct {
	account.Repository
	failFor map[string]bool
}

func (r *failingRepo) Update(ctx context.Context, acc account.Account) error {
	if r.failFor[acc.Username] {
		return errors.New("storage fault")
	}
	return r.Repository.Update(ctx, acc)
}

func TestTransferRollsBackDebitWhenCreditFails(t *testing.T) {
	f := newFixture()
	f.seed(t, "alice", 10_000_00, 0)
	f.seed(t, "bob", 0, 0)

	faulty := &failingRepo{Repository: f.accounts, failFor: map[string]bool{"bob": true}}
	svc := NewService(faulty, account.NewLocker(), f.journal, f.vouchers, nil, DefaultWithdrawFee)

	if _, err := svc.Transfer(context.Background(), "alice", "bob", 2_000_00); err == nil {
		t.Fatal("expected transfer to fail")
	}
	if got := f.balance(t, "alice"); got != 10_000_00 {
		t.Fatalf("debit must be rolled back, sender balance %d", got)
	}
	if got := f.balance(t, "bob"); got != 0 {
		t.Fatalf("credit must not be applied, receiver balance %d", got)
	}
}

func TestConcurrentOppositeTransfersDoNotDeadlockOrLoseMoney(t *testing.T) {
	f := newFixture()
	f.seed(t, "alice", 1_000_00, 0)
	f.seed(t, "bob", 1_000_00, 0)
	ctx := context.Background()

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(2)
		go func() {
			defer wg.Done()
			_, _ = f.service.Transfer(ctx, "alice", "bob", 10_00)
		}()
		go func() {
			defer wg.Done()
			_, _ = f.service.Transfer(ctx, "bob", "alice", 10_00)
		}()
	}
	wg.Wait()

	total := f.balance(t, "alice") + f.balance(t, "bob")
	if total != 2_000_00 {
		t.Fatalf("money not conserved: total %d", total)
	}
	if f.balance(t, "alice") < 0 || f.balance(t, "bob") < 0 {
		t.Fatal("balance went negative")
	}
}

func TestBalanceNeverNegativeUnderRandomOperations(t *testing.T) {
	f := newFixture()
	f.seed(t, "alice", 0, 0)
	f.seed(t, "bob", 0, 0)
	ctx := context.Background()

	// Deterministic pseudo-random walk over the operation set; every
	// rejection must leave balances untouched and no sequence may drive a
	// balance below zero.
	state := uint64(42)
	next := func(n int64) int64 {
		state = state*6364136223846793005 + 1442695040888963407
		return int64(state>>33) % n
	}

	for i := 0; i < 500; i++ {
		user := "alice"
		if next(2) == 0 {
			user = "bob"
		}
		amount := next(200_000_00) - 10_00
		switch next(4) {
		case 0:
			_, _ = f.service.Deposit(ctx, user, amount)
		case 1:
			_, _ = f.service.Withdraw(ctx, user, amount)
		case 2:
			_, _ = f.service.Transfer(ctx, user, "bob", amount)
		case 3:
			_, _ = f.service.Pay(ctx, user, "store", amount)
		}

		if a := f.balance(t, "alice"); a < 0 {
			t.Fatalf("step %d: alice balance negative: %d", i, a)
		}
		if b := f.balance(t, "bob"); b < 0 {
			t.Fatalf("step %d: bob balance negative: %d", i, b)
		}
	}
}

// failingRecorder simulates a journal outage for selected operations.
type failingRecorder struct {
	journal.Recorder
	revenueErr error
	pointsErr  error
}

func (r *failingRecorder) RecordRevenue(ctx context.Context, amount int64) error {
	if r.revenueErr != nil {
		return r.revenueErr
	}
	return r.Recorder.RecordRevenue(ctx, amount)
}

func (r *failingRecorder) AppendPoints(ctx context.Context, entry journal.PointsEntry) error {
	if r.pointsErr != nil {
		return r.pointsErr
	}
	return r.Recorder.AppendPoints(ctx, entry)
}

func TestWithdrawSurfacesRevenueRecordFailure(t *testing.T) {
	f := newFixture()
	f.seed(t, "alice", 100_00, 0)
	rec := &failingRecorder{Recorder: f.journal, revenueErr: errors.New("revenue store down")}
	svc := NewService(f.accounts, account.NewLocker(), rec, f.vouchers, nil, DefaultWithdrawFee)

	if _, err := svc.Withdraw(context.Background(), "alice", 50_00); err == nil {
		t.Fatal("expected withdraw to surface the revenue record failure")
	}
	revenue, _ := f.journal.Revenue(context.Background())
	if revenue != 0 {
		t.Fatalf("expected no revenue booked, got %d", revenue)
	}
}

func TestDepositSurfacesPointsRecordFailure(t *testing.T) {
	f := newFixture()
	f.seed(t, "alice", 0, 0)
	rec := &failingRecorder{Recorder: f.journal, pointsErr: errors.New("points log down")}
	svc := NewService(f.accounts, account.NewLocker(), rec, f.vouchers, nil, DefaultWithdrawFee)

	if _, err := svc.Deposit(context.Background(), "alice", 5_000_00); err == nil {
		t.Fatal("expected deposit to surface the points record failure")
	}
}

func TestRedeemPoints(t *testing.T) {
	f := newFixture()
	f.seed(t, "alice", 0, 0)
	ctx := context.Background()

	// 5,000.00 deposited earns 5 points.
	if _, err := f.service.Deposit(ctx, "alice", 5_000_00); err != nil {
		t.Fatalf("deposit: %v", err)
	}

	res, err := f.service.RedeemPoints(ctx, "alice", 5)
	if err != nil {
		t.Fatalf("redeem points: %v", err)
	}
	if res.Points != 0 {
		t.Fatalf("expected 0 points left, got %d", res.Points)
	}
	if res.Balance != 5_000_00+5_00 {
		t.Fatalf("expected 5.00 credited, got balance %d", res.Balance)
	}

	if _, err := f.service.RedeemPoints(ctx, "alice", 1); !errors.Is(err, ErrInvalidPoints) {
		t.Fatalf("expected ErrInvalidPoints on overdraw, got %v", err)
	}
	if _, err := f.service.RedeemPoints(ctx, "alice", 0); !errors.Is(err, ErrInvalidPoints) {
		t.Fatalf("expected ErrInvalidPoints on zero, got %v", err)
	}
}

func TestRedeemVoucherCreditsValueOnce(t *testing.T) {
	f := newFixture()
	f.seed(t, "alice", 0, 0)
	ctx := context.Background()

	v, err := f.vouchers.Issue(ctx, "alice", 75_00)
	if err != nil {
		t.Fatalf("issue: %v", err)
	}

	res, err := f.service.RedeemVoucher(ctx, "alice", v.Code)
	if err != nil {
		t.Fatalf("redeem: %v", err)
	}
	if res.Balance != 75_00 {
		t.Fatalf("expected 75.00 credited, got %d", res.Balance)
	}

	if _, err := f.service.RedeemVoucher(ctx, "alice", v.Code); !errors.Is(err, voucher.ErrAlreadyRedeemed) {
		t.Fatalf("expected ErrAlreadyRedeemed, got %v", err)
	}
	if got := f.balance(t, "alice"); got != 75_00 {
		t.Fatalf("double redemption must not credit again, got %d", got)
	}
}

func TestStatementRecordsOperations(t *testing.T) {
	f := newFixture()
	f.seed(t, "alice", 0, 0)
	f.seed(t, "bob", 0, 0)
	ctx := context.Background()

	_, _ = f.service.Deposit(ctx, "alice", 1_000_00)
	_, _ = f.service.Transfer(ctx, "alice", "bob", 200_00)

	records, err := f.service.Statement(ctx, "alice")
	if err != nil {
		t.Fatalf("statement: %v", err)
	}
	if len(records) != 2 {
		t.Fatalf("expected 2 records, got %d", len(records))
	}
	if records[0].Kind != journal.KindDeposit || records[1].Kind != journal.KindTransferOut {
		t.Fatalf("unexpected kinds: %s, %s", records[0].Kind, records[1].Kind)
	}

	bobRecords, _ := f.service.Statement(ctx, "bob")
	if len(bobRecords) != 1 || bobRecords[0].Kind != journal.KindTransferIn {
		t.Fatalf("expected transfer-in for bob, got %+v", bobRecords)
	}
}
