package journal

import (
	"context"
	"time"
)

// Kind classifies a transaction record.
const (
	KindDeposit       = "deposit"
	KindWithdraw      = "withdraw"
	KindTransferOut   = "transfer_out"
	KindTransferIn    = "transfer_in"
	KindPayment       = "payment"
	KindVoucherRedeem = "voucher_redeem"
	KindPointsRedeem  = "points_redeem"
	KindInterest      = "interest"
)

// TransactionRecord is one append-only entry in a user's statement.
type TransactionRecord struct {
	ID       string
	Username string
	Kind     string
	Detail   string
	Amount   int64
	At       time.Time
}

// PointsEntry records loyalty points earned or redeemed.
type PointsEntry struct {
	Username string
	Action   string
	Points   int64
	Detail   string
	At       time.Time
}

// VoucherEntry records a voucher issuance or redemption event.
type VoucherEntry struct {
	Username string
	Code     string
	Value    int64
	Action   string
	At       time.Time
}

// Recorder is the persistence collaborator for everything outside the account
// store itself: statements, reward logs, fee revenue and scheduler runs.
// Implementations must keep each append atomic; a failed append reports an
// error and leaves no partial record behind.
type Recorder interface {
	AppendTransaction(ctx context.Context, rec TransactionRecord) error
	ListTransactions(ctx context.Context, username string) ([]TransactionRecord, error)
	AppendPoints(ctx context.Context, entry PointsEntry) error
	AppendVoucherLog(ctx context.Context, entry VoucherEntry) error
	RecordRevenue(ctx context.Context, amount int64) error
	Revenue(ctx context.Context) (int64, error)
	RecordSchedulerRun(ctx context.Context, at time.Time) error
	LastSchedulerRun(ctx context.Context) (time.Time, error)
	AppendAdminAction(ctx context.Context, action string) error
	ListAdminActions(ctx context.Context) ([]string, error)
	Reset(ctx context.Context) error
}
