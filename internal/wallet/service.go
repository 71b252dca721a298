package wallet

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/azure-wallet/azure_wallet/internal/account"
	"github.com/azure-wallet/azure_wallet/internal/journal"
	"github.com/azure-wallet/azure_wallet/internal/notification"
	"github.com/azure-wallet/azure_wallet/internal/rank"
	"github.com/azure-wallet/azure_wallet/internal/voucher"
)

// DefaultWithdrawFee is the flat fee applied to cash withdrawals, in centavos.
const DefaultWithdrawFee = 15_00

// pointsUnit: one loyalty point per 1000 whole currency deposited.
const pointsUnit = 1_000_00

// pointValue is the redemption rate: 1.00 currency per point.
const pointValue = 1_00

// Service orchestrates all balance-mutating wallet operations. Every mutation
// runs under the per-account lock discipline so no two operations can
// observe-then-commit the same account concurrently.
type Service struct {
	accounts account.Repository
	locks    *account.Locker
	journal  journal.Recorder
	vouchers *voucher.Service
	notifier notification.Notifier
	fee      int64
	now      func() time.Time
}

// NewService builds the wallet orchestrator. A nil notifier disables rank-up
// and transfer notifications; fee <= 0 falls back to DefaultWithdrawFee.
func NewService(accounts account.Repository, locks *account.Locker, rec journal.Recorder, vouchers *voucher.Service, notifier notification.Notifier, fee int64) *Service {
	if fee <= 0 {
		fee = DefaultWithdrawFee
	}
	return &Service{
		accounts: accounts,
		locks:    locks,
		journal:  rec,
		vouchers: vouchers,
		notifier: notifier,
		fee:      fee,
		now:      time.Now,
	}
}

// WithdrawFee returns the configured flat withdrawal fee.
func (s *Service) WithdrawFee() int64 { return s.fee }

// Result describes the account state after a wallet operation.
type Result struct {
	Balance      int64
	Points       int64
	PointsEarned int64
	Rank         rank.Tier
	RankChanged  bool
}

// Deposit credits the account, grows lifetime volume, recomputes the rank and
// awards one point per thousand currency units deposited.
func (s *Service) Deposit(ctx context.Context, username string, amount int64) (Result, error) {
	username = normalize(username)
	if amount <= 0 {
		return Result{}, ErrInvalidAmount
	}

	release := s.locks.Acquire(username)
	defer release()

	acc, err := s.accounts.Get(ctx, username)
	if err != nil {
		return Result{}, err
	}
	if amount > acc.Rank.Limits().Deposit {
		return Result{}, ErrLimitExceeded
	}

	prevRank := acc.Rank
	acc.Balance += amount
	acc.TotalTransacted += amount
	acc.RecomputeRank()

	earned := amount / pointsUnit
	acc.Points += earned

	if err := s.accounts.Update(ctx, acc); err != nil {
		return Result{}, err
	}

	now := s.now().UTC()
	if err := s.record(ctx, username, journal.KindDeposit, "", amount, now); err != nil {
		return Result{}, err
	}
	if earned > 0 {
		err := s.recordPoints(ctx, journal.PointsEntry{
			Username: username, Action: "earned", Points: earned, Detail: "from deposit", At: now,
		})
		if err != nil {
			return Result{}, err
		}
	}

	rankChanged := acc.Rank != prevRank
	if rankChanged {
		s.notify(ctx, notification.Message{
			Kind:        notification.KindRankUp,
			Destination: username,
			Body:        fmt.Sprintf("Your account rank has been upgraded to %s", acc.Rank),
		})
	}

	return Result{Balance: acc.Balance, Points: acc.Points, PointsEarned: earned, Rank: acc.Rank, RankChanged: rankChanged}, nil
}

// Withdraw debits the amount plus the flat fee. The fee is booked as system
// revenue; lifetime volume is unaffected.
func (s *Service) Withdraw(ctx context.Context, username string, amount int64) (Result, error) {
	username = normalize(username)
	if amount <= 0 {
		return Result{}, ErrInvalidAmount
	}

	release := s.locks.Acquire(username)
	defer release()

	acc, err := s.accounts.Get(ctx, username)
	if err != nil {
		return Result{}, err
	}
	if amount > acc.Rank.Limits().Withdraw {
		return Result{}, ErrLimitExceeded
	}
	if amount+s.fee > acc.Balance {
		return Result{}, ErrInsufficientFunds
	}

	acc.Balance -= amount + s.fee
	if err := s.accounts.Update(ctx, acc); err != nil {
		return Result{}, err
	}

	now := s.now().UTC()
	if err := s.record(ctx, username, journal.KindWithdraw, "", amount, now); err != nil {
		return Result{}, err
	}
	if s.journal != nil {
		if err := s.journal.RecordRevenue(ctx, s.fee); err != nil {
			return Result{}, fmt.Errorf("record revenue: %w", err)
		}
	}

	return Result{Balance: acc.Balance, Points: acc.Points, Rank: acc.Rank}, nil
}

// Pay debits an online payment to the named merchant under the send limit.
func (s *Service) Pay(ctx context.Context, username, merchant string, amount int64) (Result, error) {
	username = normalize(username)
	if amount <= 0 {
		return Result{}, ErrInvalidAmount
	}

	release := s.locks.Acquire(username)
	defer release()

	acc, err := s.accounts.Get(ctx, username)
	if err != nil {
		return Result{}, err
	}
	if amount > acc.Rank.Limits().Send {
		return Result{}, ErrLimitExceeded
	}
	if amount > acc.Balance {
		return Result{}, ErrInsufficientFunds
	}

	acc.Balance -= amount
	if err := s.accounts.Update(ctx, acc); err != nil {
		return Result{}, err
	}

	if err := s.record(ctx, username, journal.KindPayment, merchant, amount, s.now().UTC()); err != nil {
		return Result{}, err
	}

	return Result{Balance: acc.Balance, Points: acc.Points, Rank: acc.Rank}, nil
}

// TransferResult reports both sides of a completed transfer.
type TransferResult struct {
	SenderBalance   int64
	ReceiverBalance int64
}

// Transfer moves funds between two users as one logical operation. Both
// accounts are locked in lexicographic order; the debit is rolled back if the
// credit cannot be stored, so neither side is ever observable alone.
func (s *Service) Transfer(ctx context.Context, from, to string, amount int64) (TransferResult, error) {
	from, to = normalize(from), normalize(to)
	if amount <= 0 {
		return TransferResult{}, ErrInvalidAmount
	}

	release := s.locks.Acquire(from, to)
	defer release()

	sender, err := s.accounts.Get(ctx, from)
	if err != nil {
		return TransferResult{}, err
	}
	receiver, err := s.accounts.Get(ctx, to)
	if err != nil {
		if errors.Is(err, account.ErrNotFound) {
			return TransferResult{}, ErrRecipientNotFound
		}
		return TransferResult{}, err
	}

	if amount > sender.Rank.Limits().Send {
		return TransferResult{}, ErrLimitExceeded
	}
	if amount > sender.Balance {
		return TransferResult{}, ErrInsufficientFunds
	}

	if from == to {
		// Self-transfer is permitted and a no-op on the balance.
		return TransferResult{SenderBalance: sender.Balance, ReceiverBalance: sender.Balance}, s.recordTransfer(ctx, from, to, amount)
	}

	prevSender := sender
	sender.Balance -= amount
	receiver.Balance += amount

	if err := s.accounts.Update(ctx, sender); err != nil {
		return TransferResult{}, err
	}
	if err := s.accounts.Update(ctx, receiver); err != nil {
		// Credit failed: restore the debit so the transfer stays atomic.
		if revertErr := s.accounts.Update(ctx, prevSender); revertErr != nil {
			return TransferResult{}, fmt.Errorf("credit failed (%w), rollback failed: %v", err, revertErr)
		}
		return TransferResult{}, err
	}

	if err := s.recordTransfer(ctx, from, to, amount); err != nil {
		return TransferResult{}, err
	}

	s.notify(ctx, notification.Message{
		Kind:        notification.KindTransferReceived,
		Destination: to,
		Body:        fmt.Sprintf("You received %.2f from %s", float64(amount)/100, from),
	})

	return TransferResult{SenderBalance: sender.Balance, ReceiverBalance: receiver.Balance}, nil
}

// RedeemPoints converts loyalty points to balance at 1.00 currency per point.
func (s *Service) RedeemPoints(ctx context.Context, username string, points int64) (Result, error) {
	username = normalize(username)

	release := s.locks.Acquire(username)
	defer release()

	acc, err := s.accounts.Get(ctx, username)
	if err != nil {
		return Result{}, err
	}
	if points <= 0 || points > acc.Points {
		return Result{}, ErrInvalidPoints
	}

	value := points * pointValue
	acc.Points -= points
	acc.Balance += value
	if err := s.accounts.Update(ctx, acc); err != nil {
		return Result{}, err
	}

	now := s.now().UTC()
	if err := s.record(ctx, username, journal.KindPointsRedeem, "", value, now); err != nil {
		return Result{}, err
	}
	err = s.recordPoints(ctx, journal.PointsEntry{
		Username: username, Action: "redeemed", Points: points,
		Detail: fmt.Sprintf("converted to %.2f", float64(value)/100), At: now,
	})
	if err != nil {
		return Result{}, err
	}

	return Result{Balance: acc.Balance, Points: acc.Points, Rank: acc.Rank}, nil
}

// RedeemVoucher spends a voucher exactly once and credits its value. The
// voucher repository performs the atomic check-and-set; the balance credit
// happens under the account lock afterwards.
func (s *Service) RedeemVoucher(ctx context.Context, username, code string) (Result, error) {
	username = normalize(username)

	release := s.locks.Acquire(username)
	defer release()

	acc, err := s.accounts.Get(ctx, username)
	if err != nil {
		return Result{}, err
	}

	v, err := s.vouchers.Redeem(ctx, username, strings.TrimSpace(code))
	if err != nil {
		return Result{}, err
	}

	acc.Balance += v.Value
	if err := s.accounts.Update(ctx, acc); err != nil {
		return Result{}, err
	}

	if err := s.record(ctx, username, journal.KindVoucherRedeem, v.Code, v.Value, s.now().UTC()); err != nil {
		return Result{}, err
	}

	return Result{Balance: acc.Balance, Points: acc.Points, Rank: acc.Rank}, nil
}

// Snapshot is the dashboard view of one account.
type Snapshot struct {
	Username string
	Balance  int64
	Points   int64
	Rank     rank.Tier
	Vouchers int
}

// Snapshot returns the dashboard data for one user.
func (s *Service) Snapshot(ctx context.Context, username string) (Snapshot, error) {
	username = normalize(username)
	acc, err := s.accounts.Get(ctx, username)
	if err != nil {
		return Snapshot{}, err
	}
	count := 0
	if s.vouchers != nil {
		count, _ = s.vouchers.CountFor(ctx, username)
	}
	return Snapshot{Username: acc.Username, Balance: acc.Balance, Points: acc.Points, Rank: acc.Rank, Vouchers: count}, nil
}

// Statement returns the transaction history for one user.
func (s *Service) Statement(ctx context.Context, username string) ([]journal.TransactionRecord, error) {
	if s.journal == nil {
		return nil, nil
	}
	return s.journal.ListTransactions(ctx, normalize(username))
}

func (s *Service) recordTransfer(ctx context.Context, from, to string, amount int64) error {
	now := s.now().UTC()
	if err := s.record(ctx, from, journal.KindTransferOut, to, amount, now); err != nil {
		return err
	}
	return s.record(ctx, to, journal.KindTransferIn, from, amount, now)
}

func (s *Service) record(ctx context.Context, username, kind, detail string, amount int64, at time.Time) error {
	if s.journal == nil {
		return nil
	}
	err := s.journal.AppendTransaction(ctx, journal.TransactionRecord{
		ID:       uuid.NewString(),
		Username: username,
		Kind:     kind,
		Detail:   detail,
		Amount:   amount,
		At:       at,
	})
	if err != nil {
		return fmt.Errorf("record transaction: %w", err)
	}
	return nil
}

func (s *Service) recordPoints(ctx context.Context, entry journal.PointsEntry) error {
	if s.journal == nil {
		return nil
	}
	if err := s.journal.AppendPoints(ctx, entry); err != nil {
		return fmt.Errorf("record points: %w", err)
	}
	return nil
}

func (s *Service) notify(ctx context.Context, msg notification.Message) {
	if s.notifier != nil {
		_ = s.notifier.Send(ctx, msg)
	}
}

func normalize(username string) string {
	return strings.ToLower(strings.TrimSpace(username))
}
