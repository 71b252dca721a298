package account

import (
	"errors"
	"fmt"
	"time"

	"github.com/azure-wallet/azure_wallet/internal/rank"
)

var (
	// ErrNotFound indicates the username has no registered account.
	ErrNotFound = errors.New("account not found")

	// ErrDuplicateUsername indicates the username is already registered.
	ErrDuplicateUsername = errors.New("username already exists")

	// ErrInvalidUsername indicates a blank username.
	ErrInvalidUsername = errors.New("username is required")

	// ErrDuplicateMobile indicates the mobile number belongs to another account.
	ErrDuplicateMobile = errors.New("mobile number already registered")

	// ErrInvalidMobile indicates the mobile number does not match the national format.
	ErrInvalidMobile = errors.New("mobile number must start with 09 and contain 11 digits")

	// ErrInvalidPIN indicates the PIN is not exactly four digits.
	ErrInvalidPIN = errors.New("PIN must be 4 digits")

	// ErrWrongPIN indicates the supplied PIN does not match the stored hash.
	ErrWrongPIN = errors.New("incorrect PIN")
)

// LockedError reports that an account is temporarily locked following
// repeated failed authentication attempts.
type LockedError struct {
	Remaining time.Duration
}

func (e *LockedError) Error() string {
	return fmt.Sprintf("account locked, try again in %d second(s)", int64(e.Remaining.Seconds()))
}

// Account holds the full ledger state for one user. Username and Mobile are
// immutable after registration; Rank is always derived from TotalTransacted.
type Account struct {
	Username        string
	PINHash         []byte
	Mobile          string
	Balance         int64
	Points          int64
	TotalTransacted int64
	Rank            rank.Tier
	FailedAttempts  int
	LockUntil       time.Time
	CreatedAt       time.Time
}

// LockedAt reports whether the account is locked at the given instant.
func (a Account) LockedAt(now time.Time) bool {
	return now.Before(a.LockUntil)
}

// RecomputeRank re-derives the tier from lifetime transacted volume.
// Callers must invoke it after every TotalTransacted mutation.
func (a *Account) RecomputeRank() {
	a.Rank = rank.ForVolume(a.TotalTransacted)
}
