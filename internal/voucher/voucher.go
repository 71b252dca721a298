package voucher

import (
	"errors"
	"time"
)

var (
	// ErrNotFound indicates no voucher exists for the code.
	ErrNotFound = errors.New("voucher not found")

	// ErrAlreadyRedeemed indicates the voucher was spent before.
	ErrAlreadyRedeemed = errors.New("voucher already redeemed")

	// ErrNotOwner indicates the voucher belongs to a different account.
	ErrNotOwner = errors.New("voucher belongs to another account")

	// ErrDuplicateCode indicates a code collision on issuance.
	ErrDuplicateCode = errors.New("voucher code already exists")
)

// Voucher is a single-use, owner-bound credit.
type Voucher struct {
	Owner    string
	Code     string
	Value    int64
	Redeemed bool
	IssuedAt time.Time
}
