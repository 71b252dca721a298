package wallet

import "errors"

var (
	// ErrInvalidAmount indicates a zero or negative amount.
	ErrInvalidAmount = errors.New("amount must be positive")

	// ErrLimitExceeded indicates the amount is above the rank's limit.
	ErrLimitExceeded = errors.New("amount exceeds rank limit")

	// ErrInsufficientFunds indicates the balance cannot cover the operation.
	ErrInsufficientFunds = errors.New("insufficient balance")

	// ErrRecipientNotFound indicates the transfer target is not registered.
	ErrRecipientNotFound = errors.New("recipient not found")

	// ErrInvalidPoints indicates a zero, negative or overdrawn points amount.
	ErrInvalidPoints = errors.New("invalid points")
)
