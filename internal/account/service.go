package account

import (
	"context"
	"errors"
	"regexp"
	"strings"
	"time"

	"golang.org/x/crypto/bcrypt"

	"github.com/azure-wallet/azure_wallet/internal/rank"
)

var (
	mobilePattern = regexp.MustCompile(`^09\d{9}$`)
	pinPattern    = regexp.MustCompile(`^\d{4}$`)
)

// Service manages account registration and PIN authentication, including the
// failed-attempt lockout bookkeeping.
type Service struct {
	repo  Repository
	locks *Locker
	now   func() time.Time
}

// NewService creates an account service.
func NewService(repo Repository, locks *Locker) *Service {
	return &Service{repo: repo, locks: locks, now: time.Now}
}

// WithClock overrides the time source. Tests use it to step through lockout
// windows without sleeping.
func (s *Service) WithClock(now func() time.Time) *Service {
	s.now = now
	return s
}

// Credentials carries the registration and login inputs.
type Credentials struct {
	Username string
	PIN      string
	Mobile   string
}

// Register validates and creates a new account. Usernames are normalized to
// lowercase. Validation order: username uniqueness, mobile format, mobile
// uniqueness, PIN format.
func (s *Service) Register(ctx context.Context, creds Credentials) (Account, error) {
	username := strings.ToLower(strings.TrimSpace(creds.Username))
	if username == "" {
		return Account{}, ErrInvalidUsername
	}
	if _, err := s.repo.Get(ctx, username); err == nil {
		return Account{}, ErrDuplicateUsername
	} else if !errors.Is(err, ErrNotFound) {
		return Account{}, err
	}

	mobile := strings.TrimSpace(creds.Mobile)
	if !mobilePattern.MatchString(mobile) {
		return Account{}, ErrInvalidMobile
	}
	if _, err := s.repo.FindByMobile(ctx, mobile); err == nil {
		return Account{}, ErrDuplicateMobile
	} else if !errors.Is(err, ErrNotFound) {
		return Account{}, err
	}

	if !pinPattern.MatchString(creds.PIN) {
		return Account{}, ErrInvalidPIN
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(creds.PIN), bcrypt.DefaultCost)
	if err != nil {
		return Account{}, err
	}

	acc := Account{
		Username:  username,
		PINHash:   hash,
		Mobile:    mobile,
		Rank:      rank.Bronze,
		CreatedAt: s.now().UTC(),
	}

	if err := s.repo.Create(ctx, acc); err != nil {
		return Account{}, err
	}
	return acc, nil
}

// Authenticate verifies the PIN for a username. A wrong PIN increments the
// failed-attempt counter and, at every third attempt, applies the escalating
// lockout. A correct PIN resets the counter and clears any expired lock.
func (s *Service) Authenticate(ctx context.Context, username, pin string) (Account, error) {
	username = strings.ToLower(strings.TrimSpace(username))

	release := s.locks.Acquire(username)
	defer release()

	acc, err := s.repo.Get(ctx, username)
	if err != nil {
		return Account{}, err
	}

	now := s.now()
	if acc.LockedAt(now) {
		return Account{}, &LockedError{Remaining: acc.LockUntil.Sub(now)}
	}

	if bcrypt.CompareHashAndPassword(acc.PINHash, []byte(pin)) != nil {
		acc.FailedAttempts++
		if d := LockDuration(acc.FailedAttempts); d > 0 {
			acc.LockUntil = now.Add(d)
		}
		if err := s.repo.Update(ctx, acc); err != nil {
			return Account{}, err
		}
		return Account{}, ErrWrongPIN
	}

	acc.FailedAttempts = 0
	acc.LockUntil = time.Time{}
	if err := s.repo.Update(ctx, acc); err != nil {
		return Account{}, err
	}
	return acc, nil
}

// Get fetches the current state of one account.
func (s *Service) Get(ctx context.Context, username string) (Account, error) {
	return s.repo.Get(ctx, strings.ToLower(strings.TrimSpace(username)))
}
