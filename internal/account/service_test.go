package account

import (
	"context"
	"errors"
	"testing"
	"time"
)

func newTestService() (*Service, *time.Time) {
	now := time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)
	svc := NewService(NewMemoryRepository(), NewLocker()).WithClock(func() time.Time { return now })
	return svc, &now
}

func TestRegisterAndAuthenticate(t *testing.T) {
	svc, _ := newTestService()
	ctx := context.Background()

	acc, err := svc.Register(ctx, Credentials{Username: "  Alice ", PIN: "1234", Mobile: "09171234567"})
	if err != nil {
		t.Fatalf("register: %v", err)
	}
	if acc.Username != "alice" {
		t.Fatalf("expected lowercase username, got %q", acc.Username)
	}

	if _, err := svc.Authenticate(ctx, "ALICE", "1234"); err != nil {
		t.Fatalf("authenticate: %v", err)
	}
}

func TestRegisterValidationOrder(t *testing.T) {
	svc, _ := newTestService()
	ctx := context.Background()

	if _, err := svc.Register(ctx, Credentials{Username: "alice", PIN: "1234", Mobile: "09171234567"}); err != nil {
		t.Fatalf("register: %v", err)
	}

	if _, err := svc.Register(ctx, Credentials{Username: "   ", PIN: "1234", Mobile: "09179999999"}); !errors.Is(err, ErrInvalidUsername) {
		t.Fatalf("expected ErrInvalidUsername for blank username, got %v", err)
	}

	// Username collision wins even when the mobile is also malformed.
	if _, err := svc.Register(ctx, Credentials{Username: "alice", PIN: "bad", Mobile: "nope"}); !errors.Is(err, ErrDuplicateUsername) {
		t.Fatalf("expected ErrDuplicateUsername, got %v", err)
	}

	if _, err := svc.Register(ctx, Credentials{Username: "bob", PIN: "1234", Mobile: "12345678901"}); !errors.Is(err, ErrInvalidMobile) {
		t.Fatalf("expected ErrInvalidMobile, got %v", err)
	}

	if _, err := svc.Register(ctx, Credentials{Username: "bob", PIN: "1234", Mobile: "09171234567"}); !errors.Is(err, ErrDuplicateMobile) {
		t.Fatalf("expected ErrDuplicateMobile, got %v", err)
	}

	if _, err := svc.Register(ctx, Credentials{Username: "bob", PIN: "12345", Mobile: "09179999999"}); !errors.Is(err, ErrInvalidPIN) {
		t.Fatalf("expected ErrInvalidPIN, got %v", err)
	}
	if _, err := svc.Register(ctx, Credentials{Username: "bob", PIN: "12a4", Mobile: "09179999999"}); !errors.Is(err, ErrInvalidPIN) {
		t.Fatalf("expected ErrInvalidPIN for non-digits, got %v", err)
	}
}

func TestAuthenticateUnknownUser(t *testing.T) {
	svc, _ := newTestService()
	if _, err := svc.Authenticate(context.Background(), "ghost", "1234"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func failTimes(t *testing.T, svc *Service, username string, n int) {
	t.Helper()
	for i := 0; i < n; i++ {
		if _, err := svc.Authenticate(context.Background(), username, "0000"); !errors.Is(err, ErrWrongPIN) {
			t.Fatalf("attempt %d: expected ErrWrongPIN, got %v", i+1, err)
		}
	}
}

func TestLockoutCheckpoints(t *testing.T) {
	svc, now := newTestService()
	ctx := context.Background()

	if _, err := svc.Register(ctx, Credentials{Username: "alice", PIN: "1234", Mobile: "09171234567"}); err != nil {
		t.Fatalf("register: %v", err)
	}

	// Two failures: no lock yet.
	failTimes(t, svc, "alice", 2)
	if _, err := svc.Authenticate(ctx, "alice", "1234"); err != nil {
		t.Fatalf("expected login before checkpoint, got %v", err)
	}

	// Success reset the counter; three fresh failures hit the first checkpoint.
	failTimes(t, svc, "alice", 3)

	var locked *LockedError
	if _, err := svc.Authenticate(ctx, "alice", "1234"); !errors.As(err, &locked) {
		t.Fatalf("expected LockedError, got %v", err)
	}
	if locked.Remaining <= 0 || locked.Remaining > time.Minute {
		t.Fatalf("expected remaining within 60s, got %v", locked.Remaining)
	}

	// Lock expires after one minute.
	*now = now.Add(61 * time.Second)

	// Failures 4 and 5 do not (re)lock; the counter keeps growing.
	failTimes(t, svc, "alice", 2)
	if _, err := svc.Authenticate(ctx, "alice", "0000"); !errors.Is(err, ErrWrongPIN) {
		t.Fatalf("expected ErrWrongPIN at attempt 6, got %v", err)
	}

	// Attempt 6 was a checkpoint: five-minute lock.
	if _, err := svc.Authenticate(ctx, "alice", "1234"); !errors.As(err, &locked) {
		t.Fatalf("expected LockedError after checkpoint 6, got %v", err)
	}
	if locked.Remaining <= 4*time.Minute || locked.Remaining > 5*time.Minute {
		t.Fatalf("expected remaining within (4m,5m], got %v", locked.Remaining)
	}

	// After the window the correct PIN clears everything.
	*now = now.Add(5*time.Minute + time.Second)
	acc, err := svc.Authenticate(ctx, "alice", "1234")
	if err != nil {
		t.Fatalf("expected login after lock expiry, got %v", err)
	}
	if acc.FailedAttempts != 0 || !acc.LockUntil.IsZero() {
		t.Fatalf("expected reset lock state, got attempts=%d lockUntil=%v", acc.FailedAttempts, acc.LockUntil)
	}
}

func TestLockDurationTable(t *testing.T) {
	cases := []struct {
		attempts int
		want     time.Duration
	}{
		{1, 0}, {2, 0},
		{3, time.Minute},
		{4, 0}, {5, 0},
		{6, 5 * time.Minute},
		{7, 0},
		{9, 10 * time.Minute},
		{12, 30 * time.Minute},
		{15, 30 * time.Minute},
	}
	for _, tc := range cases {
		if got := LockDuration(tc.attempts); got != tc.want {
			t.Fatalf("LockDuration(%d) = %v, want %v", tc.attempts, got, tc.want)
		}
	}
}
