package account

import "time"

// LockDuration maps a consecutive failed-attempt count to the lockout applied
// at that count. Locks escalate only at multiples of three; between
// checkpoints the counter grows but any prior lock simply runs out on its own.
func LockDuration(failedAttempts int) time.Duration {
	if failedAttempts < 3 || failedAttempts%3 != 0 {
		return 0
	}
	switch failedAttempts {
	case 3:
		return time.Minute
	case 6:
		return 5 * time.Minute
	case 9:
		return 10 * time.Minute
	default:
		return 30 * time.Minute
	}
}
