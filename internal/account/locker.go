package account

import (
	"sort"
	"sync"
)

// Locker serializes mutations per account. Every observe-then-commit region
// (wallet operations, authentication bookkeeping, interest accrual) must hold
// the lock for the accounts it touches.
type Locker struct {
	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

// NewLocker builds an empty lock registry.
func NewLocker() *Locker {
	return &Locker{locks: make(map[string]*sync.Mutex)}
}

func (l *Locker) lockFor(username string) *sync.Mutex {
	l.mu.Lock()
	defer l.mu.Unlock()
	m, ok := l.locks[username]
	if !ok {
		m = &sync.Mutex{}
		l.locks[username] = m
	}
	return m
}

// Acquire locks the given accounts and returns a release function. Multiple
// accounts are always locked in lexicographic username order so that two
// opposite-direction transfers can never deadlock.
func (l *Locker) Acquire(usernames ...string) func() {
	ordered := make([]string, 0, len(usernames))
	seen := make(map[string]struct{}, len(usernames))
	for _, u := range usernames {
		if _, dup := seen[u]; dup {
			continue
		}
		seen[u] = struct{}{}
		ordered = append(ordered, u)
	}
	sort.Strings(ordered)

	held := make([]*sync.Mutex, 0, len(ordered))
	for _, u := range ordered {
		m := l.lockFor(u)
		m.Lock()
		held = append(held, m)
	}
	return func() {
		for i := len(held) - 1; i >= 0; i-- {
			held[i].Unlock()
		}
	}
}
