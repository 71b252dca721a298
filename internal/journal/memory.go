package journal

import (
	"context"
	"fmt"
	"sync"
	"time"
)

type memoryRecorder struct {
	mu           sync.RWMutex
	transactions []TransactionRecord
	points       []PointsEntry
	vouchers     []VoucherEntry
	admin        []string
	revenue      int64
	lastRun      time.Time
}

// NewMemoryRecorder builds an in-memory journal for tests and development.
func NewMemoryRecorder() Recorder {
	return &memoryRecorder{}
}

func (m *memoryRecorder) AppendTransaction(_ context.Context, rec TransactionRecord) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.transactions = append(m.transactions, rec)
	return nil
}

func (m *memoryRecorder) ListTransactions(_ context.Context, username string) ([]TransactionRecord, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var out []TransactionRecord
	for _, rec := range m.transactions {
		if rec.Username == username {
			out = append(out, rec)
		}
	}
	return out, nil
}

func (m *memoryRecorder) AppendPoints(_ context.Context, entry PointsEntry) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.points = append(m.points, entry)
	return nil
}

func (m *memoryRecorder) AppendVoucherLog(_ context.Context, entry VoucherEntry) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.vouchers = append(m.vouchers, entry)
	return nil
}

func (m *memoryRecorder) RecordRevenue(_ context.Context, amount int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.revenue += amount
	return nil
}

func (m *memoryRecorder) Revenue(_ context.Context) (int64, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.revenue, nil
}

func (m *memoryRecorder) RecordSchedulerRun(_ context.Context, at time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.lastRun = at.UTC()
	return nil
}

func (m *memoryRecorder) LastSchedulerRun(_ context.Context) (time.Time, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.lastRun, nil
}

func (m *memoryRecorder) AppendAdminAction(_ context.Context, action string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.admin = append(m.admin, fmt.Sprintf("%s - %s", time.Now().UTC().Format(time.RFC3339), action))
	return nil
}

func (m *memoryRecorder) ListAdminActions(_ context.Context) ([]string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]string, len(m.admin))
	copy(out, m.admin)
	return out, nil
}

func (m *memoryRecorder) Reset(_ context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.transactions = nil
	m.points = nil
	m.vouchers = nil
	m.admin = nil
	m.revenue = 0
	m.lastRun = time.Time{}
	return nil
}
