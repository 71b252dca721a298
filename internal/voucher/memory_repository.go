package voucher

import (
	"context"
	"sync"
)

type memoryRepository struct {
	mu       sync.Mutex
	vouchers map[string]Voucher
}

// NewMemoryRepository builds an in-memory voucher store for tests and
// development without a database.
func NewMemoryRepository() Repository {
	return &memoryRepository{vouchers: make(map[string]Voucher)}
}

func (r *memoryRepository) Create(_ context.Context, v Voucher) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.vouchers[v.Code]; exists {
		return ErrDuplicateCode
	}
	r.vouchers[v.Code] = v
	return nil
}

func (r *memoryRepository) Get(_ context.Context, code string) (Voucher, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	v, ok := r.vouchers[code]
	if !ok {
		return Voucher{}, ErrNotFound
	}
	return v, nil
}

// Redeem performs the check-and-set under one lock so racing redemptions of
// the same code yield exactly one success.
func (r *memoryRepository) Redeem(_ context.Context, owner, code string) (Voucher, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	v, ok := r.vouchers[code]
	if !ok {
		return Voucher{}, ErrNotFound
	}
	if v.Owner != owner {
		return Voucher{}, ErrNotOwner
	}
	if v.Redeemed {
		return Voucher{}, ErrAlreadyRedeemed
	}
	v.Redeemed = true
	r.vouchers[code] = v
	return v, nil
}

func (r *memoryRepository) ListByOwner(_ context.Context, owner string) ([]Voucher, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []Voucher
	for _, v := range r.vouchers {
		if v.Owner == owner {
			out = append(out, v)
		}
	}
	return out, nil
}

func (r *memoryRepository) CountByOwner(_ context.Context, owner string) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	n := 0
	for _, v := range r.vouchers {
		if v.Owner == owner && !v.Redeemed {
			n++
		}
	}
	return n, nil
}

func (r *memoryRepository) Owners(_ context.Context) (map[string]struct{}, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	owners := make(map[string]struct{})
	for _, v := range r.vouchers {
		owners[v.Owner] = struct{}{}
	}
	return owners, nil
}

func (r *memoryRepository) CountActive(_ context.Context) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	n := 0
	for _, v := range r.vouchers {
		if !v.Redeemed {
			n++
		}
	}
	return n, nil
}

func (r *memoryRepository) DeleteAll(_ context.Context) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.vouchers = make(map[string]Voucher)
	return nil
}
