package voucher

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/azure-wallet/azure_wallet/internal/journal"
	"github.com/azure-wallet/azure_wallet/internal/rank"
)

const (
	actionIssued   = "issued"
	actionRedeemed = "redeemed"

	// codeAttempts bounds the retry loop on generated-code collisions.
	codeAttempts = 25
)

// Holder identifies a voucher recipient and the tier that prices its value.
type Holder struct {
	Username string
	Tier     rank.Tier
}

// Service implements voucher issuance and at-most-once redemption.
type Service struct {
	repo    Repository
	journal journal.Recorder
	gen     *Generator
	now     func() time.Time
}

// NewService builds a voucher service.
func NewService(repo Repository, rec journal.Recorder, gen *Generator) *Service {
	if gen == nil {
		gen = NewDefaultGenerator()
	}
	return &Service{repo: repo, journal: rec, gen: gen, now: time.Now}
}

// Issue creates a voucher with an explicit value for one owner. The generated
// code is retried until unique process-wide.
func (s *Service) Issue(ctx context.Context, owner string, value int64) (Voucher, error) {
	for i := 0; i < codeAttempts; i++ {
		v := Voucher{
			Owner:    owner,
			Code:     s.gen.Code(owner),
			Value:    value,
			IssuedAt: s.now().UTC(),
		}
		err := s.repo.Create(ctx, v)
		if errors.Is(err, ErrDuplicateCode) {
			continue
		}
		if err != nil {
			return Voucher{}, err
		}
		err = s.appendLog(ctx, journal.VoucherEntry{
			Username: owner, Code: v.Code, Value: v.Value, Action: actionIssued, At: v.IssuedAt,
		})
		if err != nil {
			return Voucher{}, err
		}
		return v, nil
	}
	return Voucher{}, ErrDuplicateCode
}

// IssueForAll grants one voucher per holder with a tier-priced random value.
// Holders that already own any voucher are skipped, which makes repeated bulk
// runs idempotent.
func (s *Service) IssueForAll(ctx context.Context, holders []Holder) ([]Voucher, error) {
	owners, err := s.repo.Owners(ctx)
	if err != nil {
		return nil, err
	}

	var issued []Voucher
	for _, h := range holders {
		if _, exists := owners[h.Username]; exists {
			continue
		}
		v, err := s.Issue(ctx, h.Username, s.gen.ValueFor(h.Tier))
		if err != nil {
			return issued, err
		}
		issued = append(issued, v)
	}
	return issued, nil
}

// Redeem spends a voucher exactly once on behalf of its owner and returns the
// redeemed voucher so callers can credit its value.
func (s *Service) Redeem(ctx context.Context, owner, code string) (Voucher, error) {
	v, err := s.repo.Redeem(ctx, owner, code)
	if err != nil {
		return Voucher{}, err
	}
	err = s.appendLog(ctx, journal.VoucherEntry{
		Username: owner, Code: v.Code, Value: v.Value, Action: actionRedeemed, At: s.now().UTC(),
	})
	if err != nil {
		return Voucher{}, err
	}
	return v, nil
}

func (s *Service) appendLog(ctx context.Context, entry journal.VoucherEntry) error {
	if s.journal == nil {
		return nil
	}
	if err := s.journal.AppendVoucherLog(ctx, entry); err != nil {
		return fmt.Errorf("record voucher log: %w", err)
	}
	return nil
}

// ListFor returns the vouchers held by one user.
func (s *Service) ListFor(ctx context.Context, owner string) ([]Voucher, error) {
	return s.repo.ListByOwner(ctx, owner)
}

// CountFor returns the number of unredeemed vouchers held by one user.
func (s *Service) CountFor(ctx context.Context, owner string) (int, error) {
	return s.repo.CountByOwner(ctx, owner)
}

// CountActive returns the number of unredeemed vouchers system-wide.
func (s *Service) CountActive(ctx context.Context) (int, error) {
	return s.repo.CountActive(ctx)
}

// Wipe removes every voucher. Used by the administrative bulk wipe.
func (s *Service) Wipe(ctx context.Context) error {
	return s.repo.DeleteAll(ctx)
}
