package voucher

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Repository persists vouchers. Redeem must be atomic: concurrent redemptions
// of one code may succeed at most once.
type Repository interface {
	Create(ctx context.Context, v Voucher) error
	Get(ctx context.Context, code string) (Voucher, error)
	Redeem(ctx context.Context, owner, code string) (Voucher, error)
	ListByOwner(ctx context.Context, owner string) ([]Voucher, error)
	CountByOwner(ctx context.Context, owner string) (int, error)
	Owners(ctx context.Context) (map[string]struct{}, error)
	CountActive(ctx context.Context) (int, error)
	DeleteAll(ctx context.Context) error
}

// PostgresRepository stores vouchers in PostgreSQL.
type PostgresRepository struct {
	db *pgxpool.Pool
}

// NewPostgresRepository builds a Postgres-backed voucher repository.
func NewPostgresRepository(db *pgxpool.Pool) *PostgresRepository {
	return &PostgresRepository{db: db}
}

// Create inserts a voucher, surfacing code collisions as ErrDuplicateCode.
func (r *PostgresRepository) Create(ctx context.Context, v Voucher) error {
	_, err := r.db.Exec(ctx, `INSERT INTO vouchers (code, owner, value, redeemed, issued_at)
        VALUES ($1, $2, $3, $4, $5)`, v.Code, v.Owner, v.Value, v.Redeemed, v.IssuedAt.UTC())
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == "23505" {
		return ErrDuplicateCode
	}
	return err
}

// Get fetches a voucher by code.
func (r *PostgresRepository) Get(ctx context.Context, code string) (Voucher, error) {
	row := r.db.QueryRow(ctx, `SELECT code, owner, value, redeemed, issued_at FROM vouchers WHERE code = $1`, code)
	return scanVoucher(row)
}

// Redeem flips the redeemed flag exactly once. The conditional UPDATE is the
// atomic check-and-set; when zero rows match, the row is re-read to decide
// which rejection applies.
func (r *PostgresRepository) Redeem(ctx context.Context, owner, code string) (Voucher, error) {
	row := r.db.QueryRow(ctx, `UPDATE vouchers SET redeemed = TRUE
        WHERE code = $1 AND owner = $2 AND redeemed = FALSE
        RETURNING code, owner, value, redeemed, issued_at`, code, owner)
	v, err := scanVoucher(row)
	if err == nil {
		return v, nil
	}
	if !errors.Is(err, ErrNotFound) {
		return Voucher{}, err
	}

	existing, getErr := r.Get(ctx, code)
	if getErr != nil {
		return Voucher{}, getErr
	}
	if existing.Owner != owner {
		return Voucher{}, ErrNotOwner
	}
	return Voucher{}, ErrAlreadyRedeemed
}

// ListByOwner returns all vouchers held by one user.
func (r *PostgresRepository) ListByOwner(ctx context.Context, owner string) ([]Voucher, error) {
	rows, err := r.db.Query(ctx, `SELECT code, owner, value, redeemed, issued_at
        FROM vouchers WHERE owner = $1 ORDER BY issued_at`, owner)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Voucher
	for rows.Next() {
		v, err := scanVoucher(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, v)
	}
	return out, rows.Err()
}

// CountByOwner counts the unredeemed vouchers held by one user.
func (r *PostgresRepository) CountByOwner(ctx context.Context, owner string) (int, error) {
	var n int
	err := r.db.QueryRow(ctx, `SELECT COUNT(*) FROM vouchers WHERE owner = $1 AND redeemed = FALSE`, owner).Scan(&n)
	return n, err
}

// Owners returns the set of users that hold at least one voucher.
func (r *PostgresRepository) Owners(ctx context.Context) (map[string]struct{}, error) {
	rows, err := r.db.Query(ctx, `SELECT DISTINCT owner FROM vouchers`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	owners := make(map[string]struct{})
	for rows.Next() {
		var owner string
		if err := rows.Scan(&owner); err != nil {
			return nil, err
		}
		owners[owner] = struct{}{}
	}
	return owners, rows.Err()
}

// CountActive counts all unredeemed vouchers.
func (r *PostgresRepository) CountActive(ctx context.Context) (int, error) {
	var n int
	err := r.db.QueryRow(ctx, `SELECT COUNT(*) FROM vouchers WHERE redeemed = FALSE`).Scan(&n)
	return n, err
}

// DeleteAll removes every voucher.
func (r *PostgresRepository) DeleteAll(ctx context.Context) error {
	_, err := r.db.Exec(ctx, `DELETE FROM vouchers`)
	return err
}

func scanVoucher(row pgx.Row) (Voucher, error) {
	var v Voucher
	var issuedAt time.Time
	if err := row.Scan(&v.Code, &v.Owner, &v.Value, &v.Redeemed, &issuedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Voucher{}, ErrNotFound
		}
		return Voucher{}, err
	}
	v.IssuedAt = issuedAt.UTC()
	return v, nil
}
