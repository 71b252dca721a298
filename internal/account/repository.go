package account

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/azure-wallet/azure_wallet/internal/rank"
)

// Repository persists accounts.
type Repository interface {
	Create(ctx context.Context, acc Account) error
	Get(ctx context.Context, username string) (Account, error)
	FindByMobile(ctx context.Context, mobile string) (Account, error)
	Update(ctx context.Context, acc Account) error
	List(ctx context.Context) ([]Account, error)
	Delete(ctx context.Context, username string) error
	DeleteAll(ctx context.Context) error
	Count(ctx context.Context) (int, error)
}

// PostgresRepository implements Repository using PostgreSQL.
type PostgresRepository struct {
	db *pgxpool.Pool
}

// NewPostgresRepository builds a Postgres-backed account repository.
func NewPostgresRepository(db *pgxpool.Pool) *PostgresRepository {
	return &PostgresRepository{db: db}
}

const accountColumns = `username, pin_hash, mobile, balance, points, total_transacted, rank, failed_attempts, lock_until, created_at`

// Create inserts a new account. Unique violations on the username or mobile
// columns are mapped to the matching domain error.
func (r *PostgresRepository) Create(ctx context.Context, acc Account) error {
	_, err := r.db.Exec(ctx, `INSERT INTO accounts (username, pin_hash, mobile, balance, points, total_transacted, rank, failed_attempts, lock_until, created_at)
        VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`,
		acc.Username, acc.PINHash, acc.Mobile, acc.Balance, acc.Points, acc.TotalTransacted,
		acc.Rank.String(), acc.FailedAttempts, acc.LockUntil.UTC(), acc.CreatedAt.UTC())
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == "23505" {
		if pgErr.ConstraintName == "accounts_mobile_key" {
			return ErrDuplicateMobile
		}
		return ErrDuplicateUsername
	}
	return err
}

// Get fetches an account by username.
func (r *PostgresRepository) Get(ctx context.Context, username string) (Account, error) {
	row := r.db.QueryRow(ctx, `SELECT `+accountColumns+` FROM accounts WHERE username = $1`, username)
	return scanAccount(row)
}

// FindByMobile fetches an account by its registered mobile number.
func (r *PostgresRepository) FindByMobile(ctx context.Context, mobile string) (Account, error) {
	row := r.db.QueryRow(ctx, `SELECT `+accountColumns+` FROM accounts WHERE mobile = $1`, mobile)
	return scanAccount(row)
}

// Update overwrites the mutable columns of an account record.
func (r *PostgresRepository) Update(ctx context.Context, acc Account) error {
	cmd, err := r.db.Exec(ctx, `UPDATE accounts SET balance = $1, points = $2, total_transacted = $3,
        rank = $4, failed_attempts = $5, lock_until = $6 WHERE username = $7`,
		acc.Balance, acc.Points, acc.TotalTransacted, acc.Rank.String(),
		acc.FailedAttempts, acc.LockUntil.UTC(), acc.Username)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// List returns every account ordered by username.
func (r *PostgresRepository) List(ctx context.Context) ([]Account, error) {
	rows, err := r.db.Query(ctx, `SELECT `+accountColumns+` FROM accounts ORDER BY username`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var accounts []Account
	for rows.Next() {
		acc, err := scanAccount(rows)
		if err != nil {
			return nil, err
		}
		accounts = append(accounts, acc)
	}
	return accounts, rows.Err()
}

// Delete removes one account.
func (r *PostgresRepository) Delete(ctx context.Context, username string) error {
	cmd, err := r.db.Exec(ctx, `DELETE FROM accounts WHERE username = $1`, username)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// DeleteAll removes every account.
func (r *PostgresRepository) DeleteAll(ctx context.Context) error {
	_, err := r.db.Exec(ctx, `DELETE FROM accounts`)
	return err
}

// Count returns the number of registered accounts.
func (r *PostgresRepository) Count(ctx context.Context) (int, error) {
	var n int
	if err := r.db.QueryRow(ctx, `SELECT COUNT(*) FROM accounts`).Scan(&n); err != nil {
		return 0, err
	}
	return n, nil
}

func scanAccount(row pgx.Row) (Account, error) {
	var (
		acc       Account
		tierName  string
		lockUntil time.Time
		createdAt time.Time
	)
	err := row.Scan(&acc.Username, &acc.PINHash, &acc.Mobile, &acc.Balance, &acc.Points,
		&acc.TotalTransacted, &tierName, &acc.FailedAttempts, &lockUntil, &createdAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Account{}, ErrNotFound
		}
		return Account{}, err
	}
	acc.Rank = rank.Parse(tierName)
	acc.LockUntil = lockUntil.UTC()
	acc.CreatedAt = createdAt.UTC()
	return acc, nil
}
