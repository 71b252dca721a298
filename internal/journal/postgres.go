package journal

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// PostgresRecorder persists journal entries in PostgreSQL.
type PostgresRecorder struct {
	db *pgxpool.Pool
}

// NewPostgresRecorder builds a Postgres-backed journal.
func NewPostgresRecorder(db *pgxpool.Pool) *PostgresRecorder {
	return &PostgresRecorder{db: db}
}

// AppendTransaction inserts a statement record.
func (r *PostgresRecorder) AppendTransaction(ctx context.Context, rec TransactionRecord) error {
	_, err := r.db.Exec(ctx, `INSERT INTO transactions (id, username, kind, detail, amount, at)
        VALUES ($1, $2, $3, $4, $5, $6)`,
		rec.ID, rec.Username, rec.Kind, rec.Detail, rec.Amount, rec.At.UTC())
	return err
}

// ListTransactions returns the statement for one user, oldest first.
func (r *PostgresRecorder) ListTransactions(ctx context.Context, username string) ([]TransactionRecord, error) {
	rows, err := r.db.Query(ctx, `SELECT id, username, kind, detail, amount, at
        FROM transactions WHERE username = $1 ORDER BY at`, username)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []TransactionRecord
	for rows.Next() {
		var rec TransactionRecord
		var at time.Time
		if err := rows.Scan(&rec.ID, &rec.Username, &rec.Kind, &rec.Detail, &rec.Amount, &at); err != nil {
			return nil, err
		}
		rec.At = at.UTC()
		out = append(out, rec)
	}
	return out, rows.Err()
}

// AppendPoints inserts a loyalty points log entry.
func (r *PostgresRecorder) AppendPoints(ctx context.Context, entry PointsEntry) error {
	_, err := r.db.Exec(ctx, `INSERT INTO points_log (username, action, points, detail, at)
        VALUES ($1, $2, $3, $4, $5)`,
		entry.Username, entry.Action, entry.Points, entry.Detail, entry.At.UTC())
	return err
}

// AppendVoucherLog inserts a voucher lifecycle log entry.
func (r *PostgresRecorder) AppendVoucherLog(ctx context.Context, entry VoucherEntry) error {
	_, err := r.db.Exec(ctx, `INSERT INTO voucher_log (username, code, value, action, at)
        VALUES ($1, $2, $3, $4, $5)`,
		entry.Username, entry.Code, entry.Value, entry.Action, entry.At.UTC())
	return err
}

// RecordRevenue accumulates collected fees into the single revenue row.
func (r *PostgresRecorder) RecordRevenue(ctx context.Context, amount int64) error {
	_, err := r.db.Exec(ctx, `INSERT INTO system_revenue (id, total) VALUES (1, $1)
        ON CONFLICT (id) DO UPDATE SET total = system_revenue.total + EXCLUDED.total`, amount)
	return err
}

// Revenue reads total fees collected.
func (r *PostgresRecorder) Revenue(ctx context.Context) (int64, error) {
	var total int64
	err := r.db.QueryRow(ctx, `SELECT total FROM system_revenue WHERE id = 1`).Scan(&total)
	if errors.Is(err, pgx.ErrNoRows) {
		return 0, nil
	}
	return total, err
}

// RecordSchedulerRun stores the timestamp of the latest accrual run.
func (r *PostgresRecorder) RecordSchedulerRun(ctx context.Context, at time.Time) error {
	_, err := r.db.Exec(ctx, `INSERT INTO scheduler_runs (id, last_run) VALUES (1, $1)
        ON CONFLICT (id) DO UPDATE SET last_run = EXCLUDED.last_run`, at.UTC())
	return err
}

// LastSchedulerRun reads the timestamp of the latest accrual run.
func (r *PostgresRecorder) LastSchedulerRun(ctx context.Context) (time.Time, error) {
	var at time.Time
	err := r.db.QueryRow(ctx, `SELECT last_run FROM scheduler_runs WHERE id = 1`).Scan(&at)
	if errors.Is(err, pgx.ErrNoRows) {
		return time.Time{}, nil
	}
	return at.UTC(), err
}

// AppendAdminAction records an administrative action.
func (r *PostgresRecorder) AppendAdminAction(ctx context.Context, action string) error {
	_, err := r.db.Exec(ctx, `INSERT INTO admin_log (action, at) VALUES ($1, $2)`, action, time.Now().UTC())
	return err
}

// ListAdminActions returns the admin activity log, oldest first.
func (r *PostgresRecorder) ListAdminActions(ctx context.Context) ([]string, error) {
	rows, err := r.db.Query(ctx, `SELECT at, action FROM admin_log ORDER BY at`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []string
	for rows.Next() {
		var at time.Time
		var action string
		if err := rows.Scan(&at, &action); err != nil {
			return nil, err
		}
		out = append(out, at.UTC().Format(time.RFC3339)+" - "+action)
	}
	return out, rows.Err()
}

// Reset wipes every journal table. Used by the administrative bulk wipe.
func (r *PostgresRecorder) Reset(ctx context.Context) error {
	for _, table := range []string{"transactions", "points_log", "voucher_log", "system_revenue", "scheduler_runs", "admin_log"} {
		if _, err := r.db.Exec(ctx, `DELETE FROM `+table); err != nil {
			return err
		}
	}
	return nil
}
