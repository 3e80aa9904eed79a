package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/RichieLoco/coinsniper/internal/persistence"
)

// errorsRepo implements ErrorsRepo for PostgreSQL
type errorsRepo struct {
	db      *sqlx.DB
	timeout time.Duration
}

// NewErrorsRepo creates a new PostgreSQL error-audit repository
func NewErrorsRepo(db *sqlx.DB, timeout time.Duration) persistence.ErrorsRepo {
	return &errorsRepo{
		db:      db,
		timeout: timeout,
	}
}

// Insert appends one error record
func (r *errorsRepo) Insert(ctx context.Context, e persistence.ErrorRecord) error {
	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	query := `
		INSERT INTO error_records (source, message, status_code, occurred_at)
		VALUES ($1, $2, $3, $4)`

	_, err := r.db.ExecContext(ctx, query, e.Source, e.Message, e.StatusCode, e.OccurredAt)
	if err != nil {
		return fmt.Errorf("failed to insert error record: %w", err)
	}

	return nil
}

// ListRecent retrieves the most recent error records, newest first
func (r *errorsRepo) ListRecent(ctx context.Context, limit int) ([]persistence.ErrorRecord, error) {
	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	query := `
		SELECT id, source, message, status_code, occurred_at, created_at
		FROM error_records
		ORDER BY occurred_at DESC
		LIMIT $1`

	rows, err := r.db.QueryxContext(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query error records: %w", err)
	}
	defer rows.Close()

	var records []persistence.ErrorRecord
	for rows.Next() {
		var e persistence.ErrorRecord
		if err := rows.Scan(&e.ID, &e.Source, &e.Message, &e.StatusCode, &e.OccurredAt, &e.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan error record: %w", err)
		}
		records = append(records, e)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating rows: %w", err)
	}

	return records, nil
}
