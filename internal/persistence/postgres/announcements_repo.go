package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"github.com/RichieLoco/coinsniper/internal/persistence"
)

// announcementsRepo implements AnnouncementsRepo for PostgreSQL
type announcementsRepo struct {
	db      *sqlx.DB
	timeout time.Duration
}

// NewAnnouncementsRepo creates a new PostgreSQL announcements repository
func NewAnnouncementsRepo(db *sqlx.DB, timeout time.Duration) persistence.AnnouncementsRepo {
	return &announcementsRepo{
		db:      db,
		timeout: timeout,
	}
}

// Insert adds a new announcement record
func (r *announcementsRepo) Insert(ctx context.Context, a persistence.Announcement) error {
	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	if a.Symbol == "" {
		return fmt.Errorf("announcement symbol cannot be empty")
	}

	query := `
		INSERT INTO announcements (id, title, symbol, announced_at, delisting)
		VALUES ($1, $2, $3, $4, $5)`

	_, err := r.db.ExecContext(ctx, query,
		a.ID, a.Title, a.Symbol, a.AnnouncedAt, a.Delisting)
	if err != nil {
		if pqErr, ok := err.(*pq.Error); ok && pqErr.Code == "23505" {
			return fmt.Errorf("duplicate announcement %s: %w", a.ID, err)
		}
		return fmt.Errorf("failed to insert announcement: %w", err)
	}

	return nil
}

// GetByID finds one announcement by its opaque id
func (r *announcementsRepo) GetByID(ctx context.Context, id string) (*persistence.Announcement, error) {
	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	query := `
		SELECT id, title, symbol, announced_at, delisting, created_at
		FROM announcements
		WHERE id = $1`

	var a persistence.Announcement
	err := r.db.QueryRowxContext(ctx, query, id).Scan(
		&a.ID, &a.Title, &a.Symbol, &a.AnnouncedAt, &a.Delisting, &a.CreatedAt)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get announcement by id: %w", err)
	}

	return &a, nil
}

// ListBySymbol retrieves announcements for a coin symbol, newest first
func (r *announcementsRepo) ListBySymbol(ctx context.Context, symbol string, limit int) ([]persistence.Announcement, error) {
	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	query := `
		SELECT id, title, symbol, announced_at, delisting, created_at
		FROM announcements
		WHERE symbol = $1
		ORDER BY announced_at DESC
		LIMIT $2`

	rows, err := r.db.QueryxContext(ctx, query, symbol, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query announcements by symbol: %w", err)
	}
	defer rows.Close()

	var announcements []persistence.Announcement
	for rows.Next() {
		var a persistence.Announcement
		if err := rows.Scan(&a.ID, &a.Title, &a.Symbol, &a.AnnouncedAt, &a.Delisting, &a.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan announcement: %w", err)
		}
		announcements = append(announcements, a)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating rows: %w", err)
	}

	return announcements, nil
}
