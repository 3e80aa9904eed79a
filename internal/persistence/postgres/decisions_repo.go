package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/RichieLoco/coinsniper/internal/persistence"
)

// decisionsRepo implements DecisionsRepo for PostgreSQL
type decisionsRepo struct {
	db      *sqlx.DB
	timeout time.Duration
}

// NewDecisionsRepo creates a new PostgreSQL decisions repository
func NewDecisionsRepo(db *sqlx.DB, timeout time.Duration) persistence.DecisionsRepo {
	return &decisionsRepo{
		db:      db,
		timeout: timeout,
	}
}

// Insert adds a new decision record. The generated id is written back so the
// caller holds the durably stored row, not just its inputs.
func (r *decisionsRepo) Insert(ctx context.Context, d *persistence.TradeDecision) error {
	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	query := `
		INSERT INTO trade_decisions (symbol, exchange, risk_score, executed, decided_at)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id, created_at`

	err := r.db.QueryRowxContext(ctx, query,
		d.Symbol, d.Exchange, d.RiskScore, d.Executed, d.DecidedAt).
		Scan(&d.ID, &d.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to insert trade decision: %w", err)
	}

	return nil
}

// ListBySymbol retrieves decisions for a coin symbol, newest first
func (r *decisionsRepo) ListBySymbol(ctx context.Context, symbol string, limit int) ([]persistence.TradeDecision, error) {
	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	query := `
		SELECT id, symbol, exchange, risk_score, executed, decided_at, created_at
		FROM trade_decisions
		WHERE symbol = $1
		ORDER BY decided_at DESC
		LIMIT $2`

	rows, err := r.db.QueryxContext(ctx, query, symbol, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query decisions by symbol: %w", err)
	}
	defer rows.Close()

	var decisions []persistence.TradeDecision
	for rows.Next() {
		var d persistence.TradeDecision
		if err := rows.Scan(&d.ID, &d.Symbol, &d.Exchange, &d.RiskScore, &d.Executed, &d.DecidedAt, &d.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan decision: %w", err)
		}
		decisions = append(decisions, d)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating rows: %w", err)
	}

	return decisions, nil
}
