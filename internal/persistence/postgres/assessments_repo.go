package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/RichieLoco/coinsniper/internal/persistence"
)

// assessmentsRepo implements AssessmentsRepo for PostgreSQL
type assessmentsRepo struct {
	db      *sqlx.DB
	timeout time.Duration
}

// NewAssessmentsRepo creates a new PostgreSQL assessments repository
func NewAssessmentsRepo(db *sqlx.DB, timeout time.Duration) persistence.AssessmentsRepo {
	return &assessmentsRepo{
		db:      db,
		timeout: timeout,
	}
}

// Insert appends one assessment record. Nil fields are stored as NULL so an
// unparsed rating reads back as unknown, not as a defaulted value.
func (r *assessmentsRepo) Insert(ctx context.Context, a persistence.RiskAssessment) error {
	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	query := `
		INSERT INTO risk_assessments
			(context_type, context_desc, exchange, coin_listing, coin_pair,
			 overall_risk_score, liquidity, trading_volume, trading_fees, assessed_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`

	_, err := r.db.ExecContext(ctx, query,
		a.ContextType, a.ContextDesc, a.Exchange, a.CoinListing, a.CoinPair,
		a.OverallRiskScore, levelArg(a.Liquidity), levelArg(a.TradingVolume),
		levelArg(a.TradingFees), a.AssessedAt)
	if err != nil {
		return fmt.Errorf("failed to insert assessment: %w", err)
	}

	return nil
}

// ListByContext retrieves assessments for a context type, newest first
func (r *assessmentsRepo) ListByContext(ctx context.Context, contextType string, limit int) ([]persistence.RiskAssessment, error) {
	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	query := `
		SELECT id, context_type, context_desc, exchange, coin_listing, coin_pair,
		       overall_risk_score, liquidity, trading_volume, trading_fees,
		       assessed_at, created_at
		FROM risk_assessments
		WHERE context_type = $1
		ORDER BY assessed_at DESC
		LIMIT $2`

	rows, err := r.db.QueryxContext(ctx, query, contextType, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query assessments by context: %w", err)
	}
	defer rows.Close()

	var assessments []persistence.RiskAssessment
	for rows.Next() {
		a, err := scanAssessment(rows)
		if err != nil {
			return nil, err
		}
		assessments = append(assessments, *a)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating rows: %w", err)
	}

	return assessments, nil
}

func scanAssessment(rows *sqlx.Rows) (*persistence.RiskAssessment, error) {
	var a persistence.RiskAssessment
	var liquidity, tradingVolume, tradingFees sql.NullString

	err := rows.Scan(
		&a.ID, &a.ContextType, &a.ContextDesc, &a.Exchange, &a.CoinListing,
		&a.CoinPair, &a.OverallRiskScore, &liquidity, &tradingVolume,
		&tradingFees, &a.AssessedAt, &a.CreatedAt)
	if err != nil {
		return nil, fmt.Errorf("failed to scan assessment: %w", err)
	}

	a.Liquidity = levelFromNull(liquidity)
	a.TradingVolume = levelFromNull(tradingVolume)
	a.TradingFees = levelFromNull(tradingFees)

	return &a, nil
}

func levelArg(l *persistence.RiskLevel) interface{} {
	if l == nil {
		return nil
	}
	return string(*l)
}

func levelFromNull(ns sql.NullString) *persistence.RiskLevel {
	if !ns.Valid {
		return nil
	}
	l := persistence.RiskLevel(ns.String)
	return &l
}
