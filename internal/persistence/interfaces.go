package persistence

import (
	"context"
	"time"
)

// RiskLevel is a categorical risk rating produced by the assessment parser.
// Absent ratings are represented as nil pointers, never a zero value.
type RiskLevel string

const (
	RiskLow    RiskLevel = "Low"
	RiskMedium RiskLevel = "Medium"
	RiskHigh   RiskLevel = "High"
)

// ParseRiskLevel maps model output onto a RiskLevel. Matching is case-sensitive:
// anything outside {Low, Medium, High} is rejected so a garbled rating stays unknown.
func ParseRiskLevel(s string) (RiskLevel, bool) {
	switch RiskLevel(s) {
	case RiskLow, RiskMedium, RiskHigh:
		return RiskLevel(s), true
	}
	return "", false
}

// Announcement represents one detected listing or delisting event from the feed.
// Records are immutable once written.
type Announcement struct {
	ID          string    `json:"id" db:"id"`
	Title       string    `json:"title" db:"title"`
	Symbol      string    `json:"symbol" db:"symbol"`
	AnnouncedAt time.Time `json:"announced_at" db:"announced_at"`
	Delisting   bool      `json:"delisting" db:"delisting"`
	CreatedAt   time.Time `json:"created_at" db:"created_at"`
}

// RiskAssessment is the structured result of one completion call. Fields the
// parser could not extract are nil, never defaulted: callers must treat nil as
// "unknown", not as zero risk.
type RiskAssessment struct {
	ID               int64      `json:"id" db:"id"`
	ContextType      string     `json:"context_type" db:"context_type"`
	ContextDesc      string     `json:"context_desc" db:"context_desc"`
	Exchange         *string    `json:"exchange,omitempty" db:"exchange"`
	CoinListing      *string    `json:"coin_listing,omitempty" db:"coin_listing"`
	CoinPair         *string    `json:"coin_pair,omitempty" db:"coin_pair"`
	OverallRiskScore *float64   `json:"overall_risk_score,omitempty" db:"overall_risk_score"`
	Liquidity        *RiskLevel `json:"liquidity,omitempty" db:"liquidity"`
	TradingVolume    *RiskLevel `json:"trading_volume,omitempty" db:"trading_volume"`
	TradingFees      *RiskLevel `json:"trading_fees,omitempty" db:"trading_fees"`
	AssessedAt       time.Time  `json:"assessed_at" db:"assessed_at"`
	CreatedAt        time.Time  `json:"created_at" db:"created_at"`
}

// TradeDecision is the outcome of applying trade policy to one assessment.
// Executed is true only when the exchange is supported and the risk score
// cleared the configured threshold. A nil RiskScore means the assessment
// carried no parseable score; such decisions are never executed, and the
// stored record keeps the score unknown rather than defaulting it.
type TradeDecision struct {
	ID        int64     `json:"id" db:"id"`
	Symbol    string    `json:"symbol" db:"symbol"`
	Exchange  string    `json:"exchange" db:"exchange"`
	RiskScore *float64  `json:"risk_score,omitempty" db:"risk_score"`
	Executed  bool      `json:"executed" db:"executed"`
	DecidedAt time.Time `json:"decided_at" db:"decided_at"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
}

// ErrorRecord is an audit entry for a failed ingestion cycle.
type ErrorRecord struct {
	ID         int64     `json:"id" db:"id"`
	Source     string    `json:"source" db:"source"`
	Message    string    `json:"message" db:"message"`
	StatusCode *int      `json:"status_code,omitempty" db:"status_code"`
	OccurredAt time.Time `json:"occurred_at" db:"occurred_at"`
	CreatedAt  time.Time `json:"created_at" db:"created_at"`
}

// AnnouncementsRepo persists feed announcements.
type AnnouncementsRepo interface {
	// Insert adds a new announcement record
	Insert(ctx context.Context, a Announcement) error

	// GetByID finds one announcement by its opaque id
	GetByID(ctx context.Context, id string) (*Announcement, error)

	// ListBySymbol retrieves announcements for a coin symbol, newest first
	ListBySymbol(ctx context.Context, symbol string, limit int) ([]Announcement, error)
}

// AssessmentsRepo is the append-only assessment log.
type AssessmentsRepo interface {
	// Insert appends one assessment record
	Insert(ctx context.Context, a RiskAssessment) error

	// ListByContext retrieves assessments for a context type, newest first
	ListByContext(ctx context.Context, contextType string, limit int) ([]RiskAssessment, error)
}

// DecisionsRepo persists trade decisions.
type DecisionsRepo interface {
	// Insert adds a new decision record
	Insert(ctx context.Context, d *TradeDecision) error

	// ListBySymbol retrieves decisions for a coin symbol, newest first
	ListBySymbol(ctx context.Context, symbol string, limit int) ([]TradeDecision, error)
}

// ErrorsRepo is the append-only ingestion error audit store.
type ErrorsRepo interface {
	// Insert appends one error record
	Insert(ctx context.Context, e ErrorRecord) error

	// ListRecent retrieves the most recent error records, newest first
	ListRecent(ctx context.Context, limit int) ([]ErrorRecord, error)
}

// Repository aggregates all persistence interfaces
type Repository struct {
	Announcements AnnouncementsRepo
	Assessments   AssessmentsRepo
	Decisions     DecisionsRepo
	Errors        ErrorsRepo
}

// HealthCheck represents repository health status
type HealthCheck struct {
	Healthy        bool           `json:"healthy"`
	Errors         []string       `json:"errors,omitempty"`
	ConnectionPool map[string]int `json:"connection_pool"`
	LastCheck      time.Time      `json:"last_check"`
	ResponseTimeMS int64          `json:"response_time_ms"`
}

// RepositoryHealth provides health monitoring for the persistence layer
type RepositoryHealth interface {
	// Health returns current repository health status
	Health(ctx context.Context) HealthCheck

	// Ping tests basic connectivity to the database
	Ping(ctx context.Context) error

	// Stats returns connection pool statistics
	Stats(ctx context.Context) map[string]interface{}
}
