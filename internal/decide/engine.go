package decide

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/RichieLoco/coinsniper/internal/assess"
	"github.com/RichieLoco/coinsniper/internal/config"
	"github.com/RichieLoco/coinsniper/internal/persistence"
)

// Assessor is the assessment boundary consumed by the engine.
type Assessor interface {
	Assess(ctx context.Context, c assess.Context) (*persistence.RiskAssessment, error)
}

// Engine applies trade policy to one announcement at a time. A nil decision
// with a nil error means "no action taken", which is distinct from failure.
type Engine struct {
	assessor Assessor
	repo     persistence.DecisionsRepo
	policy   config.TradeConfig
}

// NewEngine creates a trade-decision engine
func NewEngine(assessor Assessor, repo persistence.DecisionsRepo, policy config.TradeConfig) *Engine {
	return &Engine{
		assessor: assessor,
		repo:     repo,
		policy:   policy,
	}
}

// Decide assesses one announcement and persists the resulting decision.
//
// Delisting events and assessments naming an unsupported (or missing)
// exchange produce no decision. An empty completion propagates: it must
// block the trade, not read as low risk. A failed decision write also
// propagates — an unpersisted executed=true decision is a correctness
// problem.
func (e *Engine) Decide(ctx context.Context, ann persistence.Announcement) (*persistence.TradeDecision, error) {
	if ann.Delisting {
		log.Info().Str("symbol", ann.Symbol).Msg("Delisting announcement, no trade decision")
		return nil, nil
	}

	assessment, err := e.assessor.Assess(ctx, assess.ExchangeSelectionContext{
		Coin:        ann.Symbol,
		StableCoins: e.policy.SupportedStableCoins,
		Exchanges:   e.policy.SupportedExchanges,
	})
	if err != nil {
		return nil, fmt.Errorf("assessment for %s failed: %w", ann.Symbol, err)
	}

	if assessment.Exchange == nil || !e.isSupported(*assessment.Exchange) {
		// Unsupported venues are filtered, not errored.
		log.Info().
			Str("symbol", ann.Symbol).
			Str("exchange", stringOr(assessment.Exchange, "<none>")).
			Msg("Assessed exchange not in supported list, no trade decision")
		return nil, nil
	}

	// A nil risk score is unknown, and unknown never executes. The record
	// keeps the nil so "unknown" stays distinguishable from "zero risk".
	executed := false
	if assessment.OverallRiskScore != nil {
		executed = *assessment.OverallRiskScore < e.policy.RiskThreshold
	}

	decision := &persistence.TradeDecision{
		Symbol:    ann.Symbol,
		Exchange:  *assessment.Exchange,
		RiskScore: assessment.OverallRiskScore,
		Executed:  executed,
		DecidedAt: time.Now().UTC(),
	}

	if err := e.repo.Insert(ctx, decision); err != nil {
		return nil, fmt.Errorf("failed to persist trade decision for %s: %w", ann.Symbol, err)
	}

	evt := log.Info().
		Str("symbol", decision.Symbol).
		Str("exchange", decision.Exchange).
		Bool("executed", decision.Executed)
	if decision.RiskScore != nil {
		evt = evt.Float64("risk_score", *decision.RiskScore)
	}
	evt.Msg("Trade decision persisted")

	return decision, nil
}

func (e *Engine) isSupported(exchange string) bool {
	for _, supported := range e.policy.SupportedExchanges {
		if supported == exchange {
			return true
		}
	}
	return false
}

func stringOr(s *string, fallback string) string {
	if s == nil {
		return fallback
	}
	return *s
}
