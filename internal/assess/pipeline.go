package assess

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/RichieLoco/coinsniper/internal/llm"
	"github.com/RichieLoco/coinsniper/internal/persistence"
)

// Pipeline turns a typed context into a structured risk assessment via one
// completion call. Completion calls run inside a bounded worker slot so a
// slow provider never starves control-plane goroutines.
type Pipeline struct {
	client llm.CompletionClient
	repo   persistence.AssessmentsRepo
	slots  chan struct{}
}

// NewPipeline creates an assessment pipeline with the given number of
// concurrent completion worker slots.
func NewPipeline(client llm.CompletionClient, repo persistence.AssessmentsRepo, workers int) *Pipeline {
	if workers <= 0 {
		workers = 1
	}
	return &Pipeline{
		client: client,
		repo:   repo,
		slots:  make(chan struct{}, workers),
	}
}

// Assess renders the context's prompt, calls the completion provider, and
// parses the response. It returns a possibly partially populated record, or
// fails only with llm.ErrEmptyCompletion / provider transport errors —
// parsing and the assessment-log write never fail the call.
func (p *Pipeline) Assess(ctx context.Context, c Context) (*persistence.RiskAssessment, error) {
	select {
	case p.slots <- struct{}{}:
		defer func() { <-p.slots }()
	case <-ctx.Done():
		return nil, fmt.Errorf("waiting for assessment worker slot: %w", ctx.Err())
	}

	prompt := c.Prompt()

	start := time.Now()
	text, err := p.client.Complete(ctx, prompt)
	if err != nil {
		if errors.Is(err, llm.ErrEmptyCompletion) {
			// No persistence write: an empty answer is "could not assess".
			log.Warn().Str("context", c.Describe()).Msg("Completion provider returned no usable text")
			return nil, err
		}
		return nil, fmt.Errorf("completion call failed: %w", err)
	}

	log.Debug().
		Str("context", c.Describe()).
		Dur("latency", time.Since(start)).
		Int("response_len", len(text)).
		Msg("Completion received")

	record := Parse(text, c)
	p.persistAsync(record)

	return &record, nil
}

// persistAsync writes the assessment log entry off the caller's path. The
// in-memory record is authoritative: a failed write is logged, never
// returned.
func (p *Pipeline) persistAsync(record persistence.RiskAssessment) {
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()

		if err := p.repo.Insert(ctx, record); err != nil {
			log.Error().Err(err).Str("context", record.ContextDesc).Msg("Failed to persist assessment log entry")
		}
	}()
}
