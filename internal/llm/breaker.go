package llm

import (
	"context"
	"errors"

	"github.com/rs/zerolog/log"
	"github.com/sony/gobreaker"

	"github.com/RichieLoco/coinsniper/internal/config"
)

// BreakerClient wraps a CompletionClient with a circuit breaker so a
// misbehaving provider fails fast instead of tying up worker slots.
type BreakerClient struct {
	inner   CompletionClient
	breaker *gobreaker.CircuitBreaker
}

// NewBreakerClient wraps inner with circuit settings from configuration
func NewBreakerClient(inner CompletionClient, cfg config.CircuitConfig) *BreakerClient {
	settings := gobreaker.Settings{
		Name:        "completion-provider",
		MaxRequests: cfg.MaxRequests,
		Interval:    cfg.Interval(),
		Timeout:     cfg.Timeout(),
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= cfg.FailureThreshold
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			log.Warn().
				Str("breaker", name).
				Str("from", from.String()).
				Str("to", to.String()).
				Msg("Completion circuit breaker state changed")
		},
	}

	return &BreakerClient{
		inner:   inner,
		breaker: gobreaker.NewCircuitBreaker(settings),
	}
}

// Complete dispatches through the breaker. ErrEmptyCompletion does not count
// as a breaker failure: the provider answered, it just had nothing usable.
func (b *BreakerClient) Complete(ctx context.Context, prompt string) (string, error) {
	result, err := b.breaker.Execute(func() (interface{}, error) {
		text, err := b.inner.Complete(ctx, prompt)
		if errors.Is(err, ErrEmptyCompletion) {
			return "", nil
		}
		return text, err
	})
	if err != nil {
		if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
			return "", &ProviderError{Message: err.Error()}
		}
		return "", err
	}

	text := result.(string)
	if text == "" {
		return "", ErrEmptyCompletion
	}
	return text, nil
}

// State exposes the current breaker state for the status endpoint.
func (b *BreakerClient) State() string {
	return b.breaker.State().String()
}
