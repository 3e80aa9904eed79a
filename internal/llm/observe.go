package llm

import (
	"context"
	"errors"
	"time"
)

// ObservedClient decorates a CompletionClient with an outcome callback,
// letting the wiring layer record latency metrics without the client
// knowing about the metrics registry.
type ObservedClient struct {
	inner  CompletionClient
	record func(result string, duration time.Duration)
}

// NewObservedClient wraps inner; record receives "ok", "empty" or "error".
func NewObservedClient(inner CompletionClient, record func(result string, duration time.Duration)) *ObservedClient {
	return &ObservedClient{inner: inner, record: record}
}

func (o *ObservedClient) Complete(ctx context.Context, prompt string) (string, error) {
	start := time.Now()
	text, err := o.inner.Complete(ctx, prompt)

	result := "ok"
	switch {
	case errors.Is(err, ErrEmptyCompletion):
		result = "empty"
	case err != nil:
		result = "error"
	}
	o.record(result, time.Since(start))

	return text, err
}
