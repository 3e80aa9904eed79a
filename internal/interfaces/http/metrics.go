package http

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	io_prometheus_client "github.com/prometheus/client_model/go"
	"github.com/rs/zerolog/log"
)

// MetricsRegistry holds all Prometheus metrics for CoinSniper
type MetricsRegistry struct {
	// Polling metrics
	PollTicks    prometheus.Counter
	IngestedAnns prometheus.Counter
	IngestErrors prometheus.Counter

	// Assessment metrics
	CompletionDuration *prometheus.HistogramVec
	EmptyCompletions   prometheus.Counter

	// Decision metrics
	Decisions *prometheus.CounterVec
}

// NewMetricsRegistry creates a metrics registry with all CoinSniper metrics
func NewMetricsRegistry() *MetricsRegistry {
	registry := &MetricsRegistry{
		PollTicks: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "coinsniper_poll_ticks_total",
				Help: "Total number of polling ticks fired",
			},
		),

		IngestedAnns: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "coinsniper_announcements_ingested_total",
				Help: "Total number of announcements persisted by ingestion cycles",
			},
		),

		IngestErrors: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "coinsniper_ingest_errors_total",
				Help: "Total number of failed ingestion cycles recorded to the audit store",
			},
		),

		CompletionDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "coinsniper_completion_duration_seconds",
				Help:    "Duration of completion provider calls in seconds",
				Buckets: []float64{0.1, 0.25, 0.5, 1.0, 2.5, 5.0, 10.0, 30.0, 60.0},
			},
			[]string{"result"},
		),

		EmptyCompletions: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "coinsniper_empty_completions_total",
				Help: "Total number of completion calls that returned no usable text",
			},
		),

		Decisions: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "coinsniper_trade_decisions_total",
				Help: "Total number of trade decisions by executed outcome",
			},
			[]string{"executed"},
		),
	}

	prometheus.MustRegister(
		registry.PollTicks,
		registry.IngestedAnns,
		registry.IngestErrors,
		registry.CompletionDuration,
		registry.EmptyCompletions,
		registry.Decisions,
	)

	return registry
}

// RecordTick records one polling tick with the number of ingested announcements
func (m *MetricsRegistry) RecordTick(ingested int) {
	m.PollTicks.Inc()
	m.IngestedAnns.Add(float64(ingested))
}

// RecordIngestError records one failed ingestion cycle
func (m *MetricsRegistry) RecordIngestError() {
	m.IngestErrors.Inc()
}

// RecordCompletion records a completion call outcome with its duration
func (m *MetricsRegistry) RecordCompletion(result string, duration time.Duration) {
	m.CompletionDuration.WithLabelValues(result).Observe(duration.Seconds())
	if result == "empty" {
		m.EmptyCompletions.Inc()
	}
}

// RecordDecision records one trade decision outcome
func (m *MetricsRegistry) RecordDecision(executed bool) {
	label := "false"
	if executed {
		label = "true"
	}
	m.Decisions.WithLabelValues(label).Inc()
}

// TickCount reads the current tick counter value, used by the status endpoint
func (m *MetricsRegistry) TickCount() float64 {
	metric := &io_prometheus_client.Metric{}
	if err := m.PollTicks.Write(metric); err != nil {
		return 0
	}
	return metric.GetCounter().GetValue()
}

// MetricsHandler returns an HTTP handler for Prometheus metrics
func (m *MetricsRegistry) MetricsHandler() http.Handler {
	return promhttp.Handler()
}

// Global metrics registry instance
var DefaultMetrics *MetricsRegistry

// InitializeMetrics initializes the global metrics registry
func InitializeMetrics() {
	DefaultMetrics = NewMetricsRegistry()
	log.Info().Msg("Prometheus metrics registry initialized")
}
