package http

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/gorilla/mux"
	"github.com/rs/zerolog/log"

	"github.com/RichieLoco/coinsniper/internal/llm"
	"github.com/RichieLoco/coinsniper/internal/persistence"
	"github.com/RichieLoco/coinsniper/internal/poller"
)

const defaultDecisionLimit = 50

// DecideFunc is the trade-decision boundary consumed by the trigger
// endpoint. A (nil, nil) return means "no action taken".
type DecideFunc func(ctx context.Context, ann persistence.Announcement) (*persistence.TradeDecision, error)

// Handlers carries the collaborators behind the HTTP surface.
type Handlers struct {
	poller    *poller.Poller
	decide    DecideFunc
	decisions persistence.DecisionsRepo
	health    persistence.RepositoryHealth
	metrics   *MetricsRegistry
}

// NewHandlers creates the handler set
func NewHandlers(p *poller.Poller, decide DecideFunc, decisions persistence.DecisionsRepo, health persistence.RepositoryHealth, metrics *MetricsRegistry) *Handlers {
	return &Handlers{
		poller:    p,
		decide:    decide,
		decisions: decisions,
		health:    health,
		metrics:   metrics,
	}
}

type statusResponse struct {
	Status string `json:"status"`
	Ticks  int64  `json:"ticks"`
}

// StartPolling handles POST /poller/start. Starting an already running
// poller is a no-op; the response always reports the definite state.
func (h *Handlers) StartPolling(w http.ResponseWriter, r *http.Request) {
	h.poller.Start()
	h.writeStatus(w)
}

// StopPolling handles POST /poller/stop
func (h *Handlers) StopPolling(w http.ResponseWriter, r *http.Request) {
	h.poller.Stop()
	h.writeStatus(w)
}

// PollingStatus handles GET /poller/status
func (h *Handlers) PollingStatus(w http.ResponseWriter, r *http.Request) {
	h.writeStatus(w)
}

func (h *Handlers) writeStatus(w http.ResponseWriter) {
	json.NewEncoder(w).Encode(statusResponse{
		Status: string(h.poller.Status()),
		Ticks:  int64(h.metrics.TickCount()),
	})
}

// TriggerDecision handles POST /decisions: it runs the decision engine for
// one announcement. 200 carries a decision, 204 means no action was taken,
// 502 means the assessment provider could not assess.
func (h *Handlers) TriggerDecision(w http.ResponseWriter, r *http.Request) {
	var ann persistence.Announcement
	if err := json.NewDecoder(r.Body).Decode(&ann); err != nil {
		writeError(w, http.StatusBadRequest, "invalid announcement body")
		return
	}
	if ann.Symbol == "" {
		writeError(w, http.StatusBadRequest, "announcement symbol is required")
		return
	}
	if ann.AnnouncedAt.IsZero() {
		ann.AnnouncedAt = time.Now().UTC()
	}

	decision, err := h.decide(r.Context(), ann)
	if err != nil {
		if errors.Is(err, llm.ErrEmptyCompletion) {
			writeError(w, http.StatusBadGateway, "assessment unavailable")
			return
		}
		log.Error().Err(err).Str("symbol", ann.Symbol).Msg("Decision trigger failed")
		writeError(w, http.StatusInternalServerError, "decision failed")
		return
	}

	if decision == nil {
		w.WriteHeader(http.StatusNoContent)
		return
	}

	h.metrics.RecordDecision(decision.Executed)
	json.NewEncoder(w).Encode(decision)
}

// ListDecisions handles GET /decisions/{symbol}, newest first
func (h *Handlers) ListDecisions(w http.ResponseWriter, r *http.Request) {
	symbol := mux.Vars(r)["symbol"]

	limit := defaultDecisionLimit
	if raw := r.URL.Query().Get("limit"); raw != "" {
		if parsed, err := strconv.Atoi(raw); err == nil && parsed > 0 {
			limit = parsed
		}
	}

	decisions, err := h.decisions.ListBySymbol(r.Context(), symbol, limit)
	if err != nil {
		log.Error().Err(err).Str("symbol", symbol).Msg("Failed to list decisions")
		writeError(w, http.StatusInternalServerError, "failed to list decisions")
		return
	}

	if decisions == nil {
		decisions = []persistence.TradeDecision{}
	}
	json.NewEncoder(w).Encode(decisions)
}

// Health handles GET /health
func (h *Handlers) Health(w http.ResponseWriter, r *http.Request) {
	check := h.health.Health(r.Context())

	response := map[string]interface{}{
		"status":    "ok",
		"poller":    string(h.poller.Status()),
		"database":  check,
		"timestamp": time.Now().UTC().Format(time.RFC3339),
	}
	if !check.Healthy {
		response["status"] = "degraded"
		w.WriteHeader(http.StatusServiceUnavailable)
	}

	json.NewEncoder(w).Encode(response)
}

// NotFound handles unmatched routes
func (h *Handlers) NotFound(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	writeError(w, http.StatusNotFound, "not found")
}

func writeError(w http.ResponseWriter, code int, message string) {
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(map[string]string{"error": message})
}
