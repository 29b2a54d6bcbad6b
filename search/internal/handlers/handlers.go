package handlers

import (
	"context"
	"net/http"

	"github.com/scaffold-labs/musicsearch/common/httputil"
	"github.com/scaffold-labs/musicsearch/common/logging"
	"github.com/scaffold-labs/musicsearch/common/messaging"
	"github.com/scaffold-labs/musicsearch/search/internal/ratelimit"
	"github.com/scaffold-labs/musicsearch/search/pkg/model"
	"github.com/scaffold-labs/musicsearch/search/pkg/trigger"
)

// Firer runs one search. *trigger.Trigger implements it.
type Firer interface {
	Fire(ctx context.Context, term model.Term) trigger.Outcome
	Reject(ctx context.Context, term model.Term, reason error) trigger.Outcome
}

// Handler wires HTTP routes to the search trigger.
type Handler struct {
	trigger     Firer
	limiter     ratelimit.RateLimiter
	broker      messaging.Client
	logger      *logging.Logger
	version     string
	defaultTerm model.Term
}

// New creates a Handler instance.
func New(t Firer, version string) *Handler {
	return &Handler{
		trigger:     t,
		limiter:     ratelimit.NoOpRateLimiter{},
		logger:      logging.Default(),
		version:     version,
		defaultTerm: model.DefaultTerm,
	}
}

// WithRateLimiter guards /api/search with l, keyed by client IP.
func (h *Handler) WithRateLimiter(l ratelimit.RateLimiter) *Handler {
	if l != nil {
		h.limiter = l
	}
	return h
}

// WithBroker makes /readyz depend on the diagnostics bus connection.
func (h *Handler) WithBroker(c messaging.Client) *Handler {
	h.broker = c
	return h
}

func (h *Handler) WithLogger(l *logging.Logger) *Handler {
	if l != nil {
		h.logger = l
	}
	return h
}

// WithDefaultTerm sets the term prefilled on the page and used when a
// request names none.
func (h *Handler) WithDefaultTerm(term model.Term) *Handler {
	h.defaultTerm = term
	return h
}

// HealthResponse is returned by /healthz and /readyz.
type HealthResponse struct {
	Status  string                  `json:"status"`
	Version string                  `json:"version"`
	NATS    *messaging.HealthStatus `json:"nats,omitempty"`
}

// Health handles GET /healthz for liveness probes.
func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		h.methodNotAllowed(w, http.MethodGet)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, HealthResponse{Status: "ok", Version: h.version})
}

// Ready handles GET /readyz. It fails while a configured broker is disconnected.
func (h *Handler) Ready(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		h.methodNotAllowed(w, http.MethodGet)
		return
	}

	resp := HealthResponse{Status: "ready", Version: h.version}
	status := http.StatusOK
	if h.broker != nil {
		nats := messaging.CheckClientHealth(r.Context(), h.broker)
		resp.NATS = &nats
		if !nats.Connected {
			resp.Status = "not_ready"
			status = http.StatusServiceUnavailable
		}
	}
	httputil.WriteJSON(w, status, resp)
}
