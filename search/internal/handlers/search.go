package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/scaffold-labs/musicsearch/common/httputil"
	"github.com/scaffold-labs/musicsearch/common/logging"
	"github.com/scaffold-labs/musicsearch/search/pkg/trigger"
)

// ErrRateLimited is the reason recorded for searches refused by the limiter.
var ErrRateLimited = errors.New("rate limit exceeded")

// SearchResult is the attributes object of a successful search-result.
type SearchResult struct {
	Term       string          `json:"term"`
	URL        string          `json:"url"`
	Status     int             `json:"status"`
	Bytes      int             `json:"bytes"`
	DurationMS int64           `json:"duration_ms"`
	Shared     bool            `json:"shared"`
	Body       json.RawMessage `json:"body"`
}

// Search handles GET and POST /api/search.
func (h *Handler) Search(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet && r.Method != http.MethodPost {
		h.methodNotAllowed(w, http.MethodGet, http.MethodPost)
		return
	}

	term, err := h.termFromRequest(w, r)
	if err != nil {
		httputil.WriteJSONAPIError(w, http.StatusBadRequest, "invalid_request", "Invalid search request", err.Error())
		return
	}

	ctx := r.Context()
	ip := httputil.GetClientIP(r)

	var out trigger.Outcome
	allowed, err := h.limiter.Allow(ctx, ip)
	switch {
	case err != nil:
		// fail open
		h.logger.WarnContext(ctx, "rate limiter unavailable", logging.IP(ip), logging.Error(err))
		out = h.trigger.Fire(ctx, term)
	case !allowed:
		out = h.trigger.Reject(ctx, term, ErrRateLimited)
	default:
		out = h.trigger.Fire(ctx, term)
	}

	h.writeOutcome(w, out)
}

func (h *Handler) writeOutcome(w http.ResponseWriter, out trigger.Outcome) {
	if out.Err != nil {
		status, code, title := failureStatus(out.Err)
		httputil.WriteJSONAPIError(w, status, code, title, out.Err.Error())
		return
	}

	resp := out.Response
	httputil.WriteJSONAPIResource(w, http.StatusOK, "search-result", out.DispatchID, SearchResult{
		Term:       out.Term.String(),
		URL:        resp.URL,
		Status:     resp.StatusCode,
		Bytes:      resp.Size(),
		DurationMS: resp.Duration.Milliseconds(),
		Shared:     out.Shared,
		Body:       resp.Body,
	})
}
