package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime"
	"net/http"
	"strings"

	"github.com/scaffold-labs/musicsearch/common/httputil"
	"github.com/scaffold-labs/musicsearch/search/pkg/client"
	"github.com/scaffold-labs/musicsearch/search/pkg/model"
)

const maxRequestBody = 64 << 10

// searchRequest is the JSON body accepted by POST /api/search.
type searchRequest struct {
	Name *string `json:"name"`
}

// termFromRequest extracts the caller-supplied term. An absent name falls
// back to the default term; a present but empty one is kept as is.
func (h *Handler) termFromRequest(w http.ResponseWriter, r *http.Request) (model.Term, error) {
	if r.Method == http.MethodGet {
		q := r.URL.Query()
		if !q.Has(client.QueryParam) {
			return h.defaultTerm, nil
		}
		return model.Term(q.Get(client.QueryParam)), nil
	}

	r.Body = http.MaxBytesReader(w, r.Body, maxRequestBody)

	mediaType := ""
	if ct := r.Header.Get("Content-Type"); ct != "" {
		mt, _, err := mime.ParseMediaType(ct)
		if err != nil {
			return "", fmt.Errorf("invalid Content-Type: %w", err)
		}
		mediaType = mt
	}

	switch {
	case mediaType == "application/json" || strings.HasSuffix(mediaType, "+json"):
		var req searchRequest
		dec := json.NewDecoder(r.Body)
		if err := dec.Decode(&req); err != nil {
			if errors.Is(err, io.EOF) {
				return h.defaultTerm, nil
			}
			return "", fmt.Errorf("invalid JSON body: %w", err)
		}
		if req.Name == nil {
			return h.defaultTerm, nil
		}
		return model.Term(*req.Name), nil
	default:
		if err := r.ParseForm(); err != nil {
			return "", fmt.Errorf("invalid form body: %w", err)
		}
		if !r.PostForm.Has(client.QueryParam) {
			return h.defaultTerm, nil
		}
		return model.Term(r.PostForm.Get(client.QueryParam)), nil
	}
}

// failureStatus maps a failure kind to the HTTP status and error code
// returned to the browser.
func failureStatus(err error) (int, string, string) {
	switch client.KindOf(err) {
	case client.KindTransport:
		if client.IsTimeout(err) {
			return http.StatusGatewayTimeout, "upstream_timeout", "Music search timed out"
		}
		return http.StatusBadGateway, "upstream_unreachable", "Music search is unreachable"
	case client.KindStatus:
		return http.StatusBadGateway, "upstream_status", "Music search returned an error status"
	case client.KindDecode:
		return http.StatusBadGateway, "upstream_malformed", "Music search returned a malformed payload"
	case client.KindRejected:
		return http.StatusTooManyRequests, "rate_limited", "Too many searches"
	}
	return http.StatusInternalServerError, "search_failed", "Music search failed"
}

func (h *Handler) methodNotAllowed(w http.ResponseWriter, allowed ...string) {
	w.Header().Set("Allow", strings.Join(allowed, ", "))
	httputil.WriteJSONAPIError(w, http.StatusMethodNotAllowed, "method_not_allowed", "Method not allowed", "")
}
