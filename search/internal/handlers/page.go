package handlers

import (
	"bytes"
	"net/http"

	"github.com/scaffold-labs/musicsearch/common/logging"
	"github.com/scaffold-labs/musicsearch/search/internal/assets"
)

// Index handles GET / by rendering the search page.
func (h *Handler) Index(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/" {
		http.NotFound(w, r)
		return
	}
	if r.Method != http.MethodGet && r.Method != http.MethodHead {
		h.methodNotAllowed(w, http.MethodGet, http.MethodHead)
		return
	}

	var buf bytes.Buffer
	if err := assets.RenderIndex(&buf, assets.Page{
		Title:       "musicsearch",
		DefaultTerm: h.defaultTerm.String(),
	}); err != nil {
		h.logger.ErrorContext(r.Context(), "failed to render index", logging.Error(err))
		http.Error(w, "internal server error", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(buf.Bytes())
}

// Static serves embedded assets under /static/.
func (h *Handler) Static() http.Handler {
	return http.StripPrefix("/static/", http.FileServerFS(assets.Static()))
}
