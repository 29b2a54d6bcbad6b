package server

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/scaffold-labs/musicsearch/common/middleware"
	"github.com/scaffold-labs/musicsearch/search/internal/handlers"
)

// NewRouter constructs a ServeMux with the page, API and probe routes registered.
func NewRouter(h *handlers.Handler, cors middleware.CORSConfig) http.Handler {
	mux := http.NewServeMux()

	// Page and assets
	mux.HandleFunc("/", h.Index)
	mux.Handle("/static/", h.Static())

	// Search API
	mux.HandleFunc("/api/search", h.Search)

	// Health endpoints
	mux.HandleFunc("/healthz", h.Health)
	mux.HandleFunc("/readyz", h.Ready)

	// Prometheus metrics
	mux.Handle("/metrics", promhttp.Handler())

	return middleware.RequestID(middleware.CORS(cors)(mux))
}
