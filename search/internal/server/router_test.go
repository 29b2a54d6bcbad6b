package server

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/scaffold-labs/musicsearch/common/logging"
	"github.com/scaffold-labs/musicsearch/common/middleware"
	"github.com/scaffold-labs/musicsearch/search/internal/handlers"
	"github.com/scaffold-labs/musicsearch/search/internal/metrics"
	"github.com/scaffold-labs/musicsearch/search/pkg/client"
	"github.com/scaffold-labs/musicsearch/search/pkg/sink"
	"github.com/scaffold-labs/musicsearch/search/pkg/trigger"
)

func newTestRouter(t *testing.T) (http.Handler, *sink.Recorder) {
	t.Helper()
	upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"code":200}`))
	}))
	t.Cleanup(upstream.Close)

	cfg := client.DefaultConfig()
	cfg.BaseURL = upstream.URL
	cfg.Timeout = time.Second
	mc, err := client.New(cfg)
	require.NoError(t, err)

	rec := sink.NewRecorder(0)
	trg := trigger.New(mc, rec,
		trigger.WithObserver(metrics.Observer{}),
		trigger.WithLogger(logging.Discard()))
	h := handlers.New(trg, "test").WithLogger(logging.Discard())

	return NewRouter(h, middleware.CORSConfig{
		AllowedOrigins: []string{"http://localhost:3000"},
		AllowedMethods: []string{http.MethodGet, http.MethodPost},
		AllowedHeaders: []string{"Content-Type"},
	}), rec
}

func TestRouter_Routes(t *testing.T) {
	router, _ := newTestRouter(t)

	tests := []struct {
		method string
		path   string
		status int
	}{
		{http.MethodGet, "/", http.StatusOK},
		{http.MethodGet, "/static/style.css", http.StatusOK},
		{http.MethodGet, "/static/webpack.png", http.StatusOK},
		{http.MethodGet, "/api/search?name=x", http.StatusOK},
		{http.MethodGet, "/healthz", http.StatusOK},
		{http.MethodGet, "/readyz", http.StatusOK},
		{http.MethodGet, "/metrics", http.StatusOK},
		{http.MethodGet, "/unknown", http.StatusNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.method+" "+tt.path, func(t *testing.T) {
			rr := httptest.NewRecorder()
			router.ServeHTTP(rr, httptest.NewRequest(tt.method, tt.path, nil))
			assert.Equal(t, tt.status, rr.Code)
		})
	}
}

func TestRouter_RequestIDPropagates(t *testing.T) {
	router, rec := newTestRouter(t)

	req := httptest.NewRequest(http.MethodPost, "/api/search", strings.NewReader(`{"name":"黑色毛衣"}`))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set(middleware.RequestIDHeader, "req-42")
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)

	require.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, "req-42", rr.Header().Get(middleware.RequestIDHeader))

	entries := rec.Entries()
	require.Len(t, entries, 1)
	assert.Equal(t, "req-42", entries[0].RequestID)
}

func TestRouter_MetricsExposeSearches(t *testing.T) {
	router, _ := newTestRouter(t)

	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/api/search?name=x", nil))
	require.Equal(t, http.StatusOK, rr.Code)

	rr = httptest.NewRecorder()
	router.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	assert.Contains(t, rr.Body.String(), `musicsearch_requests_total{outcome="success"}`)
	assert.Contains(t, rr.Body.String(), "musicsearch_upstream_duration_seconds")
}

func TestRouter_CORSPreflight(t *testing.T) {
	router, _ := newTestRouter(t)

	req := httptest.NewRequest(http.MethodOptions, "/api/search", nil)
	req.Header.Set("Origin", "http://localhost:3000")
	req.Header.Set("Access-Control-Request-Method", http.MethodPost)
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)

	assert.Equal(t, http.StatusNoContent, rr.Code)
	assert.Equal(t, "http://localhost:3000", rr.Header().Get("Access-Control-Allow-Origin"))
}
