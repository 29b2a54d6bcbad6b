package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCORS(t *testing.T) {
	ok := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("OK"))
	})

	base := CORSConfig{
		AllowedMethods: []string{"GET", "POST"},
		AllowedHeaders: []string{"Content-Type", "X-Request-ID"},
	}

	tests := []struct {
		name           string
		origins        []string
		origin         string
		method         string
		expectedOrigin string
		expectedStatus int
	}{
		{
			name:           "exact origin match",
			origins:        []string{"https://app.example.com"},
			origin:         "https://app.example.com",
			method:         http.MethodGet,
			expectedOrigin: "https://app.example.com",
			expectedStatus: http.StatusOK,
		},
		{
			name:           "wildcard subdomain",
			origins:        []string{"*.example.com"},
			origin:         "https://ui.example.com",
			method:         http.MethodPost,
			expectedOrigin: "https://ui.example.com",
			expectedStatus: http.StatusOK,
		},
		{
			name:           "any origin",
			origins:        []string{"*"},
			origin:         "http://localhost:8080",
			method:         http.MethodGet,
			expectedOrigin: "http://localhost:8080",
			expectedStatus: http.StatusOK,
		},
		{
			name:           "origin not allowed",
			origins:        []string{"https://app.example.com"},
			origin:         "https://evil.test",
			method:         http.MethodGet,
			expectedStatus: http.StatusOK,
		},
		{
			name:           "preflight short-circuits",
			origins:        []string{"*"},
			origin:         "https://ui.example.com",
			method:         http.MethodOptions,
			expectedOrigin: "https://ui.example.com",
			expectedStatus: http.StatusNoContent,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := base
			cfg.AllowedOrigins = tt.origins

			req := httptest.NewRequest(tt.method, "/api/search", nil)
			req.Header.Set("Origin", tt.origin)
			w := httptest.NewRecorder()

			CORS(cfg)(ok).ServeHTTP(w, req)

			assert.Equal(t, tt.expectedStatus, w.Code)
			assert.Equal(t, tt.expectedOrigin, w.Header().Get("Access-Control-Allow-Origin"))
			assert.Equal(t, "GET, POST", w.Header().Get("Access-Control-Allow-Methods"))
			assert.Equal(t, "300", w.Header().Get("Access-Control-Max-Age"))
		})
	}
}
