package httputil

import (
	"encoding/json"
	"log/slog"
	"net/http"
)

const (
	ContentTypeJSON    = "application/json"
	ContentTypeJSONAPI = "application/vnd.api+json"
)

// WriteJSON writes data as JSON with the given status code.
func WriteJSON(w http.ResponseWriter, status int, data any) {
	write(w, ContentTypeJSON, status, data)
}

// WriteJSONAPI writes data with the JSON:API content type.
func WriteJSONAPI(w http.ResponseWriter, status int, data any) {
	write(w, ContentTypeJSONAPI, status, data)
}

// WriteError writes {"error": message}.
func WriteError(w http.ResponseWriter, status int, message string) {
	WriteJSON(w, status, map[string]string{"error": message})
}

func write(w http.ResponseWriter, contentType string, status int, data any) {
	w.Header().Set("Content-Type", contentType)
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		slog.Error("failed to encode response", slog.String("content_type", contentType), slog.String("error", err.Error()))
	}
}
