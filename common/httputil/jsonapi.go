package httputil

import (
	"net"
	"net/http"
	"strings"
)

// JSONAPIResource is a single JSON:API resource object.
type JSONAPIResource struct {
	Type       string `json:"type"`
	ID         string `json:"id"`
	Attributes any    `json:"attributes"`
}

// JSONAPIDocument is a top-level JSON:API document.
type JSONAPIDocument struct {
	Data   *JSONAPIResource     `json:"data,omitempty"`
	Errors []JSONAPIErrorObject `json:"errors,omitempty"`
}

// JSONAPIErrorObject is one entry of a JSON:API errors array.
type JSONAPIErrorObject struct {
	Status int    `json:"status,omitempty"`
	Code   string `json:"code,omitempty"`
	Title  string `json:"title,omitempty"`
	Detail string `json:"detail,omitempty"`
}

// WriteJSONAPIResource writes {"data": {type, id, attributes}}.
func WriteJSONAPIResource(w http.ResponseWriter, status int, resourceType, id string, attributes any) {
	WriteJSONAPI(w, status, JSONAPIDocument{
		Data: &JSONAPIResource{Type: resourceType, ID: id, Attributes: attributes},
	})
}

// WriteJSONAPIError writes a document holding a single error.
func WriteJSONAPIError(w http.ResponseWriter, status int, code, title, detail string) {
	WriteJSONAPI(w, status, JSONAPIDocument{
		Errors: []JSONAPIErrorObject{{Status: status, Code: code, Title: title, Detail: detail}},
	})
}

// GetClientIP returns the originating client address, preferring the first
// X-Forwarded-For entry, then X-Real-IP, then RemoteAddr.
func GetClientIP(r *http.Request) string {
	if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
		first, _, _ := strings.Cut(xff, ",")
		return strings.TrimSpace(first)
	}
	if xri := r.Header.Get("X-Real-IP"); xri != "" {
		return xri
	}
	if host, _, err := net.SplitHostPort(r.RemoteAddr); err == nil {
		return host
	}
	return r.RemoteAddr
}
