// Package model holds the values exchanged between the search trigger, the
// upstream client and the diagnostic sinks.
package model

import (
	"encoding/json"
	"net/http"
	"time"
)

// DefaultTerm is the term used when a caller does not supply one.
const DefaultTerm = "黑色毛衣"

// Term is a caller-supplied search term. It is sent verbatim as the "name"
// query value; it is never trimmed, validated or normalized.
type Term string

func (t Term) String() string { return string(t) }

// Response is the raw upstream reply. Body is kept opaque: it is checked to be
// well-formed JSON and never decoded into typed structures.
type Response struct {
	URL        string          `json:"url"`
	StatusCode int             `json:"status"`
	Header     http.Header     `json:"headers"`
	Body       json.RawMessage `json:"body"`
	Duration   time.Duration   `json:"duration_ns"`
	ReceivedAt time.Time       `json:"received_at"`
}

// Size returns the body length in bytes.
func (r *Response) Size() int {
	if r == nil {
		return 0
	}
	return len(r.Body)
}
