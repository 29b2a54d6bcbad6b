package messaging

import "encoding/json"

// SearchRequest is the message format for the search.music.request subject.
// A missing term means the default term.
type SearchRequest struct {
	JobID     string  `json:"job_id,omitempty"`
	Term      *string `json:"term"`
	RequestID string  `json:"request_id,omitempty"`
}

// SearchResponse is published to the reply subject of a SearchRequest.
type SearchResponse struct {
	JobID      string          `json:"job_id,omitempty"`
	DispatchID string          `json:"dispatch_id,omitempty"`
	Term       string          `json:"term"`
	Success    bool            `json:"success"`
	Error      string          `json:"error,omitempty"`
	ErrorKind  string          `json:"error_kind,omitempty"`
	Timeout    bool            `json:"timeout,omitempty"`
	URL        string          `json:"url,omitempty"`
	Status     int             `json:"status,omitempty"`
	Body       json.RawMessage `json:"body,omitempty"`
	Shared     bool            `json:"shared,omitempty"`
	TookMs     int64           `json:"took_ms"`
}
