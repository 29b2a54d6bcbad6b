package sink

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/scaffold-labs/musicsearch/common/logging"
	"github.com/scaffold-labs/musicsearch/common/messaging"
	"github.com/scaffold-labs/musicsearch/common/middleware"
	"github.com/scaffold-labs/musicsearch/search/pkg/client"
	"github.com/scaffold-labs/musicsearch/search/pkg/model"
)

const (
	OutcomeResponse = "response"
	OutcomeFailure  = "failure"
)

// Record is the JSON document published for each outcome.
type Record struct {
	Outcome    string          `json:"outcome"`
	Term       string          `json:"term"`
	RequestID  string          `json:"request_id,omitempty"`
	URL        string          `json:"url,omitempty"`
	Status     int             `json:"status,omitempty"`
	Headers    http.Header     `json:"headers,omitempty"`
	Body       json.RawMessage `json:"body,omitempty"`
	DurationMS int64           `json:"duration_ms,omitempty"`
	ErrorKind  string          `json:"error_kind,omitempty"`
	Error      string          `json:"error,omitempty"`
	Timeout    bool            `json:"timeout,omitempty"`
	Timestamp  time.Time       `json:"timestamp"`
}

// DecodeRecord parses a published diagnostic.
func DecodeRecord(data []byte) (*Record, error) {
	var r Record
	if err := json.Unmarshal(data, &r); err != nil {
		return nil, fmt.Errorf("decode diagnostic record: %w", err)
	}
	return &r, nil
}

// NATSSink publishes a Record per outcome on the diagnostics subjects.
// Publish failures are logged and otherwise ignored.
type NATSSink struct {
	pub    messaging.Publisher
	logger *logging.Logger
	now    func() time.Time
}

// NewNATSSink returns a sink publishing through pub.
func NewNATSSink(pub messaging.Publisher, logger *logging.Logger) *NATSSink {
	if logger == nil {
		logger = logging.Default()
	}
	return &NATSSink{pub: pub, logger: logger, now: time.Now}
}

func (s *NATSSink) Response(ctx context.Context, term model.Term, resp *model.Response) {
	s.publish(ctx, messaging.SubjectDiagnosticsResponse, &Record{
		Outcome:    OutcomeResponse,
		Term:       term.String(),
		RequestID:  middleware.GetRequestID(ctx),
		URL:        resp.URL,
		Status:     resp.StatusCode,
		Headers:    resp.Header,
		Body:       resp.Body,
		DurationMS: resp.Duration.Milliseconds(),
		Timestamp:  s.now().UTC(),
	})
}

func (s *NATSSink) Failure(ctx context.Context, term model.Term, err error) {
	rec := &Record{
		Outcome:   OutcomeFailure,
		Term:      term.String(),
		RequestID: middleware.GetRequestID(ctx),
		ErrorKind: string(client.KindOf(err)),
		Timestamp: s.now().UTC(),
	}
	if err != nil {
		rec.Error = err.Error()
	}
	if e, ok := asClientError(err); ok {
		rec.URL = e.URL
		rec.Status = e.StatusCode
		rec.Timeout = e.Timeout()
	}
	s.publish(ctx, messaging.SubjectDiagnosticsFailure, rec)
}

func (s *NATSSink) publish(ctx context.Context, subject string, rec *Record) {
	data, err := json.Marshal(rec)
	if err != nil {
		s.logger.WarnContext(ctx, "failed to encode diagnostic record",
			slog.String("subject", subject), logging.Error(err))
		return
	}

	msg := &messaging.Message{
		Subject:  subject,
		Data:     data,
		Metadata: map[string]string{"Content-Type": "application/json"},
	}
	if rec.RequestID != "" {
		msg.Metadata[middleware.RequestIDHeader] = rec.RequestID
	}

	// Publish even when the caller's context is already done.
	if err := s.pub.PublishMsg(context.WithoutCancel(ctx), msg); err != nil {
		s.logger.WarnContext(ctx, "failed to publish diagnostic record",
			slog.String("subject", subject), logging.Error(err))
	}
}

func asClientError(err error) (*client.Error, bool) {
	var e *client.Error
	if errors.As(err, &e) {
		return e, true
	}
	return nil, false
}
