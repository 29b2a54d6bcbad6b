package sink

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"sync"
	"testing"
	"time"

	"github.com/scaffold-labs/musicsearch/common/logging"
	"github.com/scaffold-labs/musicsearch/common/messaging"
	"github.com/scaffold-labs/musicsearch/common/middleware"
	"github.com/scaffold-labs/musicsearch/search/pkg/client"
	"github.com/scaffold-labs/musicsearch/search/pkg/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleResponse() *model.Response {
	return &model.Response{
		URL:        "https://api.apiopen.top/searchMusic?name=%E9%BB%91%E8%89%B2%E6%AF%9B%E8%A1%A3",
		StatusCode: http.StatusOK,
		Header:     http.Header{"Content-Type": []string{"application/json"}},
		Body:       json.RawMessage(`{"code":200,"result":[{"title":"黑色毛衣"}]}`),
		Duration:   120 * time.Millisecond,
	}
}

func logLines(t *testing.T, buf *bytes.Buffer) []map[string]any {
	t.Helper()
	var lines []map[string]any
	dec := json.NewDecoder(buf)
	for dec.More() {
		var m map[string]any
		require.NoError(t, dec.Decode(&m))
		lines = append(lines, m)
	}
	return lines
}

func TestLogSink_Response(t *testing.T) {
	var buf bytes.Buffer
	s := NewLogSink(logging.NewWithWriter(&buf, slog.LevelInfo, "json"))

	ctx := middleware.WithRequestID(context.Background(), "req-1")
	s.Response(ctx, "黑色毛衣", sampleResponse())

	lines := logLines(t, &buf)
	require.Len(t, lines, 1)
	line := lines[0]
	assert.Equal(t, "INFO", line["level"])
	assert.Equal(t, "music search response", line["msg"])
	assert.Equal(t, "黑色毛衣", line[logging.FieldTerm])
	assert.Equal(t, "req-1", line[logging.FieldRequestID])
	assert.Equal(t, float64(200), line[logging.FieldStatus])
	assert.Equal(t, float64(120), line[logging.FieldDuration])
	assert.JSONEq(t, `{"code":200,"result":[{"title":"黑色毛衣"}]}`, line["body"].(string))
}

func TestLogSink_ResponseWithoutBody(t *testing.T) {
	var buf bytes.Buffer
	s := NewLogSink(logging.NewWithWriter(&buf, slog.LevelInfo, "json"))
	s.IncludeBody = false

	s.Response(context.Background(), "x", sampleResponse())

	lines := logLines(t, &buf)
	require.Len(t, lines, 1)
	_, ok := lines[0]["body"]
	assert.False(t, ok)
}

func TestLogSink_Failure(t *testing.T) {
	tests := []struct {
		name    string
		err     error
		kind    string
		status  any
		timeout any
	}{
		{
			name:    "transport timeout",
			err:     &client.Error{Kind: client.KindTransport, URL: "http://u", Err: context.DeadlineExceeded},
			kind:    "transport",
			timeout: true,
		},
		{
			name:   "status",
			err:    &client.Error{Kind: client.KindStatus, URL: "http://u", StatusCode: 500},
			kind:   "status",
			status: float64(500),
		},
		{
			name: "foreign error",
			err:  errors.New("something else"),
			kind: "unknown",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			s := NewLogSink(logging.NewWithWriter(&buf, slog.LevelInfo, "json"))

			s.Failure(context.Background(), "x", tt.err)

			lines := logLines(t, &buf)
			require.Len(t, lines, 1)
			line := lines[0]
			assert.Equal(t, "ERROR", line["level"])
			assert.Equal(t, tt.kind, line[logging.FieldErrorKind])
			assert.Equal(t, tt.err.Error(), line[logging.FieldError])
			assert.Equal(t, tt.status, line[logging.FieldStatus])
			assert.Equal(t, tt.timeout, line["timeout"])
		})
	}
}

type fakePublisher struct {
	mu   sync.Mutex
	msgs []*messaging.Message
	err  error
}

func (f *fakePublisher) Publish(ctx context.Context, subject string, data []byte) error {
	return f.PublishMsg(ctx, &messaging.Message{Subject: subject, Data: data})
}

func (f *fakePublisher) PublishMsg(ctx context.Context, msg *messaging.Message) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return f.err
	}
	f.msgs = append(f.msgs, msg)
	return nil
}

func (f *fakePublisher) Close() error { return nil }

func TestNATSSink_Response(t *testing.T) {
	pub := &fakePublisher{}
	s := NewNATSSink(pub, logging.Discard())
	fixed := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
	s.now = func() time.Time { return fixed }

	ctx := middleware.WithRequestID(context.Background(), "req-9")
	s.Response(ctx, "黑色毛衣", sampleResponse())

	require.Len(t, pub.msgs, 1)
	msg := pub.msgs[0]
	assert.Equal(t, messaging.SubjectDiagnosticsResponse, msg.Subject)
	assert.Equal(t, "application/json", msg.Metadata["Content-Type"])
	assert.Equal(t, "req-9", msg.Metadata[middleware.RequestIDHeader])

	rec, err := DecodeRecord(msg.Data)
	require.NoError(t, err)
	assert.Equal(t, OutcomeResponse, rec.Outcome)
	assert.Equal(t, "黑色毛衣", rec.Term)
	assert.Equal(t, "req-9", rec.RequestID)
	assert.Equal(t, 200, rec.Status)
	assert.Equal(t, int64(120), rec.DurationMS)
	assert.JSONEq(t, string(sampleResponse().Body), string(rec.Body))
	assert.True(t, fixed.Equal(rec.Timestamp))
}

func TestNATSSink_Failure(t *testing.T) {
	pub := &fakePublisher{}
	s := NewNATSSink(pub, logging.Discard())

	s.Failure(context.Background(), "x", &client.Error{Kind: client.KindStatus, URL: "http://u?name=x", StatusCode: 502})

	require.Len(t, pub.msgs, 1)
	assert.Equal(t, messaging.SubjectDiagnosticsFailure, pub.msgs[0].Subject)
	_, hasReqID := pub.msgs[0].Metadata[middleware.RequestIDHeader]
	assert.False(t, hasReqID)

	rec, err := DecodeRecord(pub.msgs[0].Data)
	require.NoError(t, err)
	assert.Equal(t, OutcomeFailure, rec.Outcome)
	assert.Equal(t, "status", rec.ErrorKind)
	assert.Equal(t, 502, rec.Status)
	assert.Equal(t, "http://u?name=x", rec.URL)
	assert.Contains(t, rec.Error, "502")
	assert.Empty(t, rec.Body)
}

func TestNATSSink_PublishesAfterCallerContextEnds(t *testing.T) {
	pub := &fakePublisher{}
	s := NewNATSSink(pub, logging.Discard())

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	s.Failure(ctx, "x", &client.Error{Kind: client.KindTransport, Err: context.Canceled})

	assert.Len(t, pub.msgs, 1)
}

func TestNATSSink_PublishErrorIsLogged(t *testing.T) {
	var buf bytes.Buffer
	pub := &fakePublisher{err: errors.New("nats: connection closed")}
	s := NewNATSSink(pub, logging.NewWithWriter(&buf, slog.LevelInfo, "json"))

	assert.NotPanics(t, func() {
		s.Response(context.Background(), "x", sampleResponse())
	})

	lines := logLines(t, &buf)
	require.Len(t, lines, 1)
	assert.Equal(t, "WARN", lines[0]["level"])
	assert.Equal(t, "nats: connection closed", lines[0][logging.FieldError])
}

func TestDecodeRecord_Invalid(t *testing.T) {
	_, err := DecodeRecord([]byte("not json"))
	assert.Error(t, err)
}

func TestMulti(t *testing.T) {
	a, b := NewRecorder(0), NewRecorder(0)
	m := Multi{a, b, Discard{}}

	m.Response(context.Background(), "x", sampleResponse())
	m.Failure(context.Background(), "y", client.Reject(nil))

	for _, r := range []*Recorder{a, b} {
		require.Equal(t, 2, r.Len())
		assert.Len(t, r.Responses(), 1)
		assert.Len(t, r.Failures(), 1)
		assert.Equal(t, model.Term("y"), r.Failures()[0].Term)
	}
}

func TestRecorder_Limit(t *testing.T) {
	r := NewRecorder(3)
	for _, term := range []model.Term{"a", "b", "c", "d", "e"} {
		r.Failure(context.Background(), term, errors.New("x"))
	}

	entries := r.Entries()
	require.Len(t, entries, 3)
	assert.Equal(t, model.Term("c"), entries[0].Term)
	assert.Equal(t, model.Term("e"), entries[2].Term)

	r.Reset()
	assert.Equal(t, 0, r.Len())
}

func TestRecorder_Concurrent(t *testing.T) {
	r := NewRecorder(0)
	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			r.Response(context.Background(), "x", sampleResponse())
		}()
	}
	wg.Wait()
	assert.Equal(t, 50, r.Len())
}
