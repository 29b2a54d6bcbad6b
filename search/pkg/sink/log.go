package sink

import (
	"context"
	"log/slog"

	"github.com/scaffold-labs/musicsearch/common/logging"
	"github.com/scaffold-labs/musicsearch/search/pkg/client"
	"github.com/scaffold-labs/musicsearch/search/pkg/model"
)

// LogSink writes outcomes to a structured logger. Successful responses are
// logged at Info with the raw body; failures at Error with their kind.
type LogSink struct {
	logger *logging.Logger
	// IncludeBody controls whether the raw response body is attached.
	IncludeBody bool
}

// NewLogSink returns a LogSink that logs full bodies. A nil logger uses slog.Default.
func NewLogSink(logger *logging.Logger) *LogSink {
	if logger == nil {
		logger = logging.Default()
	}
	return &LogSink{logger: logger, IncludeBody: true}
}

func (s *LogSink) Response(ctx context.Context, term model.Term, resp *model.Response) {
	attrs := []any{
		logging.Term(term.String()),
		logging.URL(resp.URL),
		logging.Status(resp.StatusCode),
		logging.Bytes(resp.Size()),
		logging.Duration(resp.Duration),
		slog.Any("headers", resp.Header),
	}
	if s.IncludeBody {
		attrs = append(attrs, slog.String("body", string(resp.Body)))
	}
	s.logger.InfoContext(ctx, "music search response", attrs...)
}

func (s *LogSink) Failure(ctx context.Context, term model.Term, err error) {
	attrs := []any{
		logging.Term(term.String()),
		logging.ErrorKind(string(client.KindOf(err))),
		logging.Error(err),
	}
	if e, ok := asClientError(err); ok {
		if e.URL != "" {
			attrs = append(attrs, logging.URL(e.URL))
		}
		if e.StatusCode != 0 {
			attrs = append(attrs, logging.Status(e.StatusCode))
		}
		if e.Kind == client.KindTransport {
			attrs = append(attrs, slog.Bool("timeout", e.Timeout()))
		}
	}
	s.logger.ErrorContext(ctx, "music search failed", attrs...)
}
