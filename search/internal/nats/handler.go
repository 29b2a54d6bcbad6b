// Package nats serves music searches requested over the NATS bus.
package nats

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sync"

	"github.com/scaffold-labs/musicsearch/common/logging"
	"github.com/scaffold-labs/musicsearch/common/messaging"
	"github.com/scaffold-labs/musicsearch/common/middleware"
	"github.com/scaffold-labs/musicsearch/search/pkg/client"
	"github.com/scaffold-labs/musicsearch/search/pkg/model"
	"github.com/scaffold-labs/musicsearch/search/pkg/trigger"
)

// Bus is the part of the messaging client the handler needs.
type Bus interface {
	messaging.Publisher
	messaging.QueueSubscriber
}

// Firer runs one search. *trigger.Trigger implements it.
type Firer interface {
	Fire(ctx context.Context, term model.Term) trigger.Outcome
}

// Handler processes NATS messages for search operations.
type Handler struct {
	bus         Bus
	trigger     Firer
	defaultTerm model.Term
	logger      *logging.Logger

	mu   sync.Mutex
	subs []messaging.Subscription
}

// NewHandler creates a new NATS handler for search requests.
func NewHandler(bus Bus, t Firer, logger *logging.Logger) *Handler {
	if logger == nil {
		logger = logging.Default()
	}
	return &Handler{
		bus:         bus,
		trigger:     t,
		defaultTerm: model.DefaultTerm,
		logger:      logger.With(slog.String("component", "nats-handler")),
	}
}

// Start subscribes to the search request subject with a queue group, so each
// request is served by one instance.
func (h *Handler) Start(ctx context.Context) error {
	sub, err := h.bus.QueueSubscribe(messaging.SubjectSearchRequest, messaging.QueueSearchWorkers, h.handleSearch)
	if err != nil {
		return fmt.Errorf("failed to subscribe to search requests: %w", err)
	}

	h.mu.Lock()
	h.subs = append(h.subs, sub)
	h.mu.Unlock()

	h.logger.InfoContext(ctx, "NATS handler started",
		slog.String("subject", messaging.SubjectSearchRequest),
		slog.String("queue_group", messaging.QueueSearchWorkers))
	return nil
}

// Stop unsubscribes from all NATS subjects.
func (h *Handler) Stop() error {
	h.mu.Lock()
	defer h.mu.Unlock()

	for _, sub := range h.subs {
		if err := sub.Unsubscribe(); err != nil {
			h.logger.Warn("Failed to unsubscribe", logging.Error(err))
		}
	}
	h.subs = nil
	return nil
}

func (h *Handler) handleSearch(ctx context.Context, msg *messaging.Message) error {
	var req messaging.SearchRequest
	if err := json.Unmarshal(msg.Data, &req); err != nil {
		h.logger.WarnContext(ctx, "Failed to unmarshal search request", logging.Error(err))
		return h.reply(ctx, msg.Reply, messaging.SearchResponse{Error: fmt.Sprintf("invalid request: %v", err)})
	}

	requestID := req.RequestID
	if requestID == "" {
		requestID = msg.Metadata[middleware.RequestIDHeader]
	}
	if middleware.ValidRequestID(requestID) {
		ctx = middleware.WithRequestID(ctx, requestID)
	}

	term := h.defaultTerm
	if req.Term != nil {
		term = model.Term(*req.Term)
	}

	out := h.trigger.Fire(ctx, term)
	resp := toResponse(req.JobID, out)

	h.logger.DebugContext(ctx, "Search request served",
		logging.DispatchID(out.DispatchID),
		logging.Term(term.String()),
		slog.Bool("success", resp.Success))

	return h.reply(ctx, msg.Reply, resp)
}

func (h *Handler) reply(ctx context.Context, subject string, resp messaging.SearchResponse) error {
	if subject == "" {
		return nil
	}
	data, err := json.Marshal(resp)
	if err != nil {
		return fmt.Errorf("marshal search response: %w", err)
	}
	if err := h.bus.Publish(ctx, subject, data); err != nil {
		return fmt.Errorf("reply to search request: %w", err)
	}
	return nil
}

func toResponse(jobID string, out trigger.Outcome) messaging.SearchResponse {
	resp := messaging.SearchResponse{
		JobID:      jobID,
		DispatchID: out.DispatchID,
		Term:       out.Term.String(),
		Success:    out.OK(),
		Shared:     out.Shared,
		TookMs:     out.Elapsed.Milliseconds(),
	}
	if out.Err != nil {
		resp.Error = out.Err.Error()
		resp.ErrorKind = string(out.Kind())
		resp.Timeout = client.IsTimeout(out.Err)
		return resp
	}
	resp.URL = out.Response.URL
	resp.Status = out.Response.StatusCode
	resp.Body = out.Response.Body
	return resp
}
