// Package trigger implements the user-invoked music search: one outbound
// request per fire, with the outcome handed to both the caller and the
// diagnostic sink.
package trigger

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/singleflight"

	"github.com/scaffold-labs/musicsearch/common/logging"
	"github.com/scaffold-labs/musicsearch/search/pkg/client"
	"github.com/scaffold-labs/musicsearch/search/pkg/model"
	"github.com/scaffold-labs/musicsearch/search/pkg/sink"
)

// Searcher performs the outbound request. *client.MusicClient implements it.
type Searcher interface {
	Search(ctx context.Context, term model.Term) (*model.Response, error)
}

// Outcome is the result of one fire. Exactly one of Response and Err is set.
type Outcome struct {
	DispatchID string
	Term       model.Term
	Response   *model.Response
	Err        error
	// Shared is set when the outbound request served more than one caller.
	Shared  bool
	Elapsed time.Duration
}

// OK reports whether the search succeeded.
func (o Outcome) OK() bool { return o.Err == nil }

// Kind returns the failure kind, or "" on success.
func (o Outcome) Kind() client.Kind { return client.KindOf(o.Err) }

// Trigger dispatches searches. It is safe for concurrent use.
type Trigger struct {
	searcher Searcher
	sink     sink.Sink
	policy   Policy
	observer Observer
	logger   *logging.Logger
	group    singleflight.Group
	newID    func() string
}

// Option configures a Trigger.
type Option func(*Trigger)

func WithPolicy(p Policy) Option {
	return func(t *Trigger) { t.policy = p }
}

func WithObserver(o Observer) Option {
	return func(t *Trigger) {
		if o != nil {
			t.observer = o
		}
	}
}

func WithLogger(l *logging.Logger) Option {
	return func(t *Trigger) {
		if l != nil {
			t.logger = l
		}
	}
}

// New returns a Trigger sending requests through searcher and outcomes to s.
// A nil sink logs through slog.Default.
func New(searcher Searcher, s sink.Sink, opts ...Option) *Trigger {
	t := &Trigger{
		searcher: searcher,
		sink:     s,
		policy:   PolicyConcurrent,
		observer: NopObserver{},
		logger:   logging.Default(),
		newID:    uuid.NewString,
	}
	for _, opt := range opts {
		opt(t)
	}
	if t.sink == nil {
		t.sink = sink.NewLogSink(t.logger)
	}
	return t
}

// Policy returns the overlap policy in effect.
func (t *Trigger) Policy() Policy { return t.policy }

// Fire searches for term and blocks until the outcome is known or ctx ends.
// The outcome has already been delivered to the sink when Fire returns.
func (t *Trigger) Fire(ctx context.Context, term model.Term) Outcome {
	if t.policy == PolicyCoalesce {
		return t.fireCoalesced(ctx, term)
	}
	return t.dispatch(ctx, term, t.newID())
}

// Dispatch starts a search and returns immediately. The outcome is sent on
// the returned channel exactly once, then the channel is closed.
func (t *Trigger) Dispatch(ctx context.Context, term model.Term) <-chan Outcome {
	ch := make(chan Outcome, 1)
	go func() {
		defer close(ch)
		ch <- t.Fire(ctx, term)
	}()
	return ch
}

// Reject records a search that local policy refused to send.
func (t *Trigger) Reject(ctx context.Context, term model.Term, reason error) Outcome {
	err := client.Reject(reason)
	out := Outcome{DispatchID: t.newID(), Term: term, Err: err}

	t.sink.Failure(ctx, term, err)
	t.observer.Observe(client.KindRejected, 0)
	return out
}

// fireCoalesced shares one in-flight request among callers with the same
// term. The shared request is detached from any single caller's
// cancellation; each caller still stops waiting when its own ctx ends.
func (t *Trigger) fireCoalesced(ctx context.Context, term model.Term) Outcome {
	id := t.newID()
	detached := context.WithoutCancel(ctx)

	ch := t.group.DoChan(string(term), func() (any, error) {
		return t.dispatch(detached, term, id), nil
	})

	select {
	case res := <-ch:
		out := res.Val.(Outcome)
		if res.Shared {
			out.Shared = true
			t.observer.Coalesced()
		}
		return out
	case <-ctx.Done():
		err := &client.Error{Kind: client.KindTransport, Err: fmt.Errorf("stopped waiting for shared request: %w", ctx.Err())}
		t.sink.Failure(ctx, term, err)
		t.observer.Observe(client.KindTransport, 0)
		return Outcome{DispatchID: id, Term: term, Err: err, Shared: true}
	}
}

func (t *Trigger) dispatch(ctx context.Context, term model.Term, id string) (out Outcome) {
	out = Outcome{DispatchID: id, Term: term}
	log := t.logger.With(logging.DispatchID(id))
	log.DebugContext(ctx, "dispatching music search", logging.Term(term.String()))

	t.observer.InFlight(1)
	start := time.Now()

	defer func() {
		t.observer.InFlight(-1)
		out.Elapsed = time.Since(start)

		if r := recover(); r != nil {
			out.Response = nil
			out.Err = fmt.Errorf("search panicked: %v", r)
			log.ErrorContext(ctx, "recovered from panic in search", slog.Any("panic", r))
		}

		if out.Err != nil {
			t.sink.Failure(ctx, term, out.Err)
		} else {
			t.sink.Response(ctx, term, out.Response)
		}
		t.observer.Observe(client.KindOf(out.Err), out.Elapsed)
	}()

	resp, err := t.searcher.Search(ctx, term)
	if err == nil && resp == nil {
		err = &client.Error{Kind: client.KindDecode, Err: fmt.Errorf("searcher returned no response")}
	}
	if err != nil {
		out.Err = err
		return out
	}
	out.Response = resp
	return out
}
