// Package sink delivers search outcomes to diagnostic channels.
//
// A Sink is injected into the trigger at construction and lives as long as
// the process. Every implementation is safe for concurrent use and never
// returns errors to the trigger: a diagnostic channel failing must not turn
// a successful search into a failed one.
package sink

import (
	"context"

	"github.com/scaffold-labs/musicsearch/search/pkg/model"
)

// Sink receives exactly one call per finished dispatch.
type Sink interface {
	Response(ctx context.Context, term model.Term, resp *model.Response)
	Failure(ctx context.Context, term model.Term, err error)
}

// Multi fans out to every sink in order.
type Multi []Sink

func (m Multi) Response(ctx context.Context, term model.Term, resp *model.Response) {
	for _, s := range m {
		s.Response(ctx, term, resp)
	}
}

func (m Multi) Failure(ctx context.Context, term model.Term, err error) {
	for _, s := range m {
		s.Failure(ctx, term, err)
	}
}

// Discard drops everything.
type Discard struct{}

func (Discard) Response(context.Context, model.Term, *model.Response) {}
func (Discard) Failure(context.Context, model.Term, error)            {}
