package sink

import (
	"context"
	"sync"

	"github.com/scaffold-labs/musicsearch/common/middleware"
	"github.com/scaffold-labs/musicsearch/search/pkg/model"
)

// Entry is one recorded outcome. Exactly one of Response and Err is set.
type Entry struct {
	Term      model.Term
	RequestID string
	Response  *model.Response
	Err       error
}

// Recorder keeps outcomes in memory, newest last.
type Recorder struct {
	mu      sync.Mutex
	entries []Entry
	limit   int
}

// NewRecorder keeps at most limit entries; limit <= 0 keeps everything.
func NewRecorder(limit int) *Recorder {
	return &Recorder{limit: limit}
}

func (r *Recorder) Response(ctx context.Context, term model.Term, resp *model.Response) {
	r.add(Entry{Term: term, RequestID: middleware.GetRequestID(ctx), Response: resp})
}

func (r *Recorder) Failure(ctx context.Context, term model.Term, err error) {
	r.add(Entry{Term: term, RequestID: middleware.GetRequestID(ctx), Err: err})
}

func (r *Recorder) add(e Entry) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.entries = append(r.entries, e)
	if r.limit > 0 && len(r.entries) > r.limit {
		r.entries = append(r.entries[:0:0], r.entries[len(r.entries)-r.limit:]...)
	}
}

// Entries returns a copy of everything recorded.
func (r *Recorder) Entries() []Entry {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]Entry, len(r.entries))
	copy(out, r.entries)
	return out
}

// Len returns the number of recorded entries.
func (r *Recorder) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.entries)
}

// Responses returns the successful entries.
func (r *Recorder) Responses() []Entry {
	return r.filter(func(e Entry) bool { return e.Err == nil })
}

// Failures returns the failed entries.
func (r *Recorder) Failures() []Entry {
	return r.filter(func(e Entry) bool { return e.Err != nil })
}

func (r *Recorder) filter(keep func(Entry) bool) []Entry {
	var out []Entry
	for _, e := range r.Entries() {
		if keep(e) {
			out = append(out, e)
		}
	}
	return out
}

// Reset forgets every entry.
func (r *Recorder) Reset() {
	r.mu.Lock()
	r.entries = nil
	r.mu.Unlock()
}
