package trigger

import (
	"fmt"
	"strings"
	"time"

	"github.com/scaffold-labs/musicsearch/search/pkg/client"
)

// Policy decides what happens when fires overlap.
type Policy string

const (
	// PolicyConcurrent sends every fire as its own request.
	PolicyConcurrent Policy = "concurrent"
	// PolicyCoalesce keeps at most one request per term in flight and shares
	// its outcome with every caller that fired meanwhile.
	PolicyCoalesce Policy = "coalesce"
)

// ParsePolicy accepts "concurrent" or "coalesce". Empty means concurrent.
func ParsePolicy(s string) (Policy, error) {
	switch Policy(strings.ToLower(strings.TrimSpace(s))) {
	case "", PolicyConcurrent:
		return PolicyConcurrent, nil
	case PolicyCoalesce:
		return PolicyCoalesce, nil
	}
	return "", fmt.Errorf("unknown overlap policy %q: must be concurrent or coalesce", s)
}

// Observer is told about every dispatch. Used for metrics.
type Observer interface {
	// InFlight is called with +1 when a request starts and -1 when it ends.
	InFlight(delta int)
	// Observe records a finished outcome; kind is "" on success.
	Observe(kind client.Kind, elapsed time.Duration)
	// Coalesced records a caller served by a shared request.
	Coalesced()
}

// NopObserver ignores everything.
type NopObserver struct{}

func (NopObserver) InFlight(int)                        {}
func (NopObserver) Observe(client.Kind, time.Duration) {}
func (NopObserver) Coalesced()                          {}
