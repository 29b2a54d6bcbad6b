package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/scaffold-labs/musicsearch/search/pkg/client"
)

const outcomeSuccess = "success"

var (
	// Search outcomes, labelled "success" or the failure kind
	RequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "musicsearch_requests_total",
			Help: "Total number of music searches by outcome",
		},
		[]string{"outcome"},
	)

	UpstreamDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "musicsearch_upstream_duration_seconds",
			Help:    "Duration of outbound music search requests in seconds",
			Buckets: prometheus.DefBuckets,
		},
	)

	InFlightRequests = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "musicsearch_inflight_requests",
			Help: "Number of outbound music search requests in flight",
		},
	)

	RateLimitHits = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "musicsearch_rate_limit_hits_total",
			Help: "Total number of searches refused by the rate limiter",
		},
	)

	CoalescedTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "musicsearch_coalesced_total",
			Help: "Total number of callers served by a shared in-flight request",
		},
	)
)

// Observer feeds trigger events into the package collectors.
type Observer struct{}

func (Observer) InFlight(delta int) {
	InFlightRequests.Add(float64(delta))
}

func (Observer) Observe(kind client.Kind, elapsed time.Duration) {
	RequestsTotal.WithLabelValues(OutcomeLabel(kind)).Inc()
	switch kind {
	case client.KindRejected:
		RateLimitHits.Inc()
	default:
		// abandoned waits on a shared request report zero elapsed
		if elapsed > 0 {
			UpstreamDuration.Observe(elapsed.Seconds())
		}
	}
}

func (Observer) Coalesced() {
	CoalescedTotal.Inc()
}

// OutcomeLabel maps a failure kind to the requests_total label.
func OutcomeLabel(kind client.Kind) string {
	if kind == "" {
		return outcomeSuccess
	}
	return string(kind)
}
