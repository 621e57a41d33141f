package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// lookupsTotal counts lookups by source (wikipedia, llm, cache) and status (found, missing, error).
	lookupsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "liveref",
		Subsystem: "lookup",
		Name:      "requests_total",
		Help:      "Total keyword lookups by source and status",
	}, []string{"source", "status"})

	// lookupLatencySeconds measures a single upstream lookup.
	lookupLatencySeconds = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "liveref",
		Subsystem: "lookup",
		Name:      "latency_seconds",
		Help:      "Upstream lookup latency by source",
		Buckets:   []float64{0.05, 0.1, 0.25, 0.5, 1, 2, 5, 10},
	}, []string{"source"})

	// fallbacksTotal counts substitutions of a Wikipedia lookup for the LLM.
	// Labels: reason (no_key, llm_error)
	fallbacksTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "liveref",
		Subsystem: "lookup",
		Name:      "fallbacks_total",
		Help:      "Wikipedia fallbacks by reason",
	}, []string{"reason"})

	extractionsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "liveref",
		Subsystem: "extract",
		Name:      "runs_total",
		Help:      "Total keyword extraction runs",
	})

	keywordsPerRun = promauto.NewHistogram(prometheus.HistogramOpts{
		Namespace: "liveref",
		Subsystem: "extract",
		Name:      "keywords",
		Help:      "Keywords selected per extraction run",
		Buckets:   []float64{0, 1, 2, 3, 4, 5},
	})
)

// RecordLookup records one lookup outcome.
func RecordLookup(source, status string, elapsed time.Duration) {
	lookupsTotal.WithLabelValues(source, status).Inc()
	if source != "cache" {
		lookupLatencySeconds.WithLabelValues(source).Observe(elapsed.Seconds())
	}
}

// RecordFallback records a Wikipedia substitution for the LLM.
func RecordFallback(reason string) {
	fallbacksTotal.WithLabelValues(reason).Inc()
}

// RecordExtraction records one extraction run and its keyword count.
func RecordExtraction(keywords int) {
	extractionsTotal.Inc()
	keywordsPerRun.Observe(float64(keywords))
}
