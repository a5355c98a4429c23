package bridge

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics are package-level so multiple Bridge instances (tests spin up many)
// share one registration.
var (
	submittedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "cadbridge_calls_submitted_total",
		Help: "Calls accepted by the bridge queue.",
	})
	completedTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "cadbridge_calls_completed_total",
		Help: "Call results delivered to submitters, by outcome.",
	}, []string{"outcome"})
	callDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "cadbridge_call_duration_seconds",
		Help:    "Time from submit to result delivery.",
		Buckets: prometheus.DefBuckets,
	})
	queueDepth = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "cadbridge_queue_depth",
		Help: "Calls currently queued awaiting the pump.",
	})
)

func recordOutcome(outcome string, seconds float64) {
	completedTotal.WithLabelValues(outcome).Inc()
	callDuration.Observe(seconds)
}
