// Package metrics exposes Prometheus instrumentation for the referral engine.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	registry = prometheus.NewRegistry()

	dispatchesTotal = promauto.With(registry).NewCounterVec(prometheus.CounterOpts{
		Namespace: "hiringhall",
		Name:      "dispatches_total",
		Help:      "Dispatches created, by method.",
	}, []string{"method"})

	terminationsTotal = promauto.With(registry).NewCounterVec(prometheus.CounterOpts{
		Namespace: "hiringhall",
		Name:      "terminations_total",
		Help:      "Dispatch terminations, by reason.",
	}, []string{"reason"})

	claimRetriesTotal = promauto.With(registry).NewCounter(prometheus.CounterOpts{
		Namespace: "hiringhall",
		Name:      "claim_retries_total",
		Help:      "Claim transactions retried after serialization or deadlock errors.",
	})

	bidsTotal = promauto.With(registry).NewCounterVec(prometheus.CounterOpts{
		Namespace: "hiringhall",
		Name:      "bids_total",
		Help:      "Online bids by final status.",
	}, []string{"status"})

	enforcementActionsTotal = promauto.With(registry).NewCounterVec(prometheus.CounterOpts{
		Namespace: "hiringhall",
		Name:      "enforcement_actions_total",
		Help:      "Rows acted on by the daily enforcement rules, by rule.",
	}, []string{"rule"})

	queueDepth = promauto.With(registry).NewGaugeVec(prometheus.GaugeOpts{
		Namespace: "hiringhall",
		Name:      "queue_depth",
		Help:      "Dispatchable registrations per book.",
	}, []string{"book"})
)

func DispatchCreated(method string) {
	dispatchesTotal.WithLabelValues(method).Inc()
}

func TerminationRecorded(reason string) {
	terminationsTotal.WithLabelValues(reason).Inc()
}

func ClaimRetried() {
	claimRetriesTotal.Inc()
}

func BidResolved(status string) {
	bidsTotal.WithLabelValues(status).Inc()
}

func EnforcementActions(rule string, n int) {
	enforcementActionsTotal.WithLabelValues(rule).Add(float64(n))
}

func SetQueueDepth(book string, depth int32) {
	queueDepth.WithLabelValues(book).Set(float64(depth))
}

// Handler serves the registry for the /metrics endpoint.
func Handler() http.Handler {
	return promhttp.HandlerFor(registry, promhttp.HandlerOpts{})
}
