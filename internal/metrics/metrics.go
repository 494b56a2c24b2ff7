package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// SettlementOutcomes counts finished settlement attempts by outcome:
	// placed, insufficient_balance, refunded, rejected, error.
	SettlementOutcomes = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "settlement_outcomes_total",
			Help: "Total settlement attempts by outcome",
		},
		[]string{"outcome"},
	)

	// SettlementDuration tracks end-to-end settlement latency, provider
	// call included.
	SettlementDuration = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "settlement_duration_seconds",
			Help:    "Duration of settlement attempts in seconds",
			Buckets: prometheus.DefBuckets,
		},
	)

	// ProviderRequests counts upstream panel calls by provider, action and
	// outcome (ok, rejected, unavailable).
	ProviderRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "provider_requests_total",
			Help: "Total upstream provider API calls",
		},
		[]string{"provider", "action", "outcome"},
	)

	// ReconciledIntents counts orphaned debits refunded by the sweep.
	ReconciledIntents = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "reconciled_intents_total",
			Help: "Total orphaned debits refunded by the reconciliation sweep",
		},
	)
)

// Register registers all collectors with the default registry. Call once at
// startup.
func Register() {
	prometheus.MustRegister(
		SettlementOutcomes,
		SettlementDuration,
		ProviderRequests,
		ReconciledIntents,
	)
}

// Handler returns the /metrics HTTP handler.
func Handler() http.Handler {
	return promhttp.Handler()
}
