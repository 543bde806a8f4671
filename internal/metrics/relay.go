package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// PremoderationVerdicts counts chain results by verdict and deciding validator.
	PremoderationVerdicts = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "postrelay_premoderation_verdicts_total",
			Help: "Premoderation verdicts by status and validator",
		},
		[]string{"status", "validator"},
	)

	// FanoutDeliveries counts per-administrator copy deliveries.
	FanoutDeliveries = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "postrelay_fanout_deliveries_total",
			Help: "Review copies sent to administrators by result",
		},
		[]string{"result"},
	)

	FanoutLatency = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "postrelay_fanout_duration_seconds",
			Help:    "Time to fan one post out to every administrator",
			Buckets: prometheus.DefBuckets,
		},
	)

	// ReviewActions counts administrator actions by action and outcome.
	ReviewActions = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "postrelay_review_actions_total",
			Help: "Review actions by action and outcome",
		},
		[]string{"action", "outcome"},
	)

	Decisions = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "postrelay_decisions_total",
			Help: "Terminal decisions by disposition and reason",
		},
		[]string{"disposition", "reason"},
	)

	TransportRetries = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "postrelay_transport_retries_total",
			Help: "Retried Telegram API calls by operation",
		},
		[]string{"operation"},
	)
)
