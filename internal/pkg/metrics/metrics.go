package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// ProviderRequestsTotal counts payment-provider calls by operation and status.
	ProviderRequestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "checkout",
		Subsystem: "provider",
		Name:      "requests_total",
		Help:      "Payment provider requests by operation and HTTP status (or \"error\").",
	}, []string{"operation", "status"})

	// CheckoutsTotal counts provisioning outcomes by source.
	CheckoutsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "checkout",
		Name:      "provisioned_total",
		Help:      "Checkout provisioning results by link source and fallback flag.",
	}, []string{"source", "fallback"})

	// WebhookRequestsTotal counts webhook notifications by event and HTTP status.
	WebhookRequestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "checkout",
		Subsystem: "webhook",
		Name:      "requests_total",
		Help:      "Webhook notifications by event name and HTTP status.",
	}, []string{"event", "status"})

	// CorrelationsTotal counts correlation hits and misses.
	CorrelationsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "checkout",
		Subsystem: "webhook",
		Name:      "correlations_total",
		Help:      "Webhook correlation results (matched/missed).",
	}, []string{"result"})

	// ConversionDeliveriesTotal counts conversion delivery outcomes.
	ConversionDeliveriesTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "checkout",
		Subsystem: "conversion",
		Name:      "deliveries_total",
		Help:      "Conversion event delivery outcomes.",
	}, []string{"outcome"})

	// ConversionAttemptDuration tracks individual delivery attempt latency.
	ConversionAttemptDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Namespace: "checkout",
		Subsystem: "conversion",
		Name:      "attempt_duration_seconds",
		Help:      "Duration of a single conversion delivery attempt.",
		Buckets:   prometheus.DefBuckets,
	})
)
