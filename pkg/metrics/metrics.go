// Package metrics declares the Prometheus series the settlement worker
// exports, in the same promauto-constructor style as the teacher's metrics
// package, renamed from the bridge-fulfiller domain to the settlement
// domain and trimmed of per-chain/per-token series (this worker targets a
// single chain and has no token legs).
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	IntentsSettled = promauto.NewCounter(prometheus.CounterOpts{
		Name: "settlement_intents_settled_total",
		Help: "The total number of intents settled on-chain",
	})

	IntentsFailed = promauto.NewCounter(prometheus.CounterOpts{
		Name: "settlement_intents_failed_total",
		Help: "The total number of intents that reached the dead-letter queue",
	})

	ProcessingSeconds = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "settlement_processing_seconds",
		Help:    "Time taken by a single Processor.Process attempt",
		Buckets: prometheus.ExponentialBuckets(0.05, 2, 10),
	})

	RetryCount = promauto.NewCounter(prometheus.CounterOpts{
		Name: "settlement_retry_count_total",
		Help: "The total number of times an intent was returned to PENDING for retry",
	})

	DLQTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "settlement_dlq_total",
		Help: "The total number of dead-letter writes, by reason",
	}, []string{"reason"})

	ErrorsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "settlement_errors_total",
		Help: "Total number of classified settlement errors, by kind",
	}, []string{"kind"})

	QueueDepth = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "settlement_queue_depth",
		Help: "Current number of intents waiting in the work queue",
	})

	RegistrySize = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "settlement_registry_size",
		Help: "Current number of intents claimed in the in-flight registry",
	})

	NonceCurrent = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "settlement_nonce_current",
		Help: "The current value of the nonce coordinator",
	})

	BreakerOpen = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "settlement_breaker_open",
		Help: "Whether the broadcast circuit breaker is currently open (1) or closed (0)",
	})

	GasPriceGwei = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "settlement_gas_price_gwei",
		Help: "The most recently observed gas price, in gwei",
	})
)
