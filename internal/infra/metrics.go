package infra

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Prometheus collectors, registered on the default registry and served at /metrics.
var (
	SyncRunsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "postergram_sync_runs_total",
		Help: "Sync runs by kind and outcome.",
	}, []string{"kind", "outcome"})

	TransactionsIngestedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "postergram_transactions_ingested_total",
		Help: "POS transactions newly stored.",
	})

	ConsumptionRowsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "postergram_consumption_rows_total",
		Help: "Calculated consumption rows written.",
	})

	ReconciliationItemsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "postergram_reconciliation_items_total",
		Help: "Reconciliation items by variance status.",
	}, []string{"status"})

	POSRequestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "postergram_pos_request_duration_seconds",
		Help:    "Latency of POS API calls.",
		Buckets: prometheus.DefBuckets,
	}, []string{"method", "outcome"})

	NotificationJobsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "postergram_notification_jobs_total",
		Help: "Notification jobs processed by type and outcome.",
	}, []string{"type", "outcome"})

	HTTPRequestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "postergram_http_request_duration_seconds",
		Help:    "HTTP request latency by route and status.",
		Buckets: prometheus.DefBuckets,
	}, []string{"method", "route", "status"})

	BreakerState = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Name: "postergram_circuit_breaker_state",
		Help: "0 closed, 1 open, 2 half-open.",
	}, []string{"name"})
)

func recordBreakerState(name string, _, to CBState) {
	BreakerState.WithLabelValues(name).Set(float64(to))
}
