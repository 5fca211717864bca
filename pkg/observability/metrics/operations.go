// Package metrics provides Prometheus metrics for document operations.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// operationDuration tracks document operation duration in seconds.
	// Labels: operation, collection, status
	operationDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "document_operation_duration_seconds",
			Help:    "Document operation duration in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"operation", "collection", "status"},
	)

	// operationsTotal tracks total number of document operations.
	// Labels: operation, collection, status
	operationsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "document_operations_total",
			Help: "Total number of document operations",
		},
		[]string{"operation", "collection", "status"},
	)

	// operationsInFlight tracks the number of document operations currently
	// running.
	operationsInFlight = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "document_operations_in_flight",
			Help: "Current number of document operations being processed",
		},
	)
)

// RecordOperation records one completed document operation. It updates the
// duration histogram and operation counter with the provided labels.
func RecordOperation(operation, collection string, err error, duration time.Duration) {
	status := "success"
	if err != nil {
		status = "error"
	}
	operationDuration.WithLabelValues(operation, collection, status).Observe(duration.Seconds())
	operationsTotal.WithLabelValues(operation, collection, status).Inc()
}

// IncrementInFlight increments the in-flight operations gauge.
func IncrementInFlight() {
	operationsInFlight.Inc()
}

// DecrementInFlight decrements the in-flight operations gauge.
func DecrementInFlight() {
	operationsInFlight.Dec()
}
