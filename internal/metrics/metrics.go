// Package metrics records vault operation metrics. Registration is lazy
// and guarded so importing the package has no side effects until metrics
// are actually enabled.
package metrics

import (
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	operationsTotal   *prometheus.CounterVec
	operationDuration *prometheus.HistogramVec

	// Registration guard
	metricsOnce sync.Once
)

// Init initializes all Prometheus metrics. Called once by the facade;
// further calls are no-ops.
func Init() {
	metricsOnce.Do(func() {
		operationsTotal = promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "strongbox_operations_total",
				Help: "Total number of vault operations by outcome",
			},
			[]string{"operation", "outcome"},
		)

		operationDuration = promauto.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "strongbox_operation_duration_seconds",
				Help:    "Duration of vault operations in seconds",
				Buckets: []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 60, 300},
			},
			[]string{"operation"},
		)
	})
}

// Observe records one finished operation.
func Observe(operation string, start time.Time, err error) {
	if operationsTotal == nil {
		return
	}
	outcome := "success"
	if err != nil {
		outcome = "error"
	}
	operationsTotal.WithLabelValues(operation, outcome).Inc()
	operationDuration.WithLabelValues(operation).Observe(time.Since(start).Seconds())
}
