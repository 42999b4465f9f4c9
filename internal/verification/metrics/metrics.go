package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics provides observability for verification transitions.
type Metrics struct {
	// Transitions by action and outcome (success, failure)
	Transitions *prometheus.CounterVec

	// Items per bulk request
	BulkBatchSize prometheus.Histogram

	// Operation latency by operation name
	OperationLatency *prometheus.HistogramVec

	// Status events dropped or failed on the way to the broker
	EventPublishFailures prometheus.Counter
}

func New() *Metrics {
	return &Metrics{
		Transitions: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "vetting_verification_transitions_total",
			Help: "Verification status transitions by action and outcome",
		}, []string{"action", "outcome"}),

		BulkBatchSize: promauto.NewHistogram(prometheus.HistogramOpts{
			Name:    "vetting_verification_bulk_batch_size",
			Help:    "Number of verification ids per bulk action",
			Buckets: []float64{1, 2, 5, 10, 25, 50, 100, 250, 500},
		}),

		OperationLatency: promauto.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "vetting_verification_operation_duration_seconds",
			Help:    "Duration of verification operations",
			Buckets: []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5},
		}, []string{"operation"}),

		EventPublishFailures: promauto.NewCounter(prometheus.CounterOpts{
			Name: "vetting_verification_event_publish_failures_total",
			Help: "Status change events that could not be published",
		}),
	}
}

func (m *Metrics) IncrementTransition(action, outcome string) {
	if m != nil {
		m.Transitions.WithLabelValues(action, outcome).Inc()
	}
}

func (m *Metrics) ObserveBulkBatchSize(n int) {
	if m != nil {
		m.BulkBatchSize.Observe(float64(n))
	}
}

func (m *Metrics) ObserveOperation(operation string, start time.Time) {
	if m != nil {
		m.OperationLatency.WithLabelValues(operation).Observe(time.Since(start).Seconds())
	}
}

func (m *Metrics) IncrementPublishFailure() {
	if m != nil {
		m.EventPublishFailures.Inc()
	}
}
