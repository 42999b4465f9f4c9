package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"vetting/internal/ratelimit/models"
)

type Metrics struct {
	// Requests denied by endpoint class
	Denied *prometheus.CounterVec

	// Checks that failed open because the bucket store errored
	StoreErrors prometheus.Counter
}

func New() *Metrics {
	return &Metrics{
		Denied: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "vetting_ratelimit_denied_total",
			Help: "Requests rejected by the rate limiter, by endpoint class",
		}, []string{"class"}),
		StoreErrors: promauto.NewCounter(prometheus.CounterOpts{
			Name: "vetting_ratelimit_store_errors_total",
			Help: "Rate limit checks that failed open on a store error",
		}),
	}
}

func (m *Metrics) IncrementDenied(class models.EndpointClass) {
	if m == nil {
		return
	}
	m.Denied.WithLabelValues(string(class)).Inc()
}

func (m *Metrics) IncrementStoreErrors() {
	if m == nil {
		return
	}
	m.StoreErrors.Inc()
}
