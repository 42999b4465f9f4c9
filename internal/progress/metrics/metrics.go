package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics covers the dashboard stats cache.
type Metrics struct {
	// Cache lookups by result (hit, miss, error)
	CacheLookups *prometheus.CounterVec

	// Time to compute the counts from the store
	ComputeDuration prometheus.Histogram
}

func New() *Metrics {
	return &Metrics{
		CacheLookups: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "vetting_stats_cache_lookups_total",
			Help: "Dashboard stats cache lookups by result",
		}, []string{"result"}),

		ComputeDuration: promauto.NewHistogram(prometheus.HistogramOpts{
			Name:    "vetting_stats_compute_duration_seconds",
			Help:    "Duration of dashboard stats computation",
			Buckets: []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1},
		}),
	}
}

func (m *Metrics) IncrementCacheLookup(result string) {
	if m != nil {
		m.CacheLookups.WithLabelValues(result).Inc()
	}
}

func (m *Metrics) ObserveCompute(start time.Time) {
	if m != nil {
		m.ComputeDuration.Observe(time.Since(start).Seconds())
	}
}
