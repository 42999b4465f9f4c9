package metrics

import (
	"testing"
	"time"

	dto "github.com/prometheus/client_model/go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNilMetricsAreNoOps(t *testing.T) {
	var m *Metrics
	assert.NotPanics(t, func() {
		m.IncrementCacheLookup("hit")
		m.ObserveCompute(time.Now())
	})
}

func TestCacheLookups(t *testing.T) {
	m := New()
	m.IncrementCacheLookup("miss")
	m.ObserveCompute(time.Now())

	var out dto.Metric
	require.NoError(t, m.CacheLookups.WithLabelValues("miss").Write(&out))
	assert.Equal(t, 1.0, out.GetCounter().GetValue())

	var hist dto.Metric
	require.NoError(t, m.ComputeDuration.Write(&hist))
	assert.Equal(t, uint64(1), hist.GetHistogram().GetSampleCount())
}
