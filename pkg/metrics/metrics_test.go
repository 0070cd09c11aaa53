package metrics

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNilMetricsIsNoop(t *testing.T) {
	t.Parallel()

	var m *Metrics
	require.NotPanics(t, func() {
		m.IncAdd("normal", "ok")
		m.IncGet("hit")
		m.IncPromotion("normal", "promoted")
		m.IncWorkerError("store")
		m.AddActiveWorkers(1)
		m.SetQueueLength("normal", 3)
		m.ObserveHTTPRequest("GET", "/frontier", "200", time.Millisecond)
	})
}

func TestMetricsRecord(t *testing.T) {
	t.Parallel()

	m := New(prometheus.NewRegistry())
	m.IncAdd("normal", "ok")
	m.IncAdd("normal", "ok")
	m.IncGet("empty")
	m.AddActiveWorkers(3)
	m.AddActiveWorkers(-1)
	m.SetQueueLength("low", 7)
	m.ObserveHTTPRequest("GET", "/frontier", "200", time.Millisecond)

	assert.Equal(t, float64(2), testutil.ToFloat64(m.AddsTotal.WithLabelValues("normal", "ok")))
	assert.Equal(t, float64(1), testutil.ToFloat64(m.GetsTotal.WithLabelValues("empty")))
	assert.Equal(t, float64(2), testutil.ToFloat64(m.ActiveWorkers))
	assert.Equal(t, float64(7), testutil.ToFloat64(m.URLsInQueue.WithLabelValues("low")))
	assert.Equal(t, float64(1), testutil.ToFloat64(m.HTTPRequestsTotal.WithLabelValues("GET", "/frontier", "200")))
}
