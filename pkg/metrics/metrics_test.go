package metrics_test

import (
	"testing"
	"time"

	"transitgraph/pkg/metrics"

	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestObserveBuildUpdatesGauges(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := metrics.New(reg)

	m.ObserveBuild(time.Now(), 100, 250, 3)

	assert.Equal(t, 100.0, readGauge(t, m.BuildNodeCount))
	assert.Equal(t, 250.0, readGauge(t, m.BuildEdgeCount))
	assert.Equal(t, 3.0, readCounter(t, m.BuildWarnings))
}

func TestObserveQueryIncrementsCountByOutcome(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := metrics.New(reg)

	m.ObserveQuery("sp_weight", time.Now(), "ok")
	m.ObserveQuery("sp_weight", time.Now(), "unreachable")

	assert.Equal(t, 1.0, readCounterVec(t, m.QueryCount, prometheus.Labels{"operation": "sp_weight", "outcome": "ok"}))
	assert.Equal(t, 1.0, readCounterVec(t, m.QueryCount, prometheus.Labels{"operation": "sp_weight", "outcome": "unreachable"}))
}

func TestObserveReachabilityIgnoresEmptyGraph(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := metrics.New(reg)
	m.ObserveReachability(5, 0)
}

func readGauge(t *testing.T, g prometheus.Gauge) float64 {
	t.Helper()
	var m dto.Metric
	require.NoError(t, g.Write(&m))
	return m.GetGauge().GetValue()
}

func readCounter(t *testing.T, c prometheus.Counter) float64 {
	t.Helper()
	var m dto.Metric
	require.NoError(t, c.Write(&m))
	return m.GetCounter().GetValue()
}

func readCounterVec(t *testing.T, cv *prometheus.CounterVec, labels prometheus.Labels) float64 {
	t.Helper()
	var m dto.Metric
	require.NoError(t, cv.With(labels).Write(&m))
	return m.GetCounter().GetValue()
}
