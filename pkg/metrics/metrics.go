// Package metrics instruments graph builds and queries with Prometheus
// collectors. No HTTP exposition endpoint is exposed here -- that belongs
// to the excluded host-binding layer -- callers pass their own
// prometheus.Registerer, mirroring how the teacher's api.NewMetrics(reg)
// takes a registerer rather than owning one.
//
// Grounded on the teacher's api/middlewares.go (NewMetrics), generalized
// from HTTP request/response metrics to graph-build and query metrics.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Metrics holds every collector this engine registers.
type Metrics struct {
	BuildDuration   prometheus.Histogram
	BuildNodeCount  prometheus.Gauge
	BuildEdgeCount  prometheus.Gauge
	BuildWarnings   prometheus.Counter
	QueryDuration   *prometheus.HistogramVec
	QueryReachRatio prometheus.Histogram
	QueryCount      *prometheus.CounterVec
}

// New registers every collector against reg and returns the handle.
func New(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		BuildDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "transitgraph",
			Name:      "build_duration_seconds",
			Help:      "Duration of a create_graph call that builds the graph from source.",
			Buckets:   prometheus.ExponentialBuckets(0.1, 2, 12),
		}),
		BuildNodeCount: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "transitgraph",
			Name:      "build_node_count",
			Help:      "Node count of the most recently built graph.",
		}),
		BuildEdgeCount: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "transitgraph",
			Name:      "build_edge_count",
			Help:      "Edge count of the most recently built graph.",
		}),
		BuildWarnings: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "transitgraph",
			Name:      "build_warning_total",
			Help:      "Total warnings reported by loaders/assembler during builds.",
		}),
		QueryDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "transitgraph",
			Name:      "query_duration_seconds",
			Help:      "Duration of a query engine operation.",
			Buckets:   []float64{0.0005, 0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1},
		}, []string{"operation"}),
		QueryReachRatio: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "transitgraph",
			Name:      "query_reachability_ratio",
			Help:      "Fraction of graph nodes reached by an sssp_weights call.",
			Buckets:   prometheus.LinearBuckets(0, 0.1, 11),
		}),
		QueryCount: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "transitgraph",
			Name:      "query_total",
			Help:      "Total query engine calls by operation and outcome.",
		}, []string{"operation", "outcome"}),
	}
	reg.MustRegister(
		m.BuildDuration, m.BuildNodeCount, m.BuildEdgeCount, m.BuildWarnings,
		m.QueryDuration, m.QueryReachRatio, m.QueryCount,
	)
	return m
}

// ObserveBuild records one completed build.
func (m *Metrics) ObserveBuild(start time.Time, nodeCount, edgeCount int, warnings int) {
	m.BuildDuration.Observe(time.Since(start).Seconds())
	m.BuildNodeCount.Set(float64(nodeCount))
	m.BuildEdgeCount.Set(float64(edgeCount))
	m.BuildWarnings.Add(float64(warnings))
}

// ObserveQuery records one completed query engine call.
func (m *Metrics) ObserveQuery(operation string, start time.Time, outcome string) {
	m.QueryDuration.With(prometheus.Labels{"operation": operation}).Observe(time.Since(start).Seconds())
	m.QueryCount.With(prometheus.Labels{"operation": operation, "outcome": outcome}).Inc()
}

// ObserveReachability records the fraction of the graph's nodes reached by
// an sssp_weights call.
func (m *Metrics) ObserveReachability(reached, total int) {
	if total == 0 {
		return
	}
	m.QueryReachRatio.Observe(float64(reached) / float64(total))
}
