package rangehnsw

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// PrometheusCollector implements MetricsCollector on top of
// prometheus/client_golang.
type PrometheusCollector struct {
	buildsTotal    *prometheus.CounterVec
	buildDuration  prometheus.Histogram
	nodeBuilds     prometheus.Counter
	indexedVectors prometheus.Gauge
	queriesTotal   *prometheus.CounterVec
	queryDuration  prometheus.Histogram
}

// NewPrometheusCollector registers the collector's metrics with reg and
// returns it. Pass prometheus.DefaultRegisterer for the default registry.
func NewPrometheusCollector(reg prometheus.Registerer) *PrometheusCollector {
	factory := promauto.With(reg)

	return &PrometheusCollector{
		buildsTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "rangehnsw_builds_total",
			Help: "Total number of index builds",
		}, []string{"status"}),
		buildDuration: factory.NewHistogram(prometheus.HistogramOpts{
			Name:    "rangehnsw_build_duration_seconds",
			Help:    "Duration of index builds in seconds",
			Buckets: []float64{0.1, 0.5, 1, 5, 10, 30, 60, 300, 600, 1800},
		}),
		nodeBuilds: factory.NewCounter(prometheus.CounterOpts{
			Name: "rangehnsw_node_builds_total",
			Help: "Total number of per-node graph builds",
		}),
		indexedVectors: factory.NewGauge(prometheus.GaugeOpts{
			Name: "rangehnsw_indexed_vectors",
			Help: "Number of base vectors in the most recent build",
		}),
		queriesTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "rangehnsw_queries_total",
			Help: "Total number of range-filtered queries",
		}, []string{"status"}),
		queryDuration: factory.NewHistogram(prometheus.HistogramOpts{
			Name:    "rangehnsw_query_duration_seconds",
			Help:    "Duration of range-filtered queries in seconds",
			Buckets: prometheus.ExponentialBuckets(0.00001, 4, 12),
		}),
	}
}

// RecordBuild implements MetricsCollector.
func (p *PrometheusCollector) RecordBuild(n int, duration time.Duration, err error) {
	p.buildsTotal.WithLabelValues(statusLabel(err)).Inc()
	if err == nil {
		p.buildDuration.Observe(duration.Seconds())
		p.indexedVectors.Set(float64(n))
	}
}

// RecordNodeBuild implements MetricsCollector.
func (p *PrometheusCollector) RecordNodeBuild(size int, duration time.Duration) {
	p.nodeBuilds.Inc()
}

// RecordQuery implements MetricsCollector.
func (p *PrometheusCollector) RecordQuery(k int, duration time.Duration, err error) {
	p.queriesTotal.WithLabelValues(statusLabel(err)).Inc()
	if err == nil {
		p.queryDuration.Observe(duration.Seconds())
	}
}

func statusLabel(err error) string {
	if err != nil {
		return "error"
	}
	return "ok"
}
