// Package metrics exposes Prometheus instrumentation for the import
// pipeline. A Metrics value implements core.ImportObserver.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/fradiag/fraingest/internal/core"
)

// Metrics holds the pipeline's Prometheus collectors.
type Metrics struct {
	registry *prometheus.Registry

	importsTotal   *prometheus.CounterVec
	importDuration prometheus.Histogram
	dataPoints     prometheus.Histogram
}

// New creates and registers the import collectors on a fresh registry.
func New() *Metrics {
	reg := prometheus.NewRegistry()

	m := &Metrics{
		registry: reg,
		importsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "fraingest",
			Name:      "imports_total",
			Help:      "Import attempts by terminal status.",
		}, []string{"status"}),
		importDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "fraingest",
			Name:      "import_duration_seconds",
			Help:      "End-to-end import pipeline duration.",
			Buckets:   prometheus.DefBuckets,
		}),
		dataPoints: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "fraingest",
			Name:      "import_data_points",
			Help:      "Data points per successfully imported measurement.",
			Buckets:   prometheus.ExponentialBuckets(10, 4, 8),
		}),
	}

	reg.MustRegister(m.importsTotal, m.importDuration, m.dataPoints)
	return m
}

// ObserveImport records the terminal outcome of one import attempt.
func (m *Metrics) ObserveImport(status core.ImportStatus, duration time.Duration, dataPoints int) {
	m.importsTotal.WithLabelValues(string(status)).Inc()
	m.importDuration.Observe(duration.Seconds())
	if status != core.StatusFailed {
		m.dataPoints.Observe(float64(dataPoints))
	}
}

// Handler returns the /metrics HTTP handler for this registry.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}
