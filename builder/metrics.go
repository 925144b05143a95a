package builder

import (
	"fmt"

	"github.com/prometheus/client_golang/prometheus"
)

// Metrics holds the build counters. Each Metrics owns its registry so
// several builders (and tests) never collide on the default one.
type Metrics struct {
	registry  *prometheus.Registry
	converted prometheus.Counter
	failed    *prometheus.CounterVec
	warnings  *prometheus.CounterVec
	problems  *prometheus.CounterVec
	duration  prometheus.Histogram
}

// NewMetrics creates and registers the build metrics.
func NewMetrics() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		converted: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "dmc",
			Name:      "documents_converted_total",
			Help:      "Documents converted and written.",
		}),
		failed: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "dmc",
			Name:      "documents_failed_total",
			Help:      "Documents that failed, by stage.",
		}, []string{"stage"}),
		warnings: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "dmc",
			Name:      "conversion_warnings_total",
			Help:      "Non-fatal conversion warnings, by type.",
		}, []string{"type"}),
		problems: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "dmc",
			Name:      "verification_problems_total",
			Help:      "Structural problems found by re-parsing written Markdown, by kind.",
		}, []string{"kind"}),
		duration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "dmc",
			Name:      "conversion_duration_seconds",
			Help:      "Time spent converting one document tree.",
			Buckets:   prometheus.ExponentialBuckets(0.0005, 2, 12),
		}),
	}

	m.registry.MustRegister(m.converted, m.failed, m.warnings, m.problems, m.duration)
	return m
}

// Registry exposes the registry, e.g. for an HTTP handler.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// WriteTextfile writes the metrics in the node-exporter textfile format.
func (m *Metrics) WriteTextfile(path string) error {
	if err := prometheus.WriteToTextfile(path, m.registry); err != nil {
		return fmt.Errorf("failed to write metrics: %w", err)
	}
	return nil
}
