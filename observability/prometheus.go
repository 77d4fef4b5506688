package observability

import (
	"strings"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// PrometheusFactory implements MetricFactory on a Prometheus registerer.
type PrometheusFactory struct {
	reg prometheus.Registerer
}

// NewPrometheusFactory creates a factory registering on the given registerer.
// Pass prometheus.DefaultRegisterer for the process-wide registry.
func NewPrometheusFactory(reg prometheus.Registerer) *PrometheusFactory {
	return &PrometheusFactory{reg: reg}
}

// Counter implements MetricFactory.
func (f *PrometheusFactory) Counter(name string) Counter {
	return f.counter(name)
}

// Histogram implements MetricFactory.
func (f *PrometheusFactory) Histogram(name string) Histogram {
	return promauto.With(f.reg).NewHistogram(prometheus.HistogramOpts{
		Name:    sanitize(name),
		Help:    name,
		Buckets: prometheus.DefBuckets,
	})
}

func (f *PrometheusFactory) counter(name string) prometheus.Counter {
	return promauto.With(f.reg).NewCounter(prometheus.CounterOpts{
		Name: sanitize(name) + "_total",
		Help: name,
	})
}

// sanitize converts dotted metric names to the Prometheus naming convention.
func sanitize(name string) string {
	return strings.ReplaceAll(name, ".", "_")
}
