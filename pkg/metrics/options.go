// Package metrics provides Prometheus metrics for a starsync run.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Option applies a configuration option to the Manager.
type Option func(*Manager)

// WithNamespace sets the namespace for all metrics.
func WithNamespace(namespace string) Option {
	return func(m *Manager) {
		if namespace != "" {
			m.namespace = namespace
		}
	}
}

// WithSubsystem sets the subsystem for all metrics.
func WithSubsystem(subsystem string) Option {
	return func(m *Manager) {
		if subsystem != "" {
			m.subsystem = subsystem
		}
	}
}

// WithHistogramBuckets sets custom histogram buckets for latency metrics.
func WithHistogramBuckets(buckets []float64) Option {
	return func(m *Manager) {
		if len(buckets) > 0 {
			m.histogramBuckets = buckets
		}
	}
}

// WithPrometheusRegistry sets a custom Prometheus registry. When the registry
// can also be gathered (e.g. *prometheus.Registry) Flush exports from it.
func WithPrometheusRegistry(registry prometheus.Registerer) Option {
	return func(m *Manager) {
		if registry == nil {
			return
		}
		m.registry = registry
		if g, ok := registry.(prometheus.Gatherer); ok {
			m.gatherer = g
		}
	}
}

// WithPushgateway pushes the run metrics to url under job on Flush.
func WithPushgateway(url, job string) Option {
	return func(m *Manager) {
		m.pushURL = url
		if job != "" {
			m.pushJob = job
		}
	}
}

// WithTextfile writes the run metrics to path on Flush (node_exporter textfile format).
func WithTextfile(path string) Option {
	return func(m *Manager) {
		m.textfile = path
	}
}

// WithGroupingLabel adds a Pushgateway grouping label.
func WithGroupingLabel(name, value string) Option {
	return func(m *Manager) {
		if name != "" && value != "" {
			m.grouping[name] = value
		}
	}
}
