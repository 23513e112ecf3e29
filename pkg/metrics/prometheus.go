// Package metrics provides Prometheus metrics for a starsync run.
package metrics

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/push"
)

// Manager owns the run metrics and knows how to export them once the job ends.
// A batch job has no scrape endpoint, so exports go to a Pushgateway and/or a
// node_exporter textfile.
type Manager struct {
	namespace        string
	subsystem        string
	histogramBuckets []float64
	registry         prometheus.Registerer
	gatherer         prometheus.Gatherer

	pushURL  string
	pushJob  string
	grouping map[string]string
	textfile string

	// Source catalog traffic
	sourceRequests        *prometheus.CounterVec
	sourceRequestDuration *prometheus.HistogramVec
	portraitsMissing      prometheus.Counter

	// Destination RPC traffic
	destinationCalls        *prometheus.CounterVec
	destinationCallDuration *prometheus.HistogramVec

	// Sync results
	entities         *prometheus.CounterVec
	runDuration      prometheus.Gauge
	lastRunTimestamp prometheus.Gauge
	lastRunSuccess   prometheus.Gauge
}

// Global metrics manager instance.
var globalManager *Manager //nolint:gochecknoglobals // intentional global for singleton metrics manager

// Custom registry to avoid default Go metrics.
var customRegistry = prometheus.NewRegistry() //nolint:gochecknoglobals // intentional global for metrics registry

func init() { //nolint:gochecknoinits // intentional init for global metrics setup
	globalManager = NewManager(WithPrometheusRegistry(customRegistry))
}

// NewManager creates a new metrics manager with default configuration.
func NewManager(opts ...Option) *Manager {
	m := &Manager{
		namespace:        "starsync",
		subsystem:        "sync",
		histogramBuckets: []float64{5, 10, 25, 50, 100, 250, 500, 1000, 2500, 5000, 10000},
		registry:         prometheus.DefaultRegisterer,
		gatherer:         prometheus.DefaultGatherer,
		pushJob:          "starsync",
		grouping:         make(map[string]string),
	}

	for _, opt := range opts {
		opt(m)
	}

	m.initializeMetrics()

	return m
}

// Init replaces the global manager, e.g. to attach export targets from config.
// Metrics are registered on a fresh registry so Init can be called more than once.
func Init(opts ...Option) *Manager {
	customRegistry = prometheus.NewRegistry()
	opts = append([]Option{WithPrometheusRegistry(customRegistry)}, opts...)
	globalManager = NewManager(opts...)
	return globalManager
}

// Default returns the global manager.
func Default() *Manager { return globalManager }

func (m *Manager) initializeMetrics() {
	auto := promauto.With(m.registry)

	m.sourceRequests = auto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: m.namespace,
			Subsystem: m.subsystem,
			Name:      "source_requests_total",
			Help:      "Source catalog requests by endpoint and HTTP status (\"error\" for transport failures)",
		},
		[]string{"endpoint", "status"},
	)

	m.sourceRequestDuration = auto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: m.namespace,
			Subsystem: m.subsystem,
			Name:      "source_request_duration_milliseconds",
			Help:      "Source catalog request latency in milliseconds",
			Buckets:   m.histogramBuckets,
		},
		[]string{"endpoint"},
	)

	m.portraitsMissing = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "portraits_missing_total",
		Help:      "Characters created without a portrait",
	})

	m.destinationCalls = auto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: m.namespace,
			Subsystem: m.subsystem,
			Name:      "destination_calls_total",
			Help:      "Destination RPC calls by model, method and result",
		},
		[]string{"model", "method", "result"},
	)

	m.destinationCallDuration = auto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: m.namespace,
			Subsystem: m.subsystem,
			Name:      "destination_call_duration_milliseconds",
			Help:      "Destination RPC latency in milliseconds",
			Buckets:   m.histogramBuckets,
		},
		[]string{"method"},
	)

	m.entities = auto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: m.namespace,
			Subsystem: m.subsystem,
			Name:      "entities_total",
			Help:      "Upsert outcomes by entity and outcome kind",
		},
		[]string{"entity", "outcome"},
	)

	m.runDuration = auto.NewGauge(prometheus.GaugeOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "run_duration_seconds",
		Help:      "Wall time of the last run",
	})

	m.lastRunTimestamp = auto.NewGauge(prometheus.GaugeOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "last_run_timestamp_seconds",
		Help:      "Unix time the last run finished",
	})

	m.lastRunSuccess = auto.NewGauge(prometheus.GaugeOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "last_run_success",
		Help:      "1 if the last run completed without a fatal error",
	})
}

// ObserveSourceRequest records one source request. status <= 0 marks a transport failure.
func (m *Manager) ObserveSourceRequest(endpoint string, status int, latency time.Duration) {
	label := "error"
	if status > 0 {
		label = strconv.Itoa(status)
	}
	m.sourceRequests.WithLabelValues(endpoint, label).Inc()
	m.sourceRequestDuration.WithLabelValues(endpoint).Observe(float64(latency.Milliseconds()))
}

// ObserveDestinationCall records one destination RPC.
func (m *Manager) ObserveDestinationCall(model, method string, err error, latency time.Duration) {
	result := "ok"
	if err != nil {
		result = "error"
	}
	m.destinationCalls.WithLabelValues(model, method, result).Inc()
	m.destinationCallDuration.WithLabelValues(method).Observe(float64(latency.Milliseconds()))
}

// RecordEntity counts one upsert outcome.
func (m *Manager) RecordEntity(entity, outcome string) {
	m.entities.WithLabelValues(entity, outcome).Inc()
}

// RecordPortraitMissing counts a character created without a portrait.
func (m *Manager) RecordPortraitMissing() {
	m.portraitsMissing.Inc()
}

// RecordRun stores the run duration, finish time and success flag.
func (m *Manager) RecordRun(duration time.Duration, finished time.Time, success bool) {
	m.runDuration.Set(duration.Seconds())
	m.lastRunTimestamp.Set(float64(finished.Unix()))
	if success {
		m.lastRunSuccess.Set(1)
	} else {
		m.lastRunSuccess.Set(0)
	}
}

// Flush exports the metrics to every configured target. Targets that are not
// configured are skipped; a failing target does not stop the other one.
func (m *Manager) Flush(ctx context.Context) error {
	if m.pushURL == "" && m.textfile == "" {
		return nil
	}
	if m.gatherer == nil {
		return ErrNoGatherableReg
	}

	var pushErr, fileErr error
	if m.pushURL != "" {
		p := push.New(m.pushURL, m.pushJob).Gatherer(m.gatherer)
		for name, value := range m.grouping {
			p = p.Grouping(name, value)
		}
		if err := p.PushContext(ctx); err != nil {
			pushErr = fmt.Errorf("%w: %w", ErrPushFailed, err)
		}
	}
	if m.textfile != "" {
		if err := prometheus.WriteToTextfile(m.textfile, m.gatherer); err != nil {
			fileErr = fmt.Errorf("%w: %w", ErrTextfileFailed, err)
		}
	}

	if pushErr != nil {
		return pushErr
	}
	return fileErr
}

// ObserveSourceRequest records a source request on the global manager.
func ObserveSourceRequest(endpoint string, status int, latency time.Duration) {
	globalManager.ObserveSourceRequest(endpoint, status, latency)
}

// ObserveDestinationCall records a destination RPC on the global manager.
func ObserveDestinationCall(model, method string, err error, latency time.Duration) {
	globalManager.ObserveDestinationCall(model, method, err, latency)
}

// RecordEntity counts an upsert outcome on the global manager.
func RecordEntity(entity, outcome string) {
	globalManager.RecordEntity(entity, outcome)
}

// RecordPortraitMissing counts a missing portrait on the global manager.
func RecordPortraitMissing() {
	globalManager.RecordPortraitMissing()
}

// RecordRun stores run totals on the global manager.
func RecordRun(duration time.Duration, finished time.Time, success bool) {
	globalManager.RecordRun(duration, finished, success)
}

// Flush exports the global manager's metrics.
func Flush(ctx context.Context) error {
	return globalManager.Flush(ctx)
}

// GetRegistry returns the custom Prometheus registry used by our metrics.
func GetRegistry() *prometheus.Registry {
	return customRegistry
}
