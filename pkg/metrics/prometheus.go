// Package metrics provides Prometheus metrics for the studentpay client and
// its web front.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Outcome labels for remote calls.
const (
	OutcomeSuccess   = "success"    // remote replied success=true
	OutcomeRejected  = "rejected"   // remote replied success=false
	OutcomeHTTPError = "http_error" // non-2xx status
	OutcomeTransport = "transport"  // connection/DNS/IO failure
	OutcomeInvalid   = "invalid"    // 2xx body that is not a JSON object
)

// latencyBuckets are tuned for a slow scripted endpoint (tens of ms to seconds).
var latencyBuckets = []float64{25, 50, 100, 250, 500, 1000, 2500, 5000, 10000} //nolint:gochecknoglobals // default buckets

// Manager manages all Prometheus metrics for the service.
type Manager struct {
	namespace        string
	subsystem        string
	histogramBuckets []float64
	constLabels      map[string]string
	registry         prometheus.Registerer

	// Remote endpoint
	remoteRequests        *prometheus.CounterVec
	remoteRequestDuration *prometheus.HistogramVec
	validationFailures    *prometheus.CounterVec

	// Web front
	httpRequests        *prometheus.CounterVec
	httpRequestDuration *prometheus.HistogramVec
	rateLimited         *prometheus.CounterVec

	// Spreadsheet import/export
	spreadsheetRows *prometheus.CounterVec

	// Process
	systemMemoryUsage    prometheus.Gauge
	systemGoroutineCount prometheus.Gauge
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
		namespace:        "studentpay",
		subsystem:        "client",
		histogramBuckets: latencyBuckets,
		constLabels:      map[string]string{},
		registry:         prometheus.DefaultRegisterer,
	}
	for _, opt := range opts {
		opt(m)
	}
	m.initializeMetrics()
	return m
}

func (m *Manager) initializeMetrics() {
	auto := promauto.With(m.registry)

	m.remoteRequests = auto.NewCounterVec(prometheus.CounterOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        "remote_requests_total",
		Help:        "Remote endpoint calls by action and outcome",
		ConstLabels: m.constLabels,
	}, []string{"action", "outcome"})

	m.remoteRequestDuration = auto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        "remote_request_duration_milliseconds",
		Help:        "Remote endpoint round trip in milliseconds",
		Buckets:     m.histogramBuckets,
		ConstLabels: m.constLabels,
	}, []string{"action"})

	m.validationFailures = auto.NewCounterVec(prometheus.CounterOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        "validation_failures_total",
		Help:        "Operations rejected locally before any network call",
		ConstLabels: m.constLabels,
	}, []string{"action"})

	m.httpRequests = auto.NewCounterVec(prometheus.CounterOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        "http_requests_total",
		Help:        "Total number of HTTP requests by endpoint and method",
		ConstLabels: m.constLabels,
	}, []string{"endpoint", "method", "status_code"})

	m.httpRequestDuration = auto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        "http_request_duration_milliseconds",
		Help:        "HTTP request duration in milliseconds",
		Buckets:     m.histogramBuckets,
		ConstLabels: m.constLabels,
	}, []string{"endpoint", "method", "status_code"})

	m.rateLimited = auto.NewCounterVec(prometheus.CounterOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        "rate_limited_total",
		Help:        "Requests refused by the rate limiter",
		ConstLabels: m.constLabels,
	}, []string{"endpoint"})

	m.spreadsheetRows = auto.NewCounterVec(prometheus.CounterOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        "spreadsheet_rows_total",
		Help:        "Spreadsheet rows processed by direction and result",
		ConstLabels: m.constLabels,
	}, []string{"direction", "result"})

	m.systemMemoryUsage = auto.NewGauge(prometheus.GaugeOpts{
		Namespace:   m.namespace,
		Subsystem:   "system",
		Name:        "memory_usage_bytes",
		Help:        "Heap bytes allocated",
		ConstLabels: m.constLabels,
	})

	m.systemGoroutineCount = auto.NewGauge(prometheus.GaugeOpts{
		Namespace:   m.namespace,
		Subsystem:   "system",
		Name:        "goroutines",
		Help:        "Number of goroutines",
		ConstLabels: m.constLabels,
	})
}

// RecordRemoteRequest records one remote call and its round-trip latency.
func (m *Manager) RecordRemoteRequest(action, outcome string, latencyMs float64) {
	m.remoteRequests.WithLabelValues(action, outcome).Inc()
	m.remoteRequestDuration.WithLabelValues(action).Observe(latencyMs)
}

// RecordValidationFailure counts an operation rejected before the network.
func (m *Manager) RecordValidationFailure(action string) {
	m.validationFailures.WithLabelValues(action).Inc()
}

// RecordRemoteRequest records a remote call on the global manager.
func RecordRemoteRequest(action, outcome string, latencyMs float64) {
	globalManager.RecordRemoteRequest(action, outcome, latencyMs)
}

// RecordValidationFailure counts a local validation failure on the global manager.
func RecordValidationFailure(action string) {
	globalManager.RecordValidationFailure(action)
}

// RecordHTTPRequest records an HTTP request.
func RecordHTTPRequest(endpoint, method, statusCode string) {
	globalManager.httpRequests.WithLabelValues(endpoint, method, statusCode).Inc()
}

// RecordHTTPRequestDuration records HTTP request duration.
func RecordHTTPRequestDuration(endpoint, method, statusCode string, duration float64) {
	globalManager.httpRequestDuration.WithLabelValues(endpoint, method, statusCode).Observe(duration)
}

// RecordRateLimited counts a request refused by a limiter.
func RecordRateLimited(endpoint string) {
	globalManager.rateLimited.WithLabelValues(endpoint).Inc()
}

// RecordSpreadsheetRow counts a row read or written; direction is "import"
// or "export", result is e.g. "ok" or "skipped".
func RecordSpreadsheetRow(direction, result string) {
	globalManager.spreadsheetRows.WithLabelValues(direction, result).Inc()
}

// UpdateSystemMemoryUsage sets the heap allocation gauge.
func UpdateSystemMemoryUsage(bytes uint64) {
	globalManager.systemMemoryUsage.Set(float64(bytes))
}

// UpdateSystemGoroutineCount sets the goroutine gauge.
func UpdateSystemGoroutineCount(count int) {
	globalManager.systemGoroutineCount.Set(float64(count))
}

// GetRegistry returns the custom registry backing the global manager.
func GetRegistry() *prometheus.Registry {
	return customRegistry
}
