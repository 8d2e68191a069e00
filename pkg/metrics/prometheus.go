// Package metrics provides Prometheus metrics for the minisched service.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Manager owns every Prometheus collector exported by the service.
type Manager struct {
	namespace        string
	subsystem        string
	histogramBuckets []float64
	constLabels      prometheus.Labels
	registry         prometheus.Registerer

	// Event lifecycle
	eventsCreated    prometheus.Counter
	eventsArchived   prometheus.Counter
	eventsDeleted    prometheus.Counter
	eventsRejected   prometheus.Counter
	eventsByCategory *prometheus.CounterVec
	eventsStored     prometheus.Gauge
	eventsArchivedN  prometheus.Gauge

	// HTTP
	httpRequests        *prometheus.CounterVec
	httpRequestDuration *prometheus.HistogramVec

	// Errors
	errorRateByComponent *prometheus.CounterVec
	errorRateByEndpoint  *prometheus.CounterVec

	// Change notifications
	queueSize         prometheus.Gauge
	queueCapacity     prometheus.Gauge
	queueEnqueued     prometheus.Counter
	queueDropped      prometheus.Counter
	changesPublished  *prometheus.CounterVec
	publishFailures   prometheus.Counter
	publishLatency    prometheus.Histogram
	workerActiveCount prometheus.Gauge

	// System
	systemMemoryUsage    prometheus.Gauge
	systemGoroutineCount prometheus.Gauge
	systemGCPauseTime    prometheus.Histogram
}

var customRegistry = prometheus.NewRegistry() //nolint:gochecknoglobals // metrics registry served by /healthz

var globalManager = NewManager(WithPrometheusRegistry(customRegistry)) //nolint:gochecknoglobals // singleton used by Record* helpers

// NewManager creates a metrics manager and registers its collectors.
func NewManager(opts ...Option) *Manager {
	m := &Manager{
		namespace:        "minisched",
		subsystem:        "events",
		histogramBuckets: prometheus.DefBuckets,
		constLabels:      prometheus.Labels{},
		registry:         prometheus.DefaultRegisterer,
	}
	for _, opt := range opts {
		opt(m)
	}
	m.initializeMetrics()
	return m
}

func (m *Manager) counter(name, help string) prometheus.Counter {
	return promauto.With(m.registry).NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace, Subsystem: m.subsystem, Name: name, Help: help, ConstLabels: m.constLabels,
	})
}

func (m *Manager) gauge(name, help string) prometheus.Gauge {
	return promauto.With(m.registry).NewGauge(prometheus.GaugeOpts{
		Namespace: m.namespace, Subsystem: m.subsystem, Name: name, Help: help, ConstLabels: m.constLabels,
	})
}

func (m *Manager) initializeMetrics() { //nolint:funlen // one place for every collector
	auto := promauto.With(m.registry)

	m.eventsCreated = m.counter("created_total", "Total number of events created")
	m.eventsArchived = m.counter("archived_total", "Total number of archive operations that succeeded")
	m.eventsDeleted = m.counter("deleted_total", "Total number of events deleted")
	m.eventsRejected = m.counter("rejected_total", "Total number of create requests rejected by validation")
	m.eventsByCategory = auto.NewCounterVec(prometheus.CounterOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        "categorized_total",
		Help:        "Events created, by assigned category",
		ConstLabels: m.constLabels,
	}, []string{"category"})
	m.eventsStored = m.gauge("stored", "Number of events currently held in memory")
	m.eventsArchivedN = m.gauge("stored_archived", "Number of stored events flagged as archived")

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

	m.errorRateByComponent = auto.NewCounterVec(prometheus.CounterOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        "errors_by_component_total",
		Help:        "Errors by component and type",
		ConstLabels: m.constLabels,
	}, []string{"component", "error_type"})
	m.errorRateByEndpoint = auto.NewCounterVec(prometheus.CounterOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        "errors_by_endpoint_total",
		Help:        "Errors by endpoint, method and type",
		ConstLabels: m.constLabels,
	}, []string{"endpoint", "method", "error_type"})

	m.queueSize = m.gauge("change_queue_size", "Current number of pending change notifications")
	m.queueCapacity = m.gauge("change_queue_capacity", "Capacity of the change notification queue")
	m.queueEnqueued = m.counter("change_queue_enqueued_total", "Change notifications accepted by the queue")
	m.queueDropped = m.counter("change_queue_dropped_total", "Change notifications dropped because the queue was full or closed")
	m.changesPublished = auto.NewCounterVec(prometheus.CounterOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        "changes_published_total",
		Help:        "Change notifications delivered to the publisher, by kind",
		ConstLabels: m.constLabels,
	}, []string{"kind"})
	m.publishFailures = m.counter("change_publish_failures_total", "Change notifications the publisher failed to deliver")
	m.publishLatency = auto.NewHistogram(prometheus.HistogramOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        "change_publish_latency_milliseconds",
		Help:        "Time spent handing a change to the publisher",
		Buckets:     m.histogramBuckets,
		ConstLabels: m.constLabels,
	})
	m.workerActiveCount = m.gauge("worker_active_count", "Number of running change workers")

	m.systemMemoryUsage = m.gauge("system_memory_usage_bytes", "Heap bytes allocated")
	m.systemGoroutineCount = m.gauge("system_goroutine_count", "Number of goroutines")
	m.systemGCPauseTime = auto.NewHistogram(prometheus.HistogramOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        "system_gc_pause_time_milliseconds",
		Help:        "Average GC pause time in milliseconds",
		Buckets:     []float64{0.1, 0.5, 1, 2, 5, 10, 25, 50, 100, 250, 500, 1000},
		ConstLabels: m.constLabels,
	})
}

// RecordEventCreated counts a created event under its category.
func RecordEventCreated(category string) {
	globalManager.eventsCreated.Inc()
	globalManager.eventsByCategory.WithLabelValues(category).Inc()
}

// RecordEventArchived counts a successful archive.
func RecordEventArchived() { globalManager.eventsArchived.Inc() }

// RecordEventDeleted counts a successful delete.
func RecordEventDeleted() { globalManager.eventsDeleted.Inc() }

// RecordEventRejected counts a create request that failed validation.
func RecordEventRejected() { globalManager.eventsRejected.Inc() }

// UpdateStoredEvents sets the stored and archived gauges.
func UpdateStoredEvents(total, archived int) {
	globalManager.eventsStored.Set(float64(total))
	globalManager.eventsArchivedN.Set(float64(archived))
}

// RecordHTTPRequest records an HTTP request.
func RecordHTTPRequest(endpoint, method, statusCode string) {
	globalManager.httpRequests.WithLabelValues(endpoint, method, statusCode).Inc()
}

// RecordHTTPRequestDuration records HTTP request duration.
func RecordHTTPRequestDuration(endpoint, method, statusCode string, durationMs float64) {
	globalManager.httpRequestDuration.WithLabelValues(endpoint, method, statusCode).Observe(durationMs)
}

// RecordErrorByComponent records an error with component and type labels.
func RecordErrorByComponent(component, errorType string) {
	globalManager.errorRateByComponent.WithLabelValues(component, errorType).Inc()
}

// RecordErrorByEndpoint records an error with endpoint, method, and error type labels.
func RecordErrorByEndpoint(endpoint, method, errorType string) {
	globalManager.errorRateByEndpoint.WithLabelValues(endpoint, method, errorType).Inc()
}

// UpdateQueueSize sets the pending change count.
func UpdateQueueSize(size int) { globalManager.queueSize.Set(float64(size)) }

// UpdateQueueCapacity sets the change queue capacity.
func UpdateQueueCapacity(capacity int) { globalManager.queueCapacity.Set(float64(capacity)) }

// RecordQueueEnqueue counts an accepted change.
func RecordQueueEnqueue() { globalManager.queueEnqueued.Inc() }

// RecordQueueDrop counts a dropped change.
func RecordQueueDrop() { globalManager.queueDropped.Inc() }

// RecordChangePublished counts a delivered change and its publish latency.
func RecordChangePublished(kind string, latencyMs float64) {
	globalManager.changesPublished.WithLabelValues(kind).Inc()
	globalManager.publishLatency.Observe(latencyMs)
}

// RecordPublishFailure counts a failed delivery.
func RecordPublishFailure() { globalManager.publishFailures.Inc() }

// UpdateWorkerActiveCount sets the number of running workers.
func UpdateWorkerActiveCount(count int) { globalManager.workerActiveCount.Set(float64(count)) }

// UpdateSystemMemoryUsage sets heap usage in bytes.
func UpdateSystemMemoryUsage(bytes uint64) { globalManager.systemMemoryUsage.Set(float64(bytes)) }

// UpdateSystemGoroutineCount sets the number of goroutines.
func UpdateSystemGoroutineCount(count int) { globalManager.systemGoroutineCount.Set(float64(count)) }

// RecordSystemGCPauseTime records GC pause time in milliseconds.
func RecordSystemGCPauseTime(pauseMs float64) { globalManager.systemGCPauseTime.Observe(pauseMs) }

// GetRegistry returns the registry all package-level metrics are registered on.
func GetRegistry() *prometheus.Registry {
	return customRegistry
}
