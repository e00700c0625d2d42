// Package metrics provides Prometheus metrics for the pulse match service.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Manager owns every collector of the service.
type Manager struct {
	namespace        string
	subsystem        string
	histogramBuckets []float64
	registry         prometheus.Registerer

	// Feed pipeline
	feedReceived  prometheus.Counter
	feedApplied   prometheus.Counter
	feedDuplicate prometheus.Counter
	feedRejected  *prometheus.CounterVec
	feedApplyLag  prometheus.Histogram

	// Matches
	matchesCreated  prometheus.Counter
	matchesByStatus *prometheus.GaugeVec
	matchCommands   *prometheus.CounterVec

	// Queue
	queueSize          prometheus.Gauge
	queueCapacity      prometheus.Gauge
	queueUtilization   prometheus.Gauge
	queueEnqueued      prometheus.Counter
	queueDequeued      prometheus.Counter
	queueEnqueueErrors *prometheus.CounterVec

	// Workers
	workerCount             prometheus.Gauge
	workerProcessingLatency prometheus.Histogram
	workerErrors            *prometheus.CounterVec
	workerUpdatesPerSecond  prometheus.Gauge

	// Store
	storeShardCount    prometheus.Gauge
	storeRecords       prometheus.Gauge
	storeUpdateLatency prometheus.Histogram
	storeQueryLatency  prometheus.Histogram

	// Broadcast
	broadcastPublished prometheus.Counter
	broadcastErrors    prometheus.Counter

	// HTTP
	httpRequests        *prometheus.CounterVec
	httpRequestDuration *prometheus.HistogramVec
	httpErrors          *prometheus.CounterVec

	// System
	systemMemoryUsage    prometheus.Gauge
	systemGoroutineCount prometheus.Gauge
	systemGCPauseTime    prometheus.Histogram
}

var globalManager *Manager //nolint:gochecknoglobals // process-wide metrics singleton

var customRegistry = prometheus.NewRegistry() //nolint:gochecknoglobals // private registry without default Go collectors

func init() { //nolint:gochecknoinits // global metrics setup
	globalManager = NewManager(WithPrometheusRegistry(customRegistry))
}

// NewManager creates a Manager and registers its collectors.
func NewManager(opts ...Option) *Manager {
	m := &Manager{
		namespace:        "pulse",
		subsystem:        "matches",
		histogramBuckets: prometheus.DefBuckets,
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
		Namespace: m.namespace, Subsystem: m.subsystem, Name: name, Help: help,
	})
}

func (m *Manager) counterVec(name, help string, labels ...string) *prometheus.CounterVec {
	return promauto.With(m.registry).NewCounterVec(prometheus.CounterOpts{
		Namespace: m.namespace, Subsystem: m.subsystem, Name: name, Help: help,
	}, labels)
}

func (m *Manager) gauge(name, help string) prometheus.Gauge {
	return promauto.With(m.registry).NewGauge(prometheus.GaugeOpts{
		Namespace: m.namespace, Subsystem: m.subsystem, Name: name, Help: help,
	})
}

func (m *Manager) histogram(name, help string, buckets []float64) prometheus.Histogram {
	return promauto.With(m.registry).NewHistogram(prometheus.HistogramOpts{
		Namespace: m.namespace, Subsystem: m.subsystem, Name: name, Help: help, Buckets: buckets,
	})
}

func (m *Manager) initializeMetrics() { //nolint:funlen // one place for every collector
	m.feedReceived = m.counter("feed_updates_received_total", "Feed updates accepted into the queue")
	m.feedApplied = m.counter("feed_updates_applied_total", "Feed updates applied to a match")
	m.feedDuplicate = m.counter("feed_updates_duplicate_total", "Feed updates dropped as duplicates")
	m.feedRejected = m.counterVec("feed_updates_rejected_total", "Feed updates rejected by the aggregate", "reason")
	m.feedApplyLag = m.histogram("feed_apply_lag_milliseconds", "Time between accepting and applying a feed update", m.histogramBuckets)

	m.matchesCreated = m.counter("created_total", "Matches created")
	m.matchesByStatus = promauto.With(m.registry).NewGaugeVec(prometheus.GaugeOpts{
		Namespace: m.namespace, Subsystem: m.subsystem,
		Name: "by_status", Help: "Tracked matches by status",
	}, []string{"status"})
	m.matchCommands = m.counterVec("commands_total", "Synchronous match commands by outcome", "command", "outcome")

	m.queueSize = m.gauge("queue_size", "Current number of queued feed updates")
	m.queueCapacity = m.gauge("queue_capacity", "Total queue capacity across partitions")
	m.queueUtilization = m.gauge("queue_utilization_ratio", "Queue size divided by capacity")
	m.queueEnqueued = m.counter("queue_enqueue_total", "Feed updates enqueued")
	m.queueDequeued = m.counter("queue_dequeue_total", "Feed updates dequeued")
	m.queueEnqueueErrors = m.counterVec("queue_enqueue_errors_total", "Failed enqueues by reason", "reason")

	m.workerCount = m.gauge("worker_count", "Running feed workers")
	m.workerProcessingLatency = m.histogram("worker_processing_latency_milliseconds", "Per-update worker processing latency", m.histogramBuckets)
	m.workerErrors = m.counterVec("worker_errors_total", "Worker failures by reason", "reason")
	m.workerUpdatesPerSecond = m.gauge("worker_updates_per_second", "Feed updates processed per second")

	m.storeShardCount = m.gauge("store_shard_count", "Match store shards")
	m.storeRecords = m.gauge("store_records_total", "Matches held by the store")
	m.storeUpdateLatency = m.histogram("store_update_latency_milliseconds", "Store update latency", m.histogramBuckets)
	m.storeQueryLatency = m.histogram("store_query_latency_milliseconds", "Store read latency", m.histogramBuckets)

	m.broadcastPublished = m.counter("broadcast_published_total", "Match views published")
	m.broadcastErrors = m.counter("broadcast_errors_total", "Match view publish failures")

	m.httpRequests = m.counterVec("http_requests_total", "HTTP requests by endpoint", "endpoint", "method", "status_code")
	m.httpRequestDuration = promauto.With(m.registry).NewHistogramVec(prometheus.HistogramOpts{
		Namespace: m.namespace, Subsystem: m.subsystem,
		Name: "http_request_duration_milliseconds", Help: "HTTP request duration",
		Buckets: m.histogramBuckets,
	}, []string{"endpoint", "method", "status_code"})
	m.httpErrors = m.counterVec("http_errors_total", "HTTP error responses", "endpoint", "method", "error_type")

	m.systemMemoryUsage = m.gauge("system_memory_usage_bytes", "Heap bytes allocated")
	m.systemGoroutineCount = m.gauge("system_goroutine_count", "Number of goroutines")
	m.systemGCPauseTime = m.histogram("system_gc_pause_time_milliseconds", "Average GC pause",
		[]float64{0.1, 0.5, 1, 2, 5, 10, 25, 50, 100, 250, 500, 1000})
}

// RecordFeedReceived counts an update accepted into the queue.
func RecordFeedReceived() {
	globalManager.feedReceived.Inc()
}

// RecordFeedApplied counts an update fully applied to its match.
func RecordFeedApplied() {
	globalManager.feedApplied.Inc()
}

// RecordFeedDuplicate counts an update dropped by the deduper.
func RecordFeedDuplicate() {
	globalManager.feedDuplicate.Inc()
}

// RecordFeedRejected counts an update the aggregate refused.
func RecordFeedRejected(reason string) {
	globalManager.feedRejected.WithLabelValues(reason).Inc()
}

// RecordFeedApplyLag records the time an update spent queued.
func RecordFeedApplyLag(latencyMs float64) {
	globalManager.feedApplyLag.Observe(latencyMs)
}

// RecordMatchCreated counts a newly created match.
func RecordMatchCreated() {
	globalManager.matchesCreated.Inc()
}

// UpdateMatchesByStatus sets the gauge for one status label.
func UpdateMatchesByStatus(status string, count int) {
	globalManager.matchesByStatus.WithLabelValues(status).Set(float64(count))
}

// RecordMatchCommand counts a synchronous command; outcome is "ok" or an error kind.
func RecordMatchCommand(command, outcome string) {
	globalManager.matchCommands.WithLabelValues(command, outcome).Inc()
}

// Queue Metrics Functions.

// UpdateQueueSize sets the current queue size.
func UpdateQueueSize(size int) {
	globalManager.queueSize.Set(float64(size))
}

// UpdateQueueCapacity sets the total queue capacity.
func UpdateQueueCapacity(capacity int) {
	globalManager.queueCapacity.Set(float64(capacity))
}

// UpdateQueueUtilization sets size/capacity.
func UpdateQueueUtilization(ratio float64) {
	globalManager.queueUtilization.Set(ratio)
}

// RecordQueueEnqueue counts an enqueued update.
func RecordQueueEnqueue() {
	globalManager.queueEnqueued.Inc()
}

// RecordQueueDequeue counts a dequeued update.
func RecordQueueDequeue() {
	globalManager.queueDequeued.Inc()
}

// RecordQueueEnqueueError counts a failed enqueue.
func RecordQueueEnqueueError(reason string) {
	globalManager.queueEnqueueErrors.WithLabelValues(reason).Inc()
}

// Worker Metrics Functions.

// UpdateWorkerCount sets the number of running workers.
func UpdateWorkerCount(count int) {
	globalManager.workerCount.Set(float64(count))
}

// RecordWorkerProcessingLatency records per-update processing latency.
func RecordWorkerProcessingLatency(latencyMs float64) {
	globalManager.workerProcessingLatency.Observe(latencyMs)
}

// RecordWorkerError counts a failed update by reason.
func RecordWorkerError(reason string) {
	globalManager.workerErrors.WithLabelValues(reason).Inc()
}

// UpdateWorkerUpdatesPerSecond sets pool throughput.
func UpdateWorkerUpdatesPerSecond(rate float64) {
	globalManager.workerUpdatesPerSecond.Set(rate)
}

// Store Metrics Functions.

// UpdateStoreShardCount sets the number of store shards.
func UpdateStoreShardCount(count int) {
	globalManager.storeShardCount.Set(float64(count))
}

// UpdateStoreRecords sets the number of stored matches.
func UpdateStoreRecords(count int) {
	globalManager.storeRecords.Set(float64(count))
}

// RecordStoreUpdateLatency records a store write.
func RecordStoreUpdateLatency(latencyMs float64) {
	globalManager.storeUpdateLatency.Observe(latencyMs)
}

// RecordStoreQueryLatency records a store read.
func RecordStoreQueryLatency(latencyMs float64) {
	globalManager.storeQueryLatency.Observe(latencyMs)
}

// RecordBroadcastPublished counts a published match view.
func RecordBroadcastPublished() {
	globalManager.broadcastPublished.Inc()
}

// RecordBroadcastError counts a failed publish.
func RecordBroadcastError() {
	globalManager.broadcastErrors.Inc()
}

// RecordHTTPRequest records a completed request and its duration.
func RecordHTTPRequest(endpoint, method, statusCode string, durationMs float64) {
	globalManager.httpRequests.WithLabelValues(endpoint, method, statusCode).Inc()
	globalManager.httpRequestDuration.WithLabelValues(endpoint, method, statusCode).Observe(durationMs)
}

// RecordHTTPError records an error response.
func RecordHTTPError(endpoint, method, errorType string) {
	globalManager.httpErrors.WithLabelValues(endpoint, method, errorType).Inc()
}

// System Performance Metrics Functions.

// UpdateSystemMemoryUsage sets the heap allocation in bytes.
func UpdateSystemMemoryUsage(bytes uint64) {
	globalManager.systemMemoryUsage.Set(float64(bytes))
}

// UpdateSystemGoroutineCount sets the number of goroutines.
func UpdateSystemGoroutineCount(count int) {
	globalManager.systemGoroutineCount.Set(float64(count))
}

// RecordSystemGCPauseTime records the average GC pause in milliseconds.
func RecordSystemGCPauseTime(pauseMs float64) {
	globalManager.systemGCPauseTime.Observe(pauseMs)
}

// GetRegistry returns the private registry served on /healthz.
func GetRegistry() *prometheus.Registry {
	return customRegistry
}
