// Package metrics provides Prometheus metrics for the tally leaderboard service.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Default metrics configuration constants.
const (
	defaultRefreshInterval = 10 * time.Second
)

// Manager manages all Prometheus metrics for the tally service.
type Manager struct {
	namespace        string
	subsystem        string
	histogramBuckets []float64
	enabled          bool
	refreshInterval  time.Duration
	customLabels     map[string]string
	metricPrefix     string
	registry         prometheus.Registerer

	// Catalog loading
	catalogLoads        *prometheus.CounterVec
	catalogLoadDuration *prometheus.HistogramVec
	levelFetchLatency   prometheus.Histogram
	levelFetchErrors    *prometheus.CounterVec
	levelsLoaded        *prometheus.GaugeVec

	// Aggregation
	aggregationDuration *prometheus.HistogramVec
	contributors        *prometheus.GaugeVec
	packsAwarded        *prometheus.GaugeVec
	snapshotBuilds      *prometheus.CounterVec
	snapshotLastUnix    *prometheus.GaugeVec
	snapshotCacheHits   *prometheus.CounterVec

	// Refresh pipeline
	refreshQueueSize     prometheus.Gauge
	refreshQueueCapacity prometheus.Gauge
	refreshEnqueued      prometheus.Counter
	refreshCoalesced     prometheus.Counter
	refreshRejected      prometheus.Counter
	workerCount          prometheus.Gauge
	workerBuildLatency   prometheus.Histogram
	workerErrors         prometheus.Counter

	// HTTP
	httpRequests        *prometheus.CounterVec
	httpRequestDuration *prometheus.HistogramVec

	// Errors
	errorsByComponent *prometheus.CounterVec

	// System
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
		namespace:        "tally",
		subsystem:        "leaderboard",
		histogramBuckets: prometheus.DefBuckets,
		enabled:          true,
		refreshInterval:  defaultRefreshInterval,
		customLabels:     make(map[string]string),
		registry:         prometheus.DefaultRegisterer,
	}

	for _, opt := range opts {
		opt(m)
	}

	m.initializeMetrics()

	return m
}

// RefreshInterval is how often gauges fed by polling should be updated.
func (m *Manager) RefreshInterval() time.Duration { return m.refreshInterval }

// RefreshInterval returns the global manager's gauge refresh interval.
func RefreshInterval() time.Duration { return globalManager.RefreshInterval() }

func (m *Manager) name(n string) string {
	if m.metricPrefix != "" {
		return m.metricPrefix + "_" + n
	}
	return n
}

// initializeMetrics creates all the Prometheus metrics.
func (m *Manager) initializeMetrics() { //nolint:funlen // long function required for comprehensive metrics initialization
	auto := promauto.With(m.registry)
	labels := prometheus.Labels(m.customLabels)

	counterVec := func(name, help string, lv ...string) *prometheus.CounterVec {
		return auto.NewCounterVec(prometheus.CounterOpts{
			Namespace: m.namespace, Subsystem: m.subsystem, Name: m.name(name), Help: help, ConstLabels: labels,
		}, lv)
	}
	gaugeVec := func(name, help string, lv ...string) *prometheus.GaugeVec {
		return auto.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: m.namespace, Subsystem: m.subsystem, Name: m.name(name), Help: help, ConstLabels: labels,
		}, lv)
	}
	histVec := func(name, help string, lv ...string) *prometheus.HistogramVec {
		return auto.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: m.namespace, Subsystem: m.subsystem, Name: m.name(name), Help: help, ConstLabels: labels,
			Buckets: m.histogramBuckets,
		}, lv)
	}
	counter := func(name, help string) prometheus.Counter {
		return auto.NewCounter(prometheus.CounterOpts{
			Namespace: m.namespace, Subsystem: m.subsystem, Name: m.name(name), Help: help, ConstLabels: labels,
		})
	}
	gauge := func(name, help string) prometheus.Gauge {
		return auto.NewGauge(prometheus.GaugeOpts{
			Namespace: m.namespace, Subsystem: m.subsystem, Name: m.name(name), Help: help, ConstLabels: labels,
		})
	}
	hist := func(name, help string) prometheus.Histogram {
		return auto.NewHistogram(prometheus.HistogramOpts{
			Namespace: m.namespace, Subsystem: m.subsystem, Name: m.name(name), Help: help, ConstLabels: labels,
			Buckets: m.histogramBuckets,
		})
	}

	m.catalogLoads = counterVec("catalog_loads_total", "Catalog loads by list and outcome (ok, fatal)", "list", "outcome")
	m.catalogLoadDuration = histVec("catalog_load_duration_milliseconds", "Wall time to load and hydrate a catalog", "list")
	m.levelFetchLatency = hist("level_fetch_latency_milliseconds", "Latency of a single level document fetch")
	m.levelFetchErrors = counterVec("level_fetch_errors_total", "Level documents that failed to load", "list")
	m.levelsLoaded = gaugeVec("levels", "Levels in the last loaded catalog by state (ranked, pending, failed)", "list", "state")

	m.aggregationDuration = histVec("aggregation_duration_milliseconds", "Time spent aggregating a loaded catalog", "list")
	m.contributors = gaugeVec("contributors", "Contributors on the last built leaderboard", "list")
	m.packsAwarded = gaugeVec("packs_awarded", "Pack badges awarded on the last built leaderboard", "list")
	m.snapshotBuilds = counterVec("snapshot_builds_total", "Leaderboard snapshot builds by list and trigger", "list", "trigger")
	m.snapshotLastUnix = gaugeVec("snapshot_last_unix_seconds", "Unix time of the last published snapshot", "list")
	m.snapshotCacheHits = counterVec("snapshot_cache_total", "Snapshot cache lookups by result (hit, miss)", "result")

	m.refreshQueueSize = gauge("refresh_queue_size", "Pending refresh jobs")
	m.refreshQueueCapacity = gauge("refresh_queue_capacity", "Refresh queue capacity")
	m.refreshEnqueued = counter("refresh_enqueued_total", "Refresh jobs accepted")
	m.refreshCoalesced = counter("refresh_coalesced_total", "Refresh requests folded into an already pending job")
	m.refreshRejected = counter("refresh_rejected_total", "Refresh requests rejected by backpressure")
	m.workerCount = gauge("worker_count", "Refresh workers running")
	m.workerBuildLatency = hist("worker_build_latency_milliseconds", "Time a worker spent rebuilding a snapshot")
	m.workerErrors = counter("worker_errors_total", "Refresh jobs that failed")

	m.httpRequests = counterVec("http_requests_total", "Total number of HTTP requests by endpoint and method", "endpoint", "method", "status_code")
	m.httpRequestDuration = histVec("http_request_duration_milliseconds", "HTTP request duration in milliseconds", "endpoint", "method", "status_code")

	m.errorsByComponent = counterVec("errors_total", "Errors by component and type", "component", "error_type")

	m.systemMemoryUsage = gauge("system_memory_bytes", "Heap bytes allocated")
	m.systemGoroutineCount = gauge("system_goroutines", "Number of goroutines")
}

// RecordCatalogLoad records a catalog load outcome and its duration.
func RecordCatalogLoad(list, outcome string, durationMs float64) {
	if !globalManager.enabled {
		return
	}
	globalManager.catalogLoads.WithLabelValues(list, outcome).Inc()
	globalManager.catalogLoadDuration.WithLabelValues(list).Observe(durationMs)
}

// RecordLevelFetchLatency observes one level document fetch.
func RecordLevelFetchLatency(latencyMs float64) {
	if globalManager.enabled {
		globalManager.levelFetchLatency.Observe(latencyMs)
	}
}

// RecordLevelFetchError counts a level document that failed to load.
func RecordLevelFetchError(list string) {
	if globalManager.enabled {
		globalManager.levelFetchErrors.WithLabelValues(list).Inc()
	}
}

// UpdateLevels sets the per-state level counts of a loaded catalog.
func UpdateLevels(list string, ranked, pending, failed int) {
	if !globalManager.enabled {
		return
	}
	globalManager.levelsLoaded.WithLabelValues(list, "ranked").Set(float64(ranked))
	globalManager.levelsLoaded.WithLabelValues(list, "pending").Set(float64(pending))
	globalManager.levelsLoaded.WithLabelValues(list, "failed").Set(float64(failed))
}

// RecordAggregation observes an aggregation pass and its result size.
func RecordAggregation(list string, durationMs float64, contributors, packsAwarded int) {
	if !globalManager.enabled {
		return
	}
	globalManager.aggregationDuration.WithLabelValues(list).Observe(durationMs)
	globalManager.contributors.WithLabelValues(list).Set(float64(contributors))
	globalManager.packsAwarded.WithLabelValues(list).Set(float64(packsAwarded))
}

// RecordSnapshotBuild counts a published snapshot.
func RecordSnapshotBuild(list, trigger string, at time.Time) {
	if !globalManager.enabled {
		return
	}
	globalManager.snapshotBuilds.WithLabelValues(list, trigger).Inc()
	globalManager.snapshotLastUnix.WithLabelValues(list).Set(float64(at.Unix()))
}

// RecordSnapshotCache counts a snapshot cache lookup.
func RecordSnapshotCache(hit bool) {
	if !globalManager.enabled {
		return
	}
	result := "miss"
	if hit {
		result = "hit"
	}
	globalManager.snapshotCacheHits.WithLabelValues(result).Inc()
}

// UpdateRefreshQueueSize sets the number of pending refresh jobs.
func UpdateRefreshQueueSize(size int) {
	if globalManager.enabled {
		globalManager.refreshQueueSize.Set(float64(size))
	}
}

// UpdateRefreshQueueCapacity sets the refresh queue capacity.
func UpdateRefreshQueueCapacity(capacity int) {
	if globalManager.enabled {
		globalManager.refreshQueueCapacity.Set(float64(capacity))
	}
}

// RecordRefreshEnqueued counts an accepted refresh job.
func RecordRefreshEnqueued() {
	if globalManager.enabled {
		globalManager.refreshEnqueued.Inc()
	}
}

// RecordRefreshCoalesced counts a refresh request that joined a pending job.
func RecordRefreshCoalesced() {
	if globalManager.enabled {
		globalManager.refreshCoalesced.Inc()
	}
}

// RecordRefreshRejected counts a refresh request dropped by backpressure.
func RecordRefreshRejected() {
	if globalManager.enabled {
		globalManager.refreshRejected.Inc()
	}
}

// UpdateWorkerCount sets the number of refresh workers.
func UpdateWorkerCount(count int) {
	if globalManager.enabled {
		globalManager.workerCount.Set(float64(count))
	}
}

// RecordWorkerBuildLatency observes one worker rebuild.
func RecordWorkerBuildLatency(latencyMs float64) {
	if globalManager.enabled {
		globalManager.workerBuildLatency.Observe(latencyMs)
	}
}

// RecordWorkerError counts a failed refresh job.
func RecordWorkerError() {
	if globalManager.enabled {
		globalManager.workerErrors.Inc()
	}
}

// RecordHTTPRequest records one served HTTP request.
func RecordHTTPRequest(endpoint, method, statusCode string, durationMs float64) {
	if !globalManager.enabled {
		return
	}
	globalManager.httpRequests.WithLabelValues(endpoint, method, statusCode).Inc()
	globalManager.httpRequestDuration.WithLabelValues(endpoint, method, statusCode).Observe(durationMs)
}

// RecordErrorByComponent counts an error attributed to a component.
func RecordErrorByComponent(component, errorType string) {
	if globalManager.enabled {
		globalManager.errorsByComponent.WithLabelValues(component, errorType).Inc()
	}
}

// UpdateSystemMemoryUsage sets the allocated heap size.
func UpdateSystemMemoryUsage(bytes uint64) {
	if globalManager.enabled {
		globalManager.systemMemoryUsage.Set(float64(bytes))
	}
}

// UpdateSystemGoroutineCount sets the goroutine count.
func UpdateSystemGoroutineCount(count int) {
	if globalManager.enabled {
		globalManager.systemGoroutineCount.Set(float64(count))
	}
}

// GetRegistry returns the registry the global manager publishes to.
func GetRegistry() *prometheus.Registry {
	return customRegistry
}
