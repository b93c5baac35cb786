package metrics

import (
	"runtime"
	"sync"
	"time"

	"github.com/mathfish/mathfish/internal/pkg/logger"
)

// systemSampleInterval is how often the background sampler refreshes
// goroutine, memory, and uptime readings.
const systemSampleInterval = 15 * time.Second

// Metrics holds every series the annotation server and the benchmark
// workflows export.
type Metrics struct {
	// Annotation metrics
	AnnotationsSaved       *CounterVec // labels: annotator
	AnnotationsSkipped     *CounterVec // labels: annotator
	AnnotationCodes        *Histogram
	AnnotationWriteLatency *Histogram
	AnnotationWriteErrors  *Counter

	// Assignment metrics
	AssignmentsCreated *Counter
	AssignmentProblems *Gauge

	// Benchmark metrics
	BenchmarkRuns *CounterVec // labels: provider
	BenchmarkF1   *GaugeVec   // labels: provider, level
	IRRRuns       *Counter
	IRRAlpha      *GaugeVec // labels: level

	// Bus metrics
	BusEventsPublished *CounterVec   // labels: topic
	BusPublishLatency  *HistogramVec // labels: topic
	BusErrors          *CounterVec   // labels: topic

	// HTTP metrics
	HTTPRequests         *CounterVec   // labels: method, path, status
	HTTPDuration         *HistogramVec // labels: method, path
	HTTPRequestsInFlight *Gauge
	HTTPRequestSize      *HistogramVec // labels: method, path

	// System metrics
	GoroutineCount *Gauge
	MemoryUsage    *Gauge
	Uptime         *Counter

	// Time-series history feeding the stats endpoint
	TimeSeries *TimeSeriesData

	redisStorage *RedisStorage

	startTime time.Time
	done      chan struct{}
	closeOnce sync.Once
}

// New creates a metrics instance with in-memory history only.
func New() *Metrics {
	return NewWithConfig("memory", "")
}

// NewWithRedis creates a metrics instance whose history persists to
// Redis. Falls back to in-memory if the connection fails.
func NewWithRedis(redisURL string) *Metrics {
	return NewWithConfig("redis", redisURL)
}

// NewWithConfig creates a metrics instance with the given persistence:
// "memory", or "redis" with a Redis URL.
func NewWithConfig(persistence, redisURL string) *Metrics {
	var redisStorage *RedisStorage
	var timeSeries *TimeSeriesData

	if persistence == "redis" && redisURL != "" {
		storage, err := NewRedisStorage(redisURL)
		if err != nil {
			logger.Default().WithComponent("metrics").WithError(err).
				Warn("redis metrics persistence unavailable, falling back to in-memory history")
		} else {
			redisStorage = storage
			timeSeries = NewTimeSeriesDataWithRedis(redisStorage)
		}
	}
	if timeSeries == nil {
		timeSeries = NewTimeSeriesData()
	}

	m := &Metrics{
		AnnotationsSaved: NewCounterVec(
			"mathfish_annotations_saved_total",
			"Annotations saved, by annotator",
			[]string{"annotator"},
		),
		AnnotationsSkipped: NewCounterVec(
			"mathfish_annotations_skipped_total",
			"Problems skipped during annotation, by annotator",
			[]string{"annotator"},
		),
		AnnotationCodes: NewHistogram(
			"mathfish_annotation_codes",
			"Standard codes selected per saved annotation",
			[]float64{0, 1, 2, 3, 4, 5, 8},
		),
		AnnotationWriteLatency: NewHistogram(
			"mathfish_annotation_write_latency_ms",
			"Annotation log append latency in milliseconds",
			[]float64{1, 5, 10, 25, 50, 100, 250, 500, 1000},
		),
		AnnotationWriteErrors: NewCounter(
			"mathfish_annotation_write_errors_total",
			"Annotation log append failures",
			nil,
		),

		AssignmentsCreated: NewCounter(
			"mathfish_assignments_created_total",
			"Assignment plans created",
			nil,
		),
		AssignmentProblems: NewGauge(
			"mathfish_assignment_problems",
			"Problems in the most recent assignment plan",
			nil,
		),

		BenchmarkRuns: NewCounterVec(
			"mathfish_benchmark_runs_total",
			"Completed benchmark runs, by provider",
			[]string{"provider"},
		),
		BenchmarkF1: NewGaugeVec(
			"mathfish_benchmark_f1",
			"Latest benchmark F1 score, by provider and level",
			[]string{"provider", "level"},
		),
		IRRRuns: NewCounter(
			"mathfish_irr_runs_total",
			"Completed inter-rater reliability analyses",
			nil,
		),
		IRRAlpha: NewGaugeVec(
			"mathfish_irr_alpha",
			"Latest Krippendorff alpha, by level",
			[]string{"level"},
		),

		BusEventsPublished: NewCounterVec(
			"mathfish_bus_events_published_total",
			"Events published to the bus",
			[]string{"topic"},
		),
		BusPublishLatency: NewHistogramVec(
			"mathfish_bus_publish_latency_seconds",
			"Bus publish latency in seconds",
			[]string{"topic"},
			[]float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1.0},
		),
		BusErrors: NewCounterVec(
			"mathfish_bus_errors_total",
			"Event bus publish failures",
			[]string{"topic"},
		),

		HTTPRequests: NewCounterVec(
			"mathfish_http_requests_total",
			"HTTP requests served",
			[]string{"method", "path", "status"},
		),
		HTTPDuration: NewHistogramVec(
			"mathfish_http_request_duration_seconds",
			"HTTP request duration in seconds",
			[]string{"method", "path"},
			[]float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1.0, 2.5, 5.0, 10.0},
		),
		HTTPRequestsInFlight: NewGauge(
			"mathfish_http_requests_in_flight",
			"HTTP requests currently being processed",
			nil,
		),
		HTTPRequestSize: NewHistogramVec(
			"mathfish_http_request_size_bytes",
			"HTTP request size in bytes",
			[]string{"method", "path"},
			[]float64{100, 1000, 10000, 100000, 1000000, 10000000},
		),

		GoroutineCount: NewGauge(
			"mathfish_goroutines",
			"Number of goroutines",
			nil,
		),
		MemoryUsage: NewGauge(
			"mathfish_memory_bytes",
			"Memory usage in bytes",
			nil,
		),
		Uptime: NewCounter(
			"mathfish_uptime_seconds",
			"Process uptime in seconds",
			nil,
		),

		TimeSeries:   timeSeries,
		redisStorage: redisStorage,
		startTime:    time.Now(),
		done:         make(chan struct{}),
	}

	go m.collectSystemMetrics()

	return m
}

// collectSystemMetrics refreshes system readings until Close.
func (m *Metrics) collectSystemMetrics() {
	ticker := time.NewTicker(systemSampleInterval)
	defer ticker.Stop()

	for {
		select {
		case <-m.done:
			return
		case <-ticker.C:
			m.GoroutineCount.Set(float64(runtime.NumGoroutine()))

			var memStats runtime.MemStats
			runtime.ReadMemStats(&memStats)
			m.MemoryUsage.Set(float64(memStats.Alloc))

			m.Uptime.Add(int64(systemSampleInterval / time.Second))
		}
	}
}

// RecordAnnotationSave records one save against the annotation log.
// Only successful writes count toward the annotator's saved series;
// failures increment the error counter instead.
func (m *Metrics) RecordAnnotationSave(annotator string, codeCount int, latencyMs int64, err error) {
	m.AnnotationWriteLatency.Observe(float64(latencyMs))
	if err != nil {
		m.AnnotationWriteErrors.Inc()
		return
	}
	m.AnnotationsSaved.WithLabels(annotator).Inc()
	m.AnnotationCodes.Observe(float64(codeCount))
	if m.TimeSeries != nil {
		m.TimeSeries.RecordAnnotation(float64(latencyMs))
	}
}

// RecordAnnotationSkip records a skipped problem.
func (m *Metrics) RecordAnnotationSkip(annotator string) {
	m.AnnotationsSkipped.WithLabels(annotator).Inc()
}

// RecordAssignment records a freshly built assignment plan.
func (m *Metrics) RecordAssignment(problemCount int) {
	m.AssignmentsCreated.Inc()
	m.AssignmentProblems.Set(float64(problemCount))
}

// RecordBenchmark records one completed provider benchmark with its
// per-level F1 scores.
func (m *Metrics) RecordBenchmark(provider string, f1ByLevel map[string]float64) {
	m.BenchmarkRuns.WithLabels(provider).Inc()
	for level, f1 := range f1ByLevel {
		m.BenchmarkF1.WithLabels(provider, level).Set(f1)
	}
}

// RecordIRR records one completed inter-rater reliability analysis.
func (m *Metrics) RecordIRR(alphaByLevel map[string]float64) {
	m.IRRRuns.Inc()
	for level, alpha := range alphaByLevel {
		m.IRRAlpha.WithLabels(level).Set(alpha)
	}
}

// RecordBusPublish records event bus publish metrics. It satisfies the
// bus package's MetricsRecorder so the instrumented bus can report
// here without an import cycle.
func (m *Metrics) RecordBusPublish(topic string, latencyMs int64, err error) {
	m.BusEventsPublished.WithLabels(topic).Inc()
	m.BusPublishLatency.WithLabels(topic).Observe(float64(latencyMs) / 1000.0)
	if err != nil {
		m.BusErrors.WithLabels(topic).Inc()
	}
}

// RecordHTTP records HTTP request metrics. Called by HTTPMiddleware.
func (m *Metrics) RecordHTTP(method, path string, status int, durationSeconds float64, sizeBytes int64) {
	normalizedPath := normalizePath(path)

	m.HTTPRequests.WithLabels(method, normalizedPath, statusCode(status)).Inc()
	m.HTTPDuration.WithLabels(method, normalizedPath).Observe(durationSeconds)
	if sizeBytes > 0 {
		m.HTTPRequestSize.WithLabels(method, normalizedPath).Observe(float64(sizeBytes))
	}
}

// Reset zeroes the unlabeled counters and gauges. Useful in tests.
func (m *Metrics) Reset() {
	m.AnnotationWriteErrors.Reset()
	m.AssignmentsCreated.Reset()
	m.IRRRuns.Reset()
	m.Uptime.Reset()

	m.AssignmentProblems.Set(0)
	m.HTTPRequestsInFlight.Set(0)
	m.GoroutineCount.Set(0)
	m.MemoryUsage.Set(0)

	m.startTime = time.Now()
}

// Close stops the background sampler and releases the Redis connection
// when one is configured. Safe to call more than once.
func (m *Metrics) Close() error {
	var err error
	m.closeOnce.Do(func() {
		close(m.done)
		if m.redisStorage != nil {
			err = m.redisStorage.Close()
		}
	})
	return err
}

// IsRedisPersisted reports whether history is persisted to Redis.
func (m *Metrics) IsRedisPersisted() bool {
	return m.redisStorage != nil
}
