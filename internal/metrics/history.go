package metrics

import (
	"context"
	"sync"
	"time"
)

// DataPoint is a single time-series sample.
type DataPoint struct {
	Timestamp time.Time
	Value     float64
}

// MetricHistory keeps a rolling window of bucketed samples. Samples
// recorded inside one bucket interval collapse into a single point:
// summed for rate-style series, averaged otherwise. Buckets with no
// samples produce no point.
type MetricHistory struct {
	mu          sync.Mutex
	points      []DataPoint
	bucketSize  time.Duration
	maxBuckets  int
	sum         bool
	accumulator float64
	count       int64
	lastBucket  time.Time

	// Optional Redis persistence
	storage    *RedisStorage
	metricName string
}

// NewMetricHistory creates a rolling in-memory history. sum selects
// whether a bucket finalizes as the sum of its samples or their
// average.
func NewMetricHistory(bucketSize time.Duration, maxBuckets int, sum bool) *MetricHistory {
	return &MetricHistory{
		points:     make([]DataPoint, 0, maxBuckets),
		bucketSize: bucketSize,
		maxBuckets: maxBuckets,
		sum:        sum,
		lastBucket: time.Now().Truncate(bucketSize),
	}
}

// NewMetricHistoryWithRedis creates a history persisted through the
// given storage, preloading whatever points survive from earlier runs.
func NewMetricHistoryWithRedis(bucketSize time.Duration, maxBuckets int, sum bool, storage *RedisStorage, metricName string) *MetricHistory {
	h := NewMetricHistory(bucketSize, maxBuckets, sum)
	h.storage = storage
	h.metricName = metricName

	if storage != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		since := time.Now().Add(-time.Duration(maxBuckets) * bucketSize)
		if points, err := storage.LoadHistory(ctx, metricName, since); err == nil && len(points) > 0 {
			h.points = points
		}
	}
	return h
}

// Record adds a sample to the current bucket.
func (h *MetricHistory) Record(value float64) {
	h.mu.Lock()
	defer h.mu.Unlock()

	h.rollover(time.Now())
	h.accumulator += value
	h.count++
}

// rollover finalizes the previous bucket once the clock has moved past
// it. Must be called with the lock held.
func (h *MetricHistory) rollover(now time.Time) {
	currentBucket := now.Truncate(h.bucketSize)
	if !currentBucket.After(h.lastBucket) {
		return
	}
	h.finalize()
	h.lastBucket = currentBucket
}

// finalize turns the accumulated samples into a point and resets the
// accumulator. Must be called with the lock held.
func (h *MetricHistory) finalize() {
	if h.count == 0 {
		return
	}

	dp := DataPoint{Timestamp: h.lastBucket, Value: h.bucketValue()}
	h.points = append(h.points, dp)

	if h.storage != nil && h.metricName != "" {
		go h.persist(dp)
	}

	if len(h.points) > h.maxBuckets {
		h.points = h.points[len(h.points)-h.maxBuckets:]
	}

	h.accumulator = 0
	h.count = 0
}

func (h *MetricHistory) bucketValue() float64 {
	if h.sum || h.count == 0 {
		return h.accumulator
	}
	return h.accumulator / float64(h.count)
}

func (h *MetricHistory) persist(dp DataPoint) {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	_ = h.storage.SaveDataPoint(ctx, h.metricName, dp)
}

// GetHistory returns a copy of the finalized points.
func (h *MetricHistory) GetHistory() []DataPoint {
	h.mu.Lock()
	defer h.mu.Unlock()

	h.rollover(time.Now())
	out := make([]DataPoint, len(h.points))
	copy(out, h.points)
	return out
}

// GetHistoryWithCurrent additionally includes the unfinalized current
// bucket when it has samples.
func (h *MetricHistory) GetHistoryWithCurrent() []DataPoint {
	h.mu.Lock()
	defer h.mu.Unlock()

	h.rollover(time.Now())
	out := make([]DataPoint, len(h.points), len(h.points)+1)
	copy(out, h.points)
	if h.count > 0 {
		out = append(out, DataPoint{Timestamp: h.lastBucket, Value: h.bucketValue()})
	}
	return out
}

// History windows: 5-minute buckets, one hour of retention.
const (
	historyBucketSize = 5 * time.Minute
	historyMaxBuckets = 12
)

// TimeSeriesData tracks the rolling series the stats endpoint reports.
type TimeSeriesData struct {
	AnnotationRate *MetricHistory // saves per bucket
	SaveLatency    *MetricHistory // average annotation write latency per bucket
}

// NewTimeSeriesData creates in-memory series.
func NewTimeSeriesData() *TimeSeriesData {
	return &TimeSeriesData{
		AnnotationRate: NewMetricHistory(historyBucketSize, historyMaxBuckets, true),
		SaveLatency:    NewMetricHistory(historyBucketSize, historyMaxBuckets, false),
	}
}

// NewTimeSeriesDataWithRedis creates series persisted through storage.
func NewTimeSeriesDataWithRedis(storage *RedisStorage) *TimeSeriesData {
	return &TimeSeriesData{
		AnnotationRate: NewMetricHistoryWithRedis(historyBucketSize, historyMaxBuckets, true, storage, "annotation_rate"),
		SaveLatency:    NewMetricHistoryWithRedis(historyBucketSize, historyMaxBuckets, false, storage, "save_latency"),
	}
}

// RecordAnnotation records one saved annotation and its write latency.
func (t *TimeSeriesData) RecordAnnotation(latencyMs float64) {
	t.AnnotationRate.Record(1)
	t.SaveLatency.Record(latencyMs)
}
