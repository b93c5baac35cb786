package metrics

import (
	"context"

	"github.com/mathfish/mathfish/internal/annotations"
)

// Collector assembles the JSON snapshot served next to the Prometheus
// exposition: per-annotator progress from the annotation log plus the
// registry's live counters.
type Collector struct {
	metrics *Metrics
	storage annotations.Storage
}

// NewCollector creates a collector. storage may be nil, in which case
// the snapshot carries registry counters only.
func NewCollector(metrics *Metrics, storage annotations.Storage) *Collector {
	return &Collector{
		metrics: metrics,
		storage: storage,
	}
}

// AnnotatorStats summarizes one annotator's progress.
type AnnotatorStats struct {
	Name    string `json:"name"`
	Saved   int    `json:"saved"`
	Skipped int    `json:"skipped"`
}

// Collect gathers the current statistics snapshot.
func (c *Collector) Collect(ctx context.Context) (map[string]any, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	stats := make(map[string]any)

	if c.storage != nil {
		byAnnotator, names, err := annotations.LoadAll(c.storage)
		if err != nil {
			return nil, err
		}

		annotators := make([]AnnotatorStats, 0, len(names))
		totalSaved, totalSkipped := 0, 0
		for _, name := range names {
			s := AnnotatorStats{Name: name}
			for _, rec := range byAnnotator[name] {
				if rec.Skipped {
					s.Skipped++
				} else {
					s.Saved++
				}
			}
			totalSaved += s.Saved
			totalSkipped += s.Skipped
			annotators = append(annotators, s)
		}
		stats["annotators"] = annotators
		stats["annotations_total"] = totalSaved
		stats["skips_total"] = totalSkipped
	}

	// System readings
	stats["goroutines"] = c.metrics.GoroutineCount.Value()
	stats["memory_bytes"] = c.metrics.MemoryUsage.Value()
	stats["uptime_seconds"] = c.metrics.Uptime.Value()

	// Registry counters
	stats["http_requests_total"] = sumCounterVec(c.metrics.HTTPRequests)
	stats["bus_events_published_total"] = sumCounterVec(c.metrics.BusEventsPublished)
	stats["benchmark_runs_total"] = sumCounterVec(c.metrics.BenchmarkRuns)
	stats["irr_runs_total"] = c.metrics.IRRRuns.Value()

	// Rolling history
	if c.metrics.TimeSeries != nil {
		stats["annotation_rate"] = historyPoints(c.metrics.TimeSeries.AnnotationRate)
		stats["save_latency_ms"] = historyPoints(c.metrics.TimeSeries.SaveLatency)
	}

	return stats, nil
}

// sumCounterVec totals every series in the vector.
func sumCounterVec(cv *CounterVec) int64 {
	var total int64
	for _, c := range cv.GetAll() {
		total += c.Value()
	}
	return total
}

// historyPoints flattens a metric history for JSON encoding.
func historyPoints(h *MetricHistory) []map[string]any {
	points := h.GetHistoryWithCurrent()
	out := make([]map[string]any, 0, len(points))
	for _, p := range points {
		out = append(out, map[string]any{
			"timestamp": p.Timestamp.Unix(),
			"value":     p.Value,
		})
	}
	return out
}
