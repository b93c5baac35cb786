package metrics

import (
	"fmt"
	"sort"
	"strconv"
	"strings"
)

// PrometheusFormat renders every registered series in the Prometheus
// text exposition format.
// See: https://prometheus.io/docs/instrumenting/exposition_formats/
func (m *Metrics) PrometheusFormat() string {
	var sb strings.Builder

	// Annotation metrics
	writeCounterVec(&sb, m.AnnotationsSaved)
	writeCounterVec(&sb, m.AnnotationsSkipped)
	writeHistogram(&sb, m.AnnotationCodes)
	writeHistogram(&sb, m.AnnotationWriteLatency)
	writeCounter(&sb, m.AnnotationWriteErrors)

	// Assignment metrics
	writeCounter(&sb, m.AssignmentsCreated)
	writeGauge(&sb, m.AssignmentProblems)

	// Benchmark metrics
	writeCounterVec(&sb, m.BenchmarkRuns)
	writeGaugeVec(&sb, m.BenchmarkF1)
	writeCounter(&sb, m.IRRRuns)
	writeGaugeVec(&sb, m.IRRAlpha)

	// Bus metrics
	writeCounterVec(&sb, m.BusEventsPublished)
	writeHistogramVec(&sb, m.BusPublishLatency)
	writeCounterVec(&sb, m.BusErrors)

	// HTTP metrics
	writeCounterVec(&sb, m.HTTPRequests)
	writeHistogramVec(&sb, m.HTTPDuration)
	writeGauge(&sb, m.HTTPRequestsInFlight)
	writeHistogramVec(&sb, m.HTTPRequestSize)

	// System metrics
	writeGauge(&sb, m.GoroutineCount)
	writeGauge(&sb, m.MemoryUsage)
	writeCounter(&sb, m.Uptime)

	return sb.String()
}

// writeHeader writes the HELP and TYPE lines for a metric family.
func writeHeader(sb *strings.Builder, name, help, metricType string) {
	sb.WriteString("# HELP ")
	sb.WriteString(name)
	sb.WriteString(" ")
	sb.WriteString(help)
	sb.WriteString("\n# TYPE ")
	sb.WriteString(name)
	sb.WriteString(" ")
	sb.WriteString(metricType)
	sb.WriteString("\n")
}

// writeCounter writes a counter in Prometheus format.
func writeCounter(sb *strings.Builder, c *Counter) {
	writeHeader(sb, c.Name(), c.Help(), "counter")
	writeCounterLine(sb, c)
}

func writeCounterLine(sb *strings.Builder, c *Counter) {
	sb.WriteString(c.Name())
	writeLabels(sb, c.Labels())
	fmt.Fprintf(sb, " %d\n", c.Value())
}

// writeGauge writes a gauge in Prometheus format.
func writeGauge(sb *strings.Builder, g *Gauge) {
	writeHeader(sb, g.Name(), g.Help(), "gauge")
	writeGaugeLine(sb, g)
}

func writeGaugeLine(sb *strings.Builder, g *Gauge) {
	sb.WriteString(g.Name())
	writeLabels(sb, g.Labels())
	sb.WriteString(" ")
	sb.WriteString(formatFloat(g.Value()))
	sb.WriteString("\n")
}

// writeHistogram writes a histogram in Prometheus format.
func writeHistogram(sb *strings.Builder, h *Histogram) {
	writeHeader(sb, h.Name(), h.Help(), "histogram")
	writeHistogramSeries(sb, h)
}

func writeHistogramSeries(sb *strings.Builder, h *Histogram) {
	labels := h.Labels()
	buckets := h.Buckets()
	counts := h.BucketCounts()

	for i, bucket := range buckets {
		writeBucketLine(sb, h.Name(), labels, formatFloat(bucket), counts[i])
	}
	writeBucketLine(sb, h.Name(), labels, "+Inf", counts[len(counts)-1])

	sb.WriteString(h.Name())
	sb.WriteString("_sum")
	writeLabels(sb, labels)
	sb.WriteString(" ")
	sb.WriteString(formatFloat(h.Sum()))
	sb.WriteString("\n")

	sb.WriteString(h.Name())
	sb.WriteString("_count")
	writeLabels(sb, labels)
	fmt.Fprintf(sb, " %d\n", h.Count())
}

// writeBucketLine writes one cumulative bucket with the le label merged
// into the series labels.
func writeBucketLine(sb *strings.Builder, name string, labels map[string]string, le string, count int64) {
	merged := make(map[string]string, len(labels)+1)
	for k, v := range labels {
		merged[k] = v
	}
	merged["le"] = le

	sb.WriteString(name)
	sb.WriteString("_bucket")
	writeLabels(sb, merged)
	fmt.Fprintf(sb, " %d\n", count)
}

// writeCounterVec writes a counter vector in Prometheus format.
// Empty vectors are omitted entirely.
func writeCounterVec(sb *strings.Builder, cv *CounterVec) {
	counters := cv.GetAll()
	if len(counters) == 0 {
		return
	}
	sort.Slice(counters, func(i, j int) bool {
		return labelsToKey(counters[i].Labels()) < labelsToKey(counters[j].Labels())
	})

	writeHeader(sb, cv.Name(), cv.Help(), "counter")
	for _, c := range counters {
		writeCounterLine(sb, c)
	}
}

// writeGaugeVec writes a gauge vector in Prometheus format.
func writeGaugeVec(sb *strings.Builder, gv *GaugeVec) {
	gauges := gv.GetAll()
	if len(gauges) == 0 {
		return
	}
	sort.Slice(gauges, func(i, j int) bool {
		return labelsToKey(gauges[i].Labels()) < labelsToKey(gauges[j].Labels())
	})

	writeHeader(sb, gv.Name(), gv.Help(), "gauge")
	for _, g := range gauges {
		writeGaugeLine(sb, g)
	}
}

// writeHistogramVec writes a histogram vector in Prometheus format.
func writeHistogramVec(sb *strings.Builder, hv *HistogramVec) {
	histograms := hv.GetAll()
	if len(histograms) == 0 {
		return
	}
	sort.Slice(histograms, func(i, j int) bool {
		return labelsToKey(histograms[i].Labels()) < labelsToKey(histograms[j].Labels())
	})

	writeHeader(sb, hv.Name(), hv.Help(), "histogram")
	for _, h := range histograms {
		writeHistogramSeries(sb, h)
	}
}

// writeLabels writes labels as {key="value",key2="value2"} in sorted
// key order, or nothing when the map is empty.
func writeLabels(sb *strings.Builder, labels map[string]string) {
	if len(labels) == 0 {
		return
	}
	keys := make([]string, 0, len(labels))
	for k := range labels {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	sb.WriteString("{")
	for i, k := range keys {
		if i > 0 {
			sb.WriteString(",")
		}
		sb.WriteString(k)
		sb.WriteString("=\"")
		sb.WriteString(escapeString(labels[k]))
		sb.WriteString("\"")
	}
	sb.WriteString("}")
}

// escapeString escapes special characters in label values.
func escapeString(s string) string {
	s = strings.ReplaceAll(s, "\\", "\\\\")
	s = strings.ReplaceAll(s, "\"", "\\\"")
	s = strings.ReplaceAll(s, "\n", "\\n")
	return s
}

// formatFloat renders a float without trailing zeros and without
// scientific notation.
func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
