// Package evaluation compares predicted standard labels against gold
// labels at domain, cluster, and standard granularity.
package evaluation

import (
	"github.com/mathfish/mathfish/internal/codes"
)

// Evaluate compares predictions against gold labels at one granularity.
// The gold map defines the problem universe: a problem without a
// prediction counts as an empty prediction set, and predictions for
// problems outside the gold map are ignored.
func Evaluate(preds, gold LabelSets, g codes.Granularity) *Metrics {
	counts := &Counts{}
	for pid, goldLabels := range gold {
		predLevel := codes.MapLevelSet(preds[pid], g)
		goldLevel := codes.MapLevelSet(goldLabels, g)
		counts.Observe(predLevel, goldLevel)
	}
	return counts.Metrics()
}

// EvaluateAll computes metrics at every granularity. Each granularity is
// evaluated independently from the raw label sets.
func EvaluateAll(preds, gold LabelSets) Report {
	report := make(Report, len(codes.Granularities()))
	for _, g := range codes.Granularities() {
		report[g] = Evaluate(preds, gold, g)
	}
	return report
}
