package benchmark

import (
	"fmt"
	"strings"

	"github.com/mathfish/mathfish/internal/codes"
	"github.com/mathfish/mathfish/internal/evaluation"
)

// reportOrder lists granularities finest first, the order the CLI
// prints them.
var reportOrder = []codes.Granularity{
	codes.GranularityStandard,
	codes.GranularityCluster,
	codes.GranularityDomain,
}

// FormatReport renders a report as the text block printed after a
// benchmark run, one section per granularity.
func FormatReport(report evaluation.Report) string {
	var b strings.Builder
	for _, g := range reportOrder {
		m := report[g]
		if m == nil {
			continue
		}
		fmt.Fprintf(&b, "\nLevel: %s\n", g)
		fmt.Fprintf(&b, "  Precision: %.3f\n", m.Precision)
		fmt.Fprintf(&b, "  Recall:    %.3f\n", m.Recall)
		fmt.Fprintf(&b, "  F1:        %.3f\n", m.F1)
		fmt.Fprintf(&b, "  Exact:     %.3f\n", m.ExactMatch)
		fmt.Fprintf(&b, "  N:         %d\n", m.Total)
	}
	return b.String()
}
