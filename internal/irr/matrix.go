// Package irr measures inter-rater reliability over the shared
// annotation set using Krippendorff's alpha.
package irr

import (
	"math"

	"github.com/mathfish/mathfish/internal/annotations"
	"github.com/mathfish/mathfish/internal/codes"
)

// Matrix is reliability data: one row per annotator, one column per
// (problem, code) unit. NaN marks units the annotator did not rate.
type Matrix [][]float64

// Unit identifies one matrix column.
type Unit struct {
	ProblemID string
	Code      string
}

// BuildMatrix builds the reliability matrix for one granularity over
// the shared problems. Rows follow the given annotator order. The code
// universe is the union of every annotator's selections mapped to the
// granularity; a cell is 1 when the annotator selected the code for the
// problem, 0 when not, and NaN when the record is missing or skipped.
func BuildMatrix(records map[string]map[string]*annotations.Record, annotators, sharedIDs []string, g codes.Granularity) (Matrix, []Unit) {
	union := codes.NewSet()
	for _, name := range annotators {
		for _, pid := range sharedIDs {
			rec := records[name][pid]
			if rec == nil || rec.Skipped {
				continue
			}
			for _, code := range rec.Codes() {
				union.Add(codes.MapLevel(code, g))
			}
		}
	}
	universe := union.Sorted()

	units := make([]Unit, 0, len(sharedIDs)*len(universe))
	for _, pid := range sharedIDs {
		for _, code := range universe {
			units = append(units, Unit{ProblemID: pid, Code: code})
		}
	}

	matrix := make(Matrix, 0, len(annotators))
	for _, name := range annotators {
		row := make([]float64, 0, len(units))
		for _, pid := range sharedIDs {
			rec := records[name][pid]
			if rec == nil || rec.Skipped {
				for range universe {
					row = append(row, math.NaN())
				}
				continue
			}
			selected := codes.MapLevelSet(codes.NewSet(rec.Codes()...), g)
			for _, code := range universe {
				if selected.Has(code) {
					row = append(row, 1.0)
				} else {
					row = append(row, 0.0)
				}
			}
		}
		matrix = append(matrix, row)
	}
	return matrix, units
}
