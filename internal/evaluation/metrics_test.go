package evaluation

import (
	"testing"

	"github.com/mathfish/mathfish/internal/codes"
)

func TestCounts_Observe(t *testing.T) {
	c := &Counts{}
	c.Observe(codes.NewSet("a", "b"), codes.NewSet("b", "c"))

	if c.TP != 1 || c.FP != 1 || c.FN != 1 {
		t.Errorf("tallies = tp%d fp%d fn%d, want 1/1/1", c.TP, c.FP, c.FN)
	}
	if c.Exact != 0 {
		t.Errorf("exact = %d, want 0", c.Exact)
	}
	if c.Total != 1 {
		t.Errorf("total = %d, want 1", c.Total)
	}
}

func TestCounts_ObserveAccumulates(t *testing.T) {
	c := &Counts{}
	c.Observe(codes.NewSet("a"), codes.NewSet("a"))
	c.Observe(codes.NewSet(), codes.NewSet())
	c.Observe(codes.NewSet("x"), codes.NewSet("y"))

	if c.Total != 3 {
		t.Errorf("total = %d, want 3", c.Total)
	}
	if c.Exact != 2 {
		t.Errorf("exact = %d, want 2 (identical and both-empty)", c.Exact)
	}
	if c.TP != 1 || c.FP != 1 || c.FN != 1 {
		t.Errorf("tallies = tp%d fp%d fn%d, want 1/1/1", c.TP, c.FP, c.FN)
	}
}

func TestCounts_Metrics(t *testing.T) {
	tests := []struct {
		name      string
		counts    Counts
		precision float64
		recall    float64
		f1        float64
		exact     float64
	}{
		{
			name:      "perfect",
			counts:    Counts{TP: 4, Exact: 2, Total: 2},
			precision: 1.0, recall: 1.0, f1: 1.0, exact: 1.0,
		},
		{
			name:      "half precision full recall",
			counts:    Counts{TP: 2, FP: 2, Exact: 0, Total: 2},
			precision: 0.5, recall: 1.0, f1: 2.0 / 3.0, exact: 0,
		},
		{
			name:      "zero everything",
			counts:    Counts{},
			precision: 0, recall: 0, f1: 0, exact: 0,
		},
		{
			name:      "no predictions",
			counts:    Counts{FN: 3, Total: 3},
			precision: 0, recall: 0, f1: 0, exact: 0,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := tt.counts.Metrics()
			if !almostEqual(m.Precision, tt.precision) {
				t.Errorf("precision = %f, want %f", m.Precision, tt.precision)
			}
			if !almostEqual(m.Recall, tt.recall) {
				t.Errorf("recall = %f, want %f", m.Recall, tt.recall)
			}
			if !almostEqual(m.F1, tt.f1) {
				t.Errorf("f1 = %f, want %f", m.F1, tt.f1)
			}
			if !almostEqual(m.ExactMatch, tt.exact) {
				t.Errorf("exact = %f, want %f", m.ExactMatch, tt.exact)
			}
		})
	}
}
