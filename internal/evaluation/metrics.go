package evaluation

import (
	"github.com/mathfish/mathfish/internal/codes"
)

// Counts accumulates set-comparison tallies across problems. True
// positives, false positives, and false negatives are counted per label;
// exact matches per problem.
type Counts struct {
	TP    int
	FP    int
	FN    int
	Exact int
	Total int
}

// Observe tallies one problem's predicted set against its gold set.
// Two empty sets are an exact match.
func (c *Counts) Observe(pred, gold codes.Set) {
	c.Total++
	c.TP += len(pred.Intersection(gold))
	c.FP += len(pred.Difference(gold))
	c.FN += len(gold.Difference(pred))
	if pred.Equal(gold) {
		c.Exact++
	}
}

// Metrics computes precision, recall, F1, and exact-match rate from the
// tallies. Every division guards against a zero denominator and yields
// 0.0 instead.
func (c *Counts) Metrics() *Metrics {
	m := &Metrics{Total: c.Total}

	if c.TP+c.FP > 0 {
		m.Precision = float64(c.TP) / float64(c.TP+c.FP)
	}
	if c.TP+c.FN > 0 {
		m.Recall = float64(c.TP) / float64(c.TP+c.FN)
	}
	if m.Precision+m.Recall > 0 {
		m.F1 = 2 * m.Precision * m.Recall / (m.Precision + m.Recall)
	}
	if c.Total > 0 {
		m.ExactMatch = float64(c.Exact) / float64(c.Total)
	}

	return m
}
