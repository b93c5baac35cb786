package evaluation

import (
	"github.com/mathfish/mathfish/internal/codes"
)

// Metrics holds aggregate comparison metrics at one granularity.
type Metrics struct {
	Precision  float64 `json:"precision"`
	Recall     float64 `json:"recall"`
	F1         float64 `json:"f1"`
	ExactMatch float64 `json:"exact_match"`
	Total      int     `json:"total"`
}

// Report maps each granularity to its metrics.
type Report map[codes.Granularity]*Metrics

// LabelSets maps problem ids to their label sets.
type LabelSets map[string]codes.Set
