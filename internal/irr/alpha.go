package irr

import (
	"errors"
	"math"
)

// Alpha computes Krippendorff's alpha for nominal data. Units rated by
// fewer than two annotators are dropped; NaN cells are unrated. An
// alpha of 1 means perfect agreement, 0 means agreement at chance
// level, and negative values mean systematic disagreement.
func Alpha(m Matrix) (float64, error) {
	if len(m) == 0 || len(m[0]) == 0 {
		return 0, errors.New("empty reliability matrix")
	}

	totals := make(map[float64]int)
	pairable := 0
	observed := 0.0

	for col := 0; col < len(m[0]); col++ {
		var vals []float64
		for row := 0; row < len(m); row++ {
			v := m[row][col]
			if !math.IsNaN(v) {
				vals = append(vals, v)
			}
		}
		if len(vals) < 2 {
			continue
		}
		for _, v := range vals {
			totals[v]++
		}
		pairable += len(vals)

		disagreeing := 0
		for i := range vals {
			for j := range vals {
				if i != j && vals[i] != vals[j] {
					disagreeing++
				}
			}
		}
		observed += float64(disagreeing) / float64(len(vals)-1)
	}

	if pairable <= 1 {
		return 0, errors.New("not enough pairable values")
	}

	expected := 0.0
	for c, nc := range totals {
		for k, nk := range totals {
			if c != k {
				expected += float64(nc) * float64(nk)
			}
		}
	}
	if expected == 0 {
		return 0, errors.New("no variation in ratings")
	}

	return 1 - float64(pairable-1)*observed/expected, nil
}
