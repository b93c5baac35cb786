package irr

import (
	"math"
	"strings"
	"testing"
)

func almostEqual(a, b float64) bool {
	return math.Abs(a-b) < 1e-9
}

func TestAlpha_HandComputed(t *testing.T) {
	// Columns carry the value pairs (0,0), (1,1), (0,1), (1,1):
	// n_0=3, n_1=5, observed disagreement 2, expected 30.
	m := Matrix{
		{0, 1, 0, 1},
		{0, 1, 1, 1},
	}
	got, err := Alpha(m)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want := 1 - 7.0*2.0/30.0
	if !almostEqual(got, want) {
		t.Errorf("alpha = %v, want %v", got, want)
	}
}

func TestAlpha_PerfectAgreement(t *testing.T) {
	m := Matrix{
		{1, 0, 1},
		{1, 0, 1},
	}
	got, err := Alpha(m)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !almostEqual(got, 1.0) {
		t.Errorf("alpha = %v, want 1.0", got)
	}
}

func TestAlpha_SystematicDisagreement(t *testing.T) {
	m := Matrix{
		{1, 0},
		{0, 1},
	}
	got, err := Alpha(m)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !almostEqual(got, -0.5) {
		t.Errorf("alpha = %v, want -0.5", got)
	}
}

func TestAlpha_UnpairedUnitsDropped(t *testing.T) {
	// First column has a single rating and must not contribute.
	m := Matrix{
		{1, 1},
		{math.NaN(), 0},
		{math.NaN(), 1},
	}
	got, err := Alpha(m)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !almostEqual(got, 0.0) {
		t.Errorf("alpha = %v, want 0.0", got)
	}
}

func TestAlpha_Errors(t *testing.T) {
	tests := []struct {
		name    string
		m       Matrix
		wantErr string
	}{
		{"nil matrix", nil, "empty reliability matrix"},
		{"zero columns", Matrix{{}, {}}, "empty reliability matrix"},
		{
			"single rater",
			Matrix{{1, 0}, {math.NaN(), math.NaN()}},
			"not enough pairable values",
		},
		{
			"no variation",
			Matrix{{1, 1}, {1, 1}},
			"no variation in ratings",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Alpha(tt.m)
			if err == nil {
				t.Fatal("expected error, got nil")
			}
			if !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("error = %q, want it to contain %q", err, tt.wantErr)
			}
		})
	}
}
