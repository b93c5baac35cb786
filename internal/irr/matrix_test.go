package irr

import (
	"math"
	"reflect"
	"testing"

	"github.com/mathfish/mathfish/internal/annotations"
	"github.com/mathfish/mathfish/internal/codes"
)

func rec(annotator, pid string, selected ...string) *annotations.Record {
	refs := make([]annotations.StandardRef, 0, len(selected))
	for _, code := range selected {
		refs = append(refs, annotations.StandardRef{ID: code})
	}
	return &annotations.Record{ProblemID: pid, Annotator: annotator, Standards: refs}
}

func skip(annotator, pid string) *annotations.Record {
	return &annotations.Record{ProblemID: pid, Annotator: annotator, Skipped: true}
}

func TestBuildMatrix(t *testing.T) {
	records := map[string]map[string]*annotations.Record{
		"alice": {
			"p1": rec("alice", "p1", "4.NF.B.3"),
			"p2": rec("alice", "p2", "4.OA.A.1"),
		},
		"bob": {
			"p1": rec("bob", "p1", "4.NF.B.3", "4.OA.A.1"),
			"p2": rec("bob", "p2", "4.OA.A.1"),
		},
	}

	matrix, units := BuildMatrix(records, []string{"alice", "bob"}, []string{"p1", "p2"}, codes.GranularityStandard)

	wantUnits := []Unit{
		{"p1", "4.NF.B.3"}, {"p1", "4.OA.A.1"},
		{"p2", "4.NF.B.3"}, {"p2", "4.OA.A.1"},
	}
	if !reflect.DeepEqual(units, wantUnits) {
		t.Errorf("units = %v, want %v", units, wantUnits)
	}

	want := Matrix{
		{1, 0, 0, 1},
		{1, 1, 0, 1},
	}
	if !reflect.DeepEqual(matrix, want) {
		t.Errorf("matrix = %v, want %v", matrix, want)
	}
}

func TestBuildMatrix_MissingAndSkippedAreNaN(t *testing.T) {
	records := map[string]map[string]*annotations.Record{
		"alice": {
			"p1": rec("alice", "p1", "4.NF.B.3"),
			"p2": skip("alice", "p2"),
		},
		"bob": {
			"p1": rec("bob", "p1", "4.NF.B.3"),
		},
	}

	matrix, _ := BuildMatrix(records, []string{"alice", "bob"}, []string{"p1", "p2"}, codes.GranularityStandard)

	if len(matrix) != 2 || len(matrix[0]) != 2 {
		t.Fatalf("matrix shape = %dx%d, want 2x2", len(matrix), len(matrix[0]))
	}
	if matrix[0][0] != 1 || matrix[1][0] != 1 {
		t.Errorf("p1 cells = %v, %v, want 1, 1", matrix[0][0], matrix[1][0])
	}
	if !math.IsNaN(matrix[0][1]) {
		t.Errorf("skipped record should yield NaN, got %v", matrix[0][1])
	}
	if !math.IsNaN(matrix[1][1]) {
		t.Errorf("missing record should yield NaN, got %v", matrix[1][1])
	}
}

func TestBuildMatrix_CollapsesToGranularity(t *testing.T) {
	records := map[string]map[string]*annotations.Record{
		"alice": {"p1": rec("alice", "p1", "4.NF.B.3")},
		"bob":   {"p1": rec("bob", "p1", "4.NF.B.3a")},
	}

	matrix, units := BuildMatrix(records, []string{"alice", "bob"}, []string{"p1"}, codes.GranularityCluster)

	wantUnits := []Unit{{"p1", "4.NF.B"}}
	if !reflect.DeepEqual(units, wantUnits) {
		t.Errorf("units = %v, want %v", units, wantUnits)
	}
	want := Matrix{{1}, {1}}
	if !reflect.DeepEqual(matrix, want) {
		t.Errorf("matrix = %v, want %v", matrix, want)
	}
}

func TestBuildMatrix_EmptyUniverse(t *testing.T) {
	records := map[string]map[string]*annotations.Record{
		"alice": {"p1": skip("alice", "p1")},
		"bob":   {},
	}

	matrix, units := BuildMatrix(records, []string{"alice", "bob"}, []string{"p1"}, codes.GranularityStandard)

	if len(units) != 0 {
		t.Errorf("units = %v, want none", units)
	}
	if len(matrix) != 2 || len(matrix[0]) != 0 || len(matrix[1]) != 0 {
		t.Errorf("matrix should have two empty rows, got %v", matrix)
	}
}

func TestBuildMatrix_RowOrderFollowsAnnotators(t *testing.T) {
	records := map[string]map[string]*annotations.Record{
		"alice": {"p1": rec("alice", "p1", "4.OA.A.1")},
		"bob":   {"p1": rec("bob", "p1")},
	}

	matrix, _ := BuildMatrix(records, []string{"bob", "alice"}, []string{"p1"}, codes.GranularityStandard)

	want := Matrix{{0}, {1}}
	if !reflect.DeepEqual(matrix, want) {
		t.Errorf("matrix = %v, want bob's row first: %v", matrix, want)
	}
}
