package annotations

import (
	"fmt"
	"path/filepath"
	"reflect"
	"strings"
	"testing"

	"github.com/mathfish/mathfish/internal/problems"
)

func makePool(n int) []*problems.Problem {
	pool := make([]*problems.Problem, 0, n)
	for i := 0; i < n; i++ {
		pool = append(pool, &problems.Problem{
			ID:   fmt.Sprintf("p%02d", i),
			Text: strings.Repeat("x", 50),
		})
	}
	return pool
}

func TestBuildPlan_Deterministic(t *testing.T) {
	pool := makePool(10)
	annotators := []string{"alice", "bob"}

	first, _ := BuildPlan(pool, annotators, 3, 2, 42)
	second, _ := BuildPlan(pool, annotators, 3, 2, 42)

	if !reflect.DeepEqual(first.SharedIDs, second.SharedIDs) {
		t.Errorf("shared ids differ across runs: %v vs %v", first.SharedIDs, second.SharedIDs)
	}
	if !reflect.DeepEqual(first.Assignments, second.Assignments) {
		t.Errorf("assignments differ across runs")
	}
}

func TestBuildPlan_SharedAndUnique(t *testing.T) {
	pool := makePool(8)
	annotators := []string{"alice", "bob"}

	plan, assigned := BuildPlan(pool, annotators, 2, 2, 7)

	if plan.Seed != 7 || plan.OverlapCount != 2 || plan.UniqueCount != 2 {
		t.Errorf("plan header wrong: %+v", plan)
	}
	if len(plan.SharedIDs) != 2 {
		t.Fatalf("got %d shared ids, want 2", len(plan.SharedIDs))
	}
	if len(plan.Assignments) != 2 {
		t.Fatalf("got %d assignments, want 2", len(plan.Assignments))
	}

	seen := make(map[string]bool)
	for _, id := range plan.SharedIDs {
		seen[id] = true
	}
	for _, name := range annotators {
		a := plan.Assignments[name]
		if a == nil {
			t.Fatalf("no assignment for %s", name)
		}
		if !reflect.DeepEqual(a.SharedIDs, plan.SharedIDs) {
			t.Errorf("%s shared ids differ from plan", name)
		}
		if len(a.UniqueIDs) != 2 {
			t.Errorf("%s got %d unique ids, want 2", name, len(a.UniqueIDs))
		}
		for _, id := range a.UniqueIDs {
			if seen[id] {
				t.Errorf("problem %s assigned twice", id)
			}
			seen[id] = true
		}
		want := append(append([]string{}, a.SharedIDs...), a.UniqueIDs...)
		if !reflect.DeepEqual(a.AllIDs, want) {
			t.Errorf("%s all ids = %v, want shared then unique %v", name, a.AllIDs, want)
		}
	}

	if len(assigned) != 6 {
		t.Errorf("got %d assigned problems, want 6", len(assigned))
	}
	for id := range assigned {
		if !seen[id] {
			t.Errorf("assigned problem %s not in any id list", id)
		}
	}
}

func TestBuildPlan_ShortPool(t *testing.T) {
	pool := makePool(3)
	annotators := []string{"alice", "bob"}

	plan, assigned := BuildPlan(pool, annotators, 2, 2, 1)

	if len(plan.SharedIDs) != 2 {
		t.Fatalf("got %d shared ids, want 2", len(plan.SharedIDs))
	}
	if got := len(plan.Assignments["alice"].UniqueIDs); got != 1 {
		t.Errorf("alice unique = %d, want the 1 remaining problem", got)
	}
	if got := len(plan.Assignments["bob"].UniqueIDs); got != 0 {
		t.Errorf("bob unique = %d, want 0", got)
	}
	if len(assigned) != 3 {
		t.Errorf("got %d assigned problems, want 3", len(assigned))
	}
}

func TestBuildPlan_EmptyPool(t *testing.T) {
	plan, assigned := BuildPlan(nil, []string{"alice"}, 5, 5, 1)
	if len(plan.SharedIDs) != 0 || len(assigned) != 0 {
		t.Errorf("empty pool should produce an empty plan, got %+v", plan)
	}
	if len(plan.Assignments["alice"].AllIDs) != 0 {
		t.Errorf("alice should have no problems")
	}
}

func TestShortfall(t *testing.T) {
	tests := []struct {
		name       string
		eligible   int
		annotators int
		overlap    int
		unique     int
		want       int
	}{
		{"enough", 30, 2, 20, 5, 0},
		{"exactly enough", 30, 2, 20, 5, 0},
		{"short", 25, 2, 20, 5, 5},
		{"empty pool", 0, 3, 20, 5, 35},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Shortfall(tt.eligible, tt.annotators, tt.overlap, tt.unique); got != tt.want {
				t.Errorf("Shortfall() = %d, want %d", got, tt.want)
			}
		})
	}
}

func TestWriteAndLoadPlan(t *testing.T) {
	pool := makePool(10)
	plan, _ := BuildPlan(pool, []string{"alice", "bob"}, 3, 2, 42)

	path := filepath.Join(t.TempDir(), "annotations", "assignments.json")
	if err := WritePlan(path, plan); err != nil {
		t.Fatalf("write: %v", err)
	}
	loaded, err := LoadPlan(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if !reflect.DeepEqual(loaded, plan) {
		t.Errorf("plan changed across round trip:\n got %+v\nwant %+v", loaded, plan)
	}
}

func TestLoadPlan_MissingFile(t *testing.T) {
	if _, err := LoadPlan(filepath.Join(t.TempDir(), "nope.json")); err == nil {
		t.Fatal("expected error for missing file")
	}
}
