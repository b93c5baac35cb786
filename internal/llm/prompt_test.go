package llm

import (
	"strings"
	"testing"

	"github.com/mathfish/mathfish/internal/problems"
	"github.com/mathfish/mathfish/internal/taxonomy"
)

func promptStore() *taxonomy.Store {
	return taxonomy.NewStore([]*taxonomy.Entry{
		{ID: "4.OA", Level: taxonomy.LevelDomain, Description: "Operations and Algebraic Thinking", Children: []string{"4.OA.A"}},
		{ID: "4.OA.A", Level: taxonomy.LevelCluster, ClusterType: "major cluster", Description: "Use the four operations with whole numbers to solve problems.", Children: []string{"4.OA.A.1"}},
		{ID: "4.OA.A.1", Level: taxonomy.LevelStandard, Description: "Interpret a multiplication equation as a comparison."},
		{ID: "5.NBT", Level: taxonomy.LevelDomain, Description: "Number and Operations in Base Ten", Children: []string{"5.NBT.A"}},
		{ID: "5.NBT.A", Level: taxonomy.LevelCluster, Description: "Understand the place value system.", Children: nil},
	})
}

func TestBuildPrompt(t *testing.T) {
	p := &problems.Problem{
		ID:       "p1",
		Text:     "Which equation shows 35 = 5 x 7 as a comparison?",
		Metadata: map[string]any{"grade": "grade-4"},
	}

	got := BuildPrompt(promptStore(), p)
	want := `You are a K-12 math curriculum expert. Given this math problem, identify which Common Core standard(s) it directly addresses (the "Addressing" relation).

Use this standards hierarchy to narrow your answer:
Domain 4.OA: Operations and Algebraic Thinking
  Cluster 4.OA.A (major cluster): Use the four operations with whole numbers to solve problems.
    Standard 4.OA.A.1: Interpret a multiplication equation as a comparison.

Problem: Which equation shows 35 = 5 x 7 as a comparison?

Return ONLY a JSON array of standard codes, e.g. ["4.NBT.A.1", "4.OA.A.3"].`
	if got != want {
		t.Errorf("BuildPrompt = %q, want %q", got, want)
	}
}

func TestBuildPrompt_ScopeNarrowsHierarchy(t *testing.T) {
	p := &problems.Problem{
		ID:       "p1",
		Text:     "Round 3,482 to the nearest hundred.",
		Metadata: map[string]any{"grade / subject": "5th-grade"},
	}

	got := BuildPrompt(promptStore(), p)
	if !strings.Contains(got, "Domain 5.NBT") {
		t.Errorf("prompt missing in-scope domain:\n%s", got)
	}
	if strings.Contains(got, "Domain 4.OA") {
		t.Errorf("prompt leaked out-of-scope domain:\n%s", got)
	}
}

func TestBuildPrompt_UnscopedIncludesEverything(t *testing.T) {
	p := &problems.Problem{ID: "p1", Text: "Solve."}

	got := BuildPrompt(promptStore(), p)
	if !strings.Contains(got, "Domain 4.OA") || !strings.Contains(got, "Domain 5.NBT") {
		t.Errorf("unscoped prompt should list every domain:\n%s", got)
	}
}

func TestBuildPrompt_InlinesElements(t *testing.T) {
	p := &problems.Problem{
		ID:       "p1",
		Text:     "Use the table: ###TABLE0###",
		Elements: map[string]string{"###TABLE0###": "<table><tr><td>7</td></tr></table>"},
	}

	got := BuildPrompt(promptStore(), p)
	if !strings.Contains(got, "Problem: Use the table: 7") {
		t.Errorf("prompt should inline element text:\n%s", got)
	}
}
