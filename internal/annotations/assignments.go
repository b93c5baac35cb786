package annotations

import (
	"encoding/json"
	"fmt"
	"math/rand"
	"os"
	"path/filepath"

	"github.com/mathfish/mathfish/internal/problems"
)

// Assignment lists one annotator's problems. SharedIDs are annotated by
// everyone, UniqueIDs only by this annotator, and AllIDs is shared
// followed by unique in presentation order.
type Assignment struct {
	SharedIDs []string `json:"shared_ids"`
	UniqueIDs []string `json:"unique_ids"`
	AllIDs    []string `json:"all_ids"`
}

// Plan is the persisted assignment plan (assignments.json).
type Plan struct {
	Seed         int64                  `json:"seed"`
	OverlapCount int                    `json:"overlap_count"`
	UniqueCount  int                    `json:"unique_count"`
	Annotators   []string               `json:"annotators"`
	Assignments  map[string]*Assignment `json:"assignments"`
	SharedIDs    []string               `json:"shared_ids"`
}

// BuildPlan shuffles the eligible problems with the seed, deals the
// first overlap problems to every annotator, then deals unique slices
// in annotator order. It returns the plan and the assigned problems
// keyed by id. The same seed always produces the same plan.
func BuildPlan(eligible []*problems.Problem, annotators []string, overlap, unique int, seed int64) (*Plan, map[string]*problems.Problem) {
	shuffled := make([]*problems.Problem, len(eligible))
	copy(shuffled, eligible)
	rng := rand.New(rand.NewSource(seed))
	rng.Shuffle(len(shuffled), func(i, j int) {
		shuffled[i], shuffled[j] = shuffled[j], shuffled[i]
	})

	sharedEnd := min(overlap, len(shuffled))
	shared := shuffled[:sharedEnd]
	rest := shuffled[sharedEnd:]

	sharedIDs := make([]string, 0, len(shared))
	for _, p := range shared {
		sharedIDs = append(sharedIDs, p.ID)
	}

	assigned := make(map[string]*problems.Problem)
	for _, p := range shared {
		assigned[p.ID] = p
	}

	plan := &Plan{
		Seed:         seed,
		OverlapCount: overlap,
		UniqueCount:  unique,
		Annotators:   append([]string{}, annotators...),
		Assignments:  make(map[string]*Assignment, len(annotators)),
		SharedIDs:    sharedIDs,
	}

	for i, name := range annotators {
		start := min(i*unique, len(rest))
		end := min(start+unique, len(rest))
		uniqueIDs := make([]string, 0, end-start)
		for _, p := range rest[start:end] {
			uniqueIDs = append(uniqueIDs, p.ID)
			assigned[p.ID] = p
		}

		allIDs := make([]string, 0, len(sharedIDs)+len(uniqueIDs))
		allIDs = append(allIDs, sharedIDs...)
		allIDs = append(allIDs, uniqueIDs...)

		plan.Assignments[name] = &Assignment{
			SharedIDs: sharedIDs,
			UniqueIDs: uniqueIDs,
			AllIDs:    allIDs,
		}
	}

	return plan, assigned
}

// Shortfall reports how many more eligible problems would be needed to
// fill every assignment, or 0 when the pool suffices.
func Shortfall(eligibleCount, annotatorCount, overlap, unique int) int {
	need := overlap + annotatorCount*unique
	if eligibleCount >= need {
		return 0
	}
	return need - eligibleCount
}

// LoadPlan reads an assignment plan from disk.
func LoadPlan(path string) (*Plan, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("opening assignments file: %w", err)
	}
	plan := &Plan{}
	if err := json.Unmarshal(data, plan); err != nil {
		return nil, fmt.Errorf("parsing %s: %w", path, err)
	}
	return plan, nil
}

// WritePlan writes an assignment plan, creating parent directories as
// needed.
func WritePlan(path string, plan *Plan) error {
	if dir := filepath.Dir(path); dir != "." && dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("creating output directory: %w", err)
		}
	}
	data, err := json.MarshalIndent(plan, "", "  ")
	if err != nil {
		return fmt.Errorf("encoding assignments: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("writing assignments file: %w", err)
	}
	return nil
}
