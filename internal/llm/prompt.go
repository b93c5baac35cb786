package llm

import (
	"fmt"

	"github.com/mathfish/mathfish/internal/problems"
	"github.com/mathfish/mathfish/internal/taxonomy"
)

const promptTemplate = `You are a K-12 math curriculum expert. Given this math problem, identify which Common Core standard(s) it directly addresses (the "Addressing" relation).

Use this standards hierarchy to narrow your answer:
%s

Problem: %s

Return ONLY a JSON array of standard codes, e.g. ["4.NBT.A.1", "4.OA.A.3"].`

// BuildPrompt renders the annotation prompt for one problem. The
// taxonomy is narrowed to the problem's grade scope so the model picks
// from standards it could plausibly address.
func BuildPrompt(store *taxonomy.Store, p *problems.Problem) string {
	hierarchy := store.RenderText(p.Scope())
	return fmt.Sprintf(promptTemplate, hierarchy, p.NormalizedText())
}
