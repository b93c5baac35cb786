// Package problems models the source math problems, their publisher
// labels, and annotation eligibility.
package problems

import (
	"encoding/json"
	"fmt"

	"github.com/mathfish/mathfish/internal/codes"
)

// StandardLabel is a publisher-provided [relation, code] pair.
type StandardLabel struct {
	Relation string
	Code     string
}

// UnmarshalJSON reads the two-element array form.
func (s *StandardLabel) UnmarshalJSON(data []byte) error {
	var pair []string
	if err := json.Unmarshal(data, &pair); err != nil {
		return err
	}
	if len(pair) != 2 {
		return fmt.Errorf("standard label must be a [relation, code] pair, got %d elements", len(pair))
	}
	s.Relation = pair[0]
	s.Code = pair[1]
	return nil
}

// MarshalJSON writes the two-element array form.
func (s StandardLabel) MarshalJSON() ([]byte, error) {
	return json.Marshal([]string{s.Relation, s.Code})
}

// Problem is one item of the source dataset.
type Problem struct {
	ID          string            `json:"id"`
	Text        string            `json:"text"`
	Source      string            `json:"source,omitempty"`
	Metadata    map[string]any    `json:"metadata,omitempty"`
	Elements    map[string]string `json:"elements,omitempty"`
	Standards   []StandardLabel   `json:"standards,omitempty"`
	NumProblems int               `json:"num_problems,omitempty"`
	HasImage    bool              `json:"has_image,omitempty"`
	IsDuplicate bool              `json:"is_duplicate,omitempty"`
}

// NormalizedText returns the problem text with element HTML inlined and
// whitespace collapsed.
func (p *Problem) NormalizedText() string {
	return NormalizeText(p.Text, p.Elements)
}

// Scope derives the grade/subject scope from the problem metadata.
func (p *Problem) Scope() codes.Scope {
	return codes.ScopeFromMetadata(p.Metadata)
}

// publisherRelations are the relations that count as gold labels.
var publisherRelations = map[string]bool{
	"Addressing": true,
	"Alignment":  true,
}

// GoldSet returns the problem's gold label set: the codes of its
// Addressing and Alignment standards.
func (p *Problem) GoldSet() codes.Set {
	labels := codes.NewSet()
	for _, s := range p.Standards {
		if publisherRelations[s.Relation] {
			labels.Add(s.Code)
		}
	}
	return labels
}

// GoldLabels builds the gold label sets for a problem map. Every problem
// gets an entry, so unlabeled problems contribute empty sets.
func GoldLabels(problems map[string]*Problem) map[string]codes.Set {
	gold := make(map[string]codes.Set, len(problems))
	for pid, p := range problems {
		gold[pid] = p.GoldSet()
	}
	return gold
}
