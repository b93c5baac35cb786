// Package annotations stores human annotation records and the
// assignment plan that distributes problems across annotators.
package annotations

import "encoding/json"

// StandardRef identifies one selected standard in an annotation. The
// wire format accepts either a bare code string or an object carrying
// an "id" field; older annotation logs use the object form.
type StandardRef struct {
	ID string
}

func (r *StandardRef) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err == nil {
		r.ID = s
		return nil
	}
	var obj struct {
		ID string `json:"id"`
	}
	if err := json.Unmarshal(data, &obj); err != nil {
		return err
	}
	r.ID = obj.ID
	return nil
}

func (r StandardRef) MarshalJSON() ([]byte, error) {
	return json.Marshal(r.ID)
}

// Record is one saved annotation: the standards an annotator selected
// for a problem, or a skip.
type Record struct {
	ProblemID string        `json:"problem_id"`
	Annotator string        `json:"annotator"`
	Standards []StandardRef `json:"standards"`
	Notes     string        `json:"notes"`
	Skipped   bool          `json:"skipped"`
}

// Codes returns the selected standard codes in record order.
func (r *Record) Codes() []string {
	if len(r.Standards) == 0 {
		return nil
	}
	out := make([]string, 0, len(r.Standards))
	for _, ref := range r.Standards {
		out = append(out, ref.ID)
	}
	return out
}
