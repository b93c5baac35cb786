package annotations

import (
	"encoding/json"
	"reflect"
	"testing"
)

func TestStandardRef_UnmarshalJSON(t *testing.T) {
	tests := []struct {
		name    string
		in      string
		want    string
		wantErr bool
	}{
		{"bare string", `"4.NF.B.3"`, "4.NF.B.3", false},
		{"object form", `{"id": "4.NF.B.3"}`, "4.NF.B.3", false},
		{"object with extra fields", `{"id": "A-APR.1", "description": "polynomials"}`, "A-APR.1", false},
		{"number", `42`, "", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var ref StandardRef
			err := json.Unmarshal([]byte(tt.in), &ref)
			if tt.wantErr {
				if err == nil {
					t.Fatal("expected error, got nil")
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if ref.ID != tt.want {
				t.Errorf("got %q, want %q", ref.ID, tt.want)
			}
		})
	}
}

func TestStandardRef_MarshalJSON(t *testing.T) {
	data, err := json.Marshal(StandardRef{ID: "4.NF.B.3"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if string(data) != `"4.NF.B.3"` {
		t.Errorf("got %s, want a bare string", data)
	}
}

func TestRecord_Codes(t *testing.T) {
	rec := &Record{
		ProblemID: "p1",
		Annotator: "alice",
		Standards: []StandardRef{{ID: "4.NF.B.3"}, {ID: "4.NF.B.3a"}},
	}
	got := rec.Codes()
	want := []string{"4.NF.B.3", "4.NF.B.3a"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("got %v, want %v", got, want)
	}

	skipped := &Record{ProblemID: "p2", Annotator: "alice", Skipped: true}
	if got := skipped.Codes(); got != nil {
		t.Errorf("skipped record should have no codes, got %v", got)
	}
}

func TestRecord_JSONRoundTrip(t *testing.T) {
	in := `{"problem_id": "p1", "annotator": "alice", "standards": [{"id": "4.OA.A.3"}, "4.OA.A.1"], "notes": "two-step", "skipped": false}`

	var rec Record
	if err := json.Unmarshal([]byte(in), &rec); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if rec.ProblemID != "p1" || rec.Annotator != "alice" || rec.Notes != "two-step" {
		t.Errorf("unexpected fields: %+v", rec)
	}
	if want := []string{"4.OA.A.3", "4.OA.A.1"}; !reflect.DeepEqual(rec.Codes(), want) {
		t.Errorf("codes = %v, want %v", rec.Codes(), want)
	}

	data, err := json.Marshal(&rec)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	var again Record
	if err := json.Unmarshal(data, &again); err != nil {
		t.Fatalf("re-unmarshal: %v", err)
	}
	if !reflect.DeepEqual(again.Codes(), rec.Codes()) {
		t.Errorf("codes changed across round trip: %v vs %v", again.Codes(), rec.Codes())
	}
}
