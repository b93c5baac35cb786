package annotations

import (
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"testing"
)

func TestMemoryStorage(t *testing.T) {
	s := NewMemoryStorage()

	records := []*Record{
		{ProblemID: "p1", Annotator: "alice", Standards: []StandardRef{{ID: "4.OA.A.1"}}},
		{ProblemID: "p2", Annotator: "alice", Skipped: true},
		{ProblemID: "p1", Annotator: "bob", Standards: []StandardRef{{ID: "4.OA.A.3"}}},
	}
	for _, rec := range records {
		if err := s.Append(rec); err != nil {
			t.Fatalf("append: %v", err)
		}
	}

	alice, err := s.Load("alice")
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if len(alice) != 2 {
		t.Fatalf("got %d records for alice, want 2", len(alice))
	}
	if !alice["p2"].Skipped {
		t.Error("p2 should be skipped")
	}

	names, err := s.Annotators()
	if err != nil {
		t.Fatalf("annotators: %v", err)
	}
	if want := []string{"alice", "bob"}; !reflect.DeepEqual(names, want) {
		t.Errorf("annotators = %v, want %v", names, want)
	}
}

func TestMemoryStorage_LaterRecordWins(t *testing.T) {
	s := NewMemoryStorage()
	first := &Record{ProblemID: "p1", Annotator: "alice", Standards: []StandardRef{{ID: "4.OA.A.1"}}}
	second := &Record{ProblemID: "p1", Annotator: "alice", Standards: []StandardRef{{ID: "4.NF.B.3"}}}
	if err := s.Append(first); err != nil {
		t.Fatalf("append: %v", err)
	}
	if err := s.Append(second); err != nil {
		t.Fatalf("append: %v", err)
	}

	records, err := s.Load("alice")
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if got := records["p1"].Codes(); !reflect.DeepEqual(got, []string{"4.NF.B.3"}) {
		t.Errorf("latest record should win, got %v", got)
	}
}

func TestFileStorage_AppendAndLoad(t *testing.T) {
	dir := t.TempDir()
	s := NewFileStorage(dir)

	records := []*Record{
		{ProblemID: "p1", Annotator: "alice", Standards: []StandardRef{{ID: "4.OA.A.1"}}},
		{ProblemID: "p2", Annotator: "alice", Notes: "unsure", Skipped: true},
		{ProblemID: "p1", Annotator: "alice", Standards: []StandardRef{{ID: "4.NF.B.3"}}},
	}
	for _, rec := range records {
		if err := s.Append(rec); err != nil {
			t.Fatalf("append: %v", err)
		}
	}

	data, err := os.ReadFile(filepath.Join(dir, "alice_annotations.jsonl"))
	if err != nil {
		t.Fatalf("reading log: %v", err)
	}
	if lines := strings.Count(string(data), "\n"); lines != 3 {
		t.Errorf("log should keep every append, got %d lines", lines)
	}

	loaded, err := s.Load("alice")
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if len(loaded) != 2 {
		t.Fatalf("got %d records, want 2", len(loaded))
	}
	if got := loaded["p1"].Codes(); !reflect.DeepEqual(got, []string{"4.NF.B.3"}) {
		t.Errorf("latest record should win, got %v", got)
	}
	if loaded["p2"].Notes != "unsure" || !loaded["p2"].Skipped {
		t.Errorf("skip record mangled: %+v", loaded["p2"])
	}
}

func TestFileStorage_LoadMissing(t *testing.T) {
	s := NewFileStorage(t.TempDir())
	records, err := s.Load("nobody")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(records) != 0 {
		t.Errorf("got %d records, want 0", len(records))
	}
}

func TestFileStorage_JSONArrayFormat(t *testing.T) {
	dir := t.TempDir()
	content := `[
		{"problem_id": "p1", "annotator": "carol", "standards": [{"id": "4.OA.A.1"}], "notes": "", "skipped": false},
		{"problem_id": "p2", "annotator": "carol", "standards": [], "notes": "", "skipped": true}
	]`
	if err := os.WriteFile(filepath.Join(dir, "carol_annotations.json"), []byte(content), 0o644); err != nil {
		t.Fatalf("writing log: %v", err)
	}

	s := NewFileStorage(dir)
	records, err := s.Load("carol")
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if len(records) != 2 {
		t.Fatalf("got %d records, want 2", len(records))
	}
	if got := records["p1"].Codes(); !reflect.DeepEqual(got, []string{"4.OA.A.1"}) {
		t.Errorf("codes = %v, want [4.OA.A.1]", got)
	}
	if !records["p2"].Skipped {
		t.Error("p2 should be skipped")
	}
}

func TestFileStorage_Annotators(t *testing.T) {
	dir := t.TempDir()
	files := []string{"bob_annotations.jsonl", "alice_annotations.jsonl", "carol_annotations.json", "readme.txt"}
	for _, name := range files {
		if err := os.WriteFile(filepath.Join(dir, name), nil, 0o644); err != nil {
			t.Fatalf("writing %s: %v", name, err)
		}
	}
	if err := os.Mkdir(filepath.Join(dir, "backup_annotations.jsonl"), 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}

	s := NewFileStorage(dir)
	names, err := s.Annotators()
	if err != nil {
		t.Fatalf("annotators: %v", err)
	}
	if want := []string{"alice", "bob", "carol"}; !reflect.DeepEqual(names, want) {
		t.Errorf("annotators = %v, want %v", names, want)
	}
}

func TestFileStorage_AnnotatorsMissingDir(t *testing.T) {
	s := NewFileStorage(filepath.Join(t.TempDir(), "nope"))
	names, err := s.Annotators()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(names) != 0 {
		t.Errorf("got %v, want none", names)
	}
}

func TestAnnotatorFromFilename(t *testing.T) {
	tests := []struct {
		in     string
		want   string
		wantOK bool
	}{
		{"alice_annotations.jsonl", "alice", true},
		{"bob_annotations.json", "bob", true},
		{"annotations/carol_annotations.jsonl", "carol", true},
		{"_annotations.jsonl", "", false},
		{"alice.jsonl", "", false},
		{"notes.txt", "", false},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, ok := AnnotatorFromFilename(tt.in)
			if ok != tt.wantOK || got != tt.want {
				t.Errorf("AnnotatorFromFilename(%q) = %q, %v; want %q, %v", tt.in, got, ok, tt.want, tt.wantOK)
			}
		})
	}
}

func TestLoadAll(t *testing.T) {
	s := NewMemoryStorage()
	if err := s.Append(&Record{ProblemID: "p1", Annotator: "bob", Standards: []StandardRef{{ID: "4.OA.A.1"}}}); err != nil {
		t.Fatalf("append: %v", err)
	}
	if err := s.Append(&Record{ProblemID: "p1", Annotator: "alice", Standards: []StandardRef{{ID: "4.OA.A.3"}}}); err != nil {
		t.Fatalf("append: %v", err)
	}

	all, names, err := LoadAll(s)
	if err != nil {
		t.Fatalf("load all: %v", err)
	}
	if want := []string{"alice", "bob"}; !reflect.DeepEqual(names, want) {
		t.Errorf("names = %v, want %v", names, want)
	}
	if len(all) != 2 || all["alice"]["p1"] == nil || all["bob"]["p1"] == nil {
		t.Errorf("unexpected records: %v", all)
	}
}
