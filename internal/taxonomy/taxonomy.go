// Package taxonomy loads the CCSS math standards file and serves lookups
// over it: flat candidate lists, keyword search, and the nested hierarchy
// view used by the annotation client and LLM prompts.
package taxonomy

import (
	"bufio"
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/mathfish/mathfish/internal/codes"
)

// Taxonomy levels as they appear in the standards file.
const (
	LevelGrade       = "Grade"
	LevelHSCategory  = "HS Category"
	LevelDomain      = "Domain"
	LevelCluster     = "Cluster"
	LevelStandard    = "Standard"
	LevelSubStandard = "Sub-standard"
)

// Entry is one line of the standards JSONL file.
type Entry struct {
	ID          string   `json:"id"`
	Description string   `json:"description"`
	Level       string   `json:"level"`
	ClusterType string   `json:"cluster_type,omitempty"`
	Parent      string   `json:"parent,omitempty"`
	Children    []string `json:"children,omitempty"`
}

// Candidate is a standard eligible for prediction or retrieval.
type Candidate struct {
	ID          string
	Description string
	Level       string
}

// ClusterTypeLabel returns the short display label for a cluster type.
func ClusterTypeLabel(clusterType string) string {
	switch clusterType {
	case "major cluster":
		return "[Major]"
	case "supporting cluster":
		return "[Supporting]"
	case "additional cluster":
		return "[Additional]"
	default:
		return ""
	}
}

// Store holds the loaded taxonomy, indexed by id and preserving file order.
type Store struct {
	entries map[string]*Entry
	order   []string
}

// NewStore builds a store from entries already in memory.
func NewStore(entries []*Entry) *Store {
	s := &Store{entries: make(map[string]*Entry, len(entries))}
	for _, entry := range entries {
		s.add(entry)
	}
	return s
}

// Load reads the standards JSONL file. Blank lines are skipped; a
// malformed line fails the whole load.
func Load(path string) (*Store, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening standards file: %w", err)
	}
	defer f.Close()

	store := &Store{entries: make(map[string]*Entry)}

	scanner := bufio.NewScanner(f)
	// Descriptions can push lines past the default token limit.
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)

	lineNum := 0
	for scanner.Scan() {
		lineNum++
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}

		var entry Entry
		if err := json.Unmarshal([]byte(line), &entry); err != nil {
			return nil, fmt.Errorf("parsing standards line %d: %w", lineNum, err)
		}
		store.add(&entry)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("reading standards file: %w", err)
	}

	return store, nil
}

// add indexes an entry. A duplicate id replaces the entry but keeps its
// original file position.
func (s *Store) add(entry *Entry) {
	if _, ok := s.entries[entry.ID]; !ok {
		s.order = append(s.order, entry.ID)
	}
	s.entries[entry.ID] = entry
}

// Get returns the entry with the given id.
func (s *Store) Get(id string) (*Entry, bool) {
	entry, ok := s.entries[id]
	return entry, ok
}

// Len returns the number of entries.
func (s *Store) Len() int {
	return len(s.order)
}

// Entries returns all entries in file order.
func (s *Store) Entries() []*Entry {
	out := make([]*Entry, 0, len(s.order))
	for _, id := range s.order {
		out = append(out, s.entries[id])
	}
	return out
}

// Children returns the resolved child entries of an entry, in the order
// the parent lists them. Dangling references are skipped.
func (s *Store) Children(entry *Entry) []*Entry {
	var out []*Entry
	for _, childID := range entry.Children {
		if child, ok := s.entries[childID]; ok {
			out = append(out, child)
		}
	}
	return out
}

// StandardIDs returns the ids of every Standard and Sub-standard entry.
func (s *Store) StandardIDs() codes.Set {
	ids := make(codes.Set)
	for _, id := range s.order {
		switch s.entries[id].Level {
		case LevelStandard, LevelSubStandard:
			ids.Add(id)
		}
	}
	return ids
}

// Candidates returns the Standard and Sub-standard entries inside the
// scope, in file order.
func (s *Store) Candidates(scope codes.Scope) []Candidate {
	var out []Candidate
	for _, id := range s.order {
		entry := s.entries[id]
		if entry.Level != LevelStandard && entry.Level != LevelSubStandard {
			continue
		}
		if !scope.ContainsCode(entry.ID) {
			continue
		}
		out = append(out, Candidate{ID: entry.ID, Description: entry.Description, Level: entry.Level})
	}
	return out
}

// searchableLevels are the levels included in keyword search.
var searchableLevels = map[string]bool{
	LevelDomain:      true,
	LevelCluster:     true,
	LevelStandard:    true,
	LevelSubStandard: true,
}

// Search returns entries whose description contains the keyword,
// case-insensitive. Grade and category headers are not searched.
func (s *Store) Search(keyword string) []*Entry {
	needle := strings.ToLower(strings.TrimSpace(keyword))
	if needle == "" {
		return nil
	}

	var out []*Entry
	for _, id := range s.order {
		entry := s.entries[id]
		if !searchableLevels[entry.Level] {
			continue
		}
		if strings.Contains(strings.ToLower(entry.Description), needle) {
			out = append(out, entry)
		}
	}
	return out
}

// GradeKeyFor walks the parent chain of an entry up to its owning grade
// id ("K" through "8", or "HS" for high-school entries). Entries without
// a resolvable parent return their own id.
func (s *Store) GradeKeyFor(entry *Entry) string {
	current := entry
	for {
		if current.Parent == "" {
			return current.ID
		}
		parent, ok := s.entries[current.Parent]
		if !ok {
			return current.ID
		}
		switch parent.Level {
		case LevelGrade:
			return parent.ID
		case LevelHSCategory:
			if hs, ok := s.entries[parent.Parent]; ok && hs.Level == LevelGrade {
				return hs.ID
			}
			return parent.ID
		}
		current = parent
	}
}
