package problems

import (
	"bufio"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"unicode/utf8"
)

// LoadTrain reads a JSONL training file. Blank lines are skipped and a
// malformed line fails the whole load.
func LoadTrain(path string) ([]*Problem, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening training file: %w", err)
	}
	defer f.Close()

	var out []*Problem
	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 64*1024), 4*1024*1024)
	lineNo := 0
	for scanner.Scan() {
		lineNo++
		line := scanner.Bytes()
		if len(line) == 0 {
			continue
		}
		p := &Problem{}
		if err := json.Unmarshal(line, p); err != nil {
			return nil, fmt.Errorf("parsing %s line %d: %w", path, lineNo, err)
		}
		if p.NumProblems == 0 {
			p.NumProblems = 1
		}
		out = append(out, p)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("reading training file: %w", err)
	}
	return out, nil
}

// LoadAssigned reads the assigned-problem map written by setup, keyed by
// problem id.
func LoadAssigned(path string) (map[string]*Problem, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("opening problems file: %w", err)
	}
	problems := make(map[string]*Problem)
	if err := json.Unmarshal(data, &problems); err != nil {
		return nil, fmt.Errorf("parsing %s: %w", path, err)
	}
	for _, p := range problems {
		if p.NumProblems == 0 {
			p.NumProblems = 1
		}
	}
	return problems, nil
}

// WriteAssigned writes the assigned-problem map, creating parent
// directories as needed.
func WriteAssigned(path string, problems map[string]*Problem) error {
	if dir := filepath.Dir(path); dir != "." && dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("creating output directory: %w", err)
		}
	}
	data, err := json.MarshalIndent(problems, "", "  ")
	if err != nil {
		return fmt.Errorf("encoding problems: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("writing problems file: %w", err)
	}
	return nil
}

// Eligible reports whether a problem qualifies for annotation: it has
// publisher standards, no image, is not a duplicate, and its raw text
// length is within [minLen, maxLen] runes.
func Eligible(p *Problem, minLen, maxLen int) bool {
	if len(p.Standards) == 0 || p.HasImage || p.IsDuplicate {
		return false
	}
	n := utf8.RuneCountInString(p.Text)
	return n >= minLen && n <= maxLen
}

// FilterEligible returns the eligible problems in input order.
func FilterEligible(all []*Problem, minLen, maxLen int) []*Problem {
	var out []*Problem
	for _, p := range all {
		if Eligible(p, minLen, maxLen) {
			out = append(out, p)
		}
	}
	return out
}
