// Package benchmark reads and writes prediction files and renders the
// comparison reports printed by the eval and llm commands. Predictions
// travel as JSONL, one problem per line.
package benchmark

import (
	"bufio"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"github.com/mathfish/mathfish/internal/codes"
	"github.com/mathfish/mathfish/internal/evaluation"
)

// Prediction is one line of a predictions JSONL file.
type Prediction struct {
	ProblemID string   `json:"problem_id"`
	Predicted []string `json:"predicted"`
}

// WritePredictions writes predictions as JSONL in sorted problem-id
// order, creating parent directories as needed. A problem with no
// predicted codes is written with an empty array.
func WritePredictions(path string, preds map[string][]string) error {
	if dir := filepath.Dir(path); dir != "." && dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("creating predictions directory: %w", err)
		}
	}

	pids := make([]string, 0, len(preds))
	for pid := range preds {
		pids = append(pids, pid)
	}
	sort.Strings(pids)

	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("creating predictions file: %w", err)
	}
	defer f.Close()

	w := bufio.NewWriter(f)
	enc := json.NewEncoder(w)
	for _, pid := range pids {
		rec := Prediction{ProblemID: pid, Predicted: preds[pid]}
		if rec.Predicted == nil {
			rec.Predicted = []string{}
		}
		if err := enc.Encode(rec); err != nil {
			return fmt.Errorf("encoding prediction for %s: %w", pid, err)
		}
	}
	if err := w.Flush(); err != nil {
		return fmt.Errorf("writing predictions file: %w", err)
	}
	return nil
}

// LoadPredictions reads a predictions JSONL file into label sets. Blank
// lines are skipped and a duplicate problem id keeps the later line.
func LoadPredictions(path string) (evaluation.LabelSets, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening predictions file: %w", err)
	}
	defer f.Close()

	preds := make(evaluation.LabelSets)
	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 64*1024), 4*1024*1024)
	lineNo := 0
	for scanner.Scan() {
		lineNo++
		line := scanner.Bytes()
		if len(line) == 0 {
			continue
		}
		var rec Prediction
		if err := json.Unmarshal(line, &rec); err != nil {
			return nil, fmt.Errorf("parsing %s line %d: %w", path, lineNo, err)
		}
		preds[rec.ProblemID] = codes.NewSet(rec.Predicted...)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("reading predictions file: %w", err)
	}
	return preds, nil
}

// ToLabelSets converts a prediction map to label sets for evaluation.
func ToLabelSets(preds map[string][]string) evaluation.LabelSets {
	out := make(evaluation.LabelSets, len(preds))
	for pid, cs := range preds {
		out[pid] = codes.NewSet(cs...)
	}
	return out
}
