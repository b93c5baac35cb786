package irr

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"github.com/mathfish/mathfish/internal/annotations"
	"github.com/mathfish/mathfish/internal/codes"
)

// LevelResult reports agreement at one granularity.
type LevelResult struct {
	Alpha      float64 `json:"alpha"`
	Items      int     `json:"items"`
	Annotators int     `json:"annotators"`
	Error      string  `json:"error,omitempty"`
}

// Results summarizes inter-rater reliability across granularities.
type Results struct {
	Annotators  []string     `json:"annotators"`
	SharedCount int          `json:"shared_count"`
	Standard    *LevelResult `json:"standard"`
	Cluster     *LevelResult `json:"cluster"`
	Domain      *LevelResult `json:"domain"`
}

// Analyze computes Krippendorff's alpha at standard, cluster, and
// domain granularity over the shared problems. Matrix rows follow the
// given annotator order; the reported annotator list is sorted.
func Analyze(records map[string]map[string]*annotations.Record, annotators, sharedIDs []string) *Results {
	names := append([]string{}, annotators...)
	sort.Strings(names)

	res := &Results{
		Annotators:  names,
		SharedCount: len(sharedIDs),
	}
	res.Standard = analyzeLevel(records, annotators, sharedIDs, codes.GranularityStandard)
	res.Cluster = analyzeLevel(records, annotators, sharedIDs, codes.GranularityCluster)
	res.Domain = analyzeLevel(records, annotators, sharedIDs, codes.GranularityDomain)
	return res
}

func analyzeLevel(records map[string]map[string]*annotations.Record, annotators, sharedIDs []string, g codes.Granularity) *LevelResult {
	matrix, units := BuildMatrix(records, annotators, sharedIDs, g)
	result := &LevelResult{
		Items:      len(units),
		Annotators: len(matrix),
	}
	alpha, err := Alpha(matrix)
	if err != nil {
		result.Error = err.Error()
		return result
	}
	result.Alpha = alpha
	return result
}

// WriteResults writes the analysis as indented JSON, creating parent
// directories as needed.
func WriteResults(path string, res *Results) error {
	if dir := filepath.Dir(path); dir != "." && dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("creating output directory: %w", err)
		}
	}
	data, err := json.MarshalIndent(res, "", "  ")
	if err != nil {
		return fmt.Errorf("encoding results: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("writing results file: %w", err)
	}
	return nil
}
