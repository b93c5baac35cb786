package baseline

import (
	"context"

	"github.com/mathfish/mathfish/internal/pkg/logger"
	"github.com/mathfish/mathfish/internal/problems"
	"github.com/mathfish/mathfish/internal/taxonomy"
)

// Memory is the in-process TF-IDF backend.
type Memory struct {
	index *Index
	log   *logger.Logger
}

// NewMemory builds an in-memory predictor over the candidates.
func NewMemory(candidates []taxonomy.Candidate, log *logger.Logger) *Memory {
	return &Memory{
		index: NewIndex(candidates),
		log:   log.WithComponent("baseline"),
	}
}

// Predict scores every candidate against each problem's normalized text
// and keeps the top k.
func (m *Memory) Predict(ctx context.Context, probs map[string]*problems.Problem, k int) (map[string][]string, error) {
	preds := make(map[string][]string, len(probs))
	for pid, p := range probs {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		preds[pid] = m.index.TopK(p.NormalizedText(), k)
	}
	m.log.Debug("Ran TF-IDF baseline", "problems", len(probs), "k", k, "corpus", m.index.Len())
	return preds, nil
}

// Close implements Predictor. The memory backend holds no resources.
func (m *Memory) Close() error {
	return nil
}
