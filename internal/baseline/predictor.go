// Package baseline predicts standards for problems by lexical
// similarity between problem text and standard descriptions.
package baseline

import (
	"context"
	"fmt"
	"strings"

	"github.com/mathfish/mathfish/internal/config"
	"github.com/mathfish/mathfish/internal/pkg/errors"
	"github.com/mathfish/mathfish/internal/pkg/logger"
	"github.com/mathfish/mathfish/internal/problems"
	"github.com/mathfish/mathfish/internal/qdrant"
	"github.com/mathfish/mathfish/internal/taxonomy"
)

// Predictor predicts standard codes for problems.
type Predictor interface {
	// Predict returns up to k predicted codes per problem id, best
	// first.
	Predict(ctx context.Context, probs map[string]*problems.Problem, k int) (map[string][]string, error)

	// Close releases backend resources.
	Close() error
}

// New creates a predictor for the configured backend over the given
// candidate standards.
func New(ctx context.Context, cfg *config.Config, candidates []taxonomy.Candidate, log *logger.Logger) (Predictor, error) {
	switch strings.ToLower(cfg.Baseline.Type) {
	case "memory", "":
		return NewMemory(candidates, log), nil

	case "qdrant":
		clientCfg, err := qdrant.ConfigFromURL(cfg.Qdrant.URL, cfg.Qdrant.APIKey, cfg.Qdrant.CollectionPrefix)
		if err != nil {
			return nil, errors.QdrantError("parsing qdrant url", err)
		}
		client, err := qdrant.NewClient(clientCfg)
		if err != nil {
			return nil, errors.QdrantError("connecting to qdrant", err)
		}
		q := NewQdrant(client, candidates, log)
		if err := q.EnsureIndexed(ctx); err != nil {
			client.Close()
			return nil, err
		}
		return q, nil

	default:
		return nil, errors.New(errors.CodeValidation, fmt.Sprintf("unknown baseline type: %s", cfg.Baseline.Type))
	}
}
