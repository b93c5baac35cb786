package baseline

import (
	"context"
	"time"

	"github.com/mathfish/mathfish/internal/pkg/errors"
	"github.com/mathfish/mathfish/internal/pkg/hash"
	"github.com/mathfish/mathfish/internal/pkg/logger"
	"github.com/mathfish/mathfish/internal/problems"
	"github.com/mathfish/mathfish/internal/qdrant"
	"github.com/mathfish/mathfish/internal/taxonomy"
)

// standardsCollection is the collection name (before prefixing).
const standardsCollection = "standards"

// upsertBatchSize bounds one upsert request.
const upsertBatchSize = 256

// Qdrant stores the standard vectors in a Qdrant sparse collection and
// answers top-k queries from it. The vectorizer is shared with the
// memory backend so both produce the same weights.
type Qdrant struct {
	client     *qdrant.Client
	index      *Index
	candidates []taxonomy.Candidate
	log        *logger.Logger
}

// NewQdrant creates the Qdrant-backed predictor. Call EnsureIndexed
// before Predict.
func NewQdrant(client *qdrant.Client, candidates []taxonomy.Candidate, log *logger.Logger) *Qdrant {
	return &Qdrant{
		client:     client,
		index:      NewIndex(candidates),
		candidates: candidates,
		log:        log.WithComponent("baseline"),
	}
}

// EnsureIndexed creates the standards collection and upserts the corpus
// when the stored point count does not match it.
func (q *Qdrant) EnsureIndexed(ctx context.Context) error {
	if err := q.client.CreateCollection(ctx, qdrant.DefaultCollectionConfig(standardsCollection)); err != nil {
		return errors.QdrantError("creating standards collection", err)
	}

	info, err := q.client.GetCollectionInfo(ctx, standardsCollection)
	if err != nil {
		return errors.QdrantError("reading standards collection info", err)
	}

	points := q.buildPoints()
	if info.PointsCount == uint64(len(points)) {
		q.log.Debug("Standards collection up to date", "points", info.PointsCount)
		return nil
	}

	q.log.Info("Indexing standards into qdrant",
		"collection", standardsCollection,
		"have", info.PointsCount,
		"want", len(points),
	)
	if err := q.client.UpsertPointsBatch(ctx, standardsCollection, points, upsertBatchSize); err != nil {
		return errors.QdrantError("indexing standards", err)
	}
	return nil
}

// buildPoints vectorizes the candidates. Standards whose text yields no
// tokens are skipped.
func (q *Qdrant) buildPoints() []qdrant.Point {
	now := time.Now().UTC()
	points := make([]qdrant.Point, 0, q.index.Len())
	for i, c := range q.candidates {
		indices, values := q.index.DocVector(i)
		if len(indices) == 0 {
			continue
		}
		points = append(points, qdrant.Point{
			ID:            hash.PointUUID(c.ID),
			SparseIndices: indices,
			SparseValues:  values,
			Payload: qdrant.PointPayload{
				Code:        c.ID,
				Description: c.Description,
				Level:       c.Level,
				IndexedAt:   now,
			},
		})
	}
	return points
}

// Predict queries the collection once per problem.
func (q *Qdrant) Predict(ctx context.Context, probs map[string]*problems.Problem, k int) (map[string][]string, error) {
	preds := make(map[string][]string, len(probs))
	for pid, p := range probs {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		indices, values := q.index.SparseVector(p.NormalizedText())
		if len(indices) == 0 {
			preds[pid] = nil
			continue
		}

		results, err := q.client.SparseSearch(ctx, standardsCollection, qdrant.SearchRequest{
			SparseIndices: indices,
			SparseValues:  values,
			Limit:         uint64(k),
			WithPayload:   true,
		})
		if err != nil {
			return nil, errors.QdrantError("searching standards", err)
		}

		codes := make([]string, 0, len(results))
		for _, r := range results {
			if r.Payload.Code != "" {
				codes = append(codes, r.Payload.Code)
			}
		}
		preds[pid] = codes
	}
	return preds, nil
}

// Close closes the underlying client.
func (q *Qdrant) Close() error {
	return q.client.Close()
}
