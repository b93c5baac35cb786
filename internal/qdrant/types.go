// Package qdrant wraps the Qdrant Go client with the sparse-vector
// operations the standards index needs.
package qdrant

import (
	"time"
)

// CollectionConfig defines the configuration for creating a collection.
type CollectionConfig struct {
	// Name is the collection name (prefixed per the client config).
	Name string

	// OnDiskPayload stores payload on disk to save RAM.
	OnDiskPayload bool

	// IndexingThreshold is the number of vectors before the index is built.
	IndexingThreshold uint64

	// MemmapThreshold is the number of vectors before memory-mapping is used.
	MemmapThreshold uint64
}

// DefaultCollectionConfig returns sensible defaults for a standards
// collection. The corpus is a few thousand points, far below the
// thresholds, so Qdrant keeps everything in memory.
func DefaultCollectionConfig(name string) CollectionConfig {
	return CollectionConfig{
		Name:              name,
		OnDiskPayload:     false,
		IndexingThreshold: 20000,
		MemmapThreshold:   50000,
	}
}

// Point represents a standard to upsert.
type Point struct {
	// ID is the unique point identifier (a UUID derived from the code).
	ID string

	// SparseIndices are the vocabulary term IDs.
	SparseIndices []uint32

	// SparseValues are the term weights.
	SparseValues []float32

	// Payload is the metadata associated with this point.
	Payload PointPayload
}

// PointPayload carries the standard behind a point.
type PointPayload struct {
	Code        string    `json:"code"`
	Description string    `json:"description"`
	Level       string    `json:"level"`
	IndexedAt   time.Time `json:"indexed_at"`
}

// SearchRequest defines parameters for a sparse search.
type SearchRequest struct {
	// SparseIndices for the query vector.
	SparseIndices []uint32

	// SparseValues for the query vector.
	SparseValues []float32

	// Limit is the maximum number of results to return.
	Limit uint64

	// WithPayload includes payload in results.
	WithPayload bool
}

// SearchResult represents a single search result.
type SearchResult struct {
	// ID is the point identifier.
	ID string

	// Score is the relevance score.
	Score float32

	// Payload contains the point metadata.
	Payload PointPayload
}

// CollectionInfo contains information about a collection.
type CollectionInfo struct {
	// Name is the collection name (without prefix).
	Name string

	// PointsCount is the total number of points.
	PointsCount uint64

	// Status is the collection health status.
	Status string

	// SegmentsCount is the number of segments.
	SegmentsCount uint64
}
