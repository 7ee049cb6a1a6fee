// Package index defines the vector index capability: a write path for
// embedded, term-weighted records and a query path for hybrid dense+sparse
// retrieval with structured metadata filters.
package index

import (
	"context"

	"github.com/incidentlabs/hybrid-index/internal/data"
)

// Record is one indexable unit: an identifier, a dense embedding, a sparse
// term-frequency vector and a metadata payload used for filtering and display.
type Record struct {
	ID       string
	Dense    []float32
	Sparse   data.SparseVector
	Metadata map[string]any
}

// QueryRequest asks for the TopK nearest records under the index's distance
// metric. Dense and Sparse carry already-scaled query vectors; a nil Filter
// means "match all". WithMetadata controls payload inclusion in the hits.
type QueryRequest struct {
	TopK         int
	Dense        []float32
	Sparse       data.SparseVector
	Filter       *Filter
	WithMetadata bool
}

// Hit is one ranked query result.
type Hit struct {
	ID       string
	Score    float64
	Metadata map[string]any
}

// Index is the external vector index capability. Implementations must reject
// dimensionality mismatches at write and query time instead of truncating or
// padding, and must pass filters through to their native filtering engine.
type Index interface {
	EnsureCollection(ctx context.Context) error
	Upsert(ctx context.Context, records []Record) error
	Query(ctx context.Context, req QueryRequest) ([]Hit, error)
	Count(ctx context.Context) (uint64, error)
	Close() error
}
