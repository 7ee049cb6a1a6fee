package index

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/incidentlabs/hybrid-index/internal/data"
)

// Memory is an in-process index keeping records in a map. It scores queries
// with a dot product over the concatenated dense+sparse contribution, the
// same metric the Qdrant collection is configured with. Used by tests and
// index-free local runs.
type Memory struct {
	mu        sync.RWMutex
	dimension int
	records   map[string]Record
}

// NewMemory creates an empty in-memory index for vectors of the given
// dimensionality.
func NewMemory(dimension int) *Memory {
	return &Memory{
		dimension: dimension,
		records:   make(map[string]Record),
	}
}

// EnsureCollection is a no-op for the in-memory index.
func (m *Memory) EnsureCollection(ctx context.Context) error { return nil }

// Upsert stores records, replacing any existing record with the same ID.
// Records whose dense vector does not match the configured dimensionality are
// rejected before anything is written.
func (m *Memory) Upsert(ctx context.Context, records []Record) error {
	for i, rec := range records {
		if len(rec.Dense) != m.dimension {
			return fmt.Errorf("%w: record %d has %d dimensions, expected %d",
				ErrDimensionMismatch, i, len(rec.Dense), m.dimension)
		}
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, rec := range records {
		m.records[rec.ID] = rec
	}
	return nil
}

// Query scans all records, applies the filter and returns the TopK highest
// scoring hits under dense·q + sparse·q.
func (m *Memory) Query(ctx context.Context, req QueryRequest) ([]Hit, error) {
	if len(req.Dense) > 0 && len(req.Dense) != m.dimension {
		return nil, fmt.Errorf("%w: query has %d dimensions, expected %d",
			ErrDimensionMismatch, len(req.Dense), m.dimension)
	}
	if err := req.Filter.Validate(); err != nil {
		return nil, err
	}

	m.mu.RLock()
	defer m.mu.RUnlock()

	hits := make([]Hit, 0, len(m.records))
	for _, rec := range m.records {
		if !req.Filter.Matches(rec.Metadata) {
			continue
		}
		score := dot(req.Dense, rec.Dense) + req.Sparse.Dot(rec.Sparse)
		hit := Hit{ID: rec.ID, Score: score}
		if req.WithMetadata {
			// Cloned so a caller mutating a hit cannot reach the stored record.
			hit.Metadata = data.Properties(rec.Metadata).Clone()
		}
		hits = append(hits, hit)
	}

	sort.Slice(hits, func(i, j int) bool {
		if hits[i].Score != hits[j].Score {
			return hits[i].Score > hits[j].Score
		}
		return hits[i].ID < hits[j].ID
	})
	if req.TopK > 0 && len(hits) > req.TopK {
		hits = hits[:req.TopK]
	}
	return hits, nil
}

// Count returns the number of stored records.
func (m *Memory) Count(ctx context.Context) (uint64, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return uint64(len(m.records)), nil
}

// Get returns a stored record by ID.
func (m *Memory) Get(id string) (Record, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	rec, ok := m.records[id]
	return rec, ok
}

// ListPaths returns the distinct source paths across stored records, sorted.
func (m *Memory) ListPaths(ctx context.Context) ([]string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	seen := make(map[string]struct{})
	for _, rec := range m.records {
		if path, ok := rec.Metadata["path"].(string); ok && path != "" {
			seen[path] = struct{}{}
		}
	}
	paths := make([]string, 0, len(seen))
	for path := range seen {
		paths = append(paths, path)
	}
	sort.Strings(paths)
	return paths, nil
}

// GetByPath returns the records stored for a source path in chunk order.
func (m *Memory) GetByPath(ctx context.Context, path string) ([]Record, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var records []Record
	for _, rec := range m.records {
		if p, ok := rec.Metadata["path"].(string); ok && p == path {
			records = append(records, rec)
		}
	}
	if len(records) == 0 {
		return nil, ErrDocumentNotFound
	}
	sort.Slice(records, func(i, j int) bool {
		ci, _ := asFloat(records[i].Metadata["chunk_index"])
		cj, _ := asFloat(records[j].Metadata["chunk_index"])
		return ci < cj
	})
	return records, nil
}

// Health reports the in-memory index as always reachable.
func (m *Memory) Health(ctx context.Context) error { return nil }

// Close is a no-op for the in-memory index.
func (m *Memory) Close() error { return nil }

func dot(a []float32, b []float32) float64 {
	n := len(a)
	if len(b) < n {
		n = len(b)
	}
	var sum float64
	for i := 0; i < n; i++ {
		sum += float64(a[i]) * float64(b[i])
	}
	return sum
}
