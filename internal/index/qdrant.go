package index

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/qdrant/go-client/qdrant"
)

// Vector names inside the collection. Every record carries a dense embedding
// and a sparse term-frequency vector under these names.
const (
	DenseVectorName  = "dense"
	SparseVectorName = "lexical"
)

// QdrantConfig configures the Qdrant-backed index.
type QdrantConfig struct {
	Host       string
	Port       int
	Collection string
	Dimension  int
}

// Qdrant implements Index against a Qdrant collection with a named dense
// vector (dot-product distance) and a named sparse vector.
type Qdrant struct {
	client *qdrant.Client
	cfg    QdrantConfig
}

// NewQdrant creates a Qdrant client and verifies connectivity with
// exponential-backoff retry, failing fast if the server stays unreachable.
func NewQdrant(cfg QdrantConfig) (*Qdrant, error) {
	client, err := qdrant.NewClient(&qdrant.Config{
		Host: cfg.Host,
		Port: cfg.Port,
	})
	if err != nil {
		return nil, fmt.Errorf("create qdrant client: %w", err)
	}

	q := &Qdrant{client: client, cfg: cfg}
	if err := q.healthCheckWithRetry(context.Background()); err != nil {
		client.Close()
		return nil, fmt.Errorf("%w: %v", ErrIndexUnreachable, err)
	}
	return q, nil
}

func (q *Qdrant) healthCheckWithRetry(ctx context.Context) error {
	b := backoff.NewExponentialBackOff()
	b.InitialInterval = 500 * time.Millisecond
	b.MaxInterval = 10 * time.Second
	b.MaxElapsedTime = 30 * time.Second

	return backoff.Retry(func() error {
		return q.Health(ctx)
	}, backoff.WithContext(b, ctx))
}

// Health performs a single health check against the server.
func (q *Qdrant) Health(ctx context.Context) error {
	result, err := q.client.HealthCheck(ctx)
	if err != nil {
		return fmt.Errorf("health check failed: %w", err)
	}
	if result == nil || result.Title == "" {
		return fmt.Errorf("health check returned invalid response")
	}
	return nil
}

// EnsureCollection creates the collection if it does not exist: a named dense
// vector sized to the embedding model with dot-product distance, plus a named
// sparse vector for term weights. Payload indexes cover the metadata fields
// queries filter on. Idempotent.
func (q *Qdrant) EnsureCollection(ctx context.Context) error {
	collections, err := q.client.ListCollections(ctx)
	if err != nil {
		return fmt.Errorf("list collections: %w", err)
	}
	for _, name := range collections {
		if name == q.cfg.Collection {
			return nil
		}
	}

	err = q.client.CreateCollection(ctx, &qdrant.CreateCollection{
		CollectionName: q.cfg.Collection,
		VectorsConfig: qdrant.NewVectorsConfigMap(map[string]*qdrant.VectorParams{
			DenseVectorName: {
				Size:     uint64(q.cfg.Dimension),
				Distance: qdrant.Distance_Dot,
			},
		}),
		SparseVectorsConfig: qdrant.NewSparseVectorsConfig(map[string]*qdrant.SparseVectorParams{
			SparseVectorName: {},
		}),
	})
	if err != nil {
		return fmt.Errorf("create collection: %w", err)
	}

	return q.createPayloadIndexes(ctx)
}

// createPayloadIndexes indexes the fields filters commonly reference.
// Without these, payload filtering falls back to full scans.
func (q *Qdrant) createPayloadIndexes(ctx context.Context) error {
	keyword := []string{"path", "parent_id", "entity.aircraft", "entity.location"}
	integer := []string{"entity.day", "entity.month", "entity.year"}

	for _, field := range keyword {
		_, err := q.client.CreateFieldIndex(ctx, &qdrant.CreateFieldIndexCollection{
			CollectionName: q.cfg.Collection,
			FieldName:      field,
			FieldType:      qdrant.FieldType_FieldTypeKeyword.Enum(),
		})
		if err != nil {
			return fmt.Errorf("create index for field %s: %w", field, err)
		}
	}
	for _, field := range integer {
		_, err := q.client.CreateFieldIndex(ctx, &qdrant.CreateFieldIndexCollection{
			CollectionName: q.cfg.Collection,
			FieldName:      field,
			FieldType:      qdrant.FieldType_FieldTypeInteger.Enum(),
		})
		if err != nil {
			return fmt.Errorf("create index for field %s: %w", field, err)
		}
	}
	return nil
}

// ClearCollection drops and recreates the collection.
func (q *Qdrant) ClearCollection(ctx context.Context) error {
	if err := q.client.DeleteCollection(ctx, q.cfg.Collection); err != nil {
		return fmt.Errorf("delete collection: %w", err)
	}
	return q.EnsureCollection(ctx)
}

// Upsert writes records in batches of 100 with backoff retry. Dimension
// mismatches are rejected before any point is written.
func (q *Qdrant) Upsert(ctx context.Context, records []Record) error {
	if len(records) == 0 {
		return nil
	}
	for i, rec := range records {
		if len(rec.Dense) != q.cfg.Dimension {
			return fmt.Errorf("%w: record %d has %d dimensions, expected %d",
				ErrDimensionMismatch, i, len(rec.Dense), q.cfg.Dimension)
		}
	}

	const batchSize = 100
	for i := 0; i < len(records); i += batchSize {
		end := min(i+batchSize, len(records))
		batch := records[i:end]

		points := make([]*qdrant.PointStruct, len(batch))
		for j, rec := range batch {
			indices, values := rec.Sparse.Unzip()
			points[j] = &qdrant.PointStruct{
				Id: qdrant.NewIDUUID(rec.ID),
				Vectors: qdrant.NewVectorsMap(map[string]*qdrant.Vector{
					DenseVectorName:  qdrant.NewVector(rec.Dense...),
					SparseVectorName: qdrant.NewVectorSparse(indices, values),
				}),
				Payload: qdrant.NewValueMap(rec.Metadata),
			}
		}

		if err := q.upsertWithRetry(ctx, points); err != nil {
			return fmt.Errorf("upsert batch %d-%d: %w", i, end, err)
		}
	}
	return nil
}

func (q *Qdrant) upsertWithRetry(ctx context.Context, points []*qdrant.PointStruct) error {
	b := backoff.NewExponentialBackOff()
	b.InitialInterval = 500 * time.Millisecond
	b.MaxInterval = 10 * time.Second
	b.MaxElapsedTime = 30 * time.Second

	return backoff.Retry(func() error {
		_, err := q.client.Upsert(ctx, &qdrant.UpsertPoints{
			CollectionName: q.cfg.Collection,
			Points:         points,
		})
		return err
	}, backoff.WithContext(b, ctx))
}

// Query runs the hybrid query. Qdrant scores one named vector per request, so
// the dense and sparse contributions are fetched separately (each over an
// oversampled candidate set) and summed per point, which equals the dot
// product over the concatenated dense+sparse vector.
func (q *Qdrant) Query(ctx context.Context, req QueryRequest) ([]Hit, error) {
	if len(req.Dense) > 0 && len(req.Dense) != q.cfg.Dimension {
		return nil, fmt.Errorf("%w: query has %d dimensions, expected %d",
			ErrDimensionMismatch, len(req.Dense), q.cfg.Dimension)
	}
	if err := req.Filter.Validate(); err != nil {
		return nil, err
	}
	filter, err := toQdrantFilter(req.Filter)
	if err != nil {
		return nil, err
	}

	topK := req.TopK
	if topK <= 0 {
		topK = 10
	}
	candidates := uint64(topK * 4)

	type partial struct {
		score    float64
		metadata map[string]any
	}
	merged := make(map[string]*partial)

	runQuery := func(query *qdrant.Query, using string) error {
		results, err := q.client.Query(ctx, &qdrant.QueryPoints{
			CollectionName: q.cfg.Collection,
			Query:          query,
			Using:          &using,
			Filter:         filter,
			Limit:          qdrant.PtrOf(candidates),
			WithPayload:    qdrant.NewWithPayload(req.WithMetadata),
		})
		if err != nil {
			return fmt.Errorf("query %s vector: %w", using, err)
		}
		for _, res := range results {
			id := res.Id.GetUuid()
			p, ok := merged[id]
			if !ok {
				p = &partial{}
				merged[id] = p
			}
			p.score += float64(res.Score)
			if req.WithMetadata && p.metadata == nil {
				p.metadata = payloadToMap(res.Payload)
			}
		}
		return nil
	}

	if len(req.Dense) > 0 {
		if err := runQuery(qdrant.NewQuery(req.Dense...), DenseVectorName); err != nil {
			return nil, err
		}
	}
	if len(req.Sparse) > 0 {
		indices, values := req.Sparse.Unzip()
		if err := runQuery(qdrant.NewQuerySparse(indices, values), SparseVectorName); err != nil {
			return nil, err
		}
	}

	hits := make([]Hit, 0, len(merged))
	for id, p := range merged {
		hits = append(hits, Hit{ID: id, Score: p.score, Metadata: p.metadata})
	}
	sort.Slice(hits, func(i, j int) bool {
		if hits[i].Score != hits[j].Score {
			return hits[i].Score > hits[j].Score
		}
		return hits[i].ID < hits[j].ID
	})
	if len(hits) > topK {
		hits = hits[:topK]
	}
	return hits, nil
}

// Count returns the number of points in the collection.
func (q *Qdrant) Count(ctx context.Context) (uint64, error) {
	collection, err := q.client.GetCollectionInfo(ctx, q.cfg.Collection)
	if err != nil {
		return 0, fmt.Errorf("get collection: %w", err)
	}
	return collection.GetPointsCount(), nil
}

// ListPaths returns the distinct source paths present in the collection,
// sorted alphabetically.
func (q *Qdrant) ListPaths(ctx context.Context) ([]string, error) {
	seen := make(map[string]struct{})
	var offset *qdrant.PointId
	batchSize := uint32(100)

	for {
		results, err := q.client.Scroll(ctx, &qdrant.ScrollPoints{
			CollectionName: q.cfg.Collection,
			Limit:          qdrant.PtrOf(batchSize),
			Offset:         offset,
			WithPayload:    qdrant.NewWithPayloadInclude("path"),
		})
		if err != nil {
			return nil, fmt.Errorf("scroll points: %w", err)
		}
		for _, res := range results {
			if path := res.Payload["path"].GetStringValue(); path != "" {
				seen[path] = struct{}{}
			}
		}
		if uint32(len(results)) < batchSize {
			break
		}
		offset = results[len(results)-1].Id
	}

	paths := make([]string, 0, len(seen))
	for path := range seen {
		paths = append(paths, path)
	}
	sort.Strings(paths)
	return paths, nil
}

// GetByPath returns the chunk records stored for a source path, ordered by
// their position in the original document.
func (q *Qdrant) GetByPath(ctx context.Context, path string) ([]Record, error) {
	results, err := q.client.Scroll(ctx, &qdrant.ScrollPoints{
		CollectionName: q.cfg.Collection,
		Filter: &qdrant.Filter{
			Must: []*qdrant.Condition{qdrant.NewMatch("path", path)},
		},
		Limit:       qdrant.PtrOf(uint32(1000)),
		WithPayload: qdrant.NewWithPayload(true),
	})
	if err != nil {
		return nil, fmt.Errorf("scroll by path: %w", err)
	}
	if len(results) == 0 {
		return nil, ErrDocumentNotFound
	}

	records := make([]Record, 0, len(results))
	for _, res := range results {
		records = append(records, Record{
			ID:       res.Id.GetUuid(),
			Metadata: payloadToMap(res.Payload),
		})
	}
	sort.Slice(records, func(i, j int) bool {
		ci, _ := records[i].Metadata["chunk_index"].(int64)
		cj, _ := records[j].Metadata["chunk_index"].(int64)
		return ci < cj
	})
	return records, nil
}

// Close closes the client connection.
func (q *Qdrant) Close() error {
	if q.client != nil {
		return q.client.Close()
	}
	return nil
}

// toQdrantFilter translates the wire-format filter tree into Qdrant's native
// filter structure. $and maps to must clauses, $or to should clauses, and
// leaves to field conditions on dotted payload keys.
func toQdrantFilter(f *Filter) (*qdrant.Filter, error) {
	if f == nil {
		return nil, nil
	}
	if len(f.And) > 0 {
		conditions, err := toConditions(f.And)
		if err != nil {
			return nil, err
		}
		return &qdrant.Filter{Must: conditions}, nil
	}
	if len(f.Or) > 0 {
		conditions, err := toConditions(f.Or)
		if err != nil {
			return nil, err
		}
		return &qdrant.Filter{Should: conditions}, nil
	}
	cond, err := leafCondition(f)
	if err != nil {
		return nil, err
	}
	return &qdrant.Filter{Must: []*qdrant.Condition{cond}}, nil
}

func toConditions(subs []*Filter) ([]*qdrant.Condition, error) {
	conditions := make([]*qdrant.Condition, 0, len(subs))
	for _, sub := range subs {
		if sub.Path != "" {
			cond, err := leafCondition(sub)
			if err != nil {
				return nil, err
			}
			conditions = append(conditions, cond)
			continue
		}
		nested, err := toQdrantFilter(sub)
		if err != nil {
			return nil, err
		}
		conditions = append(conditions, &qdrant.Condition{
			ConditionOneOf: &qdrant.Condition_Filter{Filter: nested},
		})
	}
	return conditions, nil
}

func leafCondition(f *Filter) (*qdrant.Condition, error) {
	if f.Op == OpEq {
		switch v := f.Value.(type) {
		case string:
			return qdrant.NewMatch(f.Path, v), nil
		case bool:
			return qdrant.NewMatchBool(f.Path, v), nil
		}
		if n, ok := asFloat(f.Value); ok {
			if n == float64(int64(n)) {
				return qdrant.NewMatchInt(f.Path, int64(n)), nil
			}
			return rangeCondition(f.Path, &qdrant.Range{Gte: qdrant.PtrOf(n), Lte: qdrant.PtrOf(n)}), nil
		}
		return nil, fmt.Errorf("%w: unsupported $eq value type %T", ErrInvalidFilter, f.Value)
	}

	n, ok := asFloat(f.Value)
	if !ok {
		return nil, fmt.Errorf("%w: %s requires a numeric value, got %T", ErrInvalidFilter, f.Op, f.Value)
	}
	r := &qdrant.Range{}
	switch f.Op {
	case OpGt:
		r.Gt = qdrant.PtrOf(n)
	case OpGte:
		r.Gte = qdrant.PtrOf(n)
	case OpLt:
		r.Lt = qdrant.PtrOf(n)
	case OpLte:
		r.Lte = qdrant.PtrOf(n)
	default:
		return nil, fmt.Errorf("%w: unknown operator %q", ErrInvalidFilter, f.Op)
	}
	return rangeCondition(f.Path, r), nil
}

func rangeCondition(key string, r *qdrant.Range) *qdrant.Condition {
	return &qdrant.Condition{
		ConditionOneOf: &qdrant.Condition_Field{
			Field: &qdrant.FieldCondition{Key: key, Range: r},
		},
	}
}

// payloadToMap converts a Qdrant payload back into plain Go values.
func payloadToMap(payload map[string]*qdrant.Value) map[string]any {
	if payload == nil {
		return nil
	}
	out := make(map[string]any, len(payload))
	for k, v := range payload {
		out[k] = valueToAny(v)
	}
	return out
}

func valueToAny(v *qdrant.Value) any {
	switch kind := v.GetKind().(type) {
	case *qdrant.Value_StringValue:
		return kind.StringValue
	case *qdrant.Value_IntegerValue:
		return kind.IntegerValue
	case *qdrant.Value_DoubleValue:
		return kind.DoubleValue
	case *qdrant.Value_BoolValue:
		return kind.BoolValue
	case *qdrant.Value_ListValue:
		values := kind.ListValue.GetValues()
		out := make([]any, len(values))
		for i, e := range values {
			out[i] = valueToAny(e)
		}
		return out
	case *qdrant.Value_StructValue:
		return payloadToMap(kind.StructValue.GetFields())
	default:
		return nil
	}
}
