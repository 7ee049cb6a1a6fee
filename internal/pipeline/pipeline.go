// Package pipeline orchestrates ingestion: listing raw documents from a
// source, partitioning them, running the transform stages and writing the
// resulting chunks to the vector index.
package pipeline

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/incidentlabs/hybrid-index/internal/data"
	"github.com/incidentlabs/hybrid-index/internal/embedding"
	"github.com/incidentlabs/hybrid-index/internal/extract"
	"github.com/incidentlabs/hybrid-index/internal/index"
	"github.com/incidentlabs/hybrid-index/internal/partition"
	"github.com/incidentlabs/hybrid-index/internal/source"
	"github.com/incidentlabs/hybrid-index/internal/term"
	"github.com/incidentlabs/hybrid-index/internal/transforms"
)

// Config wires the pipeline's capabilities and tuning knobs.
type Config struct {
	Source    source.Source
	Extractor extract.Extractor
	Provider  embedding.Provider
	Index     index.Index
	Tokenizer *term.Tokenizer

	// SchemaName names the entity schema inferred for the batch.
	SchemaName string
	// SchemaSampleSize caps the elements sampled for schema inference.
	SchemaSampleSize int
	// MaxChunkTokens bounds the token count of any unit handed to the
	// embedder.
	MaxChunkTokens int
	// PropagateKeys are the document properties copied onto every element
	// before explosion.
	PropagateKeys []string
	// Limit optionally caps the number of documents ingested (0 = all).
	Limit int

	Logger *slog.Logger
}

// FailedDoc records a document that failed somewhere in the pipeline.
type FailedDoc struct {
	ID     string
	Stage  string
	Reason string
}

// IngestResult summarizes one ingestion run.
type IngestResult struct {
	TotalDocs     int
	Partitioned   int
	IndexedChunks int
	FailedDocs    []FailedDoc
	Duration      time.Duration
}

// Pipeline runs the full document-to-index flow.
type Pipeline struct {
	cfg Config
}

// New creates a pipeline, applying defaults for unset tuning knobs.
func New(cfg Config) *Pipeline {
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	if cfg.SchemaName == "" {
		cfg.SchemaName = "entity"
	}
	if cfg.SchemaSampleSize <= 0 {
		cfg.SchemaSampleSize = 20
	}
	if cfg.MaxChunkTokens <= 0 {
		cfg.MaxChunkTokens = 512
	}
	if len(cfg.PropagateKeys) == 0 {
		cfg.PropagateKeys = []string{data.KeyPath, data.KeyEntity}
	}
	return &Pipeline{cfg: cfg}
}

// IngestAll lists every document in the source and runs it through the
// pipeline. Per-document failures (fetch, partition, extraction, embedding)
// are isolated and reported in the result; batch-scoped failures (schema
// inference) and index write failures abort the run.
func (p *Pipeline) IngestAll(ctx context.Context) (*IngestResult, error) {
	start := time.Now()
	result := &IngestResult{}
	log := p.cfg.Logger

	paths, err := p.cfg.Source.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("list documents: %w", err)
	}
	if p.cfg.Limit > 0 && len(paths) > p.cfg.Limit {
		paths = paths[:p.cfg.Limit]
	}
	result.TotalDocs = len(paths)
	log.Info("starting ingestion", "documents", len(paths))

	// Partition each raw document; a binary that fails to decode fails only
	// itself.
	var docs []*data.Document
	for _, path := range paths {
		doc, err := p.partitionOne(ctx, path)
		if err != nil {
			log.Warn("failed to partition document", "path", path, "error", err)
			result.FailedDocs = append(result.FailedDocs, FailedDoc{
				ID:     path,
				Stage:  "partition",
				Reason: err.Error(),
			})
			continue
		}
		docs = append(docs, doc)
	}
	result.Partitioned = len(docs)

	docs, failures, err := transforms.Run(ctx, docs, p.stages()...)
	for _, f := range failures {
		log.Warn("document failed in pipeline", "doc", f.DocID, "stage", f.Stage, "error", f.Err)
		result.FailedDocs = append(result.FailedDocs, FailedDoc{
			ID:     f.DocID,
			Stage:  f.Stage,
			Reason: f.Err.Error(),
		})
	}
	if err != nil {
		return nil, err
	}

	records := make([]index.Record, 0, len(docs))
	for _, doc := range docs {
		if doc.Text == "" {
			continue
		}
		records = append(records, index.Record{
			ID:       doc.ID,
			Dense:    doc.Embedding,
			Sparse:   doc.TermFreq,
			Metadata: recordMetadata(doc),
		})
	}
	if err := p.cfg.Index.Upsert(ctx, records); err != nil {
		return nil, fmt.Errorf("write to index: %w", err)
	}
	result.IndexedChunks = len(records)

	result.Duration = time.Since(start)
	log.Info("ingestion complete",
		"documents", result.Partitioned,
		"chunks", result.IndexedChunks,
		"failed", len(result.FailedDocs),
		"duration", result.Duration,
	)
	return result, nil
}

// stages returns the ordered transform sequence. The schema holder carries
// the batch-scoped schema from inference to per-document extraction.
func (p *Pipeline) stages() []transforms.Stage {
	holder := &transforms.SchemaHolder{}
	return []transforms.Stage{
		transforms.Normalize(),
		transforms.InferSchema(p.cfg.Extractor, p.cfg.SchemaName, p.cfg.SchemaSampleSize, holder),
		transforms.ExtractProperties(p.cfg.Extractor, holder),
		transforms.NormalizeTimestamps(),
		transforms.MarkBreaksByPage(),
		transforms.Merge(),
		transforms.Propagate(p.cfg.PropagateKeys...),
		transforms.SplitForEmbedding(p.cfg.Tokenizer, p.cfg.MaxChunkTokens),
		transforms.Explode(),
		transforms.Sketch(p.cfg.Tokenizer, 0, 0),
		transforms.Embed(p.cfg.Provider),
		transforms.TermFrequency(p.cfg.Tokenizer),
	}
}

func (p *Pipeline) partitionOne(ctx context.Context, path string) (*data.Document, error) {
	raw, err := p.cfg.Source.Fetch(ctx, path)
	if err != nil {
		return nil, fmt.Errorf("fetch: %w", err)
	}
	partitioner, err := partition.ForPath(path)
	if err != nil {
		return nil, err
	}
	elements, err := partitioner.Partition(ctx, raw.Content, partition.Options{})
	if err != nil {
		return nil, fmt.Errorf("partition: %w", err)
	}

	doc := data.NewDocument()
	doc.Properties[data.KeyPath] = path
	doc.Elements = elements
	return doc, nil
}

// recordMetadata flattens a chunk document into the index payload. Nested
// property maps are converted to plain map[string]any for the payload
// encoder.
func recordMetadata(doc *data.Document) map[string]any {
	meta := make(map[string]any, len(doc.Properties)+3)
	for k, v := range doc.Properties {
		meta[k] = plainValue(v)
	}
	meta["text"] = doc.Text
	meta["indexed_at"] = time.Now().UTC().Format(time.RFC3339)
	if len(doc.Shingles) > 0 {
		shingles := make([]any, len(doc.Shingles))
		for i, s := range doc.Shingles {
			shingles[i] = int64(s)
		}
		meta["shingles"] = shingles
	}
	return meta
}

func plainValue(v any) any {
	switch t := v.(type) {
	case data.Properties:
		out := make(map[string]any, len(t))
		for k, e := range t {
			out[k] = plainValue(e)
		}
		return out
	case map[string]any:
		out := make(map[string]any, len(t))
		for k, e := range t {
			out[k] = plainValue(e)
		}
		return out
	case []any:
		out := make([]any, len(t))
		for i, e := range t {
			out[i] = plainValue(e)
		}
		return out
	default:
		return v
	}
}
