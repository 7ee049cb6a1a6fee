// Package embedding maps text chunks to fixed-length dense vectors through
// the external embedding capability.
package embedding

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/openai/openai-go"
)

const (
	// Model is the embedding model used at ingestion and query time. The two
	// sides must agree or the index dimensionality check fails.
	Model = "text-embedding-3-small"

	// Dimension is the configured output size. text-embedding-3-small
	// supports shortened embeddings; 384 keeps the index compact.
	Dimension = 384

	// DefaultBatchSize balances requests-per-minute against tokens-per-minute
	// rate limits.
	DefaultBatchSize = 100
)

// Provider is the embedding capability: batches of text in, one fixed-length
// vector per input in the same order.
type Provider interface {
	EmbedBatch(ctx context.Context, texts []string) ([][]float32, error)
	Dimension() int
}

// Embedder generates embeddings through OpenAI with bounded batches and
// exponential backoff on rate-limit errors.
type Embedder struct {
	client    *Client
	batchSize int
}

var _ Provider = (*Embedder)(nil)

// NewEmbedder creates an Embedder. A batchSize of 0 selects the default.
func NewEmbedder(client *Client, batchSize int) *Embedder {
	if batchSize <= 0 {
		batchSize = DefaultBatchSize
	}
	return &Embedder{
		client:    client,
		batchSize: batchSize,
	}
}

// Dimension returns the configured vector length.
func (e *Embedder) Dimension() int { return Dimension }

// EmbedBatch generates embeddings for texts, preserving input order across
// internal batching. A failed batch fails the whole call; callers decide the
// isolation boundary.
func (e *Embedder) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	var all [][]float32

	for i := 0; i < len(texts); i += e.batchSize {
		end := min(i+e.batchSize, len(texts))
		batch := texts[i:end]

		vectors, err := e.embedWithRetry(ctx, batch)
		if err != nil {
			return nil, fmt.Errorf("batch %d-%d: %w", i, end, err)
		}
		all = append(all, vectors...)
	}

	return all, nil
}

// embedWithRetry embeds a single batch, retrying with exponential backoff on
// rate-limit errors. Other errors are permanent.
func (e *Embedder) embedWithRetry(ctx context.Context, texts []string) ([][]float32, error) {
	var vectors [][]float32

	operation := func() error {
		resp, err := e.client.client.Embeddings.New(ctx, openai.EmbeddingNewParams{
			Input: openai.EmbeddingNewParamsInputUnion{
				OfArrayOfStrings: texts,
			},
			Model:      Model,
			Dimensions: openai.Int(Dimension),
		})
		if err != nil {
			if isRateLimitError(err) {
				return err
			}
			return backoff.Permanent(err)
		}

		vectors = make([][]float32, len(resp.Data))
		for i, item := range resp.Data {
			if len(item.Embedding) != Dimension {
				return backoff.Permanent(fmt.Errorf(
					"model returned %d dimensions, expected %d", len(item.Embedding), Dimension))
			}
			vectors[i] = toFloat32(item.Embedding)
		}
		return nil
	}

	b := backoff.NewExponentialBackOff()
	b.InitialInterval = 500 * time.Millisecond
	b.MaxInterval = 10 * time.Second
	b.MaxElapsedTime = 30 * time.Second

	err := backoff.Retry(operation, backoff.WithContext(b, ctx))
	return vectors, err
}

// isRateLimitError reports whether err is an HTTP 429 from the API.
func isRateLimitError(err error) bool {
	var apiErr *openai.Error
	if errors.As(err, &apiErr) {
		return apiErr.StatusCode == 429
	}
	return false
}

// toFloat32 narrows the API's float64 output for storage.
func toFloat32(f64 []float64) []float32 {
	f32 := make([]float32, len(f64))
	for i, v := range f64 {
		f32[i] = float32(v)
	}
	return f32
}
