// Package search composes weighted hybrid dense+sparse queries against the
// vector index and formats the resulting hits.
package search

import (
	"context"
	"errors"
	"fmt"

	"github.com/incidentlabs/hybrid-index/internal/embedding"
	"github.com/incidentlabs/hybrid-index/internal/index"
	"github.com/incidentlabs/hybrid-index/internal/term"
)

// ErrInvalidAlpha reports an alpha outside [0,1]. This is a precondition
// violation caught before any external call is made.
var ErrInvalidAlpha = errors.New("alpha must be within [0, 1]")

// DefaultTopK is the result count used when the caller passes 0.
const DefaultTopK = 10

// Composer turns a natural-language question into a weighted hybrid query.
// It must use the same embedding model and tokenizer identity as ingestion;
// the index rejects mismatched dimensionality.
type Composer struct {
	provider  embedding.Provider
	tokenizer *term.Tokenizer
	idx       index.Index
}

// NewComposer creates a hybrid query composer over the given capabilities.
func NewComposer(provider embedding.Provider, tokenizer *term.Tokenizer, idx index.Index) *Composer {
	return &Composer{
		provider:  provider,
		tokenizer: tokenizer,
		idx:       idx,
	}
}

// HybridQuery embeds and tokenizes the question, scales the dense vector by
// alpha and the sparse vector by (1-alpha), and asks the index for the topK
// nearest records under its distance metric. alpha=1 degenerates to pure
// dense search, alpha=0 to pure sparse search. The filter, when non-nil, is
// passed through to the index unmodified. Ranking and tie-breaking belong to
// the index; the composer only owns the weight scaling.
func (c *Composer) HybridQuery(ctx context.Context, question string, alpha float64, filter *index.Filter, topK int) ([]index.Hit, error) {
	if alpha < 0 || alpha > 1 {
		return nil, fmt.Errorf("%w: got %v", ErrInvalidAlpha, alpha)
	}
	if err := filter.Validate(); err != nil {
		return nil, err
	}
	if topK <= 0 {
		topK = DefaultTopK
	}

	// An empty question is allowed: the embedding model accepts empty
	// strings and the sparse vector simply has no entries.
	vectors, err := c.provider.EmbedBatch(ctx, []string{question})
	if err != nil {
		return nil, fmt.Errorf("embed question: %w", err)
	}
	dense := vectors[0]

	sparse, err := term.VectorizeText(c.tokenizer, question)
	if err != nil {
		return nil, fmt.Errorf("vectorize question: %w", err)
	}

	for i := range dense {
		dense[i] *= float32(alpha)
	}
	sparse = sparse.Scale(float32(1 - alpha))

	hits, err := c.idx.Query(ctx, index.QueryRequest{
		TopK:         topK,
		Dense:        dense,
		Sparse:       sparse,
		Filter:       filter,
		WithMetadata: true,
	})
	if err != nil {
		return nil, fmt.Errorf("index query: %w", err)
	}
	return hits, nil
}
