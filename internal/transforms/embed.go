package transforms

import (
	"context"
	"fmt"

	"github.com/incidentlabs/hybrid-index/internal/data"
	"github.com/incidentlabs/hybrid-index/internal/embedding"
)

// embedGroupSize bounds how many documents share one embedder call, so a
// failed call is isolated to that group instead of the whole batch.
const embedGroupSize = 64

type embedStage struct {
	provider embedding.Provider
}

// Embed attaches a dense vector to every document with text. Calls to the
// embedding capability are batched; the provider guarantees output order
// matches input order, which preserves the document-to-vector mapping.
func Embed(provider embedding.Provider) Stage {
	return &embedStage{provider: provider}
}

func (s *embedStage) Name() string { return "embed" }

func (s *embedStage) Run(ctx context.Context, docs []*data.Document) ([]*data.Document, []Failure, error) {
	out := docs[:0]
	var failures []Failure

	for lo := 0; lo < len(docs); lo += embedGroupSize {
		hi := min(lo+embedGroupSize, len(docs))
		group := docs[lo:hi]

		texts := make([]string, len(group))
		for i, doc := range group {
			texts[i] = doc.Text
		}

		vectors, err := s.provider.EmbedBatch(ctx, texts)
		if err != nil {
			for _, doc := range group {
				failures = append(failures, Failure{DocID: doc.ID, Stage: s.Name(), Err: err})
			}
			continue
		}
		if len(vectors) != len(group) {
			return nil, failures, fmt.Errorf("embedder returned %d vectors for %d inputs", len(vectors), len(group))
		}
		for i, doc := range group {
			doc.Embedding = vectors[i]
			out = append(out, doc)
		}
	}
	return out, failures, nil
}
