package transforms

import (
	"context"

	"github.com/incidentlabs/hybrid-index/internal/data"
	"github.com/incidentlabs/hybrid-index/internal/term"
)

// TermFrequency tokenizes each document's text and attaches its pure
// term-frequency sparse vector. Must use the same tokenizer identity as the
// query composer, or query-time sparse vectors stop lining up with the index.
func TermFrequency(tokenizer *term.Tokenizer) Stage {
	return Map("term_frequency", func(ctx context.Context, doc *data.Document) error {
		vec, err := term.VectorizeText(tokenizer, doc.Text)
		if err != nil {
			return err
		}
		doc.TermFreq = vec
		return nil
	})
}
