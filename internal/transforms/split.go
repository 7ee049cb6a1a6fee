package transforms

import (
	"context"
	"strings"

	"github.com/incidentlabs/hybrid-index/internal/data"
	"github.com/incidentlabs/hybrid-index/internal/term"
)

// SplitForEmbedding subdivides any element whose token count exceeds
// maxTokens into fragments of at most maxTokens tokens each. Splits happen on
// token boundaries only, fragment order matches original order, and the
// fragments' text concatenates back to the element's text. This guarantees
// every unit handed to the embedder fits its context budget.
func SplitForEmbedding(tokenizer *term.Tokenizer, maxTokens int) Stage {
	return Map("split_elements", func(ctx context.Context, doc *data.Document) error {
		var out []*data.Element
		for _, el := range doc.Elements {
			fragments, err := splitElement(tokenizer, el, maxTokens)
			if err != nil {
				return err
			}
			out = append(out, fragments...)
		}
		doc.Elements = out
		return nil
	})
}

func splitElement(tokenizer *term.Tokenizer, el *data.Element, maxTokens int) ([]*data.Element, error) {
	tokens, err := tokenizer.Tokenize(el.Text)
	if err != nil {
		return nil, err
	}
	if maxTokens <= 0 || len(tokens) <= maxTokens {
		return []*data.Element{el}, nil
	}

	var fragments []*data.Element
	start := 0
	for i := 0; i < len(tokens); i += maxTokens {
		end := len(el.Text)
		if i+maxTokens < len(tokens) {
			// Cut just before the first token of the next fragment so
			// inter-token text stays with the preceding fragment.
			end = tokens[i+maxTokens].Start
		}
		fragments = append(fragments, &data.Element{
			Text:       el.Text[start:end],
			Properties: el.Properties.Clone(),
		})
		start = end
	}
	for _, frag := range fragments {
		frag.Text = strings.TrimSpace(frag.Text)
	}
	return fragments, nil
}
