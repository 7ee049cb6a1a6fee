package transforms

import (
	"context"
	"regexp"
	"strings"

	"github.com/incidentlabs/hybrid-index/internal/data"
)

var whitespaceRun = regexp.MustCompile(`[\s\p{Cc}]+`)

// Normalize collapses runs of whitespace and control characters to a single
// space in every text representation. Idempotent: normalizing twice equals
// normalizing once.
func Normalize() Stage {
	return Map("normalize", func(ctx context.Context, doc *data.Document) error {
		doc.Text = normalizeText(doc.Text)
		for _, el := range doc.Elements {
			el.Text = normalizeText(el.Text)
		}
		return nil
	})
}

func normalizeText(s string) string {
	return strings.TrimSpace(whitespaceRun.ReplaceAllString(s, " "))
}
