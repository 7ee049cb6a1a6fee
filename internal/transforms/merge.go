package transforms

import (
	"context"
	"strings"

	"github.com/incidentlabs/hybrid-index/internal/data"
)

// MarkBreaksByPage sets the break marker on every element that starts a new
// page, so the merger groups elements page by page. Elements without a page
// number keep any marker the partitioner already set.
func MarkBreaksByPage() Stage {
	return Map("mark_breaks", func(ctx context.Context, doc *data.Document) error {
		lastPage := -1
		for _, el := range doc.Elements {
			page, ok := el.Properties.Int(data.KeyPageNumber)
			if !ok {
				continue
			}
			if page != lastPage {
				el.Properties[data.KeyMarkBreak] = true
				lastPage = page
			}
		}
		return nil
	})
}

// Merge concatenates marked element groups into single larger elements.
// Elements marked for drop are skipped; an element marked as a break starts a
// new group. Reading order is preserved and groups never span documents. The
// first element of a group contributes its properties; later members only add
// keys the group does not have yet.
func Merge() Stage {
	return Map("merge", func(ctx context.Context, doc *data.Document) error {
		var merged []*data.Element
		var group *data.Element
		var texts []string

		flush := func() {
			if group == nil {
				return
			}
			group.Text = strings.Join(texts, "\n")
			merged = append(merged, group)
			group = nil
			texts = nil
		}

		for _, el := range doc.Elements {
			if el.Properties.Bool(data.KeyMarkDrop) {
				continue
			}
			if group == nil || el.Properties.Bool(data.KeyMarkBreak) {
				flush()
				group = &data.Element{Properties: el.Properties.Clone()}
				delete(group.Properties, data.KeyMarkBreak)
			} else {
				for k, v := range el.Properties {
					if k == data.KeyMarkBreak || k == data.KeyMarkDrop {
						continue
					}
					if _, exists := group.Properties[k]; !exists {
						group.Properties[k] = v
					}
				}
			}
			if el.Text != "" {
				texts = append(texts, el.Text)
			}
		}
		flush()

		doc.Elements = merged
		return nil
	})
}
