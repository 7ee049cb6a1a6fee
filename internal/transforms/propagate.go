package transforms

import (
	"context"

	"github.com/incidentlabs/hybrid-index/internal/data"
)

// Propagate copies the named document properties down to every element, so
// chunks produced by explosion keep the parent-level metadata (path, entity)
// that query-time filters reference. Element-level values win over parent
// values for the same key.
func Propagate(keys ...string) Stage {
	return Map("propagate_properties", func(ctx context.Context, doc *data.Document) error {
		for _, el := range doc.Elements {
			if el.Properties == nil {
				el.Properties = data.Properties{}
			}
			for _, key := range keys {
				value, ok := doc.Properties[key]
				if !ok {
					continue
				}
				if _, exists := el.Properties[key]; !exists {
					el.Properties[key] = cloneForElement(value)
				}
			}
		}
		return nil
	})
}

func cloneForElement(v any) any {
	switch t := v.(type) {
	case data.Properties:
		return t.Clone()
	case map[string]any:
		return data.Properties(t).Clone()
	default:
		return v
	}
}
