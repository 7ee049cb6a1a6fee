package transforms

import (
	"context"

	"github.com/google/uuid"

	"github.com/incidentlabs/hybrid-index/internal/data"
)

// Explode flattens the document/element containment: every element becomes an
// independent document carrying its own properties plus a parent_id reference.
// A document with no elements passes through as-is; it is already a leaf.
// The resulting set is the unit of downstream embedding and indexing.
func Explode() Stage {
	return FlatMap("explode", func(ctx context.Context, doc *data.Document) ([]*data.Document, error) {
		if len(doc.Elements) == 0 {
			return []*data.Document{doc}, nil
		}
		out := make([]*data.Document, 0, len(doc.Elements))
		for i, el := range doc.Elements {
			props := el.Properties
			if props == nil {
				props = data.Properties{}
			}
			props[data.KeyParentID] = doc.ID
			props["chunk_index"] = i
			out = append(out, &data.Document{
				ID:         uuid.New().String(),
				Text:       el.Text,
				Properties: props,
			})
		}
		return out, nil
	})
}
