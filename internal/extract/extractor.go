package extract

import (
	"context"

	"github.com/incidentlabs/hybrid-index/internal/data"
)

// Extractor is the schema/property extraction capability. InferSchema is
// batch-scoped: it inspects a bounded sample of elements and produces one
// schema shared by the whole batch. ExtractProperties is per-document and
// must tolerate partial results: fields the extractor cannot find are simply
// omitted from the document's entity properties.
type Extractor interface {
	InferSchema(ctx context.Context, sample []*data.Element, name string, maxElements int) (*Schema, error)
	ExtractProperties(ctx context.Context, doc *data.Document, schema *Schema) error
}
