package transforms

import (
	"context"
	"fmt"

	"github.com/incidentlabs/hybrid-index/internal/data"
	"github.com/incidentlabs/hybrid-index/internal/extract"
)

// SchemaHolder carries the batch-scoped inferred schema from the inference
// stage to the extraction stage. It is written exactly once by InferSchema
// and read-only afterwards.
type SchemaHolder struct {
	schema *extract.Schema
}

// Schema returns the inferred schema, or nil before inference has run.
func (h *SchemaHolder) Schema() *extract.Schema { return h.schema }

type inferSchemaStage struct {
	extractor   extract.Extractor
	name        string
	maxElements int
	holder      *SchemaHolder
}

// InferSchema samples up to maxElements elements across the whole batch and
// infers one shared property schema into holder. Inference failure is fatal
// for the batch: every later extraction depends on the schema.
func InferSchema(extractor extract.Extractor, name string, maxElements int, holder *SchemaHolder) Stage {
	return &inferSchemaStage{
		extractor:   extractor,
		name:        name,
		maxElements: maxElements,
		holder:      holder,
	}
}

func (s *inferSchemaStage) Name() string { return "infer_schema" }

func (s *inferSchemaStage) Run(ctx context.Context, docs []*data.Document) ([]*data.Document, []Failure, error) {
	// An empty batch has nothing to infer against and nothing downstream that
	// needs the schema.
	if len(docs) == 0 {
		return docs, nil, nil
	}

	var sample []*data.Element
	for _, doc := range docs {
		for _, el := range doc.Elements {
			sample = append(sample, el)
			if len(sample) >= s.maxElements {
				break
			}
		}
		if len(sample) >= s.maxElements {
			break
		}
	}

	schema, err := s.extractor.InferSchema(ctx, sample, s.name, s.maxElements)
	if err != nil {
		return nil, nil, fmt.Errorf("batch schema inference: %w", err)
	}
	s.holder.schema = schema
	return docs, nil, nil
}

// ExtractProperties applies the batch schema to each document, populating its
// entity properties. Extraction failures are isolated per document.
func ExtractProperties(extractor extract.Extractor, holder *SchemaHolder) Stage {
	return Map("extract_properties", func(ctx context.Context, doc *data.Document) error {
		schema := holder.Schema()
		if schema == nil {
			return fmt.Errorf("no schema inferred for batch")
		}
		return extractor.ExtractProperties(ctx, doc, schema)
	})
}
