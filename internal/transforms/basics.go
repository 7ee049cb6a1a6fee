package transforms

import (
	"context"

	"github.com/incidentlabs/hybrid-index/internal/data"
)

// Limit restricts the batch to its first n documents.
func Limit(n int) Stage {
	return &limitStage{n: n}
}

type limitStage struct {
	n int
}

func (s *limitStage) Name() string { return "limit" }

func (s *limitStage) Run(ctx context.Context, docs []*data.Document) ([]*data.Document, []Failure, error) {
	if len(docs) > s.n {
		docs = docs[:s.n]
	}
	return docs, nil, nil
}

// FilterDocs keeps only the documents the predicate accepts.
func FilterDocs(name string, keep func(doc *data.Document) bool) Stage {
	return FlatMap(name, func(ctx context.Context, doc *data.Document) ([]*data.Document, error) {
		if keep(doc) {
			return []*data.Document{doc}, nil
		}
		return nil, nil
	})
}
