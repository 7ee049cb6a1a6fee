// Package transforms implements the ordered document transform pipeline:
// stateless stages over document collections with per-document failure
// isolation, executed by a generic runner.
package transforms

import (
	"context"
	"fmt"

	"github.com/incidentlabs/hybrid-index/internal/data"
)

// Failure records a per-document error. The document is dropped from the
// batch; its siblings continue through the pipeline.
type Failure struct {
	DocID string
	Stage string
	Err   error
}

func (f Failure) Error() string {
	return fmt.Sprintf("stage %s: document %s: %v", f.Stage, f.DocID, f.Err)
}

// Stage is one pipeline step. Run returns the transformed collection, any
// isolated per-document failures, and a fatal error. A fatal error aborts the
// whole batch; only batch-scoped stages (schema inference) return one.
type Stage interface {
	Name() string
	Run(ctx context.Context, docs []*data.Document) ([]*data.Document, []Failure, error)
}

// Run executes stages in order over docs, accumulating isolated failures.
func Run(ctx context.Context, docs []*data.Document, stages ...Stage) ([]*data.Document, []Failure, error) {
	var failures []Failure
	for _, stage := range stages {
		if err := ctx.Err(); err != nil {
			return nil, failures, err
		}
		var stageFailures []Failure
		var err error
		docs, stageFailures, err = stage.Run(ctx, docs)
		failures = append(failures, stageFailures...)
		if err != nil {
			return nil, failures, fmt.Errorf("stage %s: %w", stage.Name(), err)
		}
	}
	return docs, failures, nil
}

// mapStage lifts a per-document mutation into a Stage. A document whose
// function errors is dropped and recorded; the error never aborts the batch.
type mapStage struct {
	name string
	fn   func(ctx context.Context, doc *data.Document) error
}

// Map creates a stage applying fn to each document independently.
func Map(name string, fn func(ctx context.Context, doc *data.Document) error) Stage {
	return &mapStage{name: name, fn: fn}
}

func (s *mapStage) Name() string { return s.name }

func (s *mapStage) Run(ctx context.Context, docs []*data.Document) ([]*data.Document, []Failure, error) {
	out := docs[:0]
	var failures []Failure
	for _, doc := range docs {
		if err := s.fn(ctx, doc); err != nil {
			failures = append(failures, Failure{DocID: doc.ID, Stage: s.name, Err: err})
			continue
		}
		out = append(out, doc)
	}
	return out, failures, nil
}

// flatMapStage lifts a one-to-many per-document transform into a Stage.
type flatMapStage struct {
	name string
	fn   func(ctx context.Context, doc *data.Document) ([]*data.Document, error)
}

// FlatMap creates a stage replacing each document with zero or more results.
func FlatMap(name string, fn func(ctx context.Context, doc *data.Document) ([]*data.Document, error)) Stage {
	return &flatMapStage{name: name, fn: fn}
}

func (s *flatMapStage) Name() string { return s.name }

func (s *flatMapStage) Run(ctx context.Context, docs []*data.Document) ([]*data.Document, []Failure, error) {
	var out []*data.Document
	var failures []Failure
	for _, doc := range docs {
		results, err := s.fn(ctx, doc)
		if err != nil {
			failures = append(failures, Failure{DocID: doc.ID, Stage: s.name, Err: err})
			continue
		}
		out = append(out, results...)
	}
	return out, failures, nil
}
