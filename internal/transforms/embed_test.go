package transforms

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/incidentlabs/hybrid-index/internal/data"
)

// fakeProvider returns a fixed-dimension vector per text, optionally failing
// on texts containing a trigger word.
type fakeProvider struct {
	dimension int
	failOn    string
	calls     int
}

func (f *fakeProvider) Dimension() int { return f.dimension }

func (f *fakeProvider) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	f.calls++
	vectors := make([][]float32, len(texts))
	for i, text := range texts {
		if f.failOn != "" && text == f.failOn {
			return nil, fmt.Errorf("provider rejected %q", text)
		}
		vec := make([]float32, f.dimension)
		vec[0] = float32(len(text))
		vectors[i] = vec
	}
	return vectors, nil
}

// TestEmbed_AttachesVectors verifies every document gets a vector of the
// provider's dimensionality.
func TestEmbed_AttachesVectors(t *testing.T) {
	provider := &fakeProvider{dimension: 4}
	docs := make([]*data.Document, 3)
	for i := range docs {
		docs[i] = data.NewDocument()
		docs[i].Text = fmt.Sprintf("document %d", i)
	}

	out := runStage(t, Embed(provider), docs...)
	if len(out) != 3 {
		t.Fatalf("Expected 3 documents, got %d", len(out))
	}
	for _, doc := range out {
		if len(doc.Embedding) != 4 {
			t.Errorf("Document %s has %d dimensions", doc.ID, len(doc.Embedding))
		}
	}
}

// TestEmbed_GroupFailureIsolated verifies one failing group drops only its
// own documents while other groups continue.
func TestEmbed_GroupFailureIsolated(t *testing.T) {
	provider := &fakeProvider{dimension: 2, failOn: "poison"}

	// More documents than one group so the failure cannot take out the
	// whole batch.
	docs := make([]*data.Document, embedGroupSize+2)
	for i := range docs {
		docs[i] = data.NewDocument()
		docs[i].Text = fmt.Sprintf("ok %d", i)
	}
	docs[0].Text = "poison"

	out, failures, err := Embed(provider).Run(context.Background(), docs)
	if err != nil {
		t.Fatalf("Unexpected fatal error: %v", err)
	}
	if len(failures) != embedGroupSize {
		t.Errorf("Expected %d failures (the poisoned group), got %d", embedGroupSize, len(failures))
	}
	if len(out) != 2 {
		t.Errorf("Expected 2 surviving documents, got %d", len(out))
	}
	for _, doc := range out {
		if len(doc.Embedding) != 2 {
			t.Errorf("Survivor %s missing embedding", doc.ID)
		}
	}
}

// TestEmbed_EmptyBatch verifies an empty input makes no provider calls.
func TestEmbed_EmptyBatch(t *testing.T) {
	provider := &fakeProvider{dimension: 2}
	out, failures, err := Embed(provider).Run(context.Background(), nil)
	if err != nil || len(failures) != 0 || len(out) != 0 {
		t.Errorf("Empty batch: out=%v failures=%v err=%v", out, failures, err)
	}
	if provider.calls != 0 {
		t.Errorf("Expected no provider calls, got %d", provider.calls)
	}
}

// TestRun_AccumulatesFailures verifies the runner carries isolated failures
// across stages and aborts on fatal errors.
func TestRun_AccumulatesFailures(t *testing.T) {
	ctx := context.Background()

	good := data.NewDocument()
	good.Text = "fine"
	bad := data.NewDocument()
	bad.Text = "reject me"

	failing := Map("reject", func(ctx context.Context, doc *data.Document) error {
		if doc.Text == "reject me" {
			return errors.New("rejected")
		}
		return nil
	})
	counting := Map("count", func(ctx context.Context, doc *data.Document) error { return nil })

	out, failures, err := Run(ctx, []*data.Document{good, bad}, failing, counting)
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	if len(out) != 1 || out[0] != good {
		t.Errorf("Expected only the good document, got %d", len(out))
	}
	if len(failures) != 1 || failures[0].DocID != bad.ID || failures[0].Stage != "reject" {
		t.Errorf("Unexpected failures: %v", failures)
	}

	_, _, err = Run(ctx, []*data.Document{good}, &fatalStage{}, counting)
	if err == nil {
		t.Fatal("Expected fatal error to abort the run")
	}
}

type fatalStage struct{}

func (s *fatalStage) Name() string { return "boom" }

func (s *fatalStage) Run(ctx context.Context, docs []*data.Document) ([]*data.Document, []Failure, error) {
	return nil, nil, errors.New("batch-scoped failure")
}

// TestLimit verifies the batch cap.
func TestLimit(t *testing.T) {
	docs := []*data.Document{data.NewDocument(), data.NewDocument(), data.NewDocument()}
	out := runStage(t, Limit(2), docs...)
	if len(out) != 2 {
		t.Errorf("Expected 2 documents, got %d", len(out))
	}
	out = runStage(t, Limit(10), docs...)
	if len(out) != 3 {
		t.Errorf("Limit above batch size should be a no-op, got %d", len(out))
	}
}

// TestFilterDocs verifies predicate filtering.
func TestFilterDocs(t *testing.T) {
	a := data.NewDocument()
	a.Text = "keep"
	b := data.NewDocument()
	b.Text = ""

	out := runStage(t, FilterDocs("drop_empty", func(doc *data.Document) bool {
		return doc.Text != ""
	}), a, b)
	if len(out) != 1 || out[0] != a {
		t.Errorf("Expected only non-empty document, got %d", len(out))
	}
}

// TestNormalize_CollapsesWhitespace verifies whitespace and control runs
// collapse to single spaces on documents and elements.
func TestNormalize_CollapsesWhitespace(t *testing.T) {
	doc := data.NewDocument()
	doc.Text = "  leading\t\ttabs\n\nand newlines \x00 control  "
	doc.Elements = []*data.Element{elem("a \r\n b", nil)}

	out := runStage(t, Normalize(), doc)
	if out[0].Text != "leading tabs and newlines control" {
		t.Errorf("Document text: %q", out[0].Text)
	}
	if out[0].Elements[0].Text != "a b" {
		t.Errorf("Element text: %q", out[0].Elements[0].Text)
	}

	// Idempotence.
	again := runStage(t, Normalize(), out[0])
	if again[0].Text != "leading tabs and newlines control" {
		t.Errorf("Second pass changed text: %q", again[0].Text)
	}
}
