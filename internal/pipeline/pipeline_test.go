package pipeline

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/incidentlabs/hybrid-index/internal/data"
	"github.com/incidentlabs/hybrid-index/internal/extract"
	"github.com/incidentlabs/hybrid-index/internal/index"
	"github.com/incidentlabs/hybrid-index/internal/source"
	"github.com/incidentlabs/hybrid-index/internal/term"
)

const testDimension = 8

// fakeSource serves in-memory report files.
type fakeSource struct {
	files map[string][]byte
}

func (f *fakeSource) List(ctx context.Context) ([]string, error) {
	paths := make([]string, 0, len(f.files))
	for path := range f.files {
		paths = append(paths, path)
	}
	return paths, nil
}

func (f *fakeSource) Fetch(ctx context.Context, path string) (*source.RawDoc, error) {
	return &source.RawDoc{Path: path, Content: f.files[path]}, nil
}

// fakeExtractor returns a fixed schema and stamps a parseable raw date.
type fakeExtractor struct{}

func (f *fakeExtractor) InferSchema(ctx context.Context, sample []*data.Element, name string, maxElements int) (*extract.Schema, error) {
	if len(sample) == 0 {
		return nil, errors.New("no elements to sample")
	}
	return &extract.Schema{Name: name, Fields: []extract.SchemaField{
		{Name: "aircraft", Type: extract.TypeString},
		{Name: "dateAndTime", Type: extract.TypeString},
	}}, nil
}

func (f *fakeExtractor) ExtractProperties(ctx context.Context, doc *data.Document, schema *extract.Schema) error {
	entity := doc.Entity()
	entity["aircraft"] = "Cessna 172"
	entity["dateAndTime"] = "March 3, 2022 3:00 PM Local"
	return nil
}

// fakeProvider returns deterministic unit vectors.
type fakeProvider struct{}

func (f *fakeProvider) Dimension() int { return testDimension }

func (f *fakeProvider) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	out := make([][]float32, len(texts))
	for i := range texts {
		vec := make([]float32, testDimension)
		vec[i%testDimension] = 1
		out[i] = vec
	}
	return out, nil
}

const testReport = `# Incident Narrative

The aircraft experienced a total loss of engine power during cruise.

## Findings

Fuel contamination was identified in both tanks.
`

func TestPipeline_IngestAll(t *testing.T) {
	idx := index.NewMemory(testDimension)
	p := New(Config{
		Source:    &fakeSource{files: map[string][]byte{"reports/2022-03-03.md": []byte(testReport)}},
		Extractor: &fakeExtractor{},
		Provider:  &fakeProvider{},
		Index:     idx,
		Tokenizer: term.NewTokenizer(),
	})

	result, err := p.IngestAll(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 1, result.TotalDocs)
	assert.Equal(t, 1, result.Partitioned)
	assert.Greater(t, result.IndexedChunks, 0, "Should index chunks")
	assert.Empty(t, result.FailedDocs)

	records, err := idx.GetByPath(context.Background(), "reports/2022-03-03.md")
	require.NoError(t, err)
	require.NotEmpty(t, records)

	var texts []string
	for i, rec := range records {
		assert.Len(t, rec.Dense, testDimension, "Chunk %d dense vector", i)
		assert.NotEmpty(t, rec.Sparse, "Chunk %d sparse vector", i)

		meta := data.Properties(rec.Metadata)
		path, _ := meta.String("path")
		assert.Equal(t, "reports/2022-03-03.md", path)

		// Extracted entity with normalized date must reach every chunk.
		if v, ok := meta.Lookup("entity.year"); assert.True(t, ok, "Chunk %d entity.year", i) {
			assert.EqualValues(t, 2022, v)
		}
		if v, ok := meta.Lookup("entity.month"); assert.True(t, ok) {
			assert.EqualValues(t, 3, v)
		}
		if v, ok := meta.Lookup("entity.day"); assert.True(t, ok) {
			assert.EqualValues(t, 3, v)
		}
		if v, ok := meta.Lookup("entity.dateTime"); assert.True(t, ok) {
			assert.Equal(t, "2022-03-03T15:00:00Z", v)
		}
		if v, ok := meta.Lookup("entity.aircraft"); assert.True(t, ok) {
			assert.Equal(t, "Cessna 172", v)
		}

		text, _ := meta.String("text")
		texts = append(texts, text)
	}
	joined := strings.Join(texts, " ")
	assert.Contains(t, joined, "loss of engine power")
	assert.Contains(t, joined, "Fuel contamination")
}

func TestPipeline_PartitionFailureIsolated(t *testing.T) {
	idx := index.NewMemory(testDimension)
	p := New(Config{
		Source: &fakeSource{files: map[string][]byte{
			"good.md":         []byte(testReport),
			"unsupported.txt": []byte("plain text"),
		}},
		Extractor: &fakeExtractor{},
		Provider:  &fakeProvider{},
		Index:     idx,
		Tokenizer: term.NewTokenizer(),
	})

	result, err := p.IngestAll(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 2, result.TotalDocs)
	assert.Equal(t, 1, result.Partitioned)
	require.Len(t, result.FailedDocs, 1)
	assert.Equal(t, "unsupported.txt", result.FailedDocs[0].ID)
	assert.Equal(t, "partition", result.FailedDocs[0].Stage)

	paths, err := idx.ListPaths(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{"good.md"}, paths)
}

// TestPipeline_EmptyBatchCompletes verifies a run where every document fails
// partition (or the source is empty) finishes cleanly with zero chunks
// instead of aborting on schema inference.
func TestPipeline_EmptyBatchCompletes(t *testing.T) {
	idx := index.NewMemory(testDimension)
	p := New(Config{
		Source: &fakeSource{files: map[string][]byte{
			"unsupported.txt": []byte("plain text"),
		}},
		Extractor: &fakeExtractor{},
		Provider:  &fakeProvider{},
		Index:     idx,
		Tokenizer: term.NewTokenizer(),
	})

	result, err := p.IngestAll(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 1, result.TotalDocs)
	assert.Equal(t, 0, result.Partitioned)
	assert.Equal(t, 0, result.IndexedChunks)
	require.Len(t, result.FailedDocs, 1)
	assert.Equal(t, "partition", result.FailedDocs[0].Stage)

	count, err := idx.Count(context.Background())
	require.NoError(t, err)
	assert.EqualValues(t, 0, count)
}

func TestPipeline_Limit(t *testing.T) {
	idx := index.NewMemory(testDimension)
	p := New(Config{
		Source: &fakeSource{files: map[string][]byte{
			"a.md": []byte(testReport),
			"b.md": []byte(testReport),
		}},
		Extractor: &fakeExtractor{},
		Provider:  &fakeProvider{},
		Index:     idx,
		Tokenizer: term.NewTokenizer(),
		Limit:     1,
	})

	result, err := p.IngestAll(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, result.TotalDocs)

	paths, err := idx.ListPaths(context.Background())
	require.NoError(t, err)
	assert.Len(t, paths, 1)
}
