package mcp

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/incidentlabs/hybrid-index/internal/index"
	"github.com/incidentlabs/hybrid-index/internal/search"
)

const defaultAlpha = 0.8

// Store is the index surface the tool handlers need. Both the Qdrant adapter
// and the in-memory index satisfy it.
type Store interface {
	index.Index
	ListPaths(ctx context.Context) ([]string, error)
	GetByPath(ctx context.Context, path string) ([]index.Record, error)
	Health(ctx context.Context) error
}

// makeSearchHandler creates the search_reports tool handler. The question is
// run as a weighted hybrid query; the simple year/aircraft/location fields
// are folded into an $and filter unless an advanced filter tree is supplied.
func makeSearchHandler(composer *search.Composer) func(
	context.Context, *mcp.CallToolRequest, SearchReportsInput,
) (*mcp.CallToolResult, SearchReportsOutput, error) {
	return func(ctx context.Context, req *mcp.CallToolRequest, input SearchReportsInput) (
		*mcp.CallToolResult, SearchReportsOutput, error,
	) {
		alpha := defaultAlpha
		if input.Alpha != nil {
			alpha = *input.Alpha
		}
		topK := input.TopK
		if topK <= 0 {
			topK = search.DefaultTopK
		}

		filter, err := buildFilter(input)
		if err != nil {
			return nil, SearchReportsOutput{}, err
		}

		hits, err := composer.HybridQuery(ctx, input.Question, alpha, filter, topK)
		if err != nil {
			return nil, SearchReportsOutput{}, fmt.Errorf("search failed: %w", err)
		}

		results := make([]ReportHit, 0, len(hits))
		for _, hit := range hits {
			f := search.Format(hit)
			results = append(results, ReportHit{
				Score:    f.Score,
				Path:     f.Path,
				Aircraft: f.Aircraft,
				Location: f.Location,
				DateTime: f.DateTime,
				Day:      f.Day,
				Month:    f.Month,
				Year:     f.Year,
				Text:     f.Text,
			})
		}

		if len(results) == 0 {
			return nil, SearchReportsOutput{
				Results: []ReportHit{},
				Message: "No matching reports found. Try broader terms or remove filters.",
			}, nil
		}
		return nil, SearchReportsOutput{Results: results}, nil
	}
}

// buildFilter translates tool input into a filter tree. An explicit Filter
// document wins over the simple fields.
func buildFilter(input SearchReportsInput) (*index.Filter, error) {
	if len(input.Filter) > 0 {
		var f index.Filter
		if err := json.Unmarshal(input.Filter, &f); err != nil {
			return nil, fmt.Errorf("%w: %v", index.ErrInvalidFilter, err)
		}
		return &f, nil
	}

	var leaves []*index.Filter
	if input.Year != 0 {
		leaves = append(leaves, index.Eq("entity.year", input.Year))
	}
	if input.Aircraft != "" {
		leaves = append(leaves, index.Eq("entity.aircraft", input.Aircraft))
	}
	if input.Location != "" {
		leaves = append(leaves, index.Eq("entity.location", input.Location))
	}
	switch len(leaves) {
	case 0:
		return nil, nil
	case 1:
		return leaves[0], nil
	default:
		return index.All(leaves...), nil
	}
}

// makeFetchHandler creates the fetch_report tool handler. The report text is
// reassembled from its chunks in chunk order.
func makeFetchHandler(store Store) func(
	context.Context, *mcp.CallToolRequest, FetchReportInput,
) (*mcp.CallToolResult, FetchReportOutput, error) {
	return func(ctx context.Context, req *mcp.CallToolRequest, input FetchReportInput) (
		*mcp.CallToolResult, FetchReportOutput, error,
	) {
		records, err := store.GetByPath(ctx, input.Path)
		if err != nil {
			if errors.Is(err, index.ErrDocumentNotFound) {
				return nil, FetchReportOutput{
					Path:  input.Path,
					Found: false,
				}, nil
			}
			return nil, FetchReportOutput{}, fmt.Errorf("failed to fetch report: %w", err)
		}

		parts := make([]string, 0, len(records))
		for _, rec := range records {
			if text, ok := rec.Metadata["text"].(string); ok && text != "" {
				parts = append(parts, text)
			}
		}
		return nil, FetchReportOutput{
			Path:   input.Path,
			Text:   strings.Join(parts, "\n\n"),
			Chunks: len(records),
			Found:  true,
		}, nil
	}
}

// makeListHandler creates the list_reports tool handler.
func makeListHandler(store Store) func(
	context.Context, *mcp.CallToolRequest, ListReportsInput,
) (*mcp.CallToolResult, ListReportsOutput, error) {
	return func(ctx context.Context, req *mcp.CallToolRequest, input ListReportsInput) (
		*mcp.CallToolResult, ListReportsOutput, error,
	) {
		paths, err := store.ListPaths(ctx)
		if err != nil {
			return nil, ListReportsOutput{}, fmt.Errorf("failed to list reports: %w", err)
		}
		return nil, ListReportsOutput{
			Paths: paths,
			Count: len(paths),
		}, nil
	}
}

// makeStatusHandler creates the index_status tool handler.
func makeStatusHandler(store Store) func(
	context.Context, *mcp.CallToolRequest, StatusInput,
) (*mcp.CallToolResult, StatusOutput, error) {
	return func(ctx context.Context, req *mcp.CallToolRequest, input StatusInput) (
		*mcp.CallToolResult, StatusOutput, error,
	) {
		paths, err := store.ListPaths(ctx)
		if err != nil {
			return nil, StatusOutput{}, fmt.Errorf("failed to list reports: %w", err)
		}
		count, err := store.Count(ctx)
		if err != nil {
			return nil, StatusOutput{}, fmt.Errorf("failed to count chunks: %w", err)
		}
		return nil, StatusOutput{
			TotalReports: len(paths),
			TotalChunks:  int(count),
			IndexedPaths: paths,
			Healthy:      store.Health(ctx) == nil,
		}, nil
	}
}
