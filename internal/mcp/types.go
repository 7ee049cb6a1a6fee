// Package mcp exposes the incident report index over the Model Context
// Protocol.
package mcp

import "encoding/json"

// SearchReportsInput defines the input parameters for the search_reports tool.
type SearchReportsInput struct {
	// Question is the natural-language query.
	Question string `json:"question" jsonschema:"required,description=Natural-language question about incident reports"`
	// Alpha balances dense and sparse contributions (1 = dense only, 0 = sparse only).
	Alpha *float64 `json:"alpha,omitempty" jsonschema:"minimum=0,maximum=1,default=0.8,description=Dense/sparse balance: 1 is semantic only and 0 is keyword only"`
	// TopK is the maximum number of chunks to return.
	TopK int `json:"top_k,omitempty" jsonschema:"minimum=1,maximum=50,default=10,description=Maximum number of results to return"`
	// Year restricts results to incidents from a specific year.
	Year int `json:"year,omitempty" jsonschema:"description=Restrict to incidents from this year"`
	// Aircraft restricts results to a specific aircraft type.
	Aircraft string `json:"aircraft,omitempty" jsonschema:"description=Restrict to incidents involving this aircraft type"`
	// Location restricts results to a specific location.
	Location string `json:"location,omitempty" jsonschema:"description=Restrict to incidents at this location"`
	// Filter is an advanced filter tree in JSON form; overrides the simple
	// year/aircraft/location fields when set.
	Filter json.RawMessage `json:"filter,omitempty" jsonschema:"description=Advanced filter tree using $and/$or over $eq/$gt/$gte/$lt/$lte leaves"`
}

// SearchReportsOutput contains ranked search results.
type SearchReportsOutput struct {
	Results []ReportHit `json:"results"`
	// Message provides informational context when no results match.
	Message string `json:"message,omitempty"`
}

// ReportHit is one ranked chunk with its incident metadata.
type ReportHit struct {
	Score    float64 `json:"score"`
	Path     string  `json:"path"`
	Aircraft string  `json:"aircraft"`
	Location string  `json:"location"`
	DateTime string  `json:"date_time"`
	Day      int     `json:"day"`
	Month    int     `json:"month"`
	Year     int     `json:"year"`
	Text     string  `json:"text"`
}

// FetchReportInput defines the input parameters for the fetch_report tool.
type FetchReportInput struct {
	// Path is the source-relative report path to retrieve.
	Path string `json:"path" jsonschema:"required,description=The report path to retrieve (e.g. reports/2023-01-17.pdf)"`
}

// FetchReportOutput contains a full report reassembled from its chunks.
type FetchReportOutput struct {
	Path string `json:"path"`
	// Text is the report text, chunks concatenated in order.
	Text string `json:"text"`
	// Chunks is the number of index chunks the report spans.
	Chunks int `json:"chunks"`
	// Found indicates whether the report exists in the index.
	Found bool `json:"found"`
}

// ListReportsInput defines the input parameters for the list_reports tool.
type ListReportsInput struct {
	// No input parameters required
}

// ListReportsOutput contains all indexed report paths.
type ListReportsOutput struct {
	Paths []string `json:"paths"`
	Count int      `json:"count"`
}

// StatusInput defines the input parameters for the index_status tool.
type StatusInput struct {
	// No input parameters required
}

// StatusOutput describes the state of the index.
type StatusOutput struct {
	TotalReports int      `json:"total_reports"`
	TotalChunks  int      `json:"total_chunks"`
	IndexedPaths []string `json:"indexed_paths"`
	Healthy      bool     `json:"healthy"`
}
