package mcp

import (
	"context"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/incidentlabs/hybrid-index/internal/search"
)

// Server wraps the MCP server with dependencies.
type Server struct {
	server   *mcp.Server
	store    Store
	composer *search.Composer
}

// Config holds server dependencies.
type Config struct {
	Store    Store
	Composer *search.Composer
}

// NewServer creates a configured MCP server with tools registered.
func NewServer(cfg *Config) *Server {
	impl := &mcp.Implementation{
		Name:    "incident-report-server",
		Version: "v0.1.0",
	}

	server := mcp.NewServer(impl, nil)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "search_reports",
		Description: "Search aviation incident reports with a hybrid semantic and keyword query. Supports filtering by year, aircraft and location. Returns ranked chunks with incident metadata.",
	}, makeSearchHandler(cfg.Composer))

	mcp.AddTool(server, &mcp.Tool{
		Name:        "fetch_report",
		Description: "Retrieve a specific incident report by path, reassembled from its indexed chunks.",
	}, makeFetchHandler(cfg.Store))

	mcp.AddTool(server, &mcp.Tool{
		Name:        "list_reports",
		Description: "List the paths of all indexed incident reports.",
	}, makeListHandler(cfg.Store))

	mcp.AddTool(server, &mcp.Tool{
		Name:        "index_status",
		Description: "Report the state of the incident report index: report and chunk counts, indexed paths and backend health.",
	}, makeStatusHandler(cfg.Store))

	return &Server{
		server:   server,
		store:    cfg.Store,
		composer: cfg.Composer,
	}
}

// Run starts the server with stdio transport (blocks until client disconnects).
func (s *Server) Run(ctx context.Context) error {
	return s.server.Run(ctx, &mcp.StdioTransport{})
}

// MCPServer returns the underlying MCP server instance.
// Used by transport handlers that need to wrap the server.
func (s *Server) MCPServer() *mcp.Server {
	return s.server
}
