package mcp

import (
	"context"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/bull/sage-search/internal/indexer"
	"github.com/bull/sage-search/internal/ledger"
	"github.com/bull/sage-search/internal/search"
	"github.com/bull/sage-search/internal/storage"
)

// Server wraps the MCP server with dependencies.
type Server struct {
	server   *mcp.Server
	searcher *search.Searcher
	trigger  *indexer.Trigger
	ledger   *ledger.Ledger
	store    storage.Store
}

// Config holds server dependencies.
type Config struct {
	Searcher *search.Searcher
	Trigger  *indexer.Trigger
	Ledger   *ledger.Ledger
	Store    storage.Store
}

// NewServer creates a configured MCP server with tools registered.
func NewServer(cfg *Config) *Server {
	impl := &mcp.Implementation{
		Name:    "sage-search",
		Version: "v0.1.0",
	}

	server := mcp.NewServer(impl, nil)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "search_files",
		Description: "Search indexed local files semantically. Tolerates typos in the query and returns ranked files with query-relevant snippets.",
	}, makeSearchHandler(cfg.Searcher))

	mcp.AddTool(server, &mcp.Tool{
		Name:        "trigger_index",
		Description: "Start an incremental indexing run over the watched directories. Returns immediately; a run already in progress absorbs the request.",
	}, makeTriggerHandler(cfg.Trigger))

	mcp.AddTool(server, &mcp.Tool{
		Name:        "list_roots",
		Description: "List the directories currently watched for indexing.",
	}, makeListRootsHandler(cfg.Ledger))

	mcp.AddTool(server, &mcp.Tool{
		Name:        "index_status",
		Description: "Get the current index status including file and chunk counts, watched roots, and whether an indexing run is active.",
	}, makeStatusHandler(cfg.Ledger, cfg.Store, cfg.Trigger))

	return &Server{
		server:   server,
		searcher: cfg.Searcher,
		trigger:  cfg.Trigger,
		ledger:   cfg.Ledger,
		store:    cfg.Store,
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
