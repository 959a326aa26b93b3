package mcp

import (
	"context"
	"fmt"
	"time"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/bull/sage-search/internal/indexer"
	"github.com/bull/sage-search/internal/ledger"
	"github.com/bull/sage-search/internal/search"
	"github.com/bull/sage-search/internal/storage"
)

// makeSearchHandler creates the search_files tool handler.
func makeSearchHandler(searcher *search.Searcher) func(
	context.Context, *mcp.CallToolRequest, SearchFilesInput,
) (*mcp.CallToolResult, SearchFilesOutput, error) {
	return func(ctx context.Context, req *mcp.CallToolRequest, input SearchFilesInput) (
		*mcp.CallToolResult, SearchFilesOutput, error,
	) {
		results, err := searcher.Search(ctx, input.Query, input.TopK, search.Scope{
			Roots: input.Roots,
			Paths: input.Paths,
		})
		if err != nil {
			return nil, SearchFilesOutput{}, fmt.Errorf("search failed: %w", err)
		}

		if len(results) == 0 {
			return nil, SearchFilesOutput{
				Results: []search.Result{},
				Message: "No matching files found. Try broader search terms or trigger an indexing run.",
			}, nil
		}
		return nil, SearchFilesOutput{Results: results}, nil
	}
}

// makeTriggerHandler creates the trigger_index tool handler.
func makeTriggerHandler(trigger *indexer.Trigger) func(
	context.Context, *mcp.CallToolRequest, TriggerIndexInput,
) (*mcp.CallToolResult, TriggerIndexOutput, error) {
	return func(ctx context.Context, req *mcp.CallToolRequest, input TriggerIndexInput) (
		*mcp.CallToolResult, TriggerIndexOutput, error,
	) {
		// The run must outlive this tool call.
		started, err := trigger.Request(context.WithoutCancel(ctx))
		if err != nil {
			return nil, TriggerIndexOutput{}, fmt.Errorf("trigger indexing: %w", err)
		}

		out := TriggerIndexOutput{Started: started}
		if started {
			out.Message = "Indexing run started."
		} else {
			out.Message = "An indexing run is already in progress; your request was merged into it."
		}
		return nil, out, nil
	}
}

// makeListRootsHandler creates the list_roots tool handler.
func makeListRootsHandler(led *ledger.Ledger) func(
	context.Context, *mcp.CallToolRequest, ListRootsInput,
) (*mcp.CallToolResult, ListRootsOutput, error) {
	return func(ctx context.Context, req *mcp.CallToolRequest, input ListRootsInput) (
		*mcp.CallToolResult, ListRootsOutput, error,
	) {
		roots, err := led.Roots()
		if err != nil {
			return nil, ListRootsOutput{}, fmt.Errorf("list roots: %w", err)
		}
		if roots == nil {
			roots = []string{}
		}
		return nil, ListRootsOutput{Roots: roots, Count: len(roots)}, nil
	}
}

// makeStatusHandler creates the index_status tool handler.
func makeStatusHandler(led *ledger.Ledger, store storage.Store, trigger *indexer.Trigger) func(
	context.Context, *mcp.CallToolRequest, IndexStatusInput,
) (*mcp.CallToolResult, IndexStatusOutput, error) {
	return func(ctx context.Context, req *mcp.CallToolRequest, input IndexStatusInput) (
		*mcp.CallToolResult, IndexStatusOutput, error,
	) {
		rows, err := led.All()
		if err != nil {
			return nil, IndexStatusOutput{}, fmt.Errorf("read ledger: %w", err)
		}

		chunks, err := store.Count(ctx)
		if err != nil {
			return nil, IndexStatusOutput{}, fmt.Errorf("count chunks: %w", err)
		}

		roots, err := led.Roots()
		if err != nil {
			return nil, IndexStatusOutput{}, fmt.Errorf("list roots: %w", err)
		}
		if roots == nil {
			roots = []string{}
		}

		var last time.Time
		for _, rec := range rows {
			if rec.IndexedAt.After(last) {
				last = rec.IndexedAt
			}
		}

		out := IndexStatusOutput{
			IndexedFiles:  len(rows),
			IndexedChunks: chunks,
			Running:       trigger.Running(),
			Roots:         roots,
		}
		if !last.IsZero() {
			out.LastIndexedAt = last.Format(time.RFC3339)
		}
		return nil, out, nil
	}
}
