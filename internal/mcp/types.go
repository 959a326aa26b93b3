// Package mcp exposes local file search and indexing as Model Context
// Protocol tools.
package mcp

import "github.com/bull/sage-search/internal/search"

// SearchFilesInput defines the input parameters for the search_files tool.
type SearchFilesInput struct {
	// Query is the natural-language search query.
	Query string `json:"query" jsonschema:"required,description=The semantic search query for finding relevant local files"`
	// TopK is the maximum number of files to return.
	TopK int `json:"top_k,omitempty" jsonschema:"minimum=1,maximum=50,default=5,description=Maximum number of files to return"`
	// Roots restricts the search to files under these directories.
	Roots []string `json:"roots,omitempty" jsonschema:"description=Restrict the search to files under these directories"`
	// Paths restricts the search to exactly these file paths.
	Paths []string `json:"paths,omitempty" jsonschema:"description=Restrict the search to exactly these file paths"`
}

// SearchFilesOutput contains the search results.
type SearchFilesOutput struct {
	// Results is the ranked list of matching files with snippets.
	Results []search.Result `json:"results"`
	// Message provides informational context (e.g. "No matching files found").
	Message string `json:"message,omitempty"`
}

// TriggerIndexInput defines the input for the trigger_index tool.
// The tool takes no parameters.
type TriggerIndexInput struct{}

// TriggerIndexOutput reports whether a new indexing run was started.
type TriggerIndexOutput struct {
	// Started is true when a fresh run began; false means a run was
	// already active and this request was folded into it.
	Started bool `json:"started"`
	// Message describes the outcome in human terms.
	Message string `json:"message"`
}

// ListRootsInput defines the input for the list_roots tool.
// The tool takes no parameters.
type ListRootsInput struct{}

// ListRootsOutput contains the watched root directories.
type ListRootsOutput struct {
	// Roots is the sorted list of watched directories.
	Roots []string `json:"roots"`
	// Count is the number of roots.
	Count int `json:"count"`
}

// IndexStatusInput defines the input for the index_status tool.
// The tool takes no parameters.
type IndexStatusInput struct{}

// IndexStatusOutput summarizes the state of the index.
type IndexStatusOutput struct {
	// IndexedFiles is the number of files tracked by the ledger.
	IndexedFiles int `json:"indexed_files"`
	// IndexedChunks is the number of chunks in the vector store.
	IndexedChunks uint64 `json:"indexed_chunks"`
	// Running indicates an indexing run is currently active.
	Running bool `json:"running"`
	// Roots is the watched root directories.
	Roots []string `json:"roots"`
	// LastIndexedAt is the most recent file index time, RFC 3339.
	LastIndexedAt string `json:"last_indexed_at,omitempty"`
}
