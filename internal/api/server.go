// Package api serves the HTTP surface: search, indexing control, root
// management, and health.
package api

import (
	"log/slog"
	"net/http"

	"github.com/bull/sage-search/internal/indexer"
	"github.com/bull/sage-search/internal/ledger"
	"github.com/bull/sage-search/internal/search"
	"github.com/bull/sage-search/internal/storage"
)

// Server holds the handlers' dependencies.
type Server struct {
	searcher *search.Searcher
	trigger  *indexer.Trigger
	ledger   *ledger.Ledger
	store    storage.Store
	logger   *slog.Logger
}

// NewServer creates the API server.
func NewServer(
	searcher *search.Searcher,
	trigger *indexer.Trigger,
	led *ledger.Ledger,
	store storage.Store,
	logger *slog.Logger,
) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	return &Server{
		searcher: searcher,
		trigger:  trigger,
		ledger:   led,
		store:    store,
		logger:   logger,
	}
}

// Register mounts the API routes on the mux.
func (s *Server) Register(mux *http.ServeMux) {
	mux.HandleFunc("POST /search", s.handleSearch)
	mux.HandleFunc("POST /index", s.handleIndex)
	mux.HandleFunc("GET /health", s.handleHealth)
	mux.HandleFunc("GET /roots", s.handleListRoots)
	mux.HandleFunc("POST /roots", s.handleAddRoot)
	mux.HandleFunc("DELETE /roots", s.handleRemoveRoot)
}
