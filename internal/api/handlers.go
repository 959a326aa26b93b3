package api

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/bull/sage-search/internal/search"
)

type searchRequest struct {
	Query string   `json:"query"`
	TopK  int      `json:"top_k"`
	Roots []string `json:"roots,omitempty"`
	Paths []string `json:"paths,omitempty"`
}

type searchResponse struct {
	Results []search.Result `json:"results"`
}

type indexResponse struct {
	Started bool   `json:"started"`
	Message string `json:"message"`
}

type rootRequest struct {
	Path string `json:"path"`
}

type rootsResponse struct {
	Roots []string `json:"roots"`
	Count int      `json:"count"`
}

type healthResponse struct {
	Status    string `json:"status"`
	Store     string `json:"store"`
	Timestamp string `json:"timestamp"`
}

type errorResponse struct {
	Error string `json:"error"`
}

func (s *Server) handleSearch(w http.ResponseWriter, r *http.Request) {
	var req searchRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}

	results, err := s.searcher.Search(r.Context(), req.Query, req.TopK, search.Scope{
		Roots: req.Roots,
		Paths: req.Paths,
	})
	if err != nil {
		s.logger.Error("search failed", "error", err)
		writeError(w, http.StatusInternalServerError, "search failed")
		return
	}

	writeJSON(w, http.StatusOK, searchResponse{Results: results})
}

func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	// The run must outlive the request.
	started, err := s.trigger.Request(context.WithoutCancel(r.Context()))
	if err != nil {
		s.logger.Error("failed to trigger indexing", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to trigger indexing")
		return
	}

	resp := indexResponse{Started: started}
	if started {
		resp.Message = "indexing run started"
	} else {
		resp.Message = "indexing run already in progress; request merged"
	}
	writeJSON(w, http.StatusAccepted, resp)
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 3*time.Second)
	defer cancel()

	resp := healthResponse{
		Timestamp: time.Now().UTC().Format(time.RFC3339),
	}

	if err := s.store.Health(ctx); err != nil {
		resp.Status = "unhealthy"
		resp.Store = "disconnected"
		writeJSON(w, http.StatusServiceUnavailable, resp)
		return
	}

	resp.Status = "healthy"
	resp.Store = "connected"
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleListRoots(w http.ResponseWriter, r *http.Request) {
	roots, err := s.ledger.Roots()
	if err != nil {
		s.logger.Error("failed to list roots", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to list roots")
		return
	}
	if roots == nil {
		roots = []string{}
	}
	writeJSON(w, http.StatusOK, rootsResponse{Roots: roots, Count: len(roots)})
}

func (s *Server) handleAddRoot(w http.ResponseWriter, r *http.Request) {
	var req rootRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}

	normalized, err := s.ledger.AddRoot(req.Path)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	writeJSON(w, http.StatusCreated, map[string]string{"root": normalized})
}

func (s *Server) handleRemoveRoot(w http.ResponseWriter, r *http.Request) {
	var req rootRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}

	if err := s.ledger.RemoveRoot(req.Path); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, errorResponse{Error: msg})
}
