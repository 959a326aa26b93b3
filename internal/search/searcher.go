package search

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"sort"
	"strings"

	"github.com/bull/sage-search/internal/config"
	"github.com/bull/sage-search/internal/embedding"
	"github.com/bull/sage-search/internal/ledger"
	"github.com/bull/sage-search/internal/storage"
)

// Result is one entry of a search response.
type Result struct {
	File         string   `json:"file"`
	Path         string   `json:"path"`
	Snippet      string   `json:"snippet"`
	MatchedTerms []string `json:"matched_terms"`
	Similarity   float64  `json:"similarity"`
	HybridScore  float64  `json:"hybrid_score"`
}

// Scope restricts a search to parts of the corpus. Paths wins over Roots
// when both are set; an empty scope searches everything.
type Scope struct {
	Roots []string
	Paths []string
}

// Searcher runs the full retrieval pipeline: correct the query against the
// corpus vocabulary, embed it once, overfetch nearest chunks, blend
// semantic and lexical scores, collapse to the best chunk per file, and
// extract a query-aware snippet for each survivor.
type Searcher struct {
	store    storage.Store
	embedder embedding.Embedder
	vocab    *Vocabulary
	correct  *Corrector
	scorer   *Scorer
	snippets *SnippetExtractor

	topK        int
	fetchBuffer int
	logger      *slog.Logger
}

// NewSearcher wires the pipeline from its configuration.
func NewSearcher(store storage.Store, embedder embedding.Embedder, cfg config.SearchConfig, logger *slog.Logger) *Searcher {
	if logger == nil {
		logger = slog.Default()
	}
	vocab := NewVocabulary(store)
	return &Searcher{
		store:       store,
		embedder:    embedder,
		vocab:       vocab,
		correct:     NewCorrector(vocab, cfg.MinFuzzyLength, cfg.FuzzyThreshold),
		scorer:      NewScorer(cfg.SemanticWeight, cfg.LexicalWeight, cfg.FuzzyThreshold),
		snippets:    NewSnippetExtractor(embedder, cfg.MaxSnippetLines, cfg.FuzzyThreshold),
		topK:        cfg.TopK,
		fetchBuffer: cfg.FetchBuffer,
		logger:      logger,
	}
}

// InvalidateVocabulary drops the cached corpus vocabulary. Hook this into
// the indexing trigger so completed runs refresh query correction.
func (s *Searcher) InvalidateVocabulary() {
	s.vocab.Invalidate()
}

// Search executes one query. topK <= 0 falls back to the configured
// default. An empty query or an empty corpus yields an empty, non-nil
// result slice.
func (s *Searcher) Search(ctx context.Context, query string, topK int, scope Scope) ([]Result, error) {
	results := []Result{}

	query = strings.TrimSpace(query)
	if query == "" {
		return results, nil
	}
	if topK <= 0 {
		topK = s.topK
	}

	corrected, err := s.correct.Correct(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("correct query: %w", err)
	}
	if corrected != query {
		s.logger.Info("corrected query", "from", query, "to", corrected)
	}

	vector, err := s.embedder.Embed(ctx, corrected)
	if err != nil {
		return nil, fmt.Errorf("embed query: %w", err)
	}

	hits, err := s.store.QueryNearest(ctx, vector, topK*s.fetchBuffer)
	if err != nil {
		return nil, fmt.Errorf("query store: %w", err)
	}

	queryTokens := wordTokens(corrected)
	keep := scopeFilter(scope)
	dedup := newDeduplicator()
	for _, hit := range hits {
		if !keep(hit.Path) {
			continue
		}
		dedup.add(s.scorer.Score(queryTokens, hit))
	}

	ranked := dedup.results()
	sort.Slice(ranked, func(i, j int) bool {
		return betterHit(ranked[i], ranked[j])
	})
	if len(ranked) > topK {
		ranked = ranked[:topK]
	}

	for _, hit := range ranked {
		snippet, err := s.snippets.Extract(ctx, queryTokens, vector, hit.Chunk)
		if err != nil {
			return nil, fmt.Errorf("extract snippet for %s: %w", hit.Path, err)
		}
		matched := snippet.MatchedTerms
		if matched == nil {
			matched = []string{}
		}
		results = append(results, Result{
			File:         hit.File,
			Path:         hit.Path,
			Snippet:      snippet.Text,
			MatchedTerms: matched,
			Similarity:   hit.Similarity,
			HybridScore:  hit.Hybrid,
		})
	}

	s.logger.Debug("search complete",
		"query", corrected,
		"fetched", len(hits),
		"returned", len(results),
	)
	return results, nil
}

// scopeFilter builds the path predicate for a scope. Explicit paths form an
// exact allowlist; roots match any path under one of them after the same
// normalization the ledger applies.
func scopeFilter(scope Scope) func(string) bool {
	if len(scope.Paths) > 0 {
		allow := make(map[string]struct{}, len(scope.Paths))
		for _, p := range scope.Paths {
			allow[p] = struct{}{}
		}
		return func(path string) bool {
			_, ok := allow[path]
			return ok
		}
	}

	if len(scope.Roots) > 0 {
		prefixes := make([]string, 0, len(scope.Roots))
		for _, r := range scope.Roots {
			root, err := ledger.NormalizeRoot(r)
			if err != nil {
				continue
			}
			prefixes = append(prefixes, root+string(os.PathSeparator))
		}
		return func(path string) bool {
			for _, prefix := range prefixes {
				if strings.HasPrefix(path, prefix) {
					return true
				}
			}
			return false
		}
	}

	return func(string) bool { return true }
}
