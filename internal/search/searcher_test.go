package search

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bull/sage-search/internal/config"
	embedmock "github.com/bull/sage-search/internal/embedding/mock"
	"github.com/bull/sage-search/internal/storage"
)

func newTestSearcher(t *testing.T) (*Searcher, *storage.Memory, *embedmock.Embedder) {
	t.Helper()
	store := storage.NewMemory(64)
	emb := embedmock.New(64)
	searcher := NewSearcher(store, emb, config.Default().Search, nil)
	return searcher, store, emb
}

func TestSearch_TypoStillFindsDocument(t *testing.T) {
	searcher, store, emb := newTestSearcher(t)
	seedChunks(t, store, emb, "/docs/budget_report.txt", "budget_report.txt",
		"Q3 revenue increased by 12 percent.")
	seedChunks(t, store, emb, "/docs/meeting_notes.txt", "meeting_notes.txt",
		"Notes from the platform migration sync meeting.")

	results, err := searcher.Search(context.Background(), "revenu increase", 5, Scope{})
	require.NoError(t, err)
	require.NotEmpty(t, results)

	top := results[0]
	assert.Equal(t, "budget_report.txt", top.File)
	assert.Equal(t, "/docs/budget_report.txt", top.Path)
	assert.Contains(t, top.Snippet, "revenue increased")
	assert.Contains(t, top.MatchedTerms, "revenue")
	assert.Greater(t, top.HybridScore, 0.3)
	assert.Greater(t, top.HybridScore, results[len(results)-1].HybridScore-1e-9)
}

func TestSearch_DeduplicatesChunksOfSameFile(t *testing.T) {
	searcher, store, emb := newTestSearcher(t)
	seedChunks(t, store, emb, "/docs/report.txt", "report.txt",
		"revenue grew in the first quarter",
		"revenue grew again in the second quarter",
	)

	results, err := searcher.Search(context.Background(), "revenue", 5, Scope{})
	require.NoError(t, err)
	require.Len(t, results, 1, "one result per file regardless of matching chunks")
	assert.Equal(t, "/docs/report.txt", results[0].Path)
}

func TestSearch_EmptyCorpus(t *testing.T) {
	searcher, _, _ := newTestSearcher(t)

	results, err := searcher.Search(context.Background(), "anything", 5, Scope{})
	require.NoError(t, err)
	assert.NotNil(t, results)
	assert.Empty(t, results)
}

func TestSearch_EmptyQuery(t *testing.T) {
	searcher, store, emb := newTestSearcher(t)
	seedChunks(t, store, emb, "/docs/a.txt", "a.txt", "some indexed content")

	results, err := searcher.Search(context.Background(), "   ", 5, Scope{})
	require.NoError(t, err)
	assert.Empty(t, results)
}

func TestSearch_TopKTruncates(t *testing.T) {
	searcher, store, emb := newTestSearcher(t)
	seedChunks(t, store, emb, "/docs/a.txt", "a.txt", "revenue report alpha")
	seedChunks(t, store, emb, "/docs/b.txt", "b.txt", "revenue report beta")
	seedChunks(t, store, emb, "/docs/c.txt", "c.txt", "revenue report gamma")

	results, err := searcher.Search(context.Background(), "revenue", 2, Scope{})
	require.NoError(t, err)
	assert.Len(t, results, 2)
}

func TestSearch_ScopeByPaths(t *testing.T) {
	searcher, store, emb := newTestSearcher(t)
	seedChunks(t, store, emb, "/docs/a.txt", "a.txt", "revenue report alpha")
	seedChunks(t, store, emb, "/docs/b.txt", "b.txt", "revenue report beta")

	results, err := searcher.Search(context.Background(), "revenue", 5, Scope{
		Paths: []string{"/docs/b.txt"},
	})
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, "/docs/b.txt", results[0].Path)
}

func TestSearch_ScopeByRoots(t *testing.T) {
	searcher, store, emb := newTestSearcher(t)
	seedChunks(t, store, emb, "/home/user/docs/a.txt", "a.txt", "revenue report alpha")
	seedChunks(t, store, emb, "/home/user/archive/b.txt", "b.txt", "revenue report beta")

	results, err := searcher.Search(context.Background(), "revenue", 5, Scope{
		Roots: []string{"/home/user/archive/"},
	})
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, "/home/user/archive/b.txt", results[0].Path)
}

func TestSearch_RankedByHybridScoreDescending(t *testing.T) {
	searcher, store, emb := newTestSearcher(t)
	seedChunks(t, store, emb, "/docs/exact.txt", "revenue.txt",
		"revenue revenue revenue across every line")
	seedChunks(t, store, emb, "/docs/weak.txt", "misc.txt",
		"one mention of revenue among many other unrelated words here")

	results, err := searcher.Search(context.Background(), "revenue", 5, Scope{})
	require.NoError(t, err)
	require.Len(t, results, 2)
	for i := 1; i < len(results); i++ {
		assert.GreaterOrEqual(t, results[i-1].HybridScore, results[i].HybridScore)
	}
	assert.Equal(t, "/docs/exact.txt", results[0].Path)
}

func TestSearch_EmbedderFailureSurfaces(t *testing.T) {
	searcher, store, emb := newTestSearcher(t)
	seedChunks(t, store, emb, "/docs/a.txt", "a.txt", "some indexed content")

	emb.EmbedFunc = func(ctx context.Context, text string) ([]float32, error) {
		return nil, assert.AnError
	}

	_, err := searcher.Search(context.Background(), "anything", 5, Scope{})
	require.Error(t, err)
}

func TestSearch_VocabularyRefreshAfterInvalidate(t *testing.T) {
	searcher, store, emb := newTestSearcher(t)
	seedChunks(t, store, emb, "/docs/a.txt", "a.txt", "ordinary starter content")

	// Warm the vocabulary, then index a new document behind its back.
	_, err := searcher.Search(context.Background(), "ordinary", 5, Scope{})
	require.NoError(t, err)

	seedChunks(t, store, emb, "/docs/b.txt", "b.txt", "quarterly projections arrived")
	searcher.InvalidateVocabulary()

	results, err := searcher.Search(context.Background(), "quarterli projections", 5, Scope{})
	require.NoError(t, err)
	require.NotEmpty(t, results)
	assert.Equal(t, "/docs/b.txt", results[0].Path)
}
