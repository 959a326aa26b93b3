package search

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	embedmock "github.com/bull/sage-search/internal/embedding/mock"
	"github.com/bull/sage-search/internal/storage"
)

func seedChunks(t *testing.T, store *storage.Memory, emb *embedmock.Embedder, path, file string, chunks ...string) {
	t.Helper()
	vectors, err := emb.EmbedBatch(context.Background(), chunks)
	require.NoError(t, err)

	records := make([]storage.Record, len(chunks))
	for i, chunk := range chunks {
		records[i] = storage.Record{
			Path:       path,
			File:       file,
			Chunk:      chunk,
			ChunkIndex: i,
			Vector:     vectors[i],
		}
	}
	require.NoError(t, store.InsertMany(context.Background(), records))
}

func newTestVocab(t *testing.T, chunks ...string) *Vocabulary {
	t.Helper()
	store := storage.NewMemory(16)
	emb := embedmock.New(16)
	for _, chunk := range chunks {
		seedChunks(t, store, emb, "/docs/doc.txt", "doc.txt", chunk)
	}
	return NewVocabulary(store)
}

func TestVocabulary_HarvestsChunkAndFilenameTokens(t *testing.T) {
	store := storage.NewMemory(16)
	emb := embedmock.New(16)
	seedChunks(t, store, emb, "/docs/budget_report.txt", "budget_report.txt",
		"Q3 revenue increased by 12 percent.")

	vocab := NewVocabulary(store)
	tokens, err := vocab.Tokens(context.Background())
	require.NoError(t, err)

	assert.Contains(t, tokens, "revenue")
	assert.Contains(t, tokens, "increased")
	assert.Contains(t, tokens, "budget")
	assert.Contains(t, tokens, "report")
	assert.NotContains(t, tokens, "q3", "non-alphabetic tokens are not vocabulary")
	assert.NotContains(t, tokens, "by", "tokens below the minimum length are dropped")
}

func TestVocabulary_InvalidateRebuilds(t *testing.T) {
	store := storage.NewMemory(16)
	emb := embedmock.New(16)
	seedChunks(t, store, emb, "/docs/a.txt", "a.txt", "original content here")

	vocab := NewVocabulary(store)
	tokens, err := vocab.Tokens(context.Background())
	require.NoError(t, err)
	assert.NotContains(t, tokens, "addendum")

	seedChunks(t, store, emb, "/docs/b.txt", "b.txt", "a later addendum arrived")

	// Cached until invalidated.
	tokens, err = vocab.Tokens(context.Background())
	require.NoError(t, err)
	assert.NotContains(t, tokens, "addendum")

	vocab.Invalidate()
	tokens, err = vocab.Tokens(context.Background())
	require.NoError(t, err)
	assert.Contains(t, tokens, "addendum")
}

func TestCorrector_FixesTypos(t *testing.T) {
	vocab := newTestVocab(t, "Q3 revenue increased by 12 percent.")
	corrector := NewCorrector(vocab, 4, 0.75)

	got, err := corrector.Correct(context.Background(), "revenu increse")
	require.NoError(t, err)
	assert.Equal(t, "revenue increased", got)
}

func TestCorrector_LeavesExactTokensAlone(t *testing.T) {
	vocab := newTestVocab(t, "the revenue report covers spending")
	corrector := NewCorrector(vocab, 4, 0.75)

	got, err := corrector.Correct(context.Background(), "revenue spending")
	require.NoError(t, err)
	assert.Equal(t, "revenue spending", got)
}

func TestCorrector_SkipsShortTokens(t *testing.T) {
	vocab := newTestVocab(t, "the revenue report covers spending")
	corrector := NewCorrector(vocab, 4, 0.75)

	// "rev" is below the minimum correction length even though "revenue"
	// is nearby in the vocabulary.
	got, err := corrector.Correct(context.Background(), "rev spending")
	require.NoError(t, err)
	assert.Equal(t, "rev spending", got)
}

func TestCorrector_RespectsThreshold(t *testing.T) {
	vocab := newTestVocab(t, "quarterly revenue analysis")
	corrector := NewCorrector(vocab, 4, 0.75)

	got, err := corrector.Correct(context.Background(), "zebra")
	require.NoError(t, err)
	assert.Equal(t, "zebra", got, "a token with no close vocabulary word stays as-is")
}

func TestCorrector_PreservesCapitalization(t *testing.T) {
	vocab := newTestVocab(t, "quarterly revenue analysis")
	corrector := NewCorrector(vocab, 4, 0.75)

	got, err := corrector.Correct(context.Background(), "Revenu")
	require.NoError(t, err)
	assert.Equal(t, "Revenue", got)
}

func TestCorrector_EmptyVocabularyIsNoOp(t *testing.T) {
	vocab := NewVocabulary(storage.NewMemory(16))
	corrector := NewCorrector(vocab, 4, 0.75)

	got, err := corrector.Correct(context.Background(), "anythng at all")
	require.NoError(t, err)
	assert.Equal(t, "anythng at all", got)
}

func TestSimilarityRatio(t *testing.T) {
	assert.Equal(t, 1.0, similarityRatio("same", "same"))
	assert.InDelta(t, 1-1.0/7, similarityRatio("revenu", "revenue"), 1e-9)
	assert.Less(t, similarityRatio("zebra", "revenue"), 0.5)
}
