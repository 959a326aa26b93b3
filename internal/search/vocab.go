package search

import (
	"context"
	"sync"

	"github.com/bull/sage-search/internal/storage"
)

// vocabMinTokenLength is the shortest token worth fuzzy-matching against.
const vocabMinTokenLength = 3

// Vocabulary is the corpus token set used for fuzzy query correction. It is
// harvested lazily from every indexed chunk's text and filename, cached,
// and invalidated after each completed indexing run. Stale reads are safe:
// a query may correct against a slightly outdated vocabulary.
type Vocabulary struct {
	store storage.Store

	mu     sync.Mutex
	tokens map[string]struct{}
	built  bool
}

// NewVocabulary creates a lazily-built vocabulary over the store.
func NewVocabulary(store storage.Store) *Vocabulary {
	return &Vocabulary{store: store}
}

// Tokens returns the cached token set, building it on first use.
func (v *Vocabulary) Tokens(ctx context.Context) (map[string]struct{}, error) {
	v.mu.Lock()
	defer v.mu.Unlock()

	if v.built {
		return v.tokens, nil
	}

	tokens := make(map[string]struct{})
	err := v.store.ScrollChunks(ctx, func(path, file, chunk string) error {
		for _, tok := range alphaTokens(chunk, vocabMinTokenLength) {
			tokens[tok] = struct{}{}
		}
		for _, tok := range alphaTokens(file, vocabMinTokenLength) {
			tokens[tok] = struct{}{}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	v.tokens = tokens
	v.built = true
	return v.tokens, nil
}

// Invalidate drops the cache; the next Tokens call rebuilds it.
func (v *Vocabulary) Invalidate() {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.built = false
	v.tokens = nil
}
