package search

import (
	"github.com/bull/sage-search/internal/storage"
)

// filenameTokenWeight is the credit for a query token found only in the
// filename, relative to 1.0 for a hit in the chunk text.
const filenameTokenWeight = 0.5

// ScoredHit is a store hit with its retrieval scores attached.
type ScoredHit struct {
	storage.Hit

	Similarity float64
	Lexical    float64
	Hybrid     float64
}

// Scorer blends the vector similarity of a hit with a lexical signal: how
// many query tokens literally appear in the chunk text or filename. The
// lexical check tolerates near-misses using the same edit-similarity
// threshold as query correction, so inflected forms still count.
type Scorer struct {
	semanticWeight float64
	lexicalWeight  float64
	fuzzyThreshold float64
}

// NewScorer creates a scorer with the given blend weights.
func NewScorer(semanticWeight, lexicalWeight, fuzzyThreshold float64) *Scorer {
	return &Scorer{
		semanticWeight: semanticWeight,
		lexicalWeight:  lexicalWeight,
		fuzzyThreshold: fuzzyThreshold,
	}
}

// Score computes the hybrid score for one hit against the query tokens.
func (s *Scorer) Score(queryTokens []string, hit storage.Hit) ScoredHit {
	scored := ScoredHit{Hit: hit}
	scored.Similarity = clamp01(1 - hit.Distance)
	scored.Lexical = s.lexicalScore(queryTokens, hit)
	scored.Hybrid = clamp01(s.semanticWeight*scored.Similarity + s.lexicalWeight*scored.Lexical)
	return scored
}

// lexicalScore sums per-token credit (1.0 for the chunk text, 0.5 for the
// filename) and normalizes by the maximum attainable credit.
func (s *Scorer) lexicalScore(queryTokens []string, hit storage.Hit) float64 {
	if len(queryTokens) == 0 {
		return 0
	}

	chunkTokens := tokenSet(hit.Chunk)
	fileTokens := tokenSet(hit.File)

	var score float64
	for _, tok := range queryTokens {
		if containsToken(chunkTokens, tok, s.fuzzyThreshold) {
			score += 1.0
		}
		if containsToken(fileTokens, tok, s.fuzzyThreshold) {
			score += filenameTokenWeight
		}
	}
	return clamp01(score / ((1.0 + filenameTokenWeight) * float64(len(queryTokens))))
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
