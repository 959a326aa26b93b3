// Package mock provides a deterministic test double for embedding.Embedder.
// Vectors are bag-of-words sums of per-token hash vectors, so texts sharing
// words land near each other in vector space, which is enough structure for
// ranking assertions without a real model.
package mock

import (
	"context"
	"hash/fnv"
	"math"
	"strings"
	"unicode"
)

// Embedder is a test double with optional behavior injection.
type Embedder struct {
	// EmbedFunc overrides Embed when set.
	EmbedFunc func(ctx context.Context, text string) ([]float32, error)
	// EmbedBatchFunc overrides EmbedBatch when set.
	EmbedBatchFunc func(ctx context.Context, texts []string) ([][]float32, error)

	dim       int
	callCount int
}

// New creates a mock embedder with the given dimension.
func New(dim int) *Embedder {
	if dim <= 0 {
		dim = 64
	}
	return &Embedder{dim: dim}
}

// Dimension returns the configured vector size.
func (m *Embedder) Dimension() int { return m.dim }

// Embed returns a deterministic vector for the text.
func (m *Embedder) Embed(ctx context.Context, text string) ([]float32, error) {
	m.callCount++
	if m.EmbedFunc != nil {
		return m.EmbedFunc(ctx, text)
	}
	return m.vectorFor(text), nil
}

// EmbedBatch returns deterministic vectors for the texts.
func (m *Embedder) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	m.callCount++
	if m.EmbedBatchFunc != nil {
		return m.EmbedBatchFunc(ctx, texts)
	}
	vectors := make([][]float32, len(texts))
	for i, text := range texts {
		vectors[i] = m.vectorFor(text)
	}
	return vectors, nil
}

// CallCount returns how many times any embed method was called.
func (m *Embedder) CallCount() int { return m.callCount }

// vectorFor sums token vectors and normalizes to unit length.
func (m *Embedder) vectorFor(text string) []float32 {
	vector := make([]float32, m.dim)
	for _, token := range tokenize(text) {
		tv := m.tokenVector(token)
		for i := range vector {
			vector[i] += tv[i]
		}
	}

	var sumSquares float64
	for _, v := range vector {
		sumSquares += float64(v) * float64(v)
	}
	if sumSquares > 0 {
		norm := float32(1.0 / math.Sqrt(sumSquares))
		for i := range vector {
			vector[i] *= norm
		}
	}
	return vector
}

// tokenVector derives a pseudo-random unit-range vector from the token hash.
func (m *Embedder) tokenVector(token string) []float32 {
	h := fnv.New32a()
	h.Write([]byte(token))
	seed := h.Sum32()

	vector := make([]float32, m.dim)
	for i := range vector {
		seed = seed*1664525 + 1013904223 // LCG constants
		vector[i] = float32(seed%2000)/1000.0 - 1.0
	}
	return vector
}

func tokenize(text string) []string {
	return strings.FieldsFunc(strings.ToLower(text), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
}
