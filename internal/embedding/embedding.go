// Package embedding maps text to fixed-dimension vectors. Two clients are
// provided: the OpenAI API and a local embedding server. Both retry
// transient failures with the shared backoff policy before surfacing them.
package embedding

import "context"

// Embedder is the embedding-service contract used by indexing and search.
type Embedder interface {
	// Embed maps a single text to a vector.
	Embed(ctx context.Context, text string) ([]float32, error)
	// EmbedBatch maps texts to vectors, preserving order.
	EmbedBatch(ctx context.Context, texts []string) ([][]float32, error)
	// Dimension returns the fixed output dimensionality.
	Dimension() int
}
