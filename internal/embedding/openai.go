package embedding

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/openai/openai-go"

	"github.com/bull/sage-search/internal/retry"
)

const (
	// DefaultOpenAIModel is the embedding model used unless configured.
	DefaultOpenAIModel = "text-embedding-3-small"

	// openAIDimension is the vector size of text-embedding-3-small.
	openAIDimension = 1536

	// DefaultBatchSize balances requests-per-minute vs tokens-per-minute
	// rate limits. OpenAI accepts up to 2048 texts per request.
	DefaultBatchSize = 500
)

// OpenAI generates embeddings via the OpenAI API, batching requests and
// retrying rate-limit errors with the shared backoff policy.
type OpenAI struct {
	client    *openai.Client
	model     string
	batchSize int
	policy    retry.Policy
}

// NewOpenAI creates an OpenAI embedder. The OPENAI_API_KEY environment
// variable must be set. Zero values select the defaults.
func NewOpenAI(model string, batchSize int, policy retry.Policy) (*OpenAI, error) {
	if os.Getenv("OPENAI_API_KEY") == "" {
		return nil, errors.New("OPENAI_API_KEY environment variable not set")
	}
	if model == "" {
		model = DefaultOpenAIModel
	}
	if batchSize <= 0 {
		batchSize = DefaultBatchSize
	}

	// openai-go reads OPENAI_API_KEY from the environment.
	client := openai.NewClient()

	return &OpenAI{
		client:    &client,
		model:     model,
		batchSize: batchSize,
		policy:    policy,
	}, nil
}

// Dimension returns the model's fixed vector size.
func (o *OpenAI) Dimension() int { return openAIDimension }

// Embed maps a single text to a vector.
func (o *OpenAI) Embed(ctx context.Context, text string) ([]float32, error) {
	vectors, err := o.EmbedBatch(ctx, []string{text})
	if err != nil {
		return nil, err
	}
	return vectors[0], nil
}

// EmbedBatch maps texts to vectors in API-sized batches.
func (o *OpenAI) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	var all [][]float32

	for i := 0; i < len(texts); i += o.batchSize {
		end := min(i+o.batchSize, len(texts))
		vectors, err := o.embedBatch(ctx, texts[i:end])
		if err != nil {
			return nil, fmt.Errorf("batch %d-%d: %w", i, end, err)
		}
		all = append(all, vectors...)
	}

	return all, nil
}

// embedBatch issues one API call with retry. Rate-limit errors back off;
// other API errors are permanent and fail immediately.
func (o *OpenAI) embedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	var vectors [][]float32

	err := o.policy.Do(ctx, func() error {
		resp, err := o.client.Embeddings.New(ctx, openai.EmbeddingNewParams{
			Input: openai.EmbeddingNewParamsInputUnion{
				OfArrayOfStrings: texts,
			},
			Model: o.model,
		})
		if err != nil {
			if isRateLimitError(err) {
				return err
			}
			return retry.Permanent(err)
		}

		if len(resp.Data) != len(texts) {
			return retry.Permanent(fmt.Errorf("embedding count mismatch: sent %d texts, got %d embeddings",
				len(texts), len(resp.Data)))
		}

		vectors = make([][]float32, len(resp.Data))
		for i, data := range resp.Data {
			vectors[i] = toFloat32(data.Embedding)
		}
		return nil
	})
	return vectors, err
}

// isRateLimitError checks for HTTP 429 responses.
func isRateLimitError(err error) bool {
	var apiErr *openai.Error
	if errors.As(err, &apiErr) {
		return apiErr.StatusCode == 429
	}
	return false
}

// toFloat32 converts the API's float64 vectors to the storage type.
func toFloat32(f64 []float64) []float32 {
	f32 := make([]float32, len(f64))
	for i, v := range f64 {
		f32[i] = float32(v)
	}
	return f32
}
