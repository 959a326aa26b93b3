package embedding

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/bull/sage-search/internal/retry"
)

// Local talks to a local embedding server over HTTP. The server exposes
// POST /embed accepting {"texts": [...]} and returning {"vectors": [[...]]},
// plus GET /health for liveness.
type Local struct {
	baseURL   string
	dimension int
	client    *http.Client
	policy    retry.Policy
}

type embedRequest struct {
	Texts []string `json:"texts"`
}

type embedResponse struct {
	Vectors [][]float32 `json:"vectors"`
}

// NewLocal creates a client for the embedding server at baseURL.
func NewLocal(baseURL string, dimension int, timeout time.Duration, policy retry.Policy) *Local {
	return &Local{
		baseURL:   strings.TrimRight(baseURL, "/"),
		dimension: dimension,
		client:    &http.Client{Timeout: timeout},
		policy:    policy,
	}
}

// Dimension returns the configured vector size.
func (l *Local) Dimension() int { return l.dimension }

// Health checks server liveness.
func (l *Local) Health(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, l.baseURL+"/health", nil)
	if err != nil {
		return err
	}
	resp, err := l.client.Do(req)
	if err != nil {
		return fmt.Errorf("embedding server unreachable: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("embedding server unhealthy: status %d", resp.StatusCode)
	}
	return nil
}

// Embed maps a single text to a vector.
func (l *Local) Embed(ctx context.Context, text string) ([]float32, error) {
	vectors, err := l.EmbedBatch(ctx, []string{text})
	if err != nil {
		return nil, err
	}
	return vectors[0], nil
}

// EmbedBatch maps texts to vectors in one request, retrying transient
// failures with the shared policy.
func (l *Local) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	if len(texts) == 0 {
		return nil, nil
	}

	body, err := json.Marshal(embedRequest{Texts: texts})
	if err != nil {
		return nil, err
	}

	var vectors [][]float32
	err = l.policy.Do(ctx, func() error {
		req, err := http.NewRequestWithContext(ctx, http.MethodPost, l.baseURL+"/embed", bytes.NewReader(body))
		if err != nil {
			return retry.Permanent(err)
		}
		req.Header.Set("Content-Type", "application/json")

		resp, err := l.client.Do(req)
		if err != nil {
			return err
		}
		defer resp.Body.Close()

		if resp.StatusCode >= 500 {
			return fmt.Errorf("embedding server error: status %d", resp.StatusCode)
		}
		if resp.StatusCode != http.StatusOK {
			return retry.Permanent(fmt.Errorf("embedding request rejected: status %d", resp.StatusCode))
		}

		data, err := io.ReadAll(resp.Body)
		if err != nil {
			return err
		}
		var parsed embedResponse
		if err := json.Unmarshal(data, &parsed); err != nil {
			return retry.Permanent(fmt.Errorf("decode embedding response: %w", err))
		}
		if len(parsed.Vectors) != len(texts) {
			return retry.Permanent(fmt.Errorf("embedding count mismatch: sent %d texts, got %d vectors",
				len(texts), len(parsed.Vectors)))
		}
		vectors = parsed.Vectors
		return nil
	})
	if err != nil {
		return nil, err
	}
	return vectors, nil
}
