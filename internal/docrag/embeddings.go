package docrag

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"sort"
	"strings"
	"time"
)

// Embedder maps a batch of texts to fixed-length vectors. Deterministic
// for identical input and stateless across calls.
type Embedder interface {
	EmbedTexts(ctx context.Context, texts []string) ([][]float32, error)
}

// EmbeddingClient calls an OpenAI-compatible /v1/embeddings endpoint.
type EmbeddingClient struct {
	endpoint   string
	apiKey     string
	model      string
	dimensions int
	client     *http.Client
}

func NewEmbeddingClient(cfg Config) (*EmbeddingClient, error) {
	if strings.TrimSpace(cfg.EmbeddingEndpoint) == "" {
		return nil, fmt.Errorf("embedding endpoint is required")
	}
	if strings.TrimSpace(cfg.EmbeddingModel) == "" {
		return nil, fmt.Errorf("embedding model is required")
	}
	timeout := cfg.EmbeddingTimeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &EmbeddingClient{
		endpoint:   cfg.EmbeddingEndpoint,
		apiKey:     cfg.EmbeddingAPIKey,
		model:      cfg.EmbeddingModel,
		dimensions: cfg.EmbeddingDimensions,
		client:     &http.Client{Timeout: timeout},
	}, nil
}

func (c *EmbeddingClient) EmbedTexts(ctx context.Context, texts []string) ([][]float32, error) {
	if len(texts) == 0 {
		return nil, fmt.Errorf("no texts provided")
	}
	reqBody := map[string]any{
		"model": c.model,
		"input": texts,
	}
	if c.dimensions > 0 {
		reqBody["dimensions"] = c.dimensions
	}
	data, err := json.Marshal(reqBody)
	if err != nil {
		return nil, err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(data))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	if c.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	body, _ := io.ReadAll(resp.Body)
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("embeddings status %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}

	var parsed struct {
		Data []struct {
			Embedding []float64 `json:"embedding"`
			Index     int       `json:"index"`
		} `json:"data"`
	}
	if err := json.Unmarshal(body, &parsed); err != nil {
		return nil, err
	}
	if len(parsed.Data) != len(texts) {
		return nil, fmt.Errorf("embedding response has %d vectors for %d texts", len(parsed.Data), len(texts))
	}
	sort.Slice(parsed.Data, func(i, j int) bool { return parsed.Data[i].Index < parsed.Data[j].Index })

	vectors := make([][]float32, len(parsed.Data))
	for i, item := range parsed.Data {
		vec := make([]float32, len(item.Embedding))
		for j, val := range item.Embedding {
			vec[j] = float32(val)
		}
		vectors[i] = vec
	}
	return vectors, nil
}
