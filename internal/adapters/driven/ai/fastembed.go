package ai

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/custodia-labs/chonkit/internal/core/domain"
	"github.com/custodia-labs/chonkit/internal/core/ports/driven"
)

var _ driven.Embedder = (*FastEmbed)(nil)

// fastEmbedModelDimensions lists the models a FastEmbed server is expected
// to serve and their vector dimensions.
var fastEmbedModelDimensions = map[string]int{
	"BAAI/bge-small-en-v1.5": 384,
	"BAAI/bge-base-en-v1.5":  768,
	"sentence-transformers/all-MiniLM-L6-v2": 384,
}

// FastEmbed implements driven.Embedder against a FastEmbed HTTP server: the
// same wire format serves both the local variant (a sidecar process on
// localhost) and the remote variant (a shared inference service), which is
// why one adapter backs both provider tags.
type FastEmbed struct {
	provider string
	baseURL  string
	client   *http.Client
}

// NewFastEmbedLocal targets a FastEmbed server run as a local sidecar
// process (no authentication, low latency expected).
func NewFastEmbedLocal(baseURL string) *FastEmbed {
	if baseURL == "" {
		baseURL = "http://localhost:8085"
	}
	return &FastEmbed{provider: "fastembed-local", baseURL: baseURL, client: &http.Client{Timeout: 30 * time.Second}}
}

// NewFastEmbedRemote targets a shared FastEmbed inference service reachable
// over the network.
func NewFastEmbedRemote(baseURL string) *FastEmbed {
	return &FastEmbed{provider: "fastembed-remote", baseURL: baseURL, client: &http.Client{Timeout: 60 * time.Second}}
}

func (f *FastEmbed) Provider() string { return f.provider }

func (f *FastEmbed) ListModels(context.Context) ([]string, error) {
	models := make([]string, 0, len(fastEmbedModelDimensions))
	for m := range fastEmbedModelDimensions {
		models = append(models, m)
	}
	return models, nil
}

func (f *FastEmbed) Dimension(_ context.Context, model string) (int, error) {
	d, ok := fastEmbedModelDimensions[model]
	if !ok {
		return 0, fmt.Errorf("%w: %q", domain.ErrModelUnknown, model)
	}
	return d, nil
}

type fastEmbedRequest struct {
	Inputs []string `json:"inputs"`
	Model  string   `json:"model"`
}

func (f *FastEmbed) Embed(ctx context.Context, model string, chunks []string) ([][]float32, error) {
	if len(chunks) == 0 {
		return nil, nil
	}
	if _, ok := fastEmbedModelDimensions[model]; !ok {
		return nil, fmt.Errorf("%w: %q", domain.ErrModelUnknown, model)
	}

	body, err := json.Marshal(fastEmbedRequest{Inputs: chunks, Model: model})
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, f.baseURL+"/embed", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := f.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %s", domain.ErrEmbedUpstream, err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("%w: fastembed server returned status %d: %s", domain.ErrEmbedUpstream, resp.StatusCode, respBody)
	}

	var embeddings [][]float32
	if err := json.Unmarshal(respBody, &embeddings); err != nil {
		return nil, fmt.Errorf("failed to parse response: %w", err)
	}
	if len(embeddings) != len(chunks) {
		return nil, fmt.Errorf("%w: fastembed server returned %d vectors for %d chunks", domain.ErrEmbedUpstream, len(embeddings), len(chunks))
	}
	return embeddings, nil
}
