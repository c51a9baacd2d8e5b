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

var _ driven.Embedder = (*OpenAIEmbedding)(nil)

// openAIModelDimensions lists the supported models and their vector
// dimensions; Embed/Dimension reject anything not in this map.
var openAIModelDimensions = map[string]int{
	"text-embedding-3-small": 1536,
	"text-embedding-3-large": 3072,
	"text-embedding-ada-002": 1536,
}

// OpenAIEmbedding implements driven.Embedder against OpenAI's embeddings API.
type OpenAIEmbedding struct {
	apiKey  string
	baseURL string
	client  *http.Client
}

func NewOpenAIEmbedding(apiKey, baseURL string) (*OpenAIEmbedding, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("openai API key is required")
	}
	if baseURL == "" {
		baseURL = "https://api.openai.com/v1"
	}
	return &OpenAIEmbedding{
		apiKey:  apiKey,
		baseURL: baseURL,
		client:  &http.Client{Timeout: 60 * time.Second},
	}, nil
}

func (e *OpenAIEmbedding) Provider() string { return "openai" }

func (e *OpenAIEmbedding) ListModels(context.Context) ([]string, error) {
	models := make([]string, 0, len(openAIModelDimensions))
	for m := range openAIModelDimensions {
		models = append(models, m)
	}
	return models, nil
}

func (e *OpenAIEmbedding) Dimension(_ context.Context, model string) (int, error) {
	d, ok := openAIModelDimensions[model]
	if !ok {
		return 0, fmt.Errorf("%w: %q", domain.ErrModelUnknown, model)
	}
	return d, nil
}

type embeddingRequest struct {
	Input          []string `json:"input"`
	Model          string   `json:"model"`
	EncodingFormat string   `json:"encoding_format,omitempty"`
}

type embeddingResponse struct {
	Object string `json:"object"`
	Data   []struct {
		Object    string    `json:"object"`
		Index     int       `json:"index"`
		Embedding []float32 `json:"embedding"`
	} `json:"data"`
	Model string `json:"model"`
	Error *struct {
		Message string `json:"message"`
		Type    string `json:"type"`
		Code    string `json:"code"`
	} `json:"error,omitempty"`
}

func (e *OpenAIEmbedding) Embed(ctx context.Context, model string, chunks []string) ([][]float32, error) {
	if len(chunks) == 0 {
		return nil, nil
	}
	if _, ok := openAIModelDimensions[model]; !ok {
		return nil, fmt.Errorf("%w: %q", domain.ErrModelUnknown, model)
	}

	resp, err := e.doRequest(ctx, embeddingRequest{
		Input:          chunks,
		Model:          model,
		EncodingFormat: "float",
	})
	if err != nil {
		return nil, err
	}

	embeddings := make([][]float32, len(chunks))
	for _, d := range resp.Data {
		if d.Index < len(embeddings) {
			embeddings[d.Index] = d.Embedding
		}
	}
	return embeddings, nil
}

func (e *OpenAIEmbedding) doRequest(ctx context.Context, reqBody embeddingRequest) (*embeddingResponse, error) {
	body, err := json.Marshal(reqBody)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, e.baseURL+"/embeddings", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+e.apiKey)

	resp, err := e.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %s", domain.ErrEmbedUpstream, err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}

	var embResp embeddingResponse
	if err := json.Unmarshal(respBody, &embResp); err != nil {
		return nil, fmt.Errorf("failed to parse response: %w", err)
	}

	if embResp.Error != nil {
		return nil, fmt.Errorf("%w: %s (type: %s, code: %s)",
			domain.ErrEmbedUpstream, embResp.Error.Message, embResp.Error.Type, embResp.Error.Code)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("%w: openai returned status %d", domain.ErrEmbedUpstream, resp.StatusCode)
	}

	return &embResp, nil
}
