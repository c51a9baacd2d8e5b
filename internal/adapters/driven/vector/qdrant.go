package vector

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/custodia-labs/chonkit/internal/core/domain"
	"github.com/custodia-labs/chonkit/internal/core/ports/driven"
)

var _ driven.VectorStore = (*Qdrant)(nil)

// Qdrant implements driven.VectorStore against Qdrant's REST API, in the
// same plain net/http style the teacher uses to talk to Vespa.
type Qdrant struct {
	baseURL string
	client  *http.Client
}

func NewQdrant(baseURL string) *Qdrant {
	return &Qdrant{
		baseURL: strings.TrimSuffix(baseURL, "/"),
		client:  &http.Client{Timeout: 30 * time.Second},
	}
}

func (q *Qdrant) do(ctx context.Context, method, path string, body any) ([]byte, int, error) {
	var reader io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			return nil, 0, fmt.Errorf("marshal request: %w", err)
		}
		reader = bytes.NewReader(b)
	}

	req, err := http.NewRequestWithContext(ctx, method, q.baseURL+path, reader)
	if err != nil {
		return nil, 0, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := q.client.Do(req)
	if err != nil {
		return nil, 0, fmt.Errorf("%w: %s", domain.ErrVectorStoreUpstream, err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, resp.StatusCode, fmt.Errorf("read response: %w", err)
	}
	return respBody, resp.StatusCode, nil
}

type qdrantError struct {
	Status struct {
		Error string `json:"error"`
	} `json:"status"`
}

func errorFromBody(body []byte, status int) error {
	var qe qdrantError
	if err := json.Unmarshal(body, &qe); err == nil && qe.Status.Error != "" {
		return fmt.Errorf("%w: qdrant returned %d: %s", domain.ErrVectorStoreUpstream, status, qe.Status.Error)
	}
	return fmt.Errorf("%w: qdrant returned %d: %s", domain.ErrVectorStoreUpstream, status, body)
}

func (q *Qdrant) CollectionDimension(ctx context.Context, name string) (int, error) {
	body, status, err := q.do(ctx, http.MethodGet, "/collections/"+name, nil)
	if err != nil {
		return 0, err
	}
	if status == http.StatusNotFound {
		return 0, domain.ErrNotFound
	}
	if status >= 400 {
		return 0, errorFromBody(body, status)
	}

	var resp struct {
		Result struct {
			Config struct {
				Params struct {
					Vectors struct {
						Size int `json:"size"`
					} `json:"vectors"`
				} `json:"params"`
			} `json:"config"`
		} `json:"result"`
	}
	if err := json.Unmarshal(body, &resp); err != nil {
		return 0, fmt.Errorf("%w: %s", domain.ErrVectorStoreUpstream, err)
	}
	return resp.Result.Config.Params.Vectors.Size, nil
}

func (q *Qdrant) CreateCollection(ctx context.Context, name string, dimension int) error {
	existing, err := q.CollectionDimension(ctx, name)
	if err == nil {
		if existing != dimension {
			return fmt.Errorf("%w: collection %q already exists with dimension %d, requested %d", domain.ErrConflict, name, existing, dimension)
		}
		return nil
	}
	if err != domain.ErrNotFound {
		return err
	}

	body, status, err := q.do(ctx, http.MethodPut, "/collections/"+name, map[string]any{
		"vectors": map[string]any{
			"size":     dimension,
			"distance": "Cosine",
		},
	})
	if err != nil {
		return err
	}
	if status >= 400 {
		return errorFromBody(body, status)
	}
	return nil
}

func (q *Qdrant) DeleteCollection(ctx context.Context, name string) error {
	body, status, err := q.do(ctx, http.MethodDelete, "/collections/"+name, nil)
	if err != nil {
		return err
	}
	if status == http.StatusNotFound {
		return domain.ErrNotFound
	}
	if status >= 400 {
		return errorFromBody(body, status)
	}
	return nil
}

func (q *Qdrant) ListCollections(ctx context.Context) ([]string, error) {
	body, status, err := q.do(ctx, http.MethodGet, "/collections", nil)
	if err != nil {
		return nil, err
	}
	if status >= 400 {
		return nil, errorFromBody(body, status)
	}

	var resp struct {
		Result struct {
			Collections []struct {
				Name string `json:"name"`
			} `json:"collections"`
		} `json:"result"`
	}
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, fmt.Errorf("%w: %s", domain.ErrVectorStoreUpstream, err)
	}

	names := make([]string, len(resp.Result.Collections))
	for i, c := range resp.Result.Collections {
		names[i] = c.Name
	}
	return names, nil
}

type qdrantPoint struct {
	ID      string         `json:"id"`
	Vector  []float32      `json:"vector"`
	Payload map[string]any `json:"payload"`
}

func payloadToMap(p domain.VectorPayload) map[string]any {
	return map[string]any{
		"document_id": p.DocumentID,
		"chunk_index": p.ChunkIndex,
		"content":     p.Content,
	}
}

func payloadFromMap(m map[string]any) domain.VectorPayload {
	p := domain.VectorPayload{}
	if v, ok := m["document_id"].(string); ok {
		p.DocumentID = v
	}
	if v, ok := m["content"].(string); ok {
		p.Content = v
	}
	if v, ok := m["chunk_index"].(float64); ok {
		p.ChunkIndex = int(v)
	}
	return p
}

func (q *Qdrant) Insert(ctx context.Context, collection string, items []driven.VectorStoreItem) error {
	if len(items) == 0 {
		return nil
	}

	points := make([]qdrantPoint, len(items))
	for i, item := range items {
		points[i] = qdrantPoint{ID: item.ID, Vector: item.Vector, Payload: payloadToMap(item.Payload)}
	}

	body, status, err := q.do(ctx, http.MethodPut, "/collections/"+collection+"/points?wait=true", map[string]any{
		"points": points,
	})
	if err != nil {
		return err
	}
	if status >= 400 {
		return errorFromBody(body, status)
	}
	return nil
}

func (q *Qdrant) Query(ctx context.Context, collection string, vector []float32, k int) ([]domain.VectorHit, error) {
	body, status, err := q.do(ctx, http.MethodPost, "/collections/"+collection+"/points/search", map[string]any{
		"vector":       vector,
		"limit":        k,
		"with_payload": true,
	})
	if err != nil {
		return nil, err
	}
	if status >= 400 {
		return nil, errorFromBody(body, status)
	}

	var resp struct {
		Result []struct {
			ID      string         `json:"id"`
			Score   float64        `json:"score"`
			Payload map[string]any `json:"payload"`
		} `json:"result"`
	}
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, fmt.Errorf("%w: %s", domain.ErrVectorStoreUpstream, err)
	}

	hits := make([]domain.VectorHit, len(resp.Result))
	for i, r := range resp.Result {
		hits[i] = domain.VectorHit{ID: r.ID, Score: r.Score, Payload: payloadFromMap(r.Payload)}
	}
	return hits, nil
}

func (q *Qdrant) Count(ctx context.Context, collection string) (int, error) {
	body, status, err := q.do(ctx, http.MethodPost, "/collections/"+collection+"/points/count", map[string]any{
		"exact": true,
	})
	if err != nil {
		return 0, err
	}
	if status >= 400 {
		return 0, errorFromBody(body, status)
	}

	var resp struct {
		Result struct {
			Count int `json:"count"`
		} `json:"result"`
	}
	if err := json.Unmarshal(body, &resp); err != nil {
		return 0, fmt.Errorf("%w: %s", domain.ErrVectorStoreUpstream, err)
	}
	return resp.Result.Count, nil
}

func (q *Qdrant) DeleteByDocument(ctx context.Context, collection string, documentID string) error {
	body, status, err := q.do(ctx, http.MethodPost, "/collections/"+collection+"/points/delete?wait=true", map[string]any{
		"filter": map[string]any{
			"must": []map[string]any{
				{"key": "document_id", "match": map[string]any{"value": documentID}},
			},
		},
	})
	if err != nil {
		return err
	}
	if status >= 400 {
		return errorFromBody(body, status)
	}
	return nil
}
