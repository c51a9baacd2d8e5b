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

var _ driven.VectorStore = (*Weaviate)(nil)

// Weaviate implements driven.VectorStore against Weaviate's REST API
// (schema/objects/batch/graphql), in the teacher's plain net/http style.
// Weaviate classes have no native per-vector document_id filter delete, so
// DeleteByDocument goes through the batch objects endpoint with a where
// filter instead of a raw query parameter.
type Weaviate struct {
	baseURL string
	client  *http.Client
}

func NewWeaviate(baseURL string) *Weaviate {
	return &Weaviate{
		baseURL: strings.TrimSuffix(baseURL, "/"),
		client:  &http.Client{Timeout: 30 * time.Second},
	}
}

func (w *Weaviate) do(ctx context.Context, method, path string, body any) ([]byte, int, error) {
	var reader io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			return nil, 0, fmt.Errorf("marshal request: %w", err)
		}
		reader = bytes.NewReader(b)
	}

	req, err := http.NewRequestWithContext(ctx, method, w.baseURL+path, reader)
	if err != nil {
		return nil, 0, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := w.client.Do(req)
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

func weaviateErr(body []byte, status int) error {
	var e struct {
		Error []struct {
			Message string `json:"message"`
		} `json:"error"`
	}
	if err := json.Unmarshal(body, &e); err == nil && len(e.Error) > 0 {
		return fmt.Errorf("%w: weaviate returned %d: %s", domain.ErrVectorStoreUpstream, status, e.Error[0].Message)
	}
	return fmt.Errorf("%w: weaviate returned %d: %s", domain.ErrVectorStoreUpstream, status, body)
}

// className maps a collection name to Weaviate's capitalized class naming
// convention.
func className(collection string) string {
	if collection == "" {
		return collection
	}
	return strings.ToUpper(collection[:1]) + collection[1:]
}

func (w *Weaviate) CollectionDimension(ctx context.Context, name string) (int, error) {
	body, status, err := w.do(ctx, http.MethodGet, "/v1/schema/"+className(name), nil)
	if err != nil {
		return 0, err
	}
	if status == http.StatusNotFound {
		return 0, domain.ErrNotFound
	}
	if status >= 400 {
		return 0, weaviateErr(body, status)
	}

	var resp struct {
		VectorIndexConfig struct {
			Dimension int `json:"dimension"`
		} `json:"vectorIndexConfig"`
	}
	if err := json.Unmarshal(body, &resp); err != nil {
		return 0, fmt.Errorf("%w: %s", domain.ErrVectorStoreUpstream, err)
	}
	return resp.VectorIndexConfig.Dimension, nil
}

func (w *Weaviate) CreateCollection(ctx context.Context, name string, dimension int) error {
	existing, err := w.CollectionDimension(ctx, name)
	if err == nil {
		if existing != dimension {
			return fmt.Errorf("%w: class %q already exists with dimension %d, requested %d", domain.ErrConflict, className(name), existing, dimension)
		}
		return nil
	}
	if err != domain.ErrNotFound {
		return err
	}

	body, status, err := w.do(ctx, http.MethodPost, "/v1/schema", map[string]any{
		"class":      className(name),
		"vectorizer": "none",
		"vectorIndexConfig": map[string]any{
			"dimension": dimension,
		},
		"properties": []map[string]any{
			{"name": "document_id", "dataType": []string{"text"}},
			{"name": "chunk_index", "dataType": []string{"int"}},
			{"name": "content", "dataType": []string{"text"}},
		},
	})
	if err != nil {
		return err
	}
	if status >= 400 {
		return weaviateErr(body, status)
	}
	return nil
}

func (w *Weaviate) DeleteCollection(ctx context.Context, name string) error {
	body, status, err := w.do(ctx, http.MethodDelete, "/v1/schema/"+className(name), nil)
	if err != nil {
		return err
	}
	if status == http.StatusNotFound {
		return domain.ErrNotFound
	}
	if status >= 400 {
		return weaviateErr(body, status)
	}
	return nil
}

func (w *Weaviate) ListCollections(ctx context.Context) ([]string, error) {
	body, status, err := w.do(ctx, http.MethodGet, "/v1/schema", nil)
	if err != nil {
		return nil, err
	}
	if status >= 400 {
		return nil, weaviateErr(body, status)
	}

	var resp struct {
		Classes []struct {
			Class string `json:"class"`
		} `json:"classes"`
	}
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, fmt.Errorf("%w: %s", domain.ErrVectorStoreUpstream, err)
	}

	names := make([]string, len(resp.Classes))
	for i, c := range resp.Classes {
		names[i] = c.Class
	}
	return names, nil
}

type weaviateObject struct {
	Class      string         `json:"class"`
	ID         string         `json:"id"`
	Vector     []float32      `json:"vector"`
	Properties map[string]any `json:"properties"`
}

func (w *Weaviate) Insert(ctx context.Context, collection string, items []driven.VectorStoreItem) error {
	if len(items) == 0 {
		return nil
	}

	objects := make([]weaviateObject, len(items))
	for i, item := range items {
		objects[i] = weaviateObject{
			Class:  className(collection),
			ID:     item.ID,
			Vector: item.Vector,
			Properties: map[string]any{
				"document_id": item.Payload.DocumentID,
				"chunk_index": item.Payload.ChunkIndex,
				"content":     item.Payload.Content,
			},
		}
	}

	body, status, err := w.do(ctx, http.MethodPost, "/v1/batch/objects", map[string]any{"objects": objects})
	if err != nil {
		return err
	}
	if status >= 400 {
		return weaviateErr(body, status)
	}
	return nil
}

func (w *Weaviate) Query(ctx context.Context, collection string, vector []float32, k int) ([]domain.VectorHit, error) {
	vecJSON, err := json.Marshal(vector)
	if err != nil {
		return nil, fmt.Errorf("marshal vector: %w", err)
	}

	query := fmt.Sprintf(`{
		Get {
			%s(nearVector: {vector: %s}, limit: %d) {
				document_id
				chunk_index
				content
				_additional { id distance }
			}
		}
	}`, className(collection), string(vecJSON), k)

	body, status, err := w.do(ctx, http.MethodPost, "/v1/graphql", map[string]any{"query": query})
	if err != nil {
		return nil, err
	}
	if status >= 400 {
		return nil, weaviateErr(body, status)
	}

	var resp struct {
		Data struct {
			Get map[string][]struct {
				DocumentID string  `json:"document_id"`
				ChunkIndex int     `json:"chunk_index"`
				Content    string  `json:"content"`
				Additional struct {
					ID       string  `json:"id"`
					Distance float64 `json:"distance"`
				} `json:"_additional"`
			} `json:"Get"`
		} `json:"data"`
	}
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, fmt.Errorf("%w: %s", domain.ErrVectorStoreUpstream, err)
	}

	rows := resp.Data.Get[className(collection)]
	hits := make([]domain.VectorHit, len(rows))
	for i, r := range rows {
		hits[i] = domain.VectorHit{
			ID:    r.Additional.ID,
			Score: 1 - r.Additional.Distance,
			Payload: domain.VectorPayload{
				DocumentID: r.DocumentID,
				ChunkIndex: r.ChunkIndex,
				Content:    r.Content,
			},
		}
	}
	return hits, nil
}

func (w *Weaviate) Count(ctx context.Context, collection string) (int, error) {
	query := fmt.Sprintf(`{
		Aggregate {
			%s { meta { count } }
		}
	}`, className(collection))

	body, status, err := w.do(ctx, http.MethodPost, "/v1/graphql", map[string]any{"query": query})
	if err != nil {
		return 0, err
	}
	if status >= 400 {
		return 0, weaviateErr(body, status)
	}

	var resp struct {
		Data struct {
			Aggregate map[string][]struct {
				Meta struct {
					Count int `json:"count"`
				} `json:"meta"`
			} `json:"Aggregate"`
		} `json:"data"`
	}
	if err := json.Unmarshal(body, &resp); err != nil {
		return 0, fmt.Errorf("%w: %s", domain.ErrVectorStoreUpstream, err)
	}

	rows := resp.Data.Aggregate[className(collection)]
	if len(rows) == 0 {
		return 0, nil
	}
	return rows[0].Meta.Count, nil
}

func (w *Weaviate) DeleteByDocument(ctx context.Context, collection string, documentID string) error {
	body, status, err := w.do(ctx, http.MethodDelete, "/v1/batch/objects", map[string]any{
		"match": map[string]any{
			"class": className(collection),
			"where": map[string]any{
				"path":      []string{"document_id"},
				"operator":  "Equal",
				"valueText": documentID,
			},
		},
	})
	if err != nil {
		return err
	}
	if status >= 400 {
		return weaviateErr(body, status)
	}
	return nil
}
