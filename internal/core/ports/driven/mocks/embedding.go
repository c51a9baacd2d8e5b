package mocks

import (
	"context"
	"fmt"
	"sync"

	"github.com/custodia-labs/chonkit/internal/core/domain"
	"github.com/custodia-labs/chonkit/internal/core/ports/driven"
)

// MockEmbedder is a driven.Embedder stand-in. Dimension is fixed per model via
// Dimensions; Embed returns a vector of that dimension filled with a constant
// unless EmbedFn overrides it.
type MockEmbedder struct {
	ProviderName string
	Models       []string
	Dimensions   map[string]int
	EmbedFn      func(model string, chunks []string) ([][]float32, error)
}

func (e *MockEmbedder) ListModels(ctx context.Context) ([]string, error) {
	return e.Models, nil
}

func (e *MockEmbedder) Dimension(ctx context.Context, model string) (int, error) {
	dim, ok := e.Dimensions[model]
	if !ok {
		return 0, fmt.Errorf("%w: %q", domain.ErrModelUnknown, model)
	}
	return dim, nil
}

func (e *MockEmbedder) Embed(ctx context.Context, model string, chunks []string) ([][]float32, error) {
	if e.EmbedFn != nil {
		return e.EmbedFn(model, chunks)
	}
	dim, err := e.Dimension(ctx, model)
	if err != nil {
		return nil, err
	}
	vectors := make([][]float32, len(chunks))
	for i := range chunks {
		v := make([]float32, dim)
		for j := range v {
			v[j] = 0.1
		}
		vectors[i] = v
	}
	return vectors, nil
}

func (e *MockEmbedder) Provider() string { return e.ProviderName }

// MockEmbedderRegistry is an in-memory driven.EmbedderRegistry for testing.
type MockEmbedderRegistry struct {
	mu        sync.RWMutex
	embedders map[string]driven.Embedder
}

func NewMockEmbedderRegistry() *MockEmbedderRegistry {
	return &MockEmbedderRegistry{embedders: make(map[string]driven.Embedder)}
}

func (r *MockEmbedderRegistry) Get(provider string) (driven.Embedder, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	e, ok := r.embedders[provider]
	if !ok {
		return nil, fmt.Errorf("%w: embedder provider %q not registered", domain.ErrConfig, provider)
	}
	return e, nil
}

func (r *MockEmbedderRegistry) Register(provider string, e driven.Embedder) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.embedders[provider] = e
}

func (r *MockEmbedderRegistry) List() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := make([]string, 0, len(r.embedders))
	for name := range r.embedders {
		names = append(names, name)
	}
	return names
}
