package mocks

import (
	"context"
	"fmt"
	"sync"

	"github.com/custodia-labs/chonkit/internal/core/domain"
	"github.com/custodia-labs/chonkit/internal/core/ports/driven"
)

// MockChunker is a driven.Chunker stand-in whose behavior is injected via ChunkFn.
type MockChunker struct {
	KindVal domain.ChunkerKind
	ChunkFn func(text string, cfg domain.ChunkConfig) ([]string, error)
}

func (c *MockChunker) Chunk(ctx context.Context, text string, cfg domain.ChunkConfig) ([]string, error) {
	if c.ChunkFn != nil {
		return c.ChunkFn(text, cfg)
	}
	if text == "" {
		return nil, nil
	}
	return []string{text}, nil
}

func (c *MockChunker) Kind() domain.ChunkerKind { return c.KindVal }

// MockChunkerRegistry is an in-memory driven.ChunkerRegistry for testing.
type MockChunkerRegistry struct {
	mu       sync.RWMutex
	chunkers map[domain.ChunkerKind]driven.Chunker
}

func NewMockChunkerRegistry() *MockChunkerRegistry {
	return &MockChunkerRegistry{chunkers: make(map[domain.ChunkerKind]driven.Chunker)}
}

func (r *MockChunkerRegistry) Get(kind domain.ChunkerKind) (driven.Chunker, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	c, ok := r.chunkers[kind]
	if !ok {
		return nil, fmt.Errorf("%w: %q", domain.ErrNoChunker, kind)
	}
	return c, nil
}

func (r *MockChunkerRegistry) Register(c driven.Chunker) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.chunkers[c.Kind()] = c
}
