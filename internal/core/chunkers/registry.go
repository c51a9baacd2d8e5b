package chunkers

import (
	"fmt"
	"sync"

	"github.com/custodia-labs/chonkit/internal/core/domain"
	"github.com/custodia-labs/chonkit/internal/core/ports/driven"
)

var _ driven.ChunkerRegistry = (*Registry)(nil)

// Registry maps a ChunkerKind to its Chunker implementation.
type Registry struct {
	mu       sync.RWMutex
	chunkers map[domain.ChunkerKind]driven.Chunker
}

func NewRegistry() *Registry {
	return &Registry{chunkers: make(map[domain.ChunkerKind]driven.Chunker)}
}

func (r *Registry) Register(c driven.Chunker) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.chunkers[c.Kind()] = c
}

func (r *Registry) Get(kind domain.ChunkerKind) (driven.Chunker, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	c, ok := r.chunkers[kind]
	if !ok {
		return nil, fmt.Errorf("%w: chunker %q", domain.ErrNoChunker, kind)
	}
	return c, nil
}

// NewDefaultRegistry wires the three built-in chunkers. SemanticWindow needs
// an EmbedderRegistry since it embeds seed segments to compare similarity.
func NewDefaultRegistry(embedders driven.EmbedderRegistry) *Registry {
	r := NewRegistry()
	r.Register(NewSlidingWindow())
	r.Register(NewSnappingWindow())
	r.Register(NewSemanticWindow(embedders))
	return r
}
