package ai

import (
	"fmt"
	"sync"

	"github.com/custodia-labs/chonkit/internal/core/domain"
	"github.com/custodia-labs/chonkit/internal/core/ports/driven"
)

var _ driven.EmbedderRegistry = (*Registry)(nil)

// Registry maps a provider tag (openai, fastembed-local, fastembed-remote)
// to its Embedder implementation.
type Registry struct {
	mu        sync.RWMutex
	embedders map[string]driven.Embedder
}

func NewRegistry() *Registry {
	return &Registry{embedders: make(map[string]driven.Embedder)}
}

func (r *Registry) Register(provider string, e driven.Embedder) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.embedders[provider] = e
}

func (r *Registry) Get(provider string) (driven.Embedder, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	e, ok := r.embedders[provider]
	if !ok {
		return nil, fmt.Errorf("%w: embedder provider %q", domain.ErrModelUnknown, provider)
	}
	return e, nil
}

func (r *Registry) List() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]string, 0, len(r.embedders))
	for k := range r.embedders {
		out = append(out, k)
	}
	return out
}

// Config controls which embedder providers a Registry built by NewFromConfig wires in.
type Config struct {
	OpenAIAPIKey       string
	OpenAIBaseURL      string
	FastEmbedLocalURL  string
	FastEmbedRemoteURL string
}

// NewFromConfig builds a Registry with one Embedder per configured
// provider. A provider is skipped, not erred, when its configuration is
// absent, so a deployment only pays for the providers it actually uses.
func NewFromConfig(cfg Config) (*Registry, error) {
	r := NewRegistry()

	if cfg.OpenAIAPIKey != "" {
		e, err := NewOpenAIEmbedding(cfg.OpenAIAPIKey, cfg.OpenAIBaseURL)
		if err != nil {
			return nil, err
		}
		r.Register(e.Provider(), e)
	}
	if cfg.FastEmbedLocalURL != "" {
		e := NewFastEmbedLocal(cfg.FastEmbedLocalURL)
		r.Register(e.Provider(), e)
	}
	if cfg.FastEmbedRemoteURL != "" {
		e := NewFastEmbedRemote(cfg.FastEmbedRemoteURL)
		r.Register(e.Provider(), e)
	}

	return r, nil
}
