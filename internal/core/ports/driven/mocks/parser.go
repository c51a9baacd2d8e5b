package mocks

import (
	"context"
	"sync"

	"github.com/custodia-labs/chonkit/internal/core/domain"
	"github.com/custodia-labs/chonkit/internal/core/ports/driven"
)

// MockParser is a driven.Parser stand-in whose behavior is injected via ParseFn.
type MockParser struct {
	ExtList []string
	ParseFn func(data []byte, cfg domain.ParseConfig) (string, error)
}

func (p *MockParser) Parse(ctx context.Context, data []byte, cfg domain.ParseConfig) (string, error) {
	if p.ParseFn != nil {
		return p.ParseFn(data, cfg)
	}
	return string(data), nil
}

func (p *MockParser) Ext() []string { return p.ExtList }

// MockParserRegistry is an in-memory driven.ParserRegistry for testing.
type MockParserRegistry struct {
	mu       sync.RWMutex
	byExt    map[string]driven.Parser
	fallback driven.Parser
}

func NewMockParserRegistry() *MockParserRegistry {
	return &MockParserRegistry{
		byExt:    make(map[string]driven.Parser),
		fallback: &MockParser{},
	}
}

func (r *MockParserRegistry) Get(ext string) driven.Parser {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if p, ok := r.byExt[ext]; ok {
		return p
	}
	return r.fallback
}

func (r *MockParserRegistry) Register(p driven.Parser) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, ext := range p.Ext() {
		r.byExt[ext] = p
	}
}

func (r *MockParserRegistry) List() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	exts := make([]string, 0, len(r.byExt))
	for ext := range r.byExt {
		exts = append(exts, ext)
	}
	return exts
}
