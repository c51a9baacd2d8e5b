package parsers

import (
	"sort"
	"sync"

	"github.com/custodia-labs/chonkit/internal/core/ports/driven"
)

var _ driven.ParserRegistry = (*Registry)(nil)

// Registry maps a file extension to its Parser, falling back to the
// plaintext parser for anything unregistered.
type Registry struct {
	mu      sync.RWMutex
	parsers map[string]driven.Parser
	def     driven.Parser
}

// NewRegistry builds an empty registry. Callers normally use
// NewDefaultRegistry instead.
func NewRegistry(fallback driven.Parser) *Registry {
	return &Registry{parsers: make(map[string]driven.Parser), def: fallback}
}

// NewDefaultRegistry wires the pdf, docx, md, txt and json parser variants
// named in the parser registry component, with plaintext as the fallback
// for anything else.
func NewDefaultRegistry() *Registry {
	text := NewText()
	r := NewRegistry(text)
	r.Register(text)
	r.Register(NewMarkdown())
	r.Register(NewJSON())
	r.Register(NewPDF())
	r.Register(NewDocx())
	return r
}

func (r *Registry) Register(p driven.Parser) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, ext := range p.Ext() {
		r.parsers[ext] = p
	}
}

func (r *Registry) Get(ext string) driven.Parser {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if p, ok := r.parsers[ext]; ok {
		return p
	}
	return r.def
}

func (r *Registry) List() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	exts := make([]string, 0, len(r.parsers))
	for ext := range r.parsers {
		exts = append(exts, ext)
	}
	sort.Strings(exts)
	return exts
}
