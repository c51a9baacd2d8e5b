package driven

import (
	"context"

	"github.com/custodia-labs/chonkit/internal/core/domain"
)

// Parser turns bytes into a single clean UTF-8 text stream under a
// ParseConfig. Implementations form a closed variant set selected by
// file extension.
type Parser interface {
	// Parse extracts text, honoring the range/skip and filter rules in cfg.
	Parse(ctx context.Context, data []byte, cfg domain.ParseConfig) (string, error)

	// Ext returns the file extensions this parser handles (without the dot).
	Ext() []string
}

// ParserRegistry maps a document extension to its Parser, falling back to a
// default plaintext parser for unknown extensions.
type ParserRegistry interface {
	// Get returns the parser registered for ext, or the default parser if
	// none is registered.
	Get(ext string) Parser

	// Register adds a parser to the registry.
	Register(p Parser)

	// List returns all registered extensions.
	List() []string
}
