package driven

import (
	"context"

	"github.com/custodia-labs/chonkit/internal/core/domain"
)

// Chunker splits a UTF-8 string into an ordered sequence of non-empty chunk
// strings. Implementations must be deterministic given identical input and
// configuration. Sizes are in Unicode scalar values (runes), not bytes.
type Chunker interface {
	// Chunk splits text according to cfg. cfg.Kind must match the chunker.
	Chunk(ctx context.Context, text string, cfg domain.ChunkConfig) ([]string, error)

	// Kind returns the ChunkerKind this implementation handles.
	Kind() domain.ChunkerKind
}

// ChunkerRegistry maps a ChunkerKind to its Chunker implementation.
type ChunkerRegistry interface {
	Get(kind domain.ChunkerKind) (Chunker, error)
	Register(c Chunker)
}
