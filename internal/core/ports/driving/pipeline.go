package driving

import (
	"context"

	"github.com/custodia-labs/chonkit/internal/core/domain"
)

// UploadInput carries the raw bytes and identifying metadata for a new document.
type UploadInput struct {
	Name string
	Path string
	Ext  string
	Src  domain.DocumentSource
	Data []byte
}

// SearchHit pairs a vector store hit with its score, ready for presentation.
type SearchHit struct {
	Score   float64
	Payload domain.VectorPayload
}

// Pipeline is the driving port exposed to the HTTP collaborator (and any
// other caller): it coordinates C1-C6 to implement the high-level
// operations named in the pipeline orchestrator design, owning every
// cross-component consistency guarantee.
type Pipeline interface {
	// Upload computes the document's hash, returns the existing document if
	// (src, path, hash) already exists, otherwise writes bytes and inserts
	// a Document row.
	Upload(ctx context.Context, in UploadInput) (*domain.Document, error)

	// Configure upserts ParseConfig and/or ChunkConfig for a document,
	// validating against their schemas before writing. Either pointer may
	// be nil to leave that config untouched.
	Configure(ctx context.Context, documentID string, parse *domain.ParseConfig, chunk *domain.ChunkConfig) error

	// Preview reads bytes, parses and chunks them using either the stored
	// configs or the ad-hoc ones supplied, and returns the resulting chunks
	// without persisting anything.
	Preview(ctx context.Context, documentID string, parse *domain.ParseConfig, chunk *domain.ChunkConfig) ([]string, error)

	// Embed parses, chunks, embeds, and persists a document into a
	// collection, per the seven-step protocol in the design.
	Embed(ctx context.Context, documentID, collectionID string) error

	// DeleteDocument cascades: vectors, embedding rows, the document row,
	// and finally the stored bytes (best-effort).
	DeleteDocument(ctx context.Context, documentID string) error

	// DeleteCollection removes the vector-store collection then the
	// metadata row (cascading embedding rows).
	DeleteCollection(ctx context.Context, collectionID string) error

	// Search embeds queryText with the collection's embedder/model, queries
	// the vector store, and returns the top k hits. Performs no writes.
	Search(ctx context.Context, collectionID, queryText string, k int) ([]SearchHit, error)
}
