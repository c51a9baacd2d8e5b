package driven

import (
	"context"

	"github.com/custodia-labs/chonkit/internal/core/domain"
)

// VectorStoreItem is a single vector to insert, with the payload the
// pipeline orchestrator needs to reconstruct a chunk from a search hit.
type VectorStoreItem struct {
	ID      string
	Vector  []float32
	Payload domain.VectorPayload
}

// VectorStore creates/deletes/lists collections, inserts embeddings with
// payload, and queries by vector. Variants: Qdrant, Weaviate. The interface
// hides provider quirks; callers never see provider-specific IDs.
type VectorStore interface {
	// CreateCollection is idempotent on exact (name, dimension) match; fails
	// with domain.ErrConflict on same name, different dimension.
	CreateCollection(ctx context.Context, name string, dimension int) error

	// DeleteCollection is idempotent on domain.ErrNotFound.
	DeleteCollection(ctx context.Context, name string) error

	// CollectionDimension reads back the dimension bound to name, to let
	// callers detect out-of-band drift. Fails with domain.ErrNotFound.
	CollectionDimension(ctx context.Context, name string) (int, error)

	// ListCollections returns the names of all collections.
	ListCollections(ctx context.Context) ([]string, error)

	// Insert is a batched, all-or-nothing insert.
	Insert(ctx context.Context, collection string, items []VectorStoreItem) error

	// Query returns the k nearest hits to vector.
	Query(ctx context.Context, collection string, vector []float32, k int) ([]domain.VectorHit, error)

	// Count returns the number of vectors in collection.
	Count(ctx context.Context, collection string) (int, error)

	// DeleteByDocument removes every vector whose payload.document_id
	// matches documentID from collection.
	DeleteByDocument(ctx context.Context, collection string, documentID string) error
}
