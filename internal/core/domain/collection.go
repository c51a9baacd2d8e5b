package domain

import "time"

// Collection is a named bucket in the vector store of uniform dimension and
// distance. Uniqueness is (Name, Provider); (Embedder, Model) resolves in the
// embedder registry to a fixed Dimension, bound in the vector store at creation.
type Collection struct {
	ID        string
	Name      string
	Model     string
	Embedder  string
	Provider  string
	CreatedAt time.Time
	UpdatedAt time.Time
}

// EmbeddingRecord asserts that a document has been embedded into a collection.
// At most one exists per (DocumentID, CollectionID).
type EmbeddingRecord struct {
	ID           string
	DocumentID   string
	CollectionID string
	CreatedAt    time.Time
	UpdatedAt    time.Time
}
