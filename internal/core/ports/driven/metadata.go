package driven

import (
	"context"
	"database/sql"

	"github.com/custodia-labs/chonkit/internal/core/domain"
)

// MetadataRepository is the relational system of record for the entities in
// the data model: documents, parse configs, chunk configs, collections, and
// embedding records. It owns the authoritative state of every entity except
// the vectors themselves.
type MetadataRepository interface {
	Documents() DocumentRepository
	ParseConfigs() ParseConfigRepository
	ChunkConfigs() ChunkConfigRepository
	Collections() CollectionRepository
	Embeddings() EmbeddingRepository

	// Transaction runs fn inside a database transaction, committing on
	// success and rolling back on error or panic. Sub-repositories obtained
	// via WithTx share the transaction.
	Transaction(ctx context.Context, fn func(tx *sql.Tx) error) error
}

// DocumentRepository is CRUD over Document rows.
type DocumentRepository interface {
	Insert(ctx context.Context, doc *domain.Document) error
	Get(ctx context.Context, id string) (*domain.Document, error)
	// FindBySrcPathHash looks up the natural key used for upload idempotence.
	FindBySrcPathHash(ctx context.Context, src domain.DocumentSource, path, hash string) (*domain.Document, error)
	List(ctx context.Context, limit, offset int) ([]*domain.Document, error)
	Delete(ctx context.Context, id string) error
	DeleteTx(ctx context.Context, tx *sql.Tx, id string) error
}

// ParseConfigRepository is CRUD + upsert over ParseConfig rows, keyed by DocumentID.
type ParseConfigRepository interface {
	Upsert(ctx context.Context, cfg *domain.ParseConfig) error
	GetByDocument(ctx context.Context, documentID string) (*domain.ParseConfig, error)
}

// ChunkConfigRepository is CRUD + upsert over ChunkConfig rows, keyed by DocumentID.
type ChunkConfigRepository interface {
	Upsert(ctx context.Context, cfg *domain.ChunkConfig) error
	GetByDocument(ctx context.Context, documentID string) (*domain.ChunkConfig, error)
}

// CollectionRepository is CRUD over Collection rows.
type CollectionRepository interface {
	Insert(ctx context.Context, c *domain.Collection) error
	Get(ctx context.Context, id string) (*domain.Collection, error)
	GetByName(ctx context.Context, name, provider string) (*domain.Collection, error)
	List(ctx context.Context) ([]*domain.Collection, error)
	Delete(ctx context.Context, id string) error
}

// EmbeddingRepository is CRUD over EmbeddingRecord rows, with the
// transactional insert the pipeline orchestrator needs to group with the
// vector-store write.
type EmbeddingRepository interface {
	Get(ctx context.Context, documentID, collectionID string) (*domain.EmbeddingRecord, error)
	// InsertTx inserts an embedding record inside an externally supplied
	// transaction, so it commits atomically with other work the caller does
	// in the same tx.
	InsertTx(ctx context.Context, tx *sql.Tx, rec *domain.EmbeddingRecord) error
	DeleteByDocument(ctx context.Context, documentID string) error
	DeleteByCollection(ctx context.Context, collectionID string) error
	ListByDocument(ctx context.Context, documentID string) ([]*domain.EmbeddingRecord, error)
}
