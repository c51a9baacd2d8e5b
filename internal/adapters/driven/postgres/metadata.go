package postgres

import (
	"context"
	"database/sql"

	"github.com/custodia-labs/chonkit/internal/core/ports/driven"
)

var _ driven.MetadataRepository = (*MetadataRepository)(nil)

// MetadataRepository is the Postgres-backed system of record for documents,
// parse configs, chunk configs, collections, and embedding records.
type MetadataRepository struct {
	db         *DB
	documents  *DocumentRepository
	parsers    *ParseConfigRepository
	chunkers   *ChunkConfigRepository
	collctions *CollectionRepository
	embeddings *EmbeddingRepository
}

func NewMetadataRepository(db *DB) *MetadataRepository {
	return &MetadataRepository{
		db:         db,
		documents:  &DocumentRepository{db: db},
		parsers:    &ParseConfigRepository{db: db},
		chunkers:   &ChunkConfigRepository{db: db},
		collctions: &CollectionRepository{db: db},
		embeddings: &EmbeddingRepository{db: db},
	}
}

func (m *MetadataRepository) Documents() driven.DocumentRepository       { return m.documents }
func (m *MetadataRepository) ParseConfigs() driven.ParseConfigRepository { return m.parsers }
func (m *MetadataRepository) ChunkConfigs() driven.ChunkConfigRepository { return m.chunkers }
func (m *MetadataRepository) Collections() driven.CollectionRepository   { return m.collctions }
func (m *MetadataRepository) Embeddings() driven.EmbeddingRepository     { return m.embeddings }

func (m *MetadataRepository) Transaction(ctx context.Context, fn func(tx *sql.Tx) error) error {
	return m.db.Transaction(ctx, fn)
}
