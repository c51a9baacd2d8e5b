package postgres

import (
	"context"
	"database/sql"

	"github.com/custodia-labs/chonkit/internal/core/domain"
	"github.com/custodia-labs/chonkit/internal/core/ports/driven"
)

var _ driven.EmbeddingRepository = (*EmbeddingRepository)(nil)

// EmbeddingRepository implements driven.EmbeddingRepository using PostgreSQL.
type EmbeddingRepository struct {
	db *DB
}

func NewEmbeddingRepository(db *DB) *EmbeddingRepository {
	return &EmbeddingRepository{db: db}
}

func (r *EmbeddingRepository) Get(ctx context.Context, documentID, collectionID string) (*domain.EmbeddingRecord, error) {
	query := `
		SELECT id, document_id, collection_id, created_at, updated_at
		FROM embeddings WHERE document_id = $1 AND collection_id = $2
	`
	row := r.db.QueryRowContext(ctx, query, documentID, collectionID)
	var rec domain.EmbeddingRecord
	err := row.Scan(&rec.ID, &rec.DocumentID, &rec.CollectionID, &rec.CreatedAt, &rec.UpdatedAt)
	if err == sql.ErrNoRows {
		return nil, domain.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &rec, nil
}

func (r *EmbeddingRepository) InsertTx(ctx context.Context, tx *sql.Tx, rec *domain.EmbeddingRecord) error {
	query := `
		INSERT INTO embeddings (id, document_id, collection_id, created_at, updated_at)
		VALUES (gen_random_uuid(), $1, $2, now(), now())
		ON CONFLICT (document_id, collection_id) DO UPDATE SET updated_at = now()
		RETURNING id, created_at, updated_at
	`
	return tx.QueryRowContext(ctx, query, rec.DocumentID, rec.CollectionID).
		Scan(&rec.ID, &rec.CreatedAt, &rec.UpdatedAt)
}

func (r *EmbeddingRepository) DeleteByDocument(ctx context.Context, documentID string) error {
	_, err := r.db.ExecContext(ctx, `DELETE FROM embeddings WHERE document_id = $1`, documentID)
	return err
}

func (r *EmbeddingRepository) DeleteByCollection(ctx context.Context, collectionID string) error {
	_, err := r.db.ExecContext(ctx, `DELETE FROM embeddings WHERE collection_id = $1`, collectionID)
	return err
}

func (r *EmbeddingRepository) ListByDocument(ctx context.Context, documentID string) ([]*domain.EmbeddingRecord, error) {
	query := `
		SELECT id, document_id, collection_id, created_at, updated_at
		FROM embeddings WHERE document_id = $1
	`
	rows, err := r.db.QueryContext(ctx, query, documentID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*domain.EmbeddingRecord
	for rows.Next() {
		var rec domain.EmbeddingRecord
		if err := rows.Scan(&rec.ID, &rec.DocumentID, &rec.CollectionID, &rec.CreatedAt, &rec.UpdatedAt); err != nil {
			return nil, err
		}
		out = append(out, &rec)
	}
	return out, rows.Err()
}
