package postgres

import (
	"context"
	"database/sql"
	"encoding/json"

	"github.com/custodia-labs/chonkit/internal/core/domain"
	"github.com/custodia-labs/chonkit/internal/core/ports/driven"
)

var _ driven.ChunkConfigRepository = (*ChunkConfigRepository)(nil)

// ChunkConfigRepository implements driven.ChunkConfigRepository using PostgreSQL.
type ChunkConfigRepository struct {
	db *DB
}

func NewChunkConfigRepository(db *DB) *ChunkConfigRepository {
	return &ChunkConfigRepository{db: db}
}

func (r *ChunkConfigRepository) Upsert(ctx context.Context, cfg *domain.ChunkConfig) error {
	configJSON, err := json.Marshal(cfg)
	if err != nil {
		return err
	}

	query := `
		INSERT INTO chunk_configs (id, document_id, config, created_at, updated_at)
		VALUES (gen_random_uuid(), $1, $2, now(), now())
		ON CONFLICT (document_id) DO UPDATE SET config = EXCLUDED.config
		RETURNING id, created_at, updated_at
	`
	return r.db.QueryRowContext(ctx, query, cfg.DocumentID, configJSON).
		Scan(&cfg.ID, &cfg.CreatedAt, &cfg.UpdatedAt)
}

func (r *ChunkConfigRepository) GetByDocument(ctx context.Context, documentID string) (*domain.ChunkConfig, error) {
	query := `SELECT id, document_id, config, created_at, updated_at FROM chunk_configs WHERE document_id = $1`
	row := r.db.QueryRowContext(ctx, query, documentID)

	var cfg domain.ChunkConfig
	var configJSON []byte
	err := row.Scan(&cfg.ID, &cfg.DocumentID, &configJSON, &cfg.CreatedAt, &cfg.UpdatedAt)
	if err == sql.ErrNoRows {
		return nil, domain.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	if err := json.Unmarshal(configJSON, &cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}
