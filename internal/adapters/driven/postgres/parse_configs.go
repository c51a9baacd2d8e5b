package postgres

import (
	"context"
	"database/sql"
	"encoding/json"

	"github.com/custodia-labs/chonkit/internal/core/domain"
	"github.com/custodia-labs/chonkit/internal/core/ports/driven"
)

var _ driven.ParseConfigRepository = (*ParseConfigRepository)(nil)

// ParseConfigRepository implements driven.ParseConfigRepository using PostgreSQL.
type ParseConfigRepository struct {
	db *DB
}

func NewParseConfigRepository(db *DB) *ParseConfigRepository {
	return &ParseConfigRepository{db: db}
}

func (r *ParseConfigRepository) Upsert(ctx context.Context, cfg *domain.ParseConfig) error {
	configJSON, err := json.Marshal(cfg)
	if err != nil {
		return err
	}

	query := `
		INSERT INTO parse_configs (id, document_id, config, created_at, updated_at)
		VALUES (gen_random_uuid(), $1, $2, now(), now())
		ON CONFLICT (document_id) DO UPDATE SET config = EXCLUDED.config
		RETURNING id, created_at, updated_at
	`
	return r.db.QueryRowContext(ctx, query, cfg.DocumentID, configJSON).
		Scan(&cfg.ID, &cfg.CreatedAt, &cfg.UpdatedAt)
}

func (r *ParseConfigRepository) GetByDocument(ctx context.Context, documentID string) (*domain.ParseConfig, error) {
	query := `SELECT id, document_id, config, created_at, updated_at FROM parse_configs WHERE document_id = $1`
	row := r.db.QueryRowContext(ctx, query, documentID)

	var cfg domain.ParseConfig
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
