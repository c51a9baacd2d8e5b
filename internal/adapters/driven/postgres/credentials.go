package postgres

import (
	"context"
	"database/sql"

	"github.com/custodia-labs/chonkit/internal/core/domain"
	"github.com/custodia-labs/chonkit/internal/core/ports/driven"
)

var _ driven.CredentialStore = (*CredentialStore)(nil)

// CredentialStore implements driven.CredentialStore using PostgreSQL. The
// api_credentials table carries a single row, enforced by a CHECK
// constraint on its primary key.
type CredentialStore struct {
	db *DB
}

func NewCredentialStore(db *DB) *CredentialStore {
	return &CredentialStore{db: db}
}

func (s *CredentialStore) GetAPIKeyHash(ctx context.Context) (string, error) {
	var hash string
	err := s.db.QueryRowContext(ctx, `SELECT key_hash FROM api_credentials WHERE id = 1`).Scan(&hash)
	if err == sql.ErrNoRows {
		return "", domain.ErrNotFound
	}
	if err != nil {
		return "", err
	}
	return hash, nil
}

func (s *CredentialStore) SetAPIKeyHash(ctx context.Context, hash string) error {
	query := `
		INSERT INTO api_credentials (id, key_hash, created_at, updated_at)
		VALUES (1, $1, now(), now())
		ON CONFLICT (id) DO UPDATE SET key_hash = EXCLUDED.key_hash, updated_at = now()
	`
	_, err := s.db.ExecContext(ctx, query, hash)
	return err
}
