package postgres

import (
	"context"
	"database/sql"

	"github.com/custodia-labs/chonkit/internal/core/domain"
	"github.com/custodia-labs/chonkit/internal/core/ports/driven"
)

var _ driven.CollectionRepository = (*CollectionRepository)(nil)

// CollectionRepository implements driven.CollectionRepository using PostgreSQL.
type CollectionRepository struct {
	db *DB
}

func NewCollectionRepository(db *DB) *CollectionRepository {
	return &CollectionRepository{db: db}
}

func (r *CollectionRepository) Insert(ctx context.Context, c *domain.Collection) error {
	query := `
		INSERT INTO collections (id, name, model, embedder, provider, created_at, updated_at)
		VALUES (gen_random_uuid(), $1, $2, $3, $4, now(), now())
		RETURNING id, created_at, updated_at
	`
	return r.db.QueryRowContext(ctx, query, c.Name, c.Model, c.Embedder, c.Provider).
		Scan(&c.ID, &c.CreatedAt, &c.UpdatedAt)
}

func (r *CollectionRepository) Get(ctx context.Context, id string) (*domain.Collection, error) {
	query := `SELECT id, name, model, embedder, provider, created_at, updated_at FROM collections WHERE id = $1`
	return scanCollection(r.db.QueryRowContext(ctx, query, id))
}

func (r *CollectionRepository) GetByName(ctx context.Context, name, provider string) (*domain.Collection, error) {
	query := `SELECT id, name, model, embedder, provider, created_at, updated_at FROM collections WHERE name = $1 AND provider = $2`
	return scanCollection(r.db.QueryRowContext(ctx, query, name, provider))
}

func (r *CollectionRepository) List(ctx context.Context) ([]*domain.Collection, error) {
	query := `SELECT id, name, model, embedder, provider, created_at, updated_at FROM collections ORDER BY created_at DESC`
	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*domain.Collection
	for rows.Next() {
		var c domain.Collection
		if err := rows.Scan(&c.ID, &c.Name, &c.Model, &c.Embedder, &c.Provider, &c.CreatedAt, &c.UpdatedAt); err != nil {
			return nil, err
		}
		out = append(out, &c)
	}
	return out, rows.Err()
}

func (r *CollectionRepository) Delete(ctx context.Context, id string) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM collections WHERE id = $1`, id)
	if err != nil {
		return err
	}
	return checkRowsAffected(result)
}

func scanCollection(row *sql.Row) (*domain.Collection, error) {
	var c domain.Collection
	err := row.Scan(&c.ID, &c.Name, &c.Model, &c.Embedder, &c.Provider, &c.CreatedAt, &c.UpdatedAt)
	if err == sql.ErrNoRows {
		return nil, domain.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &c, nil
}
