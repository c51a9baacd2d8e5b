package postgres

import (
	"context"
	"database/sql"

	"github.com/lib/pq"

	"github.com/custodia-labs/chonkit/internal/core/domain"
	"github.com/custodia-labs/chonkit/internal/core/ports/driven"
)

var _ driven.DocumentRepository = (*DocumentRepository)(nil)

// DocumentRepository implements driven.DocumentRepository using PostgreSQL.
type DocumentRepository struct {
	db *DB
}

func NewDocumentRepository(db *DB) *DocumentRepository {
	return &DocumentRepository{db: db}
}

func (r *DocumentRepository) Insert(ctx context.Context, doc *domain.Document) error {
	query := `
		INSERT INTO documents (id, name, path, ext, hash, src, label, tags, created_at, updated_at)
		VALUES (gen_random_uuid(), $1, $2, $3, $4, $5, $6, $7, now(), now())
		RETURNING id, created_at, updated_at
	`
	return r.db.QueryRowContext(ctx, query,
		doc.Name, doc.Path, doc.Ext, doc.Hash, string(doc.Src), doc.Label, pq.Array(doc.Tags),
	).Scan(&doc.ID, &doc.CreatedAt, &doc.UpdatedAt)
}

func (r *DocumentRepository) Get(ctx context.Context, id string) (*domain.Document, error) {
	query := `
		SELECT id, name, path, ext, hash, src, label, tags, created_at, updated_at
		FROM documents WHERE id = $1
	`
	return scanDocument(r.db.QueryRowContext(ctx, query, id))
}

func (r *DocumentRepository) FindBySrcPathHash(ctx context.Context, src domain.DocumentSource, path, hash string) (*domain.Document, error) {
	query := `
		SELECT id, name, path, ext, hash, src, label, tags, created_at, updated_at
		FROM documents WHERE src = $1 AND path = $2 AND hash = $3
	`
	return scanDocument(r.db.QueryRowContext(ctx, query, string(src), path, hash))
}

func (r *DocumentRepository) List(ctx context.Context, limit, offset int) ([]*domain.Document, error) {
	query := `
		SELECT id, name, path, ext, hash, src, label, tags, created_at, updated_at
		FROM documents ORDER BY created_at DESC LIMIT $1 OFFSET $2
	`
	rows, err := r.db.QueryContext(ctx, query, limit, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var docs []*domain.Document
	for rows.Next() {
		doc, err := scanDocumentRow(rows)
		if err != nil {
			return nil, err
		}
		docs = append(docs, doc)
	}
	return docs, rows.Err()
}

func (r *DocumentRepository) Delete(ctx context.Context, id string) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM documents WHERE id = $1`, id)
	if err != nil {
		return err
	}
	return checkRowsAffected(result)
}

func (r *DocumentRepository) DeleteTx(ctx context.Context, tx *sql.Tx, id string) error {
	result, err := tx.ExecContext(ctx, `DELETE FROM documents WHERE id = $1`, id)
	if err != nil {
		return err
	}
	return checkRowsAffected(result)
}

func checkRowsAffected(result sql.Result) error {
	n, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return domain.ErrNotFound
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanDocument(row *sql.Row) (*domain.Document, error) {
	doc, err := scanDocumentRow(row)
	if err == sql.ErrNoRows {
		return nil, domain.ErrNotFound
	}
	return doc, err
}

func scanDocumentRow(row rowScanner) (*domain.Document, error) {
	var doc domain.Document
	var src string
	err := row.Scan(
		&doc.ID, &doc.Name, &doc.Path, &doc.Ext, &doc.Hash, &src, &doc.Label,
		pq.Array(&doc.Tags), &doc.CreatedAt, &doc.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	doc.Src = domain.DocumentSource(src)
	return &doc, nil
}
