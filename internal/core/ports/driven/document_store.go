package driven

import "context"

// DocumentStoreEntry describes one entry returned by DocumentStore.List.
type DocumentStoreEntry struct {
	Path  string
	Name  string
	IsDir bool
}

// DocumentStore reads and writes raw document bytes by path over a pluggable
// backend (local filesystem, remote object store). It knows nothing about
// Document metadata rows, only bytes at paths.
type DocumentStore interface {
	// Write stores bytes at path and returns the canonical path. Fails with
	// domain.ErrAlreadyExists if a non-overwriting write would overwrite.
	Write(ctx context.Context, path string, data []byte) (string, error)

	// Read returns the bytes at path. Fails with domain.ErrNotFound.
	Read(ctx context.Context, path string) ([]byte, error)

	// Delete removes the bytes at path. Idempotent on domain.ErrNotFound.
	Delete(ctx context.Context, path string) error

	// List returns entries under prefix. Used only by external collaborators.
	List(ctx context.Context, prefix string) ([]DocumentStoreEntry, error)
}
