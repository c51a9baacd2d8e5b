package objectstore

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/custodia-labs/chonkit/internal/core/domain"
	"github.com/custodia-labs/chonkit/internal/core/ports/driven"
)

var _ driven.DocumentStore = (*LocalStore)(nil)

// LocalStore implements driven.DocumentStore against the local filesystem,
// rooted under a base directory. Paths are relative to the root and never
// allowed to escape it.
type LocalStore struct {
	root string
}

func NewLocalStore(root string) (*LocalStore, error) {
	if err := os.MkdirAll(root, 0o755); err != nil {
		return nil, fmt.Errorf("create root directory %q: %w", root, err)
	}
	return &LocalStore{root: root}, nil
}

func (s *LocalStore) resolve(path string) (string, error) {
	full := filepath.Join(s.root, filepath.Clean("/"+path))
	if !strings.HasPrefix(full, filepath.Clean(s.root)+string(filepath.Separator)) && full != filepath.Clean(s.root) {
		return "", fmt.Errorf("%w: path %q escapes store root", domain.ErrConfig, path)
	}
	return full, nil
}

func (s *LocalStore) Write(ctx context.Context, path string, data []byte) (string, error) {
	full, err := s.resolve(path)
	if err != nil {
		return "", err
	}
	if _, err := os.Stat(full); err == nil {
		return "", domain.ErrAlreadyExists
	}
	if err := os.MkdirAll(filepath.Dir(full), 0o755); err != nil {
		return "", fmt.Errorf("create parent directory: %w", err)
	}
	if err := os.WriteFile(full, data, 0o644); err != nil {
		return "", fmt.Errorf("write file %q: %w", full, err)
	}
	return path, nil
}

func (s *LocalStore) Read(ctx context.Context, path string) ([]byte, error) {
	full, err := s.resolve(path)
	if err != nil {
		return nil, err
	}
	data, err := os.ReadFile(full)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("read file %q: %w", full, err)
	}
	return data, nil
}

func (s *LocalStore) Delete(ctx context.Context, path string) error {
	full, err := s.resolve(path)
	if err != nil {
		return err
	}
	if err := os.Remove(full); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("delete file %q: %w", full, err)
	}
	return nil
}

func (s *LocalStore) List(ctx context.Context, prefix string) ([]driven.DocumentStoreEntry, error) {
	full, err := s.resolve(prefix)
	if err != nil {
		return nil, err
	}
	entries, err := os.ReadDir(full)
	if err != nil {
		if os.IsNotExist(err) {
			return []driven.DocumentStoreEntry{}, nil
		}
		return nil, fmt.Errorf("list directory %q: %w", full, err)
	}

	out := make([]driven.DocumentStoreEntry, 0, len(entries))
	for _, e := range entries {
		out = append(out, driven.DocumentStoreEntry{
			Path:  filepath.Join(prefix, e.Name()),
			Name:  e.Name(),
			IsDir: e.IsDir(),
		})
	}
	return out, nil
}
