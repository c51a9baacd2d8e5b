package mocks

import (
	"context"
	"strings"
	"sync"

	"github.com/custodia-labs/chonkit/internal/core/domain"
	"github.com/custodia-labs/chonkit/internal/core/ports/driven"
)

// MockDocumentStore is an in-memory driven.DocumentStore for testing.
type MockDocumentStore struct {
	mu   sync.RWMutex
	data map[string][]byte

	// WriteFn, when set, overrides Write's default behavior.
	WriteFn func(path string, data []byte) (string, error)
}

func NewMockDocumentStore() *MockDocumentStore {
	return &MockDocumentStore{data: make(map[string][]byte)}
}

func (m *MockDocumentStore) Write(ctx context.Context, path string, data []byte) (string, error) {
	if m.WriteFn != nil {
		return m.WriteFn(path, data)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, exists := m.data[path]; exists {
		return "", domain.ErrAlreadyExists
	}
	m.data[path] = data
	return path, nil
}

func (m *MockDocumentStore) Read(ctx context.Context, path string) ([]byte, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	data, ok := m.data[path]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return data, nil
}

func (m *MockDocumentStore) Delete(ctx context.Context, path string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.data, path)
	return nil
}

func (m *MockDocumentStore) List(ctx context.Context, prefix string) ([]driven.DocumentStoreEntry, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var out []driven.DocumentStoreEntry
	for path := range m.data {
		if strings.HasPrefix(path, prefix) {
			out = append(out, driven.DocumentStoreEntry{Path: path, Name: path})
		}
	}
	return out, nil
}

func (m *MockDocumentStore) Has(path string) bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	_, ok := m.data[path]
	return ok
}
