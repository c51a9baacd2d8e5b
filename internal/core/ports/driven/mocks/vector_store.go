package mocks

import (
	"context"
	"fmt"
	"sync"

	"github.com/custodia-labs/chonkit/internal/core/domain"
	"github.com/custodia-labs/chonkit/internal/core/ports/driven"
)

// MockVectorStore is an in-memory driven.VectorStore for testing.
type MockVectorStore struct {
	mu         sync.RWMutex
	dimensions map[string]int
	items      map[string][]driven.VectorStoreItem

	// InsertFn, when set, overrides Insert's default behavior so tests can
	// simulate upstream failures.
	InsertFn func(collection string, items []driven.VectorStoreItem) error
}

func NewMockVectorStore() *MockVectorStore {
	return &MockVectorStore{
		dimensions: make(map[string]int),
		items:      make(map[string][]driven.VectorStoreItem),
	}
}

func (s *MockVectorStore) CreateCollection(ctx context.Context, name string, dimension int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if existing, ok := s.dimensions[name]; ok {
		if existing != dimension {
			return fmt.Errorf("%w: collection %q is %d-dim, requested %d", domain.ErrConflict, name, existing, dimension)
		}
		return nil
	}
	s.dimensions[name] = dimension
	return nil
}

func (s *MockVectorStore) DeleteCollection(ctx context.Context, name string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.dimensions[name]; !ok {
		return domain.ErrNotFound
	}
	delete(s.dimensions, name)
	delete(s.items, name)
	return nil
}

func (s *MockVectorStore) CollectionDimension(ctx context.Context, name string) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	dim, ok := s.dimensions[name]
	if !ok {
		return 0, domain.ErrNotFound
	}
	return dim, nil
}

func (s *MockVectorStore) ListCollections(ctx context.Context) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	names := make([]string, 0, len(s.dimensions))
	for name := range s.dimensions {
		names = append(names, name)
	}
	return names, nil
}

func (s *MockVectorStore) Insert(ctx context.Context, collection string, items []driven.VectorStoreItem) error {
	if s.InsertFn != nil {
		return s.InsertFn(collection, items)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.items[collection] = append(s.items[collection], items...)
	return nil
}

func (s *MockVectorStore) Query(ctx context.Context, collection string, vector []float32, k int) ([]domain.VectorHit, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	items := s.items[collection]
	if k > len(items) {
		k = len(items)
	}
	hits := make([]domain.VectorHit, k)
	for i := 0; i < k; i++ {
		hits[i] = domain.VectorHit{
			ID:      items[i].ID,
			Score:   1.0,
			Payload: items[i].Payload,
		}
	}
	return hits, nil
}

func (s *MockVectorStore) Count(ctx context.Context, collection string) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.items[collection]), nil
}

func (s *MockVectorStore) DeleteByDocument(ctx context.Context, collection string, documentID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	kept := s.items[collection][:0]
	for _, item := range s.items[collection] {
		if item.Payload.DocumentID != documentID {
			kept = append(kept, item)
		}
	}
	s.items[collection] = kept
	return nil
}

// Items exposes the stored items for a collection, for test assertions.
func (s *MockVectorStore) Items(collection string) []driven.VectorStoreItem {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]driven.VectorStoreItem(nil), s.items[collection]...)
}
