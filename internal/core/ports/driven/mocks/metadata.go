package mocks

import (
	"context"
	"database/sql"
	"fmt"
	"sync"

	"github.com/custodia-labs/chonkit/internal/core/domain"
	"github.com/custodia-labs/chonkit/internal/core/ports/driven"
)

// MockMetadataRepository is an in-memory implementation of
// driven.MetadataRepository for testing. Transaction runs fn with a nil
// *sql.Tx since the sub-repositories here never touch the connection.
type MockMetadataRepository struct {
	documents   *MockDocumentRepository
	parsers     *MockParseConfigRepository
	chunkers    *MockChunkConfigRepository
	collections *MockCollectionRepository
	embeddings  *MockEmbeddingRepository
}

func NewMockMetadataRepository() *MockMetadataRepository {
	return &MockMetadataRepository{
		documents:   NewMockDocumentRepository(),
		parsers:     NewMockParseConfigRepository(),
		chunkers:    NewMockChunkConfigRepository(),
		collections: NewMockCollectionRepository(),
		embeddings:  NewMockEmbeddingRepository(),
	}
}

func (m *MockMetadataRepository) Documents() driven.DocumentRepository       { return m.documents }
func (m *MockMetadataRepository) ParseConfigs() driven.ParseConfigRepository { return m.parsers }
func (m *MockMetadataRepository) ChunkConfigs() driven.ChunkConfigRepository { return m.chunkers }
func (m *MockMetadataRepository) Collections() driven.CollectionRepository   { return m.collections }
func (m *MockMetadataRepository) Embeddings() driven.EmbeddingRepository     { return m.embeddings }

func (m *MockMetadataRepository) Transaction(ctx context.Context, fn func(tx *sql.Tx) error) error {
	return fn(nil)
}

// MockDocumentRepository is an in-memory DocumentRepository.
type MockDocumentRepository struct {
	mu        sync.RWMutex
	docs      map[string]*domain.Document
	byNatural map[string]*domain.Document
	seq       int
}

func NewMockDocumentRepository() *MockDocumentRepository {
	return &MockDocumentRepository{
		docs:      make(map[string]*domain.Document),
		byNatural: make(map[string]*domain.Document),
	}
}

func naturalKey(src domain.DocumentSource, path, hash string) string {
	return fmt.Sprintf("%s:%s:%s", src, path, hash)
}

func (m *MockDocumentRepository) Insert(ctx context.Context, doc *domain.Document) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	key := naturalKey(doc.Src, doc.Path, doc.Hash)
	if _, exists := m.byNatural[key]; exists {
		return domain.ErrAlreadyExists
	}
	m.seq++
	doc.ID = fmt.Sprintf("doc-%d", m.seq)
	cp := *doc
	m.docs[doc.ID] = &cp
	m.byNatural[key] = &cp
	return nil
}

func (m *MockDocumentRepository) Get(ctx context.Context, id string) (*domain.Document, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	doc, ok := m.docs[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	cp := *doc
	return &cp, nil
}

func (m *MockDocumentRepository) FindBySrcPathHash(ctx context.Context, src domain.DocumentSource, path, hash string) (*domain.Document, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	doc, ok := m.byNatural[naturalKey(src, path, hash)]
	if !ok {
		return nil, domain.ErrNotFound
	}
	cp := *doc
	return &cp, nil
}

func (m *MockDocumentRepository) List(ctx context.Context, limit, offset int) ([]*domain.Document, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]*domain.Document, 0, len(m.docs))
	for _, d := range m.docs {
		cp := *d
		out = append(out, &cp)
	}
	if offset >= len(out) {
		return []*domain.Document{}, nil
	}
	end := offset + limit
	if limit <= 0 || end > len(out) {
		end = len(out)
	}
	return out[offset:end], nil
}

func (m *MockDocumentRepository) Delete(ctx context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	doc, ok := m.docs[id]
	if !ok {
		return domain.ErrNotFound
	}
	delete(m.docs, id)
	delete(m.byNatural, naturalKey(doc.Src, doc.Path, doc.Hash))
	return nil
}

func (m *MockDocumentRepository) DeleteTx(ctx context.Context, tx *sql.Tx, id string) error {
	return m.Delete(ctx, id)
}

// MockParseConfigRepository is an in-memory ParseConfigRepository.
type MockParseConfigRepository struct {
	mu    sync.RWMutex
	byDoc map[string]*domain.ParseConfig
	seq   int
}

func NewMockParseConfigRepository() *MockParseConfigRepository {
	return &MockParseConfigRepository{byDoc: make(map[string]*domain.ParseConfig)}
}

func (m *MockParseConfigRepository) Upsert(ctx context.Context, cfg *domain.ParseConfig) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if existing, ok := m.byDoc[cfg.DocumentID]; ok {
		cfg.ID = existing.ID
	} else {
		m.seq++
		cfg.ID = fmt.Sprintf("parsecfg-%d", m.seq)
	}
	cp := *cfg
	m.byDoc[cfg.DocumentID] = &cp
	return nil
}

func (m *MockParseConfigRepository) GetByDocument(ctx context.Context, documentID string) (*domain.ParseConfig, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	cfg, ok := m.byDoc[documentID]
	if !ok {
		return nil, domain.ErrNotFound
	}
	cp := *cfg
	return &cp, nil
}

// MockChunkConfigRepository is an in-memory ChunkConfigRepository.
type MockChunkConfigRepository struct {
	mu    sync.RWMutex
	byDoc map[string]*domain.ChunkConfig
	seq   int
}

func NewMockChunkConfigRepository() *MockChunkConfigRepository {
	return &MockChunkConfigRepository{byDoc: make(map[string]*domain.ChunkConfig)}
}

func (m *MockChunkConfigRepository) Upsert(ctx context.Context, cfg *domain.ChunkConfig) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if existing, ok := m.byDoc[cfg.DocumentID]; ok {
		cfg.ID = existing.ID
	} else {
		m.seq++
		cfg.ID = fmt.Sprintf("chunkcfg-%d", m.seq)
	}
	cp := *cfg
	m.byDoc[cfg.DocumentID] = &cp
	return nil
}

func (m *MockChunkConfigRepository) GetByDocument(ctx context.Context, documentID string) (*domain.ChunkConfig, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	cfg, ok := m.byDoc[documentID]
	if !ok {
		return nil, domain.ErrNotFound
	}
	cp := *cfg
	return &cp, nil
}

// MockCollectionRepository is an in-memory CollectionRepository.
type MockCollectionRepository struct {
	mu     sync.RWMutex
	byID   map[string]*domain.Collection
	byName map[string]*domain.Collection
	seq    int
}

func NewMockCollectionRepository() *MockCollectionRepository {
	return &MockCollectionRepository{
		byID:   make(map[string]*domain.Collection),
		byName: make(map[string]*domain.Collection),
	}
}

func (m *MockCollectionRepository) Insert(ctx context.Context, c *domain.Collection) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	key := c.Name + ":" + c.Provider
	if _, exists := m.byName[key]; exists {
		return domain.ErrAlreadyExists
	}
	m.seq++
	c.ID = fmt.Sprintf("coll-%d", m.seq)
	cp := *c
	m.byID[c.ID] = &cp
	m.byName[key] = &cp
	return nil
}

func (m *MockCollectionRepository) Get(ctx context.Context, id string) (*domain.Collection, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	c, ok := m.byID[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	cp := *c
	return &cp, nil
}

func (m *MockCollectionRepository) GetByName(ctx context.Context, name, provider string) (*domain.Collection, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	c, ok := m.byName[name+":"+provider]
	if !ok {
		return nil, domain.ErrNotFound
	}
	cp := *c
	return &cp, nil
}

func (m *MockCollectionRepository) List(ctx context.Context) ([]*domain.Collection, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]*domain.Collection, 0, len(m.byID))
	for _, c := range m.byID {
		cp := *c
		out = append(out, &cp)
	}
	return out, nil
}

func (m *MockCollectionRepository) Delete(ctx context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	c, ok := m.byID[id]
	if !ok {
		return domain.ErrNotFound
	}
	delete(m.byID, id)
	delete(m.byName, c.Name+":"+c.Provider)
	return nil
}

// MockEmbeddingRepository is an in-memory EmbeddingRepository.
type MockEmbeddingRepository struct {
	mu     sync.RWMutex
	byKey  map[string]*domain.EmbeddingRecord
	byDoc  map[string][]*domain.EmbeddingRecord
	byColl map[string][]*domain.EmbeddingRecord
	seq    int
}

func NewMockEmbeddingRepository() *MockEmbeddingRepository {
	return &MockEmbeddingRepository{
		byKey:  make(map[string]*domain.EmbeddingRecord),
		byDoc:  make(map[string][]*domain.EmbeddingRecord),
		byColl: make(map[string][]*domain.EmbeddingRecord),
	}
}

func embeddingKey(documentID, collectionID string) string {
	return documentID + ":" + collectionID
}

func (m *MockEmbeddingRepository) Get(ctx context.Context, documentID, collectionID string) (*domain.EmbeddingRecord, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	rec, ok := m.byKey[embeddingKey(documentID, collectionID)]
	if !ok {
		return nil, domain.ErrNotFound
	}
	cp := *rec
	return &cp, nil
}

func (m *MockEmbeddingRepository) InsertTx(ctx context.Context, tx *sql.Tx, rec *domain.EmbeddingRecord) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	key := embeddingKey(rec.DocumentID, rec.CollectionID)
	if _, exists := m.byKey[key]; exists {
		return domain.ErrConflict
	}
	m.seq++
	rec.ID = fmt.Sprintf("emb-%d", m.seq)
	cp := *rec
	m.byKey[key] = &cp
	m.byDoc[rec.DocumentID] = append(m.byDoc[rec.DocumentID], &cp)
	m.byColl[rec.CollectionID] = append(m.byColl[rec.CollectionID], &cp)
	return nil
}

func (m *MockEmbeddingRepository) DeleteByDocument(ctx context.Context, documentID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, rec := range m.byDoc[documentID] {
		delete(m.byKey, embeddingKey(rec.DocumentID, rec.CollectionID))
		recs := m.byColl[rec.CollectionID]
		for i, r := range recs {
			if r.ID == rec.ID {
				m.byColl[rec.CollectionID] = append(recs[:i], recs[i+1:]...)
				break
			}
		}
	}
	delete(m.byDoc, documentID)
	return nil
}

func (m *MockEmbeddingRepository) DeleteByCollection(ctx context.Context, collectionID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, rec := range m.byColl[collectionID] {
		delete(m.byKey, embeddingKey(rec.DocumentID, rec.CollectionID))
		recs := m.byDoc[rec.DocumentID]
		for i, r := range recs {
			if r.ID == rec.ID {
				m.byDoc[rec.DocumentID] = append(recs[:i], recs[i+1:]...)
				break
			}
		}
	}
	delete(m.byColl, collectionID)
	return nil
}

func (m *MockEmbeddingRepository) ListByDocument(ctx context.Context, documentID string) ([]*domain.EmbeddingRecord, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	recs := m.byDoc[documentID]
	out := make([]*domain.EmbeddingRecord, len(recs))
	for i, r := range recs {
		cp := *r
		out[i] = &cp
	}
	return out, nil
}
