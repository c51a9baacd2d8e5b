package services

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/chonkit/internal/core/domain"
	"github.com/custodia-labs/chonkit/internal/core/ports/driven/mocks"
	"github.com/custodia-labs/chonkit/internal/core/ports/driving"
)

func newTestPipeline() (*Pipeline, *testDeps) {
	deps := &testDeps{
		metadata:  mocks.NewMockMetadataRepository(),
		documents: mocks.NewMockDocumentStore(),
		parsers:   mocks.NewMockParserRegistry(),
		chunkers:  mocks.NewMockChunkerRegistry(),
		embedders: mocks.NewMockEmbedderRegistry(),
		vectors:   mocks.NewMockVectorStore(),
	}

	deps.chunkers.Register(&mocks.MockChunker{
		KindVal: domain.ChunkerSlidingWindow,
		ChunkFn: func(text string, cfg domain.ChunkConfig) ([]string, error) {
			if text == "" {
				return nil, nil
			}
			return []string{text}, nil
		},
	})
	deps.embedders.Register("fake", &mocks.MockEmbedder{
		ProviderName: "fake",
		Models:       []string{"fake-model"},
		Dimensions:   map[string]int{"fake-model": 3},
	})

	p := NewPipeline(Config{
		Metadata:  deps.metadata,
		Documents: deps.documents,
		Parsers:   deps.parsers,
		Chunkers:  deps.chunkers,
		Embedders: deps.embedders,
		Vectors:   deps.vectors,
	})
	return p, deps
}

type testDeps struct {
	metadata  *mocks.MockMetadataRepository
	documents *mocks.MockDocumentStore
	parsers   *mocks.MockParserRegistry
	chunkers  *mocks.MockChunkerRegistry
	embedders *mocks.MockEmbedderRegistry
	vectors   *mocks.MockVectorStore
}

func mustUploadDoc(t *testing.T, p *Pipeline, data []byte) *domain.Document {
	t.Helper()
	doc, err := p.Upload(context.Background(), driving.UploadInput{
		Name: "a.txt",
		Path: "a.txt",
		Ext:  "txt",
		Src:  domain.SourceLocal,
		Data: data,
	})
	require.NoError(t, err)
	return doc
}

func mustCreateCollection(t *testing.T, deps *testDeps, name string, dim int) *domain.Collection {
	t.Helper()
	c := &domain.Collection{Name: name, Model: "fake-model", Embedder: "fake", Provider: "fake"}
	require.NoError(t, deps.metadata.Collections().Insert(context.Background(), c))
	require.NoError(t, deps.vectors.CreateCollection(context.Background(), name, dim))
	return c
}

func TestPipelineUploadIsIdempotent(t *testing.T) {
	p, _ := newTestPipeline()
	data := []byte("hello world")

	first := mustUploadDoc(t, p, data)
	second := mustUploadDoc(t, p, data)

	assert.Equal(t, first.ID, second.ID)
}

func TestPipelineUploadDifferentBytesCreateDifferentDocuments(t *testing.T) {
	p, _ := newTestPipeline()

	first := mustUploadDoc(t, p, []byte("hello"))
	second, err := p.Upload(context.Background(), driving.UploadInput{
		Name: "b.txt",
		Path: "b.txt",
		Ext:  "txt",
		Src:  domain.SourceLocal,
		Data: []byte("world"),
	})
	require.NoError(t, err)

	assert.NotEqual(t, first.ID, second.ID)
}

func TestPipelineConfigureRejectsInvalidChunkConfig(t *testing.T) {
	p, _ := newTestPipeline()
	doc := mustUploadDoc(t, p, []byte("hello"))

	err := p.Configure(context.Background(), doc.ID, nil, &domain.ChunkConfig{
		Kind:    domain.ChunkerSlidingWindow,
		Sliding: &domain.SlidingWindowConfig{Size: 0, Overlap: 0},
	})
	assert.ErrorIs(t, err, domain.ErrConfig)
}

func TestPipelinePreviewUsesAdHocConfigWithoutPersisting(t *testing.T) {
	p, _ := newTestPipeline()
	doc := mustUploadDoc(t, p, []byte("hello world"))

	chunks, err := p.Preview(context.Background(), doc.ID, &domain.ParseConfig{}, &domain.ChunkConfig{
		Kind:    domain.ChunkerSlidingWindow,
		Sliding: &domain.SlidingWindowConfig{Size: 100, Overlap: 0},
	})
	require.NoError(t, err)
	require.Len(t, chunks, 1)
	assert.Equal(t, "hello world", chunks[0])
}

func TestPipelineEmbedEndToEnd(t *testing.T) {
	p, deps := newTestPipeline()
	doc := mustUploadDoc(t, p, []byte("hello world"))
	collection := mustCreateCollection(t, deps, "docs", 3)

	err := p.Configure(context.Background(), doc.ID, nil, &domain.ChunkConfig{
		Kind:    domain.ChunkerSlidingWindow,
		Sliding: &domain.SlidingWindowConfig{Size: 100, Overlap: 0},
	})
	require.NoError(t, err)

	err = p.Embed(context.Background(), doc.ID, collection.ID)
	require.NoError(t, err)

	items := deps.vectors.Items("docs")
	require.Len(t, items, 1)
	assert.Equal(t, doc.ID, items[0].Payload.DocumentID)
	assert.Equal(t, 0, items[0].Payload.ChunkIndex)

	rec, err := deps.metadata.Embeddings().Get(context.Background(), doc.ID, collection.ID)
	require.NoError(t, err)
	assert.Equal(t, doc.ID, rec.DocumentID)
}

func TestPipelineEmbedTwiceReturnsAlreadyEmbedded(t *testing.T) {
	p, deps := newTestPipeline()
	doc := mustUploadDoc(t, p, []byte("hello world"))
	collection := mustCreateCollection(t, deps, "docs", 3)
	require.NoError(t, p.Configure(context.Background(), doc.ID, nil, &domain.ChunkConfig{
		Kind:    domain.ChunkerSlidingWindow,
		Sliding: &domain.SlidingWindowConfig{Size: 100, Overlap: 0},
	}))

	require.NoError(t, p.Embed(context.Background(), doc.ID, collection.ID))
	err := p.Embed(context.Background(), doc.ID, collection.ID)
	assert.ErrorIs(t, err, domain.ErrAlreadyEmbedded)
}

func TestPipelineEmbedWithoutChunkConfigFailsWithNoChunker(t *testing.T) {
	p, deps := newTestPipeline()
	doc := mustUploadDoc(t, p, []byte("hello world"))
	collection := mustCreateCollection(t, deps, "docs", 3)

	err := p.Embed(context.Background(), doc.ID, collection.ID)
	assert.ErrorIs(t, err, domain.ErrNoChunker)
}

func TestPipelineEmbedDetectsDimensionDrift(t *testing.T) {
	p, deps := newTestPipeline()
	doc := mustUploadDoc(t, p, []byte("hello world"))
	collection := mustCreateCollection(t, deps, "docs", 1536)
	require.NoError(t, p.Configure(context.Background(), doc.ID, nil, &domain.ChunkConfig{
		Kind:    domain.ChunkerSlidingWindow,
		Sliding: &domain.SlidingWindowConfig{Size: 100, Overlap: 0},
	}))

	err := p.Embed(context.Background(), doc.ID, collection.ID)
	assert.ErrorIs(t, err, domain.ErrDimensionMismatch)
}

func TestPipelineEmbedRetriesTransientUpstreamFailures(t *testing.T) {
	p, deps := newTestPipeline()
	doc := mustUploadDoc(t, p, []byte("hello world"))
	collection := mustCreateCollection(t, deps, "docs", 3)
	require.NoError(t, p.Configure(context.Background(), doc.ID, nil, &domain.ChunkConfig{
		Kind:    domain.ChunkerSlidingWindow,
		Sliding: &domain.SlidingWindowConfig{Size: 100, Overlap: 0},
	}))

	var calls int
	deps.embedders.Register("fake", &mocks.MockEmbedder{
		ProviderName: "fake",
		Models:       []string{"fake-model"},
		Dimensions:   map[string]int{"fake-model": 3},
		EmbedFn: func(model string, chunks []string) ([][]float32, error) {
			calls++
			if calls < 2 {
				return nil, fmt.Errorf("%w: rate limited", domain.ErrEmbedUpstream)
			}
			vectors := make([][]float32, len(chunks))
			for i := range chunks {
				vectors[i] = []float32{0.1, 0.2, 0.3}
			}
			return vectors, nil
		},
	})

	err := p.Embed(context.Background(), doc.ID, collection.ID)
	require.NoError(t, err)
	assert.Equal(t, 2, calls)
}

func TestPipelineDeleteDocumentCascades(t *testing.T) {
	p, deps := newTestPipeline()
	doc := mustUploadDoc(t, p, []byte("hello world"))
	collection := mustCreateCollection(t, deps, "docs", 3)
	require.NoError(t, p.Configure(context.Background(), doc.ID, nil, &domain.ChunkConfig{
		Kind:    domain.ChunkerSlidingWindow,
		Sliding: &domain.SlidingWindowConfig{Size: 100, Overlap: 0},
	}))
	require.NoError(t, p.Embed(context.Background(), doc.ID, collection.ID))

	require.NoError(t, p.DeleteDocument(context.Background(), doc.ID))

	_, err := deps.metadata.Documents().Get(context.Background(), doc.ID)
	assert.ErrorIs(t, err, domain.ErrNotFound)
	assert.Empty(t, deps.vectors.Items("docs"))
	assert.False(t, deps.documents.Has(doc.Path))
}

func TestPipelineDeleteCollectionCascades(t *testing.T) {
	p, deps := newTestPipeline()
	doc := mustUploadDoc(t, p, []byte("hello world"))
	collection := mustCreateCollection(t, deps, "docs", 3)
	require.NoError(t, p.Configure(context.Background(), doc.ID, nil, &domain.ChunkConfig{
		Kind:    domain.ChunkerSlidingWindow,
		Sliding: &domain.SlidingWindowConfig{Size: 100, Overlap: 0},
	}))
	require.NoError(t, p.Embed(context.Background(), doc.ID, collection.ID))

	require.NoError(t, p.DeleteCollection(context.Background(), collection.ID))

	_, err := deps.metadata.Collections().Get(context.Background(), collection.ID)
	assert.ErrorIs(t, err, domain.ErrNotFound)
	_, err = deps.vectors.CollectionDimension(context.Background(), "docs")
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestPipelineSearchReturnsHitsWithoutWriting(t *testing.T) {
	p, deps := newTestPipeline()
	doc := mustUploadDoc(t, p, []byte("hello world"))
	collection := mustCreateCollection(t, deps, "docs", 3)
	require.NoError(t, p.Configure(context.Background(), doc.ID, nil, &domain.ChunkConfig{
		Kind:    domain.ChunkerSlidingWindow,
		Sliding: &domain.SlidingWindowConfig{Size: 100, Overlap: 0},
	}))
	require.NoError(t, p.Embed(context.Background(), doc.ID, collection.ID))

	hits, err := p.Search(context.Background(), collection.ID, "hello", 5)
	require.NoError(t, err)
	require.Len(t, hits, 1)
	assert.Equal(t, doc.ID, hits[0].Payload.DocumentID)
}
