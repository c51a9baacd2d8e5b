package chunkers

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/chonkit/internal/core/domain"
	"github.com/custodia-labs/chonkit/internal/core/ports/driven"
)

// fakeEmbedder assigns orthogonal or identical unit vectors by a lookup
// table keyed on the exact chunk text, so tests can control similarity
// without depending on a real embedding model.
type fakeEmbedder struct {
	vectors map[string][]float32
}

func (f *fakeEmbedder) ListModels(context.Context) ([]string, error) { return []string{"fake"}, nil }
func (f *fakeEmbedder) Dimension(context.Context, string) (int, error) { return 2, nil }
func (f *fakeEmbedder) Provider() string                                { return "fake" }

func (f *fakeEmbedder) Embed(_ context.Context, _ string, chunks []string) ([][]float32, error) {
	out := make([][]float32, len(chunks))
	for i, c := range chunks {
		v, ok := f.vectors[c]
		if !ok {
			return nil, fmt.Errorf("fakeEmbedder: no vector configured for %q", c)
		}
		out[i] = v
	}
	return out, nil
}

type fakeRegistry struct {
	embedders map[string]driven.Embedder
}

func (r *fakeRegistry) Get(provider string) (driven.Embedder, error) {
	e, ok := r.embedders[provider]
	if !ok {
		return nil, domain.ErrModelUnknown
	}
	return e, nil
}
func (r *fakeRegistry) Register(provider string, e driven.Embedder) { r.embedders[provider] = e }
func (r *fakeRegistry) List() []string {
	var out []string
	for k := range r.embedders {
		out = append(out, k)
	}
	return out
}

func TestSemanticWindowMergesSimilarSeedsAndCutsOnDrop(t *testing.T) {
	reg := &fakeRegistry{embedders: map[string]driven.Embedder{
		"fake": &fakeEmbedder{vectors: map[string][]float32{
			"alpha one":   {1, 0},
			"alpha two":   {1, 0},
			"beta unrel":  {0, 1},
		}},
	}}
	cfg := domain.ChunkConfig{
		Kind: domain.ChunkerSemanticWindow,
		Semantic: &domain.SemanticWindowConfig{
			Size:       1000,
			Threshold:  0.9,
			Embedder:   "fake",
			Model:      "fake",
			Delimiters: []string{"\n\n"},
		},
	}
	s := NewSemanticWindow(reg)
	got, err := s.Chunk(context.Background(), "alpha one\n\nalpha two\n\nbeta unrel", cfg)
	require.NoError(t, err)
	assert.Equal(t, []string{"alpha one alpha two", "beta unrel"}, got)
}

func TestSemanticWindowConfigErrorWhenSeedUnsplittable(t *testing.T) {
	reg := &fakeRegistry{embedders: map[string]driven.Embedder{}}
	s := NewSemanticWindow(reg)
	cfg := domain.ChunkConfig{
		Kind: domain.ChunkerSemanticWindow,
		Semantic: &domain.SemanticWindowConfig{
			Size:      3,
			Threshold: 0.5,
			Embedder:  "fake",
			Model:     "fake",
		},
	}
	_, err := s.Chunk(context.Background(), "a single long unsplittable run of characters", cfg)
	assert.ErrorIs(t, err, domain.ErrConfig)
}

func TestSemanticWindowSingleSeedSkipsEmbedding(t *testing.T) {
	reg := &fakeRegistry{embedders: map[string]driven.Embedder{}}
	s := NewSemanticWindow(reg)
	cfg := domain.ChunkConfig{
		Kind: domain.ChunkerSemanticWindow,
		Semantic: &domain.SemanticWindowConfig{
			Size:      1000,
			Threshold: 0.5,
			Embedder:  "fake",
			Model:     "fake",
		},
	}
	got, err := s.Chunk(context.Background(), "short text", cfg)
	require.NoError(t, err)
	assert.Equal(t, []string{"short text"}, got)
}

func TestSemanticWindowRejectsWrongKind(t *testing.T) {
	reg := &fakeRegistry{embedders: map[string]driven.Embedder{}}
	s := NewSemanticWindow(reg)
	_, err := s.Chunk(context.Background(), "abc", domain.ChunkConfig{Kind: domain.ChunkerSlidingWindow})
	assert.ErrorIs(t, err, domain.ErrConfig)
	assert.Equal(t, domain.ChunkerSemanticWindow, s.Kind())
}
