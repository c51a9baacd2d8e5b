package chunkers

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/chonkit/internal/core/domain"
	"github.com/custodia-labs/chonkit/internal/core/ports/driven"
)

func TestRegistryGetUnknownKind(t *testing.T) {
	r := NewRegistry()
	_, err := r.Get(domain.ChunkerSlidingWindow)
	assert.ErrorIs(t, err, domain.ErrNoChunker)
}

func TestDefaultRegistryResolvesAllThreeKinds(t *testing.T) {
	embedders := &fakeRegistry{embedders: map[string]driven.Embedder{}}
	r := NewDefaultRegistry(embedders)

	for _, kind := range []domain.ChunkerKind{
		domain.ChunkerSlidingWindow,
		domain.ChunkerSnappingWindow,
		domain.ChunkerSemanticWindow,
	} {
		c, err := r.Get(kind)
		require.NoError(t, err)
		assert.Equal(t, kind, c.Kind())
	}
}

func TestRegistryRegisterAndGet(t *testing.T) {
	r := NewRegistry()
	r.Register(NewSlidingWindow())
	r.Register(NewSnappingWindow())

	sw, err := r.Get(domain.ChunkerSlidingWindow)
	require.NoError(t, err)
	assert.Equal(t, domain.ChunkerSlidingWindow, sw.Kind())

	nw, err := r.Get(domain.ChunkerSnappingWindow)
	require.NoError(t, err)
	assert.Equal(t, domain.ChunkerSnappingWindow, nw.Kind())
}
