package domain

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSlidingWindowConfigValidate(t *testing.T) {
	assert.NoError(t, SlidingWindowConfig{Size: 4, Overlap: 1}.Validate())
	assert.ErrorIs(t, SlidingWindowConfig{Size: 4, Overlap: 4}.Validate(), ErrConfig)
	assert.ErrorIs(t, SlidingWindowConfig{Size: 0}.Validate(), ErrConfig)
}

func TestChunkConfigRoundTrip(t *testing.T) {
	cfg := ChunkConfig{
		Kind:    ChunkerSlidingWindow,
		Sliding: &SlidingWindowConfig{Size: 100, Overlap: 10},
	}

	data, err := json.Marshal(cfg)
	require.NoError(t, err)

	var decoded ChunkConfig
	require.NoError(t, json.Unmarshal(data, &decoded))
	assert.Equal(t, ChunkerSlidingWindow, decoded.Kind)
	require.NotNil(t, decoded.Sliding)
	assert.Equal(t, 100, decoded.Sliding.Size)
}

func TestChunkConfigRejectsUnknownKind(t *testing.T) {
	var decoded ChunkConfig
	err := json.Unmarshal([]byte(`{"kind":"bogus"}`), &decoded)
	assert.ErrorIs(t, err, ErrConfig)
}
