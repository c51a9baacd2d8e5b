package chunkers

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/chonkit/internal/core/domain"
)

func TestSnapTextSkipsAbbreviationsAndURLs(t *testing.T) {
	text := "Visit www.foo.com. Then see e.g. the docs. Done."
	cfg := domain.SnappingWindowConfig{
		Size:         40,
		Overlap:      0,
		SkipForward:  []string{"com"},
		SkipBackward: []string{"www", "e.g"},
	}
	got := SnapText(text, cfg)
	assert.Equal(t, []string{
		"Visit www.foo.com. Then see e.g. the docs.",
		"Done.",
	}, got)
}

func TestSnapTextNoSkipListsSplitsOnEveryTerminator(t *testing.T) {
	text := "One. Two. Three."
	got := SnapText(text, domain.SnappingWindowConfig{Size: 100})
	assert.Equal(t, []string{"One. Two. Three."}, got)
}

func TestSnapTextOversizeSentenceStandsAlone(t *testing.T) {
	text := "This sentence by itself is already longer than the configured size limit. Short."
	cfg := domain.SnappingWindowConfig{Size: 10}
	got := SnapText(text, cfg)
	require.Len(t, got, 2)
	assert.Equal(t, "This sentence by itself is already longer than the configured size limit.", got[0])
	assert.Equal(t, "Short.", got[1])
}

func TestSnapTextOverlapPrependsSentences(t *testing.T) {
	text := "One. Two. Three. Four."
	cfg := domain.SnappingWindowConfig{Size: 9, Overlap: 1}
	got := SnapText(text, cfg)
	require.NotEmpty(t, got)
	assert.Equal(t, []string{"One. Two.", "Two. Three.", "Three. Four."}, got)
}

func TestSnapTextEmpty(t *testing.T) {
	assert.Nil(t, SnapText("", domain.SnappingWindowConfig{Size: 10}))
}

func TestSnapTextSkipForwardChecksWordFollowingTerminatorOnly(t *testing.T) {
	text := "Wait for the signal. org domains are cheap."

	withoutSkip := SnapText(text, domain.SnappingWindowConfig{Size: 20})
	assert.Equal(t, []string{"Wait for the signal.", "org domains are cheap."}, withoutSkip,
		"sanity: with no skip lists the period after \"signal\" is a real boundary")

	got := SnapText(text, domain.SnappingWindowConfig{
		Size:        20,
		SkipForward: []string{"org"},
	})
	assert.Equal(t, []string{text}, got,
		"the word following the terminator (\"org\") matches skip_forward, so the split must be suppressed even though the preceding word (\"signal\") matches nothing in skip_backward")
}

func TestSnapTextMoreSkipNamesNeverIncreasesChunkCount(t *testing.T) {
	text := "Visit www.foo.com. Then see e.g. the docs. Done."
	base := SnapText(text, domain.SnappingWindowConfig{Size: 40})
	withSkips := SnapText(text, domain.SnappingWindowConfig{
		Size:         40,
		SkipForward:  []string{"com"},
		SkipBackward: []string{"www", "e.g"},
	})
	assert.LessOrEqual(t, len(withSkips), len(base))
}

func TestSnappingWindowChunkRejectsWrongKind(t *testing.T) {
	s := NewSnappingWindow()
	_, err := s.Chunk(context.Background(), "abc", domain.ChunkConfig{Kind: domain.ChunkerSlidingWindow})
	assert.ErrorIs(t, err, domain.ErrConfig)
}

func TestSnappingWindowChunkHappyPath(t *testing.T) {
	s := NewSnappingWindow()
	got, err := s.Chunk(context.Background(), "One. Two.", domain.ChunkConfig{
		Kind:     domain.ChunkerSnappingWindow,
		Snapping: &domain.SnappingWindowConfig{Size: 100},
	})
	require.NoError(t, err)
	assert.Equal(t, []string{"One. Two."}, got)
	assert.Equal(t, domain.ChunkerSnappingWindow, s.Kind())
}
