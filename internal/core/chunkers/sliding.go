// Package chunkers implements the three chunking algorithms: sliding
// window, snapping window, and semantic window. All of them are
// deterministic given identical input and configuration, and operate on
// Unicode scalar values (runes), not bytes.
package chunkers

import (
	"context"
	"fmt"

	"github.com/custodia-labs/chonkit/internal/core/domain"
	"github.com/custodia-labs/chonkit/internal/core/ports/driven"
)

var _ driven.Chunker = (*SlidingWindow)(nil)

// SlidingWindow splits text into fixed-size, overlapping windows.
type SlidingWindow struct{}

func NewSlidingWindow() *SlidingWindow { return &SlidingWindow{} }

func (s *SlidingWindow) Kind() domain.ChunkerKind { return domain.ChunkerSlidingWindow }

func (s *SlidingWindow) Chunk(_ context.Context, text string, cfg domain.ChunkConfig) ([]string, error) {
	if cfg.Kind != domain.ChunkerSlidingWindow || cfg.Sliding == nil {
		return nil, fmt.Errorf("%w: sliding window chunker requires a sliding_window config", domain.ErrConfig)
	}
	if err := cfg.Sliding.Validate(); err != nil {
		return nil, err
	}
	return SlideText(text, cfg.Sliding.Size, cfg.Sliding.Overlap), nil
}

// SlideText implements the algorithm directly for use by Preview and tests:
// split runes into windows of size characters, advancing by size-overlap
// per step; the final window may be shorter. Empty input yields no chunks.
func SlideText(text string, size, overlap int) []string {
	runes := []rune(text)
	n := len(runes)
	if n == 0 {
		return nil
	}

	step := size - overlap
	var chunks []string
	start := 0
	for {
		end := start + size
		if end > n {
			end = n
		}
		chunks = append(chunks, string(runes[start:end]))
		if end >= n {
			break
		}
		start += step
	}
	return chunks
}
