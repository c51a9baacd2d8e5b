package chunkers

import (
	"context"
	"fmt"
	"strings"
	"unicode"

	"github.com/custodia-labs/chonkit/internal/core/domain"
	"github.com/custodia-labs/chonkit/internal/core/ports/driven"
)

var _ driven.Chunker = (*SnappingWindow)(nil)

// SnappingWindow splits text on sentence boundaries, suppressing false
// positives named in SkipForward/SkipBackward (abbreviations, URLs), and
// overlaps adjacent chunks by whole sentences rather than characters.
type SnappingWindow struct{}

func NewSnappingWindow() *SnappingWindow { return &SnappingWindow{} }

func (s *SnappingWindow) Kind() domain.ChunkerKind { return domain.ChunkerSnappingWindow }

func (s *SnappingWindow) Chunk(_ context.Context, text string, cfg domain.ChunkConfig) ([]string, error) {
	if cfg.Kind != domain.ChunkerSnappingWindow || cfg.Snapping == nil {
		return nil, fmt.Errorf("%w: snapping window chunker requires a snapping_window config", domain.ErrConfig)
	}
	if err := cfg.Snapping.Validate(); err != nil {
		return nil, err
	}
	return SnapText(text, *cfg.Snapping), nil
}

func isSentenceTerminator(r rune) bool {
	return r == '.' || r == '!' || r == '?'
}

// sentenceBoundaries returns, for every valid (non-suppressed) sentence
// terminator in runes, the rune index immediately after it.
func sentenceBoundaries(runes []rune, skipForward, skipBackward []string) []int {
	n := len(runes)
	var boundaries []int
	for i := 0; i < n; i++ {
		if !isSentenceTerminator(runes[i]) {
			continue
		}
		followedByBoundary := i+1 >= n || unicode.IsSpace(runes[i+1])
		if !followedByBoundary {
			continue
		}
		if isSuppressed(runes, i, skipForward, skipBackward) {
			continue
		}
		boundaries = append(boundaries, i+1)
	}
	return boundaries
}

// isSuppressed implements the two independent directional skip-list checks:
// the candidate terminator at termIdx is suppressed if the token preceding
// it matches skipBackward, or the token following it matches skipForward.
// Each direction is checked only against its own list — never the union.
func isSuppressed(runes []rune, termIdx int, skipForward, skipBackward []string) bool {
	if len(skipForward) == 0 && len(skipBackward) == 0 {
		return false
	}

	if len(skipBackward) > 0 && matchesWordOrSegment(precedingWord(runes, termIdx), skipBackward) {
		return true
	}
	if len(skipForward) > 0 && matchesWordOrSegment(followingWord(runes, termIdx), skipForward) {
		return true
	}
	return false
}

// precedingWord returns the token immediately before the terminator at
// termIdx, bounded by whitespace.
func precedingWord(runes []rune, termIdx int) string {
	wordStart := termIdx
	for wordStart > 0 && !unicode.IsSpace(runes[wordStart-1]) {
		wordStart--
	}
	return string(runes[wordStart:termIdx])
}

// followingWord returns the longest non-whitespace prefix after the
// whitespace following the terminator at termIdx.
func followingWord(runes []rune, termIdx int) string {
	i := termIdx + 1
	n := len(runes)
	for i < n && unicode.IsSpace(runes[i]) {
		i++
	}
	wordEnd := i
	for wordEnd < n && !unicode.IsSpace(runes[wordEnd]) {
		wordEnd++
	}
	return string(runes[i:wordEnd])
}

// matchesWordOrSegment checks the whole word and any of its '.'-delimited
// segments against list, so abbreviation-style tokens like "www.foo.com"
// match on any of their dot-separated parts.
func matchesWordOrSegment(word string, list []string) bool {
	if word == "" {
		return false
	}
	if matches(word, list) {
		return true
	}
	for _, seg := range strings.Split(word, ".") {
		if seg == "" {
			continue
		}
		if matches(seg, list) {
			return true
		}
	}
	return false
}

func matches(s string, list []string) bool {
	for _, e := range list {
		if e == s {
			return true
		}
	}
	return false
}

// SnapText implements the algorithm directly for use by Preview and tests.
func SnapText(text string, cfg domain.SnappingWindowConfig) []string {
	runes := []rune(text)
	if len(runes) == 0 {
		return nil
	}

	boundaries := sentenceBoundaries(runes, cfg.SkipForward, cfg.SkipBackward)

	var sentences []string
	prevEnd := 0
	for _, b := range boundaries {
		if seg := strings.TrimSpace(string(runes[prevEnd:b])); seg != "" {
			sentences = append(sentences, seg)
		}
		prevEnd = b
	}
	if prevEnd < len(runes) {
		if seg := strings.TrimSpace(string(runes[prevEnd:])); seg != "" {
			sentences = append(sentences, seg)
		}
	}
	if len(sentences) == 0 {
		return nil
	}

	var groups [][]string
	var cur []string
	curLen := 0
	for _, sentence := range sentences {
		sLen := len([]rune(sentence))
		if len(cur) == 0 {
			cur = []string{sentence}
			curLen = sLen
			continue
		}
		candidateLen := curLen + 1 + sLen
		if candidateLen > cfg.Size {
			groups = append(groups, cur)
			cur = []string{sentence}
			curLen = sLen
			continue
		}
		cur = append(cur, sentence)
		curLen = candidateLen
	}
	if len(cur) > 0 {
		groups = append(groups, cur)
	}

	chunks := make([]string, len(groups))
	for i, group := range groups {
		parts := group
		if i > 0 && cfg.Overlap > 0 {
			prev := groups[i-1]
			n := cfg.Overlap
			if n > len(prev) {
				n = len(prev)
			}
			parts = append(append([]string{}, prev[len(prev)-n:]...), group...)
		}
		chunks[i] = strings.Join(parts, " ")
	}
	return chunks
}
