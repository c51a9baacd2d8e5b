package chunkers

import (
	"context"
	"fmt"
	"math"
	"strings"

	"github.com/custodia-labs/chonkit/internal/core/domain"
	"github.com/custodia-labs/chonkit/internal/core/ports/driven"
)

var _ driven.Chunker = (*SemanticWindow)(nil)

// SemanticWindow groups recursively-split seed segments into chunks by
// embedding similarity: adjacent seeds are merged while their cosine
// similarity stays at or above Threshold, cutting on a similarity drop or
// once the running chunk would exceed Size runes.
type SemanticWindow struct {
	embedders driven.EmbedderRegistry
}

func NewSemanticWindow(embedders driven.EmbedderRegistry) *SemanticWindow {
	return &SemanticWindow{embedders: embedders}
}

func (s *SemanticWindow) Kind() domain.ChunkerKind { return domain.ChunkerSemanticWindow }

func (s *SemanticWindow) Chunk(ctx context.Context, text string, cfg domain.ChunkConfig) ([]string, error) {
	if cfg.Kind != domain.ChunkerSemanticWindow || cfg.Semantic == nil {
		return nil, fmt.Errorf("%w: semantic window chunker requires a semantic_window config", domain.ErrConfig)
	}
	if err := cfg.Semantic.Validate(); err != nil {
		return nil, err
	}

	seeds, err := splitSeeds(text, cfg.Semantic.Size, delimiters(cfg.Semantic))
	if err != nil {
		return nil, err
	}
	if len(seeds) == 0 {
		return nil, nil
	}
	if len(seeds) == 1 {
		return seeds, nil
	}

	embedder, err := s.embedders.Get(cfg.Semantic.Embedder)
	if err != nil {
		return nil, err
	}
	vectors, err := embedder.Embed(ctx, cfg.Semantic.Model, seeds)
	if err != nil {
		return nil, err
	}
	if len(vectors) != len(seeds) {
		return nil, fmt.Errorf("%w: embedder returned %d vectors for %d seeds", domain.ErrEmbedUpstream, len(vectors), len(seeds))
	}

	return groupBySimilarity(seeds, vectors, cfg.Semantic.Size, cfg.Semantic.Threshold), nil
}

func delimiters(cfg *domain.SemanticWindowConfig) []string {
	if len(cfg.Delimiters) > 0 {
		return cfg.Delimiters
	}
	return domain.DefaultSemanticDelimiters()
}

// splitSeeds splits text into seed segments on the earliest delimiter (in
// the given precedence order) that occurs in it, then recursively splits
// any segment still longer than size runes. Text containing none of the
// delimiters is a single seed. If such a segment still exceeds size,
// ConfigError is returned: the caller configured a size smaller than an
// unsplittable unit of text.
func splitSeeds(text string, size int, delims []string) ([]string, error) {
	trimmed := strings.TrimSpace(text)
	if trimmed == "" {
		return nil, nil
	}

	for _, delim := range delims {
		parts := splitNonEmpty(trimmed, delim)
		if len(parts) < 2 {
			continue
		}
		var out []string
		for _, p := range parts {
			if len([]rune(p)) <= size {
				out = append(out, p)
				continue
			}
			sub, err := splitSeeds(p, size, delims)
			if err != nil {
				return nil, err
			}
			out = append(out, sub...)
		}
		return out, nil
	}

	if len([]rune(trimmed)) <= size {
		return []string{trimmed}, nil
	}
	return nil, fmt.Errorf("%w: size %d is smaller than an unsplittable segment of %d runes", domain.ErrConfig, size, len([]rune(trimmed)))
}

func splitNonEmpty(text, sep string) []string {
	raw := strings.Split(text, sep)
	out := make([]string, 0, len(raw))
	for _, r := range raw {
		if t := strings.TrimSpace(r); t != "" {
			out = append(out, t)
		}
	}
	return out
}

// groupBySimilarity greedily merges seeds into the current chunk while the
// cosine similarity between the current chunk's centroid and the next seed's
// vector is at or above threshold and the merged length stays within size.
func groupBySimilarity(seeds []string, vectors [][]float32, size int, threshold float64) []string {
	var chunks []string
	curParts := []string{seeds[0]}
	curVec := append([]float32{}, vectors[0]...)
	curLen := len([]rune(seeds[0]))
	curCount := 1

	flush := func() {
		chunks = append(chunks, strings.Join(curParts, " "))
	}

	for i := 1; i < len(seeds); i++ {
		seed := seeds[i]
		seedLen := len([]rune(seed))
		sim := cosineSimilarity(centroid(curVec, curCount), vectors[i])

		if sim < threshold || curLen+1+seedLen > size {
			flush()
			curParts = []string{seed}
			curVec = append([]float32{}, vectors[i]...)
			curLen = seedLen
			curCount = 1
			continue
		}

		curParts = append(curParts, seed)
		curVec = addVec(curVec, vectors[i])
		curLen += 1 + seedLen
		curCount++
	}
	flush()
	return chunks
}

func centroid(sum []float32, count int) []float32 {
	if count <= 1 {
		return sum
	}
	out := make([]float32, len(sum))
	for i, v := range sum {
		out[i] = v / float32(count)
	}
	return out
}

func addVec(a, b []float32) []float32 {
	out := make([]float32, len(a))
	for i := range a {
		out[i] = a[i] + b[i]
	}
	return out
}

func cosineSimilarity(a, b []float32) float64 {
	var dot, normA, normB float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		normA += float64(a[i]) * float64(a[i])
		normB += float64(b[i]) * float64(b[i])
	}
	if normA == 0 || normB == 0 {
		return 0
	}
	return dot / (math.Sqrt(normA) * math.Sqrt(normB))
}
