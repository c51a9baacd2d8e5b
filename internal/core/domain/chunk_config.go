package domain

import (
	"encoding/json"
	"fmt"
	"time"
)

// ChunkerKind identifies which chunking algorithm a ChunkConfig configures.
type ChunkerKind string

const (
	ChunkerSlidingWindow  ChunkerKind = "sliding_window"
	ChunkerSnappingWindow ChunkerKind = "snapping_window"
	ChunkerSemanticWindow ChunkerKind = "semantic_window"
)

// SlidingWindowConfig splits text into fixed-size, overlapping windows.
// Constraint: Overlap < Size.
type SlidingWindowConfig struct {
	Size    int `json:"size"`
	Overlap int `json:"overlap"`
}

func (c SlidingWindowConfig) Validate() error {
	if c.Size < 1 {
		return fmt.Errorf("%w: size must be >= 1", ErrConfig)
	}
	if c.Overlap < 0 {
		return fmt.Errorf("%w: overlap must be >= 0", ErrConfig)
	}
	if c.Overlap >= c.Size {
		return fmt.Errorf("%w: overlap must be less than size", ErrConfig)
	}
	return nil
}

// SnappingWindowConfig splits text on sentence boundaries, skipping false
// positives named in SkipForward/SkipBackward, and overlaps by sentence count.
type SnappingWindowConfig struct {
	Size         int      `json:"size"`
	Overlap      int      `json:"overlap"`
	SkipForward  []string `json:"skip_forward"`
	SkipBackward []string `json:"skip_backward"`
}

func (c SnappingWindowConfig) Validate() error {
	if c.Size < 1 {
		return fmt.Errorf("%w: size must be >= 1", ErrConfig)
	}
	if c.Overlap < 0 {
		return fmt.Errorf("%w: overlap must be >= 0", ErrConfig)
	}
	return nil
}

// SemanticWindowConfig groups seed segments by embedding similarity.
type SemanticWindowConfig struct {
	Size       int      `json:"size"`
	Threshold  float64  `json:"threshold"`
	Embedder   string   `json:"embedder"`
	Model      string   `json:"model"`
	Delimiters []string `json:"delimiters,omitempty"`
}

func (c SemanticWindowConfig) Validate() error {
	if c.Size < 1 {
		return fmt.Errorf("%w: size must be >= 1", ErrConfig)
	}
	if c.Threshold < 0 || c.Threshold > 1 {
		return fmt.Errorf("%w: threshold must be within [0,1]", ErrConfig)
	}
	if c.Embedder == "" || c.Model == "" {
		return fmt.Errorf("%w: embedder and model are required", ErrConfig)
	}
	return nil
}

// DefaultSemanticDelimiters is the recursive split order used when none are
// configured: paragraph, line, then sentence.
func DefaultSemanticDelimiters() []string {
	return []string{"\n\n", "\n", ". "}
}

// ChunkConfig is the tagged-variant chunker configuration stored per document.
// Exactly one of Sliding/Snapping/Semantic is populated, matching Kind.
type ChunkConfig struct {
	ID         string
	DocumentID string
	Kind       ChunkerKind
	Sliding    *SlidingWindowConfig
	Snapping   *SnappingWindowConfig
	Semantic   *SemanticWindowConfig
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

func (c ChunkConfig) Validate() error {
	switch c.Kind {
	case ChunkerSlidingWindow:
		if c.Sliding == nil {
			return fmt.Errorf("%w: missing sliding_window parameters", ErrConfig)
		}
		return c.Sliding.Validate()
	case ChunkerSnappingWindow:
		if c.Snapping == nil {
			return fmt.Errorf("%w: missing snapping_window parameters", ErrConfig)
		}
		return c.Snapping.Validate()
	case ChunkerSemanticWindow:
		if c.Semantic == nil {
			return fmt.Errorf("%w: missing semantic_window parameters", ErrConfig)
		}
		return c.Semantic.Validate()
	default:
		return fmt.Errorf("%w: unknown chunker kind %q", ErrConfig, c.Kind)
	}
}

type chunkConfigWire struct {
	Kind     ChunkerKind           `json:"kind"`
	Sliding  *SlidingWindowConfig  `json:"sliding_window,omitempty"`
	Snapping *SnappingWindowConfig `json:"snapping_window,omitempty"`
	Semantic *SemanticWindowConfig `json:"semantic_window,omitempty"`
}

// MarshalJSON produces the tagged-variant shape stored in the
// chunk_configs.config jsonb column.
func (c ChunkConfig) MarshalJSON() ([]byte, error) {
	return json.Marshal(chunkConfigWire{
		Kind:     c.Kind,
		Sliding:  c.Sliding,
		Snapping: c.Snapping,
		Semantic: c.Semantic,
	})
}

// UnmarshalJSON decodes the jsonb column, rejecting unknown tags.
func (c *ChunkConfig) UnmarshalJSON(data []byte) error {
	var w chunkConfigWire
	if err := json.Unmarshal(data, &w); err != nil {
		return fmt.Errorf("%w: %s", ErrConfig, err)
	}
	switch w.Kind {
	case ChunkerSlidingWindow, ChunkerSnappingWindow, ChunkerSemanticWindow:
	default:
		return fmt.Errorf("%w: unknown chunker kind %q", ErrConfig, w.Kind)
	}
	c.Kind = w.Kind
	c.Sliding = w.Sliding
	c.Snapping = w.Snapping
	c.Semantic = w.Semantic
	return nil
}
