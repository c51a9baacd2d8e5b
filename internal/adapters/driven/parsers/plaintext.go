package parsers

import (
	"context"
	"strings"

	"github.com/custodia-labs/chonkit/internal/core/domain"
	"github.com/custodia-labs/chonkit/internal/core/ports/driven"
)

var _ driven.Parser = (*Text)(nil)

// Text is the default plaintext parser: it also serves as the fallback for
// any extension without a dedicated variant. Range selects lines.
type Text struct{}

func NewText() *Text { return &Text{} }

func (t *Text) Ext() []string { return []string{"txt"} }

func (t *Text) Parse(_ context.Context, data []byte, cfg domain.ParseConfig) (string, error) {
	if err := requireValidUTF8(data); err != nil {
		return "", err
	}
	lines := strings.Split(string(data), "\n")

	lo, hi, err := selectRange(len(lines), cfg)
	if err != nil {
		return "", err
	}
	text := strings.Join(lines[lo:hi], "\n")

	text, err = applyFilters(text, cfg.Filters)
	if err != nil {
		return "", err
	}
	return normalizeWhitespace(text), nil
}

var _ driven.Parser = (*Markdown)(nil)

// Markdown treats the document's lines the same way Text does; Markdown's
// structural punctuation is left untouched, only whitespace is normalized.
type Markdown struct{}

func NewMarkdown() *Markdown { return &Markdown{} }

func (m *Markdown) Ext() []string { return []string{"md", "markdown"} }

func (m *Markdown) Parse(ctx context.Context, data []byte, cfg domain.ParseConfig) (string, error) {
	return (&Text{}).Parse(ctx, data, cfg)
}

var _ driven.Parser = (*JSON)(nil)

// JSON is a pass-through parser: JSON documents have no page/paragraph/line
// structure to range over, so only UTF-8 validation and filters apply.
type JSON struct{}

func NewJSON() *JSON { return &JSON{} }

func (j *JSON) Ext() []string { return []string{"json"} }

func (j *JSON) Parse(_ context.Context, data []byte, cfg domain.ParseConfig) (string, error) {
	if err := requireValidUTF8(data); err != nil {
		return "", err
	}
	text, err := applyFilters(string(data), cfg.Filters)
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(text), nil
}
