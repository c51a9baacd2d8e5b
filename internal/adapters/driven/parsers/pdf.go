package parsers

import (
	"bytes"
	"context"
	"fmt"
	"strings"

	"github.com/ledongthuc/pdf"

	"github.com/custodia-labs/chonkit/internal/core/domain"
	"github.com/custodia-labs/chonkit/internal/core/ports/driven"
)

var _ driven.Parser = (*PDF)(nil)

// PDF extracts text per page; Range selects a 1-based inclusive page range.
type PDF struct{}

func NewPDF() *PDF { return &PDF{} }

func (p *PDF) Ext() []string { return []string{"pdf"} }

func (p *PDF) Parse(_ context.Context, data []byte, cfg domain.ParseConfig) (string, error) {
	reader, err := pdf.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return "", fmt.Errorf("%w: %s", domain.ErrParse, err)
	}

	total := reader.NumPage()
	lo, hi, err := selectRange(total, cfg)
	if err != nil {
		return "", err
	}

	var pages []string
	for pageNum := lo + 1; pageNum <= hi; pageNum++ {
		page := reader.Page(pageNum)
		if page.V.IsNull() {
			continue
		}
		content, err := page.GetPlainText(nil)
		if err != nil {
			return "", fmt.Errorf("%w: page %d: %s", domain.ErrParse, pageNum, err)
		}
		pages = append(pages, content)
	}
	text := strings.Join(pages, "\n\n")

	if err := requireValidUTF8([]byte(text)); err != nil {
		return "", err
	}
	text, err = applyFilters(text, cfg.Filters)
	if err != nil {
		return "", err
	}
	return normalizeWhitespace(text), nil
}
