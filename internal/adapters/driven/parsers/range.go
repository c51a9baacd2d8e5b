package parsers

import (
	"fmt"
	"unicode/utf8"

	"github.com/custodia-labs/chonkit/internal/core/domain"
)

// selectRange resolves cfg's {start, end, range} tagged variant against a
// sequence of total elements (pages, paragraphs, lines) and returns the
// half-open [lo, hi) 0-based slice bounds to keep.
//
// When cfg.Range, [start, end] is an inclusive 1-based element range.
// Otherwise start/end skip that many elements off the front/back.
func selectRange(total int, cfg domain.ParseConfig) (int, int, error) {
	start := int(cfg.Start)
	end := int(cfg.End)

	if cfg.Range {
		if start < 1 || end > total || start > end {
			return 0, 0, fmt.Errorf("%w: range [%d,%d] out of bounds for %d elements", domain.ErrOutOfRange, start, end, total)
		}
		return start - 1, end, nil
	}

	if start < 0 || end < 0 || start+end > total {
		return 0, 0, fmt.Errorf("%w: skip start=%d end=%d out of bounds for %d elements", domain.ErrOutOfRange, start, end, total)
	}
	return start, total - end, nil
}

func requireValidUTF8(data []byte) error {
	if !utf8.Valid(data) {
		return fmt.Errorf("%w: invalid UTF-8 input", domain.ErrParse)
	}
	return nil
}
