package parsers

import (
	"fmt"
	"regexp"
	"strings"
	"sync"

	"github.com/custodia-labs/chonkit/internal/core/domain"
)

// filterCache memoizes compiled filter regexes by their source so a parse
// config reused across many Parse calls doesn't recompile every time.
var filterCache sync.Map // map[string][]*regexp.Regexp

func compiledFilters(filters []string) ([]*regexp.Regexp, error) {
	key := strings.Join(filters, "\x00")
	if cached, ok := filterCache.Load(key); ok {
		return cached.([]*regexp.Regexp), nil
	}

	compiled := make([]*regexp.Regexp, 0, len(filters))
	for _, f := range filters {
		re, err := regexp.Compile(f)
		if err != nil {
			return nil, fmt.Errorf("%w: invalid filter regex %q: %s", domain.ErrConfig, f, err)
		}
		compiled = append(compiled, re)
	}

	filterCache.Store(key, compiled)
	return compiled, nil
}

// applyFilters deletes every non-overlapping match of each filter regex from
// text, in order: earlier filters run before later ones see the text.
func applyFilters(text string, filters []string) (string, error) {
	compiled, err := compiledFilters(filters)
	if err != nil {
		return "", err
	}
	for _, re := range compiled {
		text = re.ReplaceAllString(text, "")
	}
	return text, nil
}

// normalizeWhitespace collapses runs of >=2 spaces to one, trims each line,
// and preserves paragraph breaks (exactly one blank line between paragraphs).
func normalizeWhitespace(text string) string {
	lines := strings.Split(text, "\n")
	for i, line := range lines {
		lines[i] = collapseSpaces(strings.TrimSpace(line))
	}
	text = strings.Join(lines, "\n")

	for strings.Contains(text, "\n\n\n") {
		text = strings.ReplaceAll(text, "\n\n\n", "\n\n")
	}

	return strings.TrimSpace(text)
}

func collapseSpaces(line string) string {
	var b strings.Builder
	prevSpace := false
	for _, r := range line {
		if r == ' ' || r == '\t' {
			if prevSpace {
				continue
			}
			prevSpace = true
			b.WriteRune(' ')
			continue
		}
		prevSpace = false
		b.WriteRune(r)
	}
	return b.String()
}
