package parsers

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/custodia-labs/chonkit/internal/core/domain"
)

func TestPDFParseRejectsInvalidPDF(t *testing.T) {
	_, err := NewPDF().Parse(context.Background(), []byte("not a pdf"), domain.ParseConfig{})
	assert.ErrorIs(t, err, domain.ErrParse)
}

func TestPDFExt(t *testing.T) {
	assert.Equal(t, []string{"pdf"}, NewPDF().Ext())
}
