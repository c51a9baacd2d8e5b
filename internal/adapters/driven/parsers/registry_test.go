package parsers

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDefaultRegistryResolvesKnownExtensions(t *testing.T) {
	r := NewDefaultRegistry()

	assert.IsType(t, &Text{}, r.Get("txt"))
	assert.IsType(t, &Markdown{}, r.Get("md"))
	assert.IsType(t, &JSON{}, r.Get("json"))
	assert.IsType(t, &PDF{}, r.Get("pdf"))
	assert.IsType(t, &Docx{}, r.Get("docx"))
}

func TestDefaultRegistryFallsBackToTextForUnknownExtension(t *testing.T) {
	r := NewDefaultRegistry()
	assert.IsType(t, &Text{}, r.Get("xyz"))
}

func TestRegistryListSorted(t *testing.T) {
	r := NewDefaultRegistry()
	list := r.List()
	assert.Contains(t, list, "pdf")
	assert.Contains(t, list, "docx")
	for i := 1; i < len(list); i++ {
		assert.LessOrEqual(t, list[i-1], list[i])
	}
}
