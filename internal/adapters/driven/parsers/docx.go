package parsers

import (
	"archive/zip"
	"bytes"
	"context"
	"encoding/xml"
	"fmt"
	"io"
	"strings"

	"github.com/custodia-labs/chonkit/internal/core/domain"
	"github.com/custodia-labs/chonkit/internal/core/ports/driven"
)

var _ driven.Parser = (*Docx)(nil)

// Docx extracts paragraph text from word/document.xml inside the OOXML zip
// container; Range selects a 1-based inclusive paragraph range. No
// third-party DOCX reader was present anywhere in the example pack, so this
// talks to the zip/XML format directly with the standard library.
type Docx struct{}

func NewDocx() *Docx { return &Docx{} }

func (d *Docx) Ext() []string { return []string{"docx"} }

type docxDocumentXML struct {
	Body struct {
		Paragraphs []docxParagraph `xml:"p"`
	} `xml:"body"`
}

type docxParagraph struct {
	Runs []docxRun `xml:"r"`
}

type docxRun struct {
	Text []docxText `xml:"t"`
}

type docxText struct {
	Content string `xml:",chardata"`
}

func (d *Docx) Parse(_ context.Context, data []byte, cfg domain.ParseConfig) (string, error) {
	reader, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return "", fmt.Errorf("%w: not a valid docx archive: %s", domain.ErrParse, err)
	}

	var xmlContent []byte
	for _, file := range reader.File {
		if file.Name != "word/document.xml" {
			continue
		}
		rc, err := file.Open()
		if err != nil {
			return "", fmt.Errorf("%w: %s", domain.ErrParse, err)
		}
		xmlContent, err = io.ReadAll(rc)
		rc.Close()
		if err != nil {
			return "", fmt.Errorf("%w: %s", domain.ErrParse, err)
		}
		break
	}
	if xmlContent == nil {
		return "", fmt.Errorf("%w: missing word/document.xml", domain.ErrParse)
	}

	var doc docxDocumentXML
	if err := xml.Unmarshal(xmlContent, &doc); err != nil {
		return "", fmt.Errorf("%w: %s", domain.ErrParse, err)
	}

	paragraphs := make([]string, len(doc.Body.Paragraphs))
	for i, para := range doc.Body.Paragraphs {
		var b strings.Builder
		for _, run := range para.Runs {
			for _, t := range run.Text {
				b.WriteString(t.Content)
			}
		}
		paragraphs[i] = b.String()
	}

	lo, hi, err := selectRange(len(paragraphs), cfg)
	if err != nil {
		return "", err
	}
	text := strings.Join(paragraphs[lo:hi], "\n")

	if err := requireValidUTF8([]byte(text)); err != nil {
		return "", err
	}
	text, err = applyFilters(text, cfg.Filters)
	if err != nil {
		return "", err
	}
	return normalizeWhitespace(text), nil
}
