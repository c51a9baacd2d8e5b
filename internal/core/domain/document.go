package domain

import "time"

// DocumentSource identifies which DocumentStore backend holds a document's bytes.
type DocumentSource string

const (
	SourceLocal DocumentSource = "local"
	SourceS3    DocumentSource = "s3"
)

// Document is the logical file tracked by the metadata repository.
// Uniqueness is (Src, Path, Hash); Hash is the sha256 of the raw bytes at ingest time.
type Document struct {
	ID        string
	Name      string
	Path      string
	Ext       string
	Hash      string
	Src       DocumentSource
	Label     string
	Tags      []string
	CreatedAt time.Time
	UpdatedAt time.Time
}
