package domain

import "errors"

// Sentinel error kinds. Every mutating or reading operation in the pipeline
// wraps one of these with fmt.Errorf("%w: ...") so callers can use errors.Is
// without string matching.
var (
	ErrNotFound            = errors.New("not found")
	ErrAlreadyExists       = errors.New("already exists")
	ErrConflict            = errors.New("conflict")
	ErrConfig              = errors.New("config error")
	ErrParse               = errors.New("parse error")
	ErrEmbedUpstream       = errors.New("embed upstream error")
	ErrVectorStoreUpstream = errors.New("vector store upstream error")
	ErrInconsistent        = errors.New("inconsistent")
	ErrCancelled           = errors.New("cancelled")

	ErrAlreadyEmbedded   = errors.New("already embedded")
	ErrNoChunker         = errors.New("no chunker configured")
	ErrEmptyDocument     = errors.New("empty document")
	ErrDimensionMismatch = errors.New("dimension mismatch")
	ErrModelUnknown      = errors.New("model unknown")
	ErrOutOfRange        = errors.New("out of range")
)
