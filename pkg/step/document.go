package step

import (
	"errors"
)

// Document wraps a raw STEP payload and its origin. Exposing this wrapper
// instead of raw byte slices keeps the parser contract stable and lets
// callers bypass the loading stage when they already hold the text.
type Document struct {
	source Source
	raw    []byte
}

// NewDocument constructs a Document, validating the inputs.
func NewDocument(src Source, raw []byte) (Document, error) {
	if src == nil {
		return Document{}, errors.New("step: source is required")
	}
	if len(raw) == 0 {
		return Document{}, errors.New("step: raw document is empty")
	}
	return Document{source: src, raw: append([]byte(nil), raw...)}, nil
}

// MustNewDocument panics if the document cannot be created. Useful for tests.
func MustNewDocument(src Source, raw []byte) Document {
	doc, err := NewDocument(src, raw)
	if err != nil {
		panic(err)
	}
	return doc
}

// Source returns the origin metadata for the document.
func (d Document) Source() Source {
	return d.source
}

// Raw returns a copy of the payload; callers may not mutate the original.
func (d Document) Raw() []byte {
	return append([]byte(nil), d.raw...)
}

// Location returns the string identifier for the origin.
func (d Document) Location() string {
	if d.source == nil {
		return ""
	}
	return d.source.Location()
}
