package step

import (
	"path/filepath"
	"strings"
)

// Source identifies where a STEP document originates. Loading stays with the
// orchestrator so sources remain passive descriptions that can cross API
// boundaries freely.
type Source interface {
	Kind() SourceKind
	Location() string
}

// SourceKind enumerates the supported input modalities.
type SourceKind string

const (
	SourceKindFile  SourceKind = "file"
	SourceKindBytes SourceKind = "bytes"
)

// fileSource identifies an on-disk document.
type fileSource struct {
	path string
}

func (s fileSource) Kind() SourceKind {
	return SourceKindFile
}

func (s fileSource) Location() string {
	return s.path
}

// SourceFromFile returns a Source pointing at a file path.
func SourceFromFile(path string) Source {
	return fileSource{path: filepath.Clean(path)}
}

// bytesSource carries an in-memory document together with a display name.
type bytesSource struct {
	name string
	data []byte
}

func (s bytesSource) Kind() SourceKind {
	return SourceKindBytes
}

func (s bytesSource) Location() string {
	return s.name
}

func (s bytesSource) payload() []byte {
	return s.data
}

// SourceFromBytes returns a Source wrapping an in-memory payload. The name is
// used for diagnostics and output naming in place of a file path.
func SourceFromBytes(name string, data []byte) Source {
	return bytesSource{name: name, data: append([]byte(nil), data...)}
}

// Payload extracts the in-memory payload from a bytes source, or false for
// sources that need a filesystem read.
func Payload(src Source) ([]byte, bool) {
	bs, ok := src.(bytesSource)
	if !ok {
		return nil, false
	}
	return bs.payload(), true
}

// BaseName derives the output base name from a source location: the file
// name with its extension removed.
func BaseName(src Source) string {
	if src == nil {
		return ""
	}
	base := filepath.Base(src.Location())
	return strings.TrimSuffix(base, filepath.Ext(base))
}
