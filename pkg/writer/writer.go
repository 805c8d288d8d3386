// Package writer persists payloads into document (JSON), table (CSV) and
// lines (TXT) files. Every write reads the current file, merges the payload
// according to the requested mode and rewrites the whole file.
package writer

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	"go.uber.org/zap"

	"github.com/papercomputeco/spool/pkg/merge"
	"github.com/papercomputeco/spool/pkg/value"
)

// ErrUnknownFormat is returned for a format name or file extension that maps
// to no writer.
var ErrUnknownFormat = errors.New("unknown format")

// Format names an output file format.
type Format string

const (
	FormatDocument Format = "document"
	FormatTable    Format = "table"
	FormatLines    Format = "lines"
)

// ParseFormat accepts a format name or its file extension alias
// (json, csv, txt).
func ParseFormat(s string) (Format, error) {
	switch strings.ToLower(strings.TrimPrefix(strings.TrimSpace(s), ".")) {
	case "document", "json":
		return FormatDocument, nil
	case "table", "csv":
		return FormatTable, nil
	case "lines", "txt":
		return FormatLines, nil
	default:
		return "", fmt.Errorf("%w: %q (expected json, csv or txt)", ErrUnknownFormat, s)
	}
}

// FormatFromPath infers the format from the destination's extension.
func FormatFromPath(path string) (Format, error) {
	ext := filepath.Ext(path)
	if ext == "" {
		return "", fmt.Errorf("%w: %q has no extension", ErrUnknownFormat, path)
	}
	return ParseFormat(ext)
}

// Extension returns the conventional file extension, dot included.
func (f Format) Extension() string {
	switch f {
	case FormatDocument:
		return ".json"
	case FormatTable:
		return ".csv"
	case FormatLines:
		return ".txt"
	default:
		return ""
	}
}

func (f Format) String() string { return string(f) }

// Request addresses one write: the destination file, the merge mode, an
// optional nested key (documents only) and whether that key must pre-exist.
type Request struct {
	Path       string
	Mode       merge.Mode
	Key        []string
	StrictKeys bool
}

// Writer writes payloads into one file format.
type Writer interface {
	Format() Format

	// WriteSingle merges one payload into the destination.
	WriteSingle(ctx context.Context, req Request, payload value.Value) error

	// WriteBatch merges payloads, in order, into the destination.
	WriteBatch(ctx context.Context, req Request, payloads []value.Value) error
}

// Registry resolves a Format to its Writer.
type Registry struct {
	writers map[Format]Writer
}

// NewRegistry returns a registry holding the document, table and lines
// writers.
func NewRegistry(logger *zap.Logger) *Registry {
	if logger == nil {
		logger = zap.NewNop()
	}

	r := &Registry{writers: make(map[Format]Writer, 3)}
	r.Register(NewDocumentWriter(logger))
	r.Register(NewTableWriter(logger))
	r.Register(NewLinesWriter(logger))
	return r
}

// Register adds or replaces the writer for w.Format().
func (r *Registry) Register(w Writer) {
	r.writers[w.Format()] = w
}

// Get returns the writer registered for f.
func (r *Registry) Get(f Format) (Writer, error) {
	w, ok := r.writers[f]
	if !ok {
		return nil, fmt.Errorf("%w: no writer registered for %q", ErrUnknownFormat, f)
	}
	return w, nil
}
