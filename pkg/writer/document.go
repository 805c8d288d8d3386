package writer

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"

	"go.uber.org/zap"

	"github.com/papercomputeco/spool/pkg/merge"
	"github.com/papercomputeco/spool/pkg/value"
)

// DocumentWriter persists payloads into a JSON document.
type DocumentWriter struct {
	logger *zap.Logger
}

func NewDocumentWriter(logger *zap.Logger) *DocumentWriter {
	return &DocumentWriter{logger: logger}
}

func (w *DocumentWriter) Format() Format { return FormatDocument }

// WriteSingle reads the document, validates a strict key against it, merges
// payload at the root or the addressed key and rewrites the file. A strict key
// failure leaves the file untouched.
func (w *DocumentWriter) WriteSingle(ctx context.Context, req Request, payload value.Value) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	existing, err := w.read(req)
	if err != nil {
		return err
	}

	merged, err := merge.Document(existing, req.Key, payload, req.Mode, req.StrictKeys)
	if err != nil {
		return fmt.Errorf("merging into %s: %w", req.Path, err)
	}

	out, err := value.MarshalIndent(merged)
	if err != nil {
		return fmt.Errorf("encoding %s: %w", req.Path, err)
	}

	if err := os.WriteFile(req.Path, out, 0o644); err != nil { //nolint:gosec // history files are meant to be shared
		return fmt.Errorf("writing %s: %w", req.Path, err)
	}

	w.logger.Debug("document written",
		zap.String("destination", req.Path),
		zap.String("mode", req.Mode.String()),
		zap.Strings("key", req.Key),
	)
	return nil
}

// WriteBatch applies WriteSingle once per payload against the same file, so a
// batch is exactly a run of sequential single writes. Earlier payloads stay
// written if a later one fails.
func (w *DocumentWriter) WriteBatch(ctx context.Context, req Request, payloads []value.Value) error {
	for _, payload := range payloads {
		if err := w.WriteSingle(ctx, req, payload); err != nil {
			return err
		}
	}
	return nil
}

// read returns the stored document. A missing, blank or unparseable file is
// an empty mapping when a key is addressed and an empty sequence otherwise.
func (w *DocumentWriter) read(req Request) (value.Value, error) {
	empty := value.Sequence()
	if len(req.Key) > 0 {
		empty = value.FromMapping(value.NewMapping())
	}

	data, err := os.ReadFile(req.Path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return empty, nil
		}
		return value.Value{}, fmt.Errorf("reading %s: %w", req.Path, err)
	}

	if len(bytes.TrimSpace(data)) == 0 {
		return empty, nil
	}

	doc, err := value.ParseJSON(data)
	if err != nil {
		w.logger.Warn("existing document is not valid JSON, starting from empty",
			zap.String("destination", req.Path),
			zap.Error(err),
		)
		return empty, nil
	}
	return doc, nil
}
