package writer

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"

	"go.uber.org/zap"

	"github.com/papercomputeco/spool/pkg/merge"
	"github.com/papercomputeco/spool/pkg/value"
)

// LinesWriter persists payloads as one display-form value per line.
type LinesWriter struct {
	logger *zap.Logger
}

func NewLinesWriter(logger *zap.Logger) *LinesWriter {
	return &LinesWriter{logger: logger}
}

func (w *LinesWriter) Format() Format { return FormatLines }

// WriteSingle merges the payload's flat form into the file's lines.
func (w *LinesWriter) WriteSingle(ctx context.Context, req Request, payload value.Value) error {
	return w.write(ctx, req, payload)
}

// WriteBatch flattens all payloads into one incoming list and performs a
// single merge and write.
func (w *LinesWriter) WriteBatch(ctx context.Context, req Request, payloads []value.Value) error {
	return w.write(ctx, req, merge.FlattenBatch(payloads))
}

func (w *LinesWriter) write(ctx context.Context, req Request, incoming value.Value) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	existing := value.Sequence()
	if req.Mode != merge.ModeOverwrite {
		lines, err := readLines(req.Path)
		if err != nil {
			return err
		}
		existing = lines
	}

	merged, err := merge.Flat(existing, incoming, req.Mode)
	if err != nil {
		return fmt.Errorf("merging into %s: %w", req.Path, err)
	}

	var sb strings.Builder
	for _, line := range merged {
		sb.WriteString(line.String())
		sb.WriteByte('\n')
	}

	if err := os.WriteFile(req.Path, []byte(sb.String()), 0o644); err != nil { //nolint:gosec // history files are meant to be shared
		return fmt.Errorf("writing %s: %w", req.Path, err)
	}

	w.logger.Debug("lines written",
		zap.String("destination", req.Path),
		zap.String("mode", req.Mode.String()),
		zap.Int("lines", len(merged)),
	)
	return nil
}

// readLines returns the file's lines as strings, without their terminators.
func readLines(path string) (value.Value, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return value.Sequence(), nil
		}
		return value.Value{}, fmt.Errorf("reading %s: %w", path, err)
	}

	if len(data) == 0 {
		return value.Sequence(), nil
	}

	parts := strings.Split(strings.TrimSuffix(string(data), "\n"), "\n")
	lines := make([]value.Value, len(parts))
	for i, p := range parts {
		lines[i] = value.String(p)
	}
	return value.Sequence(lines...), nil
}
