package writer

import (
	"bytes"
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io/fs"
	"os"

	"go.uber.org/zap"

	"github.com/papercomputeco/spool/pkg/merge"
	"github.com/papercomputeco/spool/pkg/value"
)

// TableWriter persists payloads as comma-separated rows. A sequence payload
// is a list of rows; any other payload is one row.
type TableWriter struct {
	logger *zap.Logger
}

func NewTableWriter(logger *zap.Logger) *TableWriter {
	return &TableWriter{logger: logger}
}

func (w *TableWriter) Format() Format { return FormatTable }

// WriteSingle merges one payload, wrapping a non-sequence payload as a
// single row.
func (w *TableWriter) WriteSingle(ctx context.Context, req Request, payload value.Value) error {
	if payload.Kind() != value.KindSequence {
		payload = value.Sequence(payload)
	}
	return w.write(ctx, req, payload)
}

// WriteBatch flattens all payloads into one list of rows and performs a
// single merge and write.
func (w *TableWriter) WriteBatch(ctx context.Context, req Request, payloads []value.Value) error {
	return w.write(ctx, req, merge.FlattenBatch(payloads))
}

func (w *TableWriter) write(ctx context.Context, req Request, incoming value.Value) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	var header []string
	existing := value.Sequence()
	if req.Mode != merge.ModeOverwrite {
		h, rows, err := readTable(req.Path)
		if err != nil {
			return err
		}
		header, existing = h, rows
	}

	merged, err := merge.Flat(existing, incoming, req.Mode)
	if err != nil {
		return fmt.Errorf("merging into %s: %w", req.Path, err)
	}

	table := merge.Reconcile(header, merged)
	out, err := encodeTable(table)
	if err != nil {
		return fmt.Errorf("encoding %s: %w", req.Path, err)
	}

	if err := os.WriteFile(req.Path, out, 0o644); err != nil { //nolint:gosec // history files are meant to be shared
		return fmt.Errorf("writing %s: %w", req.Path, err)
	}

	w.logger.Debug("table written",
		zap.String("destination", req.Path),
		zap.String("mode", req.Mode.String()),
		zap.Strings("header", table.Header),
		zap.Int("rows", len(table.Rows)),
	)
	return nil
}

// readTable returns the stored header, if the first row looks like one, and
// the data rows as sequences of strings.
func readTable(path string) ([]string, value.Value, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, value.Sequence(), nil
		}
		return nil, value.Value{}, fmt.Errorf("reading %s: %w", path, err)
	}

	r := csv.NewReader(bytes.NewReader(data))
	r.FieldsPerRecord = -1
	r.LazyQuotes = true

	records, err := r.ReadAll()
	if err != nil {
		return nil, value.Value{}, fmt.Errorf("parsing %s: %w", path, err)
	}
	if len(records) == 0 {
		return nil, value.Sequence(), nil
	}

	var header []string
	if merge.IsHeader(records[0]) {
		header, records = records[0], records[1:]
	}

	rows := make([]value.Value, len(records))
	for i, record := range records {
		cells := make([]value.Value, len(record))
		for j, cell := range record {
			cells[j] = value.String(cell)
		}
		rows[i] = value.Sequence(cells...)
	}
	return header, value.Sequence(rows...), nil
}

func encodeTable(t merge.Table) ([]byte, error) {
	if t.Empty() {
		return []byte{}, nil
	}

	var buf bytes.Buffer
	cw := csv.NewWriter(&buf)
	if t.Header != nil {
		if err := cw.Write(t.Header); err != nil {
			return nil, err
		}
	}
	if err := cw.WriteAll(t.Rows); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
