package merge

import (
	"unicode"

	"github.com/papercomputeco/spool/pkg/value"
)

// Table is the reconciled shape of a table file. A nil Header means the rows
// are written as a raw grid.
type Table struct {
	Header []string
	Rows   [][]string
}

// Empty reports whether there is nothing to write.
func (t Table) Empty() bool {
	return len(t.Header) == 0 && len(t.Rows) == 0
}

// IsHeader reports whether a stored row is a header: any cell containing a
// letter makes it one.
func IsHeader(row []string) bool {
	for _, cell := range row {
		for _, r := range cell {
			if unicode.IsLetter(r) {
				return true
			}
		}
	}
	return false
}

// Reconcile lays out merged rows against the header found in the file, if any.
//
// When any row is a mapping the header is the existing header followed by
// mapping keys in first-appearance order. Without mapping rows an existing
// header is kept as is. In both cases sequence rows map onto the header by
// position and other rows land in the first column. With neither mapping rows
// nor an existing header the rows form a raw grid.
func Reconcile(existingHeader []string, rows []value.Value) Table {
	if len(rows) == 0 {
		return Table{}
	}

	anyMapping := false
	for _, r := range rows {
		if r.Kind() == value.KindMapping {
			anyMapping = true
			break
		}
	}

	if !anyMapping && len(existingHeader) == 0 {
		grid := make([][]string, len(rows))
		for i, r := range rows {
			grid[i] = gridCells(r)
		}
		return Table{Rows: grid}
	}

	header := make([]string, 0, len(existingHeader))
	header = append(header, existingHeader...)
	if anyMapping {
		seen := make(map[string]struct{}, len(header))
		for _, h := range header {
			seen[h] = struct{}{}
		}
		for _, r := range rows {
			m, ok := r.AsMapping()
			if !ok {
				continue
			}
			for _, k := range m.Keys() {
				if _, dup := seen[k]; dup {
					continue
				}
				seen[k] = struct{}{}
				header = append(header, k)
			}
		}
	}

	out := make([][]string, len(rows))
	for i, r := range rows {
		out[i] = headedCells(header, r)
	}
	return Table{Header: header, Rows: out}
}

func headedCells(header []string, row value.Value) []string {
	cells := make([]string, len(header))
	if len(header) == 0 {
		return cells
	}

	switch row.Kind() {
	case value.KindMapping:
		m, _ := row.AsMapping()
		for i, h := range header {
			if v, ok := m.Get(h); ok {
				cells[i] = v.Cell()
			}
		}
	case value.KindSequence, value.KindSet:
		elems := row.Elements()
		if len(header) == 1 {
			if len(elems) > 0 {
				cells[0] = elems[0].Cell()
			}
			return cells
		}
		for i := range header {
			if i < len(elems) {
				cells[i] = elems[i].Cell()
			}
		}
	case value.KindNull, value.KindBool, value.KindInt, value.KindFloat, value.KindString:
		cells[0] = row.Cell()
	}
	return cells
}

func gridCells(row value.Value) []string {
	switch row.Kind() {
	case value.KindSequence, value.KindSet:
		elems := row.Elements()
		cells := make([]string, len(elems))
		for i, e := range elems {
			cells[i] = e.Cell()
		}
		return cells
	case value.KindNull, value.KindBool, value.KindInt, value.KindFloat, value.KindString, value.KindMapping:
		return []string{row.Cell()}
	default:
		return []string{row.Cell()}
	}
}
