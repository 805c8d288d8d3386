package history

import (
	"fmt"

	"github.com/papercomputeco/spool/pkg/dump"
	"github.com/papercomputeco/spool/pkg/value"
)

// Formatter selects the hook applied to mapping records before they are
// buffered.
type Formatter int

const (
	// FormatNone buffers records unchanged.
	FormatNone Formatter = iota

	// FormatDefault renders query-history records with DefaultFormat.
	FormatDefault

	// FormatCustom renders records with a caller-supplied FormatFunc.
	FormatCustom
)

// ParseFormatter accepts none, default or custom.
func ParseFormatter(s string) (Formatter, error) {
	switch s {
	case "", "none":
		return FormatNone, nil
	case "default":
		return FormatDefault, nil
	case "custom":
		return FormatCustom, nil
	default:
		return FormatNone, fmt.Errorf("%w: unknown formatter %q (expected none, default or custom)", dump.ErrValidation, s)
	}
}

func (f Formatter) String() string {
	switch f {
	case FormatNone:
		return "none"
	case FormatDefault:
		return "default"
	case FormatCustom:
		return "custom"
	default:
		return fmt.Sprintf("formatter(%d)", int(f))
	}
}

// FormatFunc renders one mapping record into the value that is written.
type FormatFunc func(record *value.Mapping) value.Value

// DefaultFormat renders a query-history record {query, path, params, result,
// timestamp} as text. COMMIT records take a single line.
func DefaultFormat(record *value.Mapping) value.Value {
	query := field(record, "query")
	path := field(record, "path")

	timestamp := "no timestamp"
	if ts, ok := record.Get("timestamp"); ok {
		timestamp = ts.String()
	}

	if query == "COMMIT" {
		return value.String(fmt.Sprintf("[%s](%s) : COMMIT\n", timestamp, path))
	}

	return value.String(fmt.Sprintf("[%s](%s)\n%s\nInput: %s\nOutput: %s\n",
		timestamp,
		path,
		query,
		field(record, "params"),
		field(record, "result"),
	))
}

func field(record *value.Mapping, key string) string {
	v, ok := record.Get(key)
	if !ok {
		return ""
	}
	return v.String()
}
