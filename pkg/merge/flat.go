package merge

import (
	"fmt"

	"github.com/papercomputeco/spool/pkg/value"
)

// Normalize turns any value into a flat list: null is empty, sequences and
// sets contribute their elements, anything else is a single element.
func Normalize(v value.Value) []value.Value {
	switch v.Kind() {
	case value.KindNull:
		return []value.Value{}
	case value.KindSequence, value.KindSet:
		return v.Elements()
	case value.KindBool, value.KindInt, value.KindFloat, value.KindString, value.KindMapping:
		return []value.Value{v}
	default:
		return []value.Value{v}
	}
}

// Flat merges incoming into existing for line and table targets. Overwrite
// yields the normalized incoming list; every other mode concatenates.
func Flat(existing, incoming value.Value, mode Mode) ([]value.Value, error) {
	switch {
	case mode == ModeOverwrite:
		return Normalize(incoming), nil
	case mode == ModeAppend || mode.extends():
		current := Normalize(existing)
		next := Normalize(incoming)
		out := make([]value.Value, 0, len(current)+len(next))
		out = append(out, current...)
		return append(out, next...), nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrInvalidMode, mode)
	}
}

// FlattenBatch splices sequence payloads element by element and keeps every
// other payload as one element, producing the combined incoming list for a
// single flat merge.
func FlattenBatch(payloads []value.Value) value.Value {
	var combined []value.Value
	for _, p := range payloads {
		if p.Kind() == value.KindSequence {
			combined = append(combined, p.Elements()...)
			continue
		}
		combined = append(combined, p)
	}
	return value.Sequence(combined...)
}
