// Package value provides the tagged payload variant carried by spool records:
// null, bool, int, float, string, sequence, set and insertion-ordered mapping.
package value

import (
	"strconv"
)

// Kind discriminates the variant held by a Value.
type Kind int

const (
	KindNull Kind = iota
	KindBool
	KindInt
	KindFloat
	KindString
	KindSequence
	KindSet
	KindMapping
)

// String returns the lowercase name of the kind.
func (k Kind) String() string {
	switch k {
	case KindNull:
		return "null"
	case KindBool:
		return "bool"
	case KindInt:
		return "int"
	case KindFloat:
		return "float"
	case KindString:
		return "string"
	case KindSequence:
		return "sequence"
	case KindSet:
		return "set"
	case KindMapping:
		return "mapping"
	default:
		return "kind(" + strconv.Itoa(int(k)) + ")"
	}
}

// IsContainer reports whether the kind holds child values.
func (k Kind) IsContainer() bool {
	return k == KindSequence || k == KindSet || k == KindMapping
}

// Value is an immutable-by-convention tagged variant. The zero Value is null.
//
// Operations that combine values (Push, Concat, Union, Mapping.Merged) always
// return fresh containers, so a Value handed to a writer is never mutated by a
// merge.
type Value struct {
	kind Kind
	b    bool
	i    int64
	f    float64
	s    string
	seq  []Value
	m    *Mapping
}

// Null returns the null value.
func Null() Value { return Value{} }

// Bool wraps a boolean.
func Bool(b bool) Value { return Value{kind: KindBool, b: b} }

// Int wraps an integer.
func Int(i int64) Value { return Value{kind: KindInt, i: i} }

// Float wraps a float.
func Float(f float64) Value { return Value{kind: KindFloat, f: f} }

// String wraps a string.
func String(s string) Value { return Value{kind: KindString, s: s} }

// Sequence builds an ordered sequence from the given elements.
func Sequence(elems ...Value) Value {
	seq := make([]Value, len(elems))
	copy(seq, elems)
	return Value{kind: KindSequence, seq: seq}
}

// Set builds an unordered set; duplicate elements collapse to their first
// occurrence, which also fixes the iteration order.
func Set(elems ...Value) Value {
	out := make([]Value, 0, len(elems))
	for _, e := range elems {
		if !containsEqual(out, e) {
			out = append(out, e)
		}
	}
	return Value{kind: KindSet, seq: out}
}

// FromMapping wraps a mapping. A nil mapping becomes an empty one.
func FromMapping(m *Mapping) Value {
	if m == nil {
		m = NewMapping()
	}
	return Value{kind: KindMapping, m: m}
}

// Kind returns the variant discriminant.
func (v Value) Kind() Kind { return v.kind }

// IsNull reports whether v is null.
func (v Value) IsNull() bool { return v.kind == KindNull }

func (v Value) AsBool() (bool, bool) { return v.b, v.kind == KindBool }

func (v Value) AsInt() (int64, bool) { return v.i, v.kind == KindInt }

func (v Value) AsFloat() (float64, bool) { return v.f, v.kind == KindFloat }

func (v Value) AsString() (string, bool) { return v.s, v.kind == KindString }

// AsMapping returns the underlying mapping for mapping values.
func (v Value) AsMapping() (*Mapping, bool) {
	if v.kind != KindMapping {
		return nil, false
	}
	return v.m, true
}

// Elements returns a copy of the elements of a sequence or set, nil otherwise.
func (v Value) Elements() []Value {
	if v.kind != KindSequence && v.kind != KindSet {
		return nil
	}
	out := make([]Value, len(v.seq))
	copy(out, v.seq)
	return out
}

// Len is the element count of a container, the byte length of a string, and 0
// for everything else.
func (v Value) Len() int {
	switch v.kind {
	case KindSequence, KindSet:
		return len(v.seq)
	case KindMapping:
		return v.m.Len()
	case KindString:
		return len(v.s)
	default:
		return 0
	}
}

// Push returns a new sequence with elem appended. Non-sequence receivers
// return themselves unchanged.
func (v Value) Push(elem Value) Value {
	if v.kind != KindSequence {
		return v
	}
	seq := make([]Value, len(v.seq), len(v.seq)+1)
	copy(seq, v.seq)
	return Value{kind: KindSequence, seq: append(seq, elem)}
}

// Concat returns a new sequence holding v's elements followed by other's.
// Both operands must be sequences or sets; otherwise v is returned unchanged.
func (v Value) Concat(other Value) Value {
	if v.kind != KindSequence || (other.kind != KindSequence && other.kind != KindSet) {
		return v
	}
	seq := make([]Value, 0, len(v.seq)+len(other.seq))
	seq = append(seq, v.seq...)
	seq = append(seq, other.seq...)
	return Value{kind: KindSequence, seq: seq}
}

// Union returns the set union of two sets, keeping v's order first.
func (v Value) Union(other Value) Value {
	if v.kind != KindSet || other.kind != KindSet {
		return v
	}
	out := make([]Value, len(v.seq), len(v.seq)+len(other.seq))
	copy(out, v.seq)
	for _, e := range other.seq {
		if !containsEqual(out, e) {
			out = append(out, e)
		}
	}
	return Value{kind: KindSet, seq: out}
}

// Clone returns a deep copy of v.
func (v Value) Clone() Value {
	switch v.kind {
	case KindSequence, KindSet:
		seq := make([]Value, len(v.seq))
		for i, e := range v.seq {
			seq[i] = e.Clone()
		}
		return Value{kind: v.kind, seq: seq}
	case KindMapping:
		return Value{kind: KindMapping, m: v.m.Clone()}
	default:
		return v
	}
}

// Equal reports deep equality. Mappings compare without regard to key order
// and sets without regard to element order.
func (v Value) Equal(other Value) bool {
	if v.kind != other.kind {
		return false
	}

	switch v.kind {
	case KindNull:
		return true
	case KindBool:
		return v.b == other.b
	case KindInt:
		return v.i == other.i
	case KindFloat:
		return v.f == other.f
	case KindString:
		return v.s == other.s
	case KindSequence:
		if len(v.seq) != len(other.seq) {
			return false
		}
		for i := range v.seq {
			if !v.seq[i].Equal(other.seq[i]) {
				return false
			}
		}
		return true
	case KindSet:
		if len(v.seq) != len(other.seq) {
			return false
		}
		for _, e := range v.seq {
			if !containsEqual(other.seq, e) {
				return false
			}
		}
		return true
	case KindMapping:
		return v.m.Equal(other.m)
	default:
		return false
	}
}

// String renders the display form: strings verbatim, null as "null", scalars
// in Go formatting and containers as compact JSON.
func (v Value) String() string {
	switch v.kind {
	case KindNull:
		return "null"
	case KindBool:
		return strconv.FormatBool(v.b)
	case KindInt:
		return strconv.FormatInt(v.i, 10)
	case KindFloat:
		return formatFloat(v.f)
	case KindString:
		return v.s
	case KindSequence, KindSet, KindMapping:
		out, err := v.MarshalJSON()
		if err != nil {
			return ""
		}
		return string(out)
	default:
		return ""
	}
}

// Cell renders v as a table cell: like String, except null is empty.
func (v Value) Cell() string {
	if v.kind == KindNull {
		return ""
	}
	return v.String()
}

func containsEqual(list []Value, v Value) bool {
	for _, e := range list {
		if e.Equal(v) {
			return true
		}
	}
	return false
}
