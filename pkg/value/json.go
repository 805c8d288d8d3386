package value

import (
	"bytes"
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/buger/jsonparser"
	"github.com/goccy/go-json"
)

// ErrMalformedJSON is returned by ParseJSON for input that is not valid JSON.
var ErrMalformedJSON = errors.New("malformed JSON")

// MarshalJSON renders v as compact JSON. Mapping keys keep insertion order,
// sets encode as arrays, and non-finite floats encode as null.
func (v Value) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	if err := v.encode(&buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// UnmarshalJSON decodes JSON into v, preserving object key order.
func (v *Value) UnmarshalJSON(data []byte) error {
	parsed, err := ParseJSON(data)
	if err != nil {
		return err
	}
	*v = parsed
	return nil
}

// MarshalIndent renders v as JSON indented with two spaces and terminated by a
// newline.
func MarshalIndent(v Value) ([]byte, error) {
	compact, err := v.MarshalJSON()
	if err != nil {
		return nil, err
	}

	var out bytes.Buffer
	if err := json.Indent(&out, compact, "", "  "); err != nil {
		return nil, fmt.Errorf("indenting document: %w", err)
	}
	out.WriteByte('\n')
	return out.Bytes(), nil
}

func (v Value) encode(buf *bytes.Buffer) error {
	switch v.kind {
	case KindNull:
		buf.WriteString("null")
	case KindBool:
		buf.WriteString(strconv.FormatBool(v.b))
	case KindInt:
		buf.WriteString(strconv.FormatInt(v.i, 10))
	case KindFloat:
		if math.IsNaN(v.f) || math.IsInf(v.f, 0) {
			buf.WriteString("null")
			return nil
		}
		buf.WriteString(formatFloat(v.f))
	case KindString:
		return encodeString(buf, v.s)
	case KindSequence, KindSet:
		buf.WriteByte('[')
		for i, e := range v.seq {
			if i > 0 {
				buf.WriteByte(',')
			}
			if err := e.encode(buf); err != nil {
				return err
			}
		}
		buf.WriteByte(']')
	case KindMapping:
		buf.WriteByte('{')
		var err error
		first := true
		v.m.Range(func(k string, e Value) bool {
			if !first {
				buf.WriteByte(',')
			}
			first = false
			if err = encodeString(buf, k); err != nil {
				return false
			}
			buf.WriteByte(':')
			err = e.encode(buf)
			return err == nil
		})
		if err != nil {
			return err
		}
		buf.WriteByte('}')
	default:
		return fmt.Errorf("cannot encode value of kind %s", v.kind)
	}
	return nil
}

func encodeString(buf *bytes.Buffer, s string) error {
	quoted, err := json.MarshalWithOption(s, json.DisableHTMLEscape())
	if err != nil {
		return fmt.Errorf("encoding string: %w", err)
	}
	buf.Write(quoted)
	return nil
}

// formatFloat renders finite floats so they always read back as floats.
func formatFloat(f float64) string {
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return strconv.FormatFloat(f, 'g', -1, 64)
	}

	format := byte('f')
	if abs := math.Abs(f); abs != 0 && (abs < 1e-6 || abs >= 1e21) {
		format = 'e'
	}
	s := strconv.FormatFloat(f, format, -1, 64)
	if !strings.ContainsAny(s, ".e") {
		s += ".0"
	}
	return s
}

// ParseJSON decodes a JSON document into a Value. Objects become mappings in
// document key order, integers without a fraction or exponent become ints.
func ParseJSON(data []byte) (Value, error) {
	if !json.Valid(data) {
		return Value{}, ErrMalformedJSON
	}

	raw, dataType, _, err := jsonparser.Get(data)
	if err != nil {
		return Value{}, fmt.Errorf("%w: %w", ErrMalformedJSON, err)
	}
	return decode(raw, dataType)
}

func decode(raw []byte, dataType jsonparser.ValueType) (Value, error) {
	switch dataType {
	case jsonparser.Null:
		return Null(), nil

	case jsonparser.Boolean:
		b, err := jsonparser.ParseBoolean(raw)
		if err != nil {
			return Value{}, fmt.Errorf("%w: %w", ErrMalformedJSON, err)
		}
		return Bool(b), nil

	case jsonparser.Number:
		return decodeNumber(raw)

	case jsonparser.String:
		s, err := jsonparser.ParseString(raw)
		if err != nil {
			return Value{}, fmt.Errorf("%w: %w", ErrMalformedJSON, err)
		}
		return String(s), nil

	case jsonparser.Array:
		elems := []Value{}
		var inner error
		_, err := jsonparser.ArrayEach(raw, func(elem []byte, elemType jsonparser.ValueType, _ int, cbErr error) {
			if inner != nil {
				return
			}
			if cbErr != nil {
				inner = cbErr
				return
			}
			e, err := decode(elem, elemType)
			if err != nil {
				inner = err
				return
			}
			elems = append(elems, e)
		})
		if err == nil {
			err = inner
		}
		if err != nil {
			return Value{}, fmt.Errorf("%w: %w", ErrMalformedJSON, err)
		}
		return Value{kind: KindSequence, seq: elems}, nil

	case jsonparser.Object:
		m := NewMapping()
		err := jsonparser.ObjectEach(raw, func(key []byte, elem []byte, elemType jsonparser.ValueType, _ int) error {
			e, err := decode(elem, elemType)
			if err != nil {
				return err
			}
			m.Set(string(key), e)
			return nil
		})
		if err != nil {
			return Value{}, fmt.Errorf("%w: %w", ErrMalformedJSON, err)
		}
		return FromMapping(m), nil

	default:
		return Value{}, fmt.Errorf("%w: unexpected token %q", ErrMalformedJSON, raw)
	}
}

func decodeNumber(raw []byte) (Value, error) {
	if !bytes.ContainsAny(raw, ".eE") {
		if i, err := jsonparser.ParseInt(raw); err == nil {
			return Int(i), nil
		}
	}

	f, err := jsonparser.ParseFloat(raw)
	if err != nil {
		return Value{}, fmt.Errorf("%w: %w", ErrMalformedJSON, err)
	}
	return Float(f), nil
}
