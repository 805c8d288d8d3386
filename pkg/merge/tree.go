package merge

import (
	"fmt"
	"strings"

	"github.com/papercomputeco/spool/pkg/value"
)

// Document merges payload into a stored document, at the root when key is
// empty and at the addressed slot otherwise. With strict set, the key path is
// validated against doc before anything is merged.
func Document(doc value.Value, key []string, payload value.Value, mode Mode, strict bool) (value.Value, error) {
	if !mode.Valid() {
		return value.Value{}, fmt.Errorf("%w: %q", ErrInvalidMode, mode)
	}

	if len(key) == 0 {
		return Root(doc, payload, mode)
	}

	if strict {
		if err := ValidateStrict(doc, key); err != nil {
			return value.Value{}, err
		}
	}
	return Nested(doc, key, payload, mode, strict)
}

// Root applies mode to the whole document.
func Root(existing, payload value.Value, mode Mode) (value.Value, error) {
	switch {
	case mode == ModeOverwrite:
		return payload, nil

	case mode == ModeAppend:
		switch {
		case existing.Kind() == value.KindSequence:
			return existing.Push(payload), nil
		case existing.Kind() == value.KindMapping && payload.Kind() == value.KindMapping:
			return unionMappings(existing, payload), nil
		case existing.Kind() == value.KindSet && payload.Kind() == value.KindSet:
			return existing.Union(payload), nil
		default:
			return value.Sequence(existing, payload), nil
		}

	case mode.extends():
		switch {
		case existing.Kind() == value.KindSequence:
			if payload.Kind() != value.KindSequence {
				return value.Value{}, fmt.Errorf("%w: cannot extend sequence with %s", ErrMergeType, payload.Kind())
			}
			return existing.Concat(payload), nil
		case existing.Kind() == value.KindMapping && payload.Kind() == value.KindMapping:
			return unionMappings(existing, payload), nil
		case existing.Kind() == value.KindSet && payload.Kind() == value.KindSet:
			return existing.Union(payload), nil
		default:
			return value.Value{}, fmt.Errorf("%w: cannot %s %s with %s", ErrMergeType, mode, existing.Kind(), payload.Kind())
		}

	default:
		return value.Value{}, fmt.Errorf("%w: %q", ErrInvalidMode, mode)
	}
}

// Nested applies mode to the slot addressed by key. All segments but the
// last are walked as mapping lookups; absent or non-mapping intermediates are
// replaced by empty mappings unless strict, which fails with ErrKeyPath. A
// slot holding null counts as absent.
func Nested(doc value.Value, key []string, payload value.Value, mode Mode, strict bool) (value.Value, error) {
	if len(key) == 0 {
		return Root(doc, payload, mode)
	}
	if err := ValidateKey(key); err != nil {
		return value.Value{}, err
	}

	root := doc.Clone()
	container, ok := root.AsMapping()
	if !ok {
		if strict {
			return value.Value{}, fmt.Errorf("%w: document root is %s, not a mapping", ErrKeyPath, doc.Kind())
		}
		container = value.NewMapping()
		root = value.FromMapping(container)
	}

	for i, segment := range key[:len(key)-1] {
		next, found := container.Get(segment)
		m, isMapping := next.AsMapping()
		if !found || !isMapping {
			if strict {
				return value.Value{}, fmt.Errorf("%w: %q does not exist as a mapping", ErrKeyPath, strings.Join(key[:i+1], "."))
			}
			m = value.NewMapping()
			container.Set(segment, value.FromMapping(m))
		}
		container = m
	}

	last := key[len(key)-1]
	target, _ := container.Get(last)
	slot, err := applySlot(target, payload, mode, strings.Join(key, "."))
	if err != nil {
		return value.Value{}, err
	}
	container.Set(last, slot)

	return root, nil
}

func applySlot(target, payload value.Value, mode Mode, path string) (value.Value, error) {
	switch {
	case mode == ModeOverwrite:
		return payload, nil

	case mode == ModeAppend:
		switch {
		case target.IsNull():
			return value.Sequence(payload), nil
		case target.Kind() == value.KindSequence:
			return target.Push(payload), nil
		case target.Kind() == value.KindMapping && payload.Kind() == value.KindMapping:
			return unionMappings(target, payload), nil
		default:
			return value.Sequence(target, payload), nil
		}

	case mode.extends():
		switch {
		case target.IsNull():
			return payload, nil
		case target.Kind() == value.KindSequence && payload.Kind() == value.KindSequence:
			return target.Concat(payload), nil
		case target.Kind() == value.KindMapping && payload.Kind() == value.KindMapping:
			return unionMappings(target, payload), nil
		case target.Kind() == value.KindSet && payload.Kind() == value.KindSet:
			return target.Union(payload), nil
		default:
			return value.Value{}, fmt.Errorf("%w: cannot %s %s with %s at %q", ErrMergeType, mode, target.Kind(), payload.Kind(), path)
		}

	default:
		return value.Value{}, fmt.Errorf("%w: %q", ErrInvalidMode, mode)
	}
}

// ValidateStrict checks that every segment of key, the last included, exists
// and that every container walked is a mapping.
func ValidateStrict(doc value.Value, key []string) error {
	if err := ValidateKey(key); err != nil {
		return err
	}

	current := doc
	for i, segment := range key {
		m, ok := current.AsMapping()
		if !ok {
			return fmt.Errorf("%w: segment %q expected mapping, got %s", ErrKeyPath, segment, current.Kind())
		}
		next, found := m.Get(segment)
		if !found {
			return fmt.Errorf("%w: key path %q does not exist (missing %q)", ErrKeyPath, strings.Join(key, "."), strings.Join(key[:i+1], "."))
		}
		current = next
	}
	return nil
}

// ParseKey splits a dotted key path into segments. An empty string yields no
// key; empty segments are rejected.
func ParseKey(dotted string) ([]string, error) {
	if dotted == "" {
		return nil, nil
	}
	segments := strings.Split(dotted, ".")
	if err := ValidateKey(segments); err != nil {
		return nil, err
	}
	return segments, nil
}

// ValidateKey rejects key paths with empty segments.
func ValidateKey(key []string) error {
	for i, segment := range key {
		if segment == "" {
			return fmt.Errorf("%w: segment %d of %q is empty", ErrInvalidKey, i, strings.Join(key, "."))
		}
	}
	return nil
}

func unionMappings(existing, payload value.Value) value.Value {
	a, _ := existing.AsMapping()
	b, _ := payload.AsMapping()
	return value.FromMapping(a.Merged(b))
}
