// Package merge implements the merge algebra used when persisting records:
// flat sequence merges for line and table files, tree merges for documents
// (at the root or at a nested key path), strict key path validation, and
// table header reconciliation.
//
// Every function is pure: inputs are never mutated and results share no
// mutable containers with the stored document.
package merge

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrInvalidMode is returned for a mode outside overwrite, append,
	// extend and update.
	ErrInvalidMode = errors.New("invalid merge mode")

	// ErrInvalidKey is returned for a key path with an empty segment.
	ErrInvalidKey = errors.New("invalid key path")

	// ErrKeyPath is returned when a strict key path is missing from the
	// document or walks through a non-mapping value.
	ErrKeyPath = errors.New("key path violation")

	// ErrMergeType is returned when the existing and incoming shapes cannot be
	// combined under the requested mode.
	ErrMergeType = errors.New("incompatible merge types")
)

// Mode is the merge policy applied when a payload meets existing content.
type Mode string

const (
	ModeOverwrite Mode = "overwrite"
	ModeAppend    Mode = "append"
	ModeExtend    Mode = "extend"
	ModeUpdate    Mode = "update"
)

// Modes lists every valid mode.
func Modes() []Mode {
	return []Mode{ModeOverwrite, ModeAppend, ModeExtend, ModeUpdate}
}

// ParseMode validates a mode name. Matching ignores case and surrounding
// whitespace.
func ParseMode(s string) (Mode, error) {
	m := Mode(strings.ToLower(strings.TrimSpace(s)))
	if !m.Valid() {
		return "", fmt.Errorf("%w: %q (expected one of overwrite, append, extend, update)", ErrInvalidMode, s)
	}
	return m, nil
}

// Valid reports whether m is one of the four modes.
func (m Mode) Valid() bool {
	switch m {
	case ModeOverwrite, ModeAppend, ModeExtend, ModeUpdate:
		return true
	default:
		return false
	}
}

// extends reports whether m is extend or its synonym update.
func (m Mode) extends() bool {
	return m == ModeExtend || m == ModeUpdate
}

func (m Mode) String() string { return string(m) }
