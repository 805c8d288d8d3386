// Package buffer provides Bounded, an ordered holding area with a capacity and
// an overflow tolerance.
//
// Reaching capacity marks the buffer Full, which is the caller's cue to drain
// it. Inserts are only rejected once the buffer already holds more than
// capacity + tolerance items. Bounded is not safe for concurrent use; owners
// serialize access themselves.
package buffer

import (
	"errors"
	"fmt"
	"strconv"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	// ErrInvalidCapacity is returned for a negative capacity.
	ErrInvalidCapacity = errors.New("capacity must be a non negative integer")

	// ErrInvalidTolerance is returned for a negative finite tolerance.
	ErrInvalidTolerance = errors.New("tolerance must be a non negative integer or unlimited")

	// ErrOverflow is returned when inserting into a buffer already past
	// capacity + tolerance.
	ErrOverflow = errors.New("buffer overflow")

	// ErrIndexOutOfRange is returned by Extract when a selector addresses a
	// position outside the buffer.
	ErrIndexOutOfRange = errors.New("index out of range")
)

// Tolerance is the slack allowed past capacity before inserts are rejected.
type Tolerance struct {
	n         int
	unlimited bool
}

// Unlimited never rejects an insert.
var Unlimited = Tolerance{unlimited: true}

// Limit returns a finite tolerance of n items.
func Limit(n int) Tolerance {
	return Tolerance{n: n}
}

// IsUnlimited reports whether t never rejects.
func (t Tolerance) IsUnlimited() bool { return t.unlimited }

// N returns the finite tolerance, or -1 when unlimited.
func (t Tolerance) N() int {
	if t.unlimited {
		return -1
	}
	return t.n
}

func (t Tolerance) String() string {
	if t.unlimited {
		return "unlimited"
	}
	return strconv.Itoa(t.n)
}

func (t Tolerance) validate() error {
	if !t.unlimited && t.n < 0 {
		return fmt.Errorf("%w: %d", ErrInvalidTolerance, t.n)
	}
	return nil
}

// Option configures a Bounded buffer.
type Option func(*options)

type options struct {
	registerer prometheus.Registerer
	name       string
}

// WithMetrics exports append, overflow, flush and size metrics for the buffer
// under the given name. A nil registerer or empty name disables metrics.
func WithMetrics(reg prometheus.Registerer, name string) Option {
	return func(o *options) {
		if reg != nil && name != "" {
			o.registerer = reg
			o.name = name
		}
	}
}

// Bounded is an ordered buffer of T with a capacity and a tolerance.
type Bounded[T any] struct {
	items     []T
	capacity  int
	tolerance Tolerance
	metrics   *bufferMetrics
}

// New creates an empty buffer.
func New[T any](capacity int, tolerance Tolerance, opts ...Option) (*Bounded[T], error) {
	if capacity < 0 {
		return nil, fmt.Errorf("%w: %d", ErrInvalidCapacity, capacity)
	}
	if err := tolerance.validate(); err != nil {
		return nil, err
	}

	o := &options{}
	for _, opt := range opts {
		if opt != nil {
			opt(o)
		}
	}

	b := &Bounded[T]{
		capacity:  capacity,
		tolerance: tolerance,
	}

	if o.registerer != nil {
		m, err := newBufferMetrics(o.registerer, o.name)
		if err != nil {
			return nil, fmt.Errorf("registering buffer metrics: %w", err)
		}
		b.metrics = m
	}

	return b, nil
}

// Len returns the number of held items.
func (b *Bounded[T]) Len() int { return len(b.items) }

func (b *Bounded[T]) Capacity() int { return b.capacity }

func (b *Bounded[T]) Tolerance() Tolerance { return b.tolerance }

// Full reports whether Len() >= Capacity().
func (b *Bounded[T]) Full() bool {
	return len(b.items) >= b.capacity
}

// Tolerable reports whether the buffer still accepts inserts.
func (b *Bounded[T]) Tolerable() bool {
	if b.tolerance.unlimited {
		return true
	}
	return len(b.items) <= b.capacity+b.tolerance.n
}

// SetCapacity changes the capacity. Held items are never evicted.
func (b *Bounded[T]) SetCapacity(capacity int) error {
	if capacity < 0 {
		return fmt.Errorf("%w: %d", ErrInvalidCapacity, capacity)
	}
	b.capacity = capacity
	return nil
}

// SetTolerance changes the tolerance.
func (b *Bounded[T]) SetTolerance(t Tolerance) error {
	if err := t.validate(); err != nil {
		return err
	}
	b.tolerance = t
	return nil
}

// Append inserts item at the tail and reports whether the buffer is now full.
func (b *Bounded[T]) Append(item T) (bool, error) {
	if !b.Tolerable() {
		b.metrics.recordOverflow()
		return false, fmt.Errorf("%w: %d items held, capacity %d, tolerance %s",
			ErrOverflow, len(b.items), b.capacity, b.tolerance)
	}

	b.items = append(b.items, item)
	b.metrics.recordAppend(1, len(b.items))
	return b.Full(), nil
}

// Extend inserts all items or none, with the same check and signal as Append.
func (b *Bounded[T]) Extend(items ...T) (bool, error) {
	if !b.Tolerable() {
		b.metrics.recordOverflow()
		return false, fmt.Errorf("%w: %d items held, capacity %d, tolerance %s",
			ErrOverflow, len(b.items), b.capacity, b.tolerance)
	}

	b.items = append(b.items, items...)
	b.metrics.recordAppend(len(items), len(b.items))
	return b.Full(), nil
}

// Flush removes and returns every item in insertion order.
func (b *Bounded[T]) Flush() []T {
	out := b.items
	b.items = nil
	b.metrics.recordDrain(0)
	if out == nil {
		return []T{}
	}
	return out
}

// Extract removes and returns the selected items in ascending index order.
// Duplicate selections are removed once. If any selected index is out of
// range nothing is removed. With no selectors Extract is Flush.
func (b *Bounded[T]) Extract(selectors ...Selector) ([]T, error) {
	if len(selectors) == 0 {
		return b.Flush(), nil
	}

	seen := make(map[int]struct{})
	for _, sel := range selectors {
		if sel == nil {
			continue
		}
		for _, i := range sel.indices() {
			if _, ok := seen[i]; ok {
				continue
			}
			if i < 0 || i >= len(b.items) {
				return nil, fmt.Errorf("%w: %d not in [0, %d)", ErrIndexOutOfRange, i, len(b.items))
			}
			seen[i] = struct{}{}
		}
	}

	extracted := make([]T, 0, len(seen))
	kept := make([]T, 0, len(b.items)-len(seen))
	for i, item := range b.items {
		if _, ok := seen[i]; ok {
			extracted = append(extracted, item)
			continue
		}
		kept = append(kept, item)
	}
	b.items = kept
	b.metrics.recordDrain(len(b.items))

	return extracted, nil
}
