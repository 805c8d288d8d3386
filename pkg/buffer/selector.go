package buffer

import (
	"errors"
	"fmt"
)

// ErrInvalidInterval is returned when combining an interval whose start is
// after its end.
var ErrInvalidInterval = errors.New("invalid interval")

// Selector addresses buffer positions for Extract. It is implemented by Index,
// Interval and IntervalUnion.
type Selector interface {
	indices() []int
}

// Index selects a single position.
type Index int

func (i Index) indices() []int { return []int{int(i)} }

// Interval selects every position from Start to End inclusive. An interval
// with Start > End selects nothing.
type Interval struct {
	Start int
	End   int
}

// Valid reports whether Start <= End.
func (iv Interval) Valid() bool {
	return iv.Start <= iv.End
}

// Contains reports whether i lies within the interval.
func (iv Interval) Contains(i int) bool {
	return iv.Start <= i && i <= iv.End
}

// Union combines two intervals. Overlapping intervals collapse into one
// Interval; disjoint ones produce an IntervalUnion.
func (iv Interval) Union(other Interval) (Selector, error) {
	if !iv.Valid() || !other.Valid() {
		return nil, fmt.Errorf("%w: %s + %s", ErrInvalidInterval, iv, other)
	}

	switch {
	case iv.Contains(other.Start):
		if iv.Contains(other.End) {
			return iv, nil
		}
		return Interval{Start: iv.Start, End: other.End}, nil
	case iv.Contains(other.End):
		return Interval{Start: other.Start, End: iv.End}, nil
	case other.Contains(iv.Start):
		if other.Contains(iv.End) {
			return other, nil
		}
		return Interval{Start: other.Start, End: iv.End}, nil
	}

	return NewIntervalUnion(iv, other), nil
}

func (iv Interval) String() string {
	return fmt.Sprintf("[%d, %d]", iv.Start, iv.End)
}

func (iv Interval) indices() []int {
	if !iv.Valid() {
		return nil
	}
	out := make([]int, 0, iv.End-iv.Start+1)
	for i := iv.Start; i <= iv.End; i++ {
		out = append(out, i)
	}
	return out
}

// IntervalUnion is a set of intervals that yields each covered index once.
type IntervalUnion struct {
	intervals []Interval
}

func NewIntervalUnion(intervals ...Interval) IntervalUnion {
	out := make([]Interval, len(intervals))
	copy(out, intervals)
	return IntervalUnion{intervals: out}
}

// Intervals returns the member intervals in construction order.
func (u IntervalUnion) Intervals() []Interval {
	out := make([]Interval, len(u.intervals))
	copy(out, u.intervals)
	return out
}

// Contains reports whether any member interval contains i.
func (u IntervalUnion) Contains(i int) bool {
	for _, iv := range u.intervals {
		if iv.Contains(i) {
			return true
		}
	}
	return false
}

// Covers reports whether every index of iv is inside the union.
func (u IntervalUnion) Covers(iv Interval) (bool, error) {
	if !iv.Valid() {
		return false, fmt.Errorf("%w: %s", ErrInvalidInterval, iv)
	}
	for i := iv.Start; i <= iv.End; i++ {
		if !u.Contains(i) {
			return false, nil
		}
	}
	return true, nil
}

// Indices returns every covered index once, in first-seen order.
func (u IntervalUnion) Indices() []int {
	return u.indices()
}

func (u IntervalUnion) indices() []int {
	seen := make(map[int]struct{})
	var out []int
	for _, iv := range u.intervals {
		for _, i := range iv.indices() {
			if _, ok := seen[i]; ok {
				continue
			}
			seen[i] = struct{}{}
			out = append(out, i)
		}
	}
	return out
}

func (u IntervalUnion) String() string {
	s := "["
	for i, iv := range u.intervals {
		if i > 0 {
			s += ", "
		}
		s += iv.String()
	}
	return s + "]"
}
