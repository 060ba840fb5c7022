package rangeset

import (
	"math"
	"math/bits"
	"slices"
	"sort"
	"strings"
)

// Set is an immutable ordered collection of disjoint, non-adjacent ranges.
// The zero value is the empty set.
type Set[T Symbol] struct {
	ranges []Range[T]
}

// Empty returns the empty set.
func Empty[T Symbol]() Set[T] {
	return Set[T]{}
}

// All returns the set of every value representable by T.
func All[T Symbol]() Set[T] {
	return Set[T]{ranges: []Range[T]{{From: MinOf[T](), To: MaxOf[T]()}}}
}

// New builds a set from arbitrary, possibly overlapping ranges.
func New[T Symbol](ranges ...Range[T]) Set[T] {
	if len(ranges) == 0 {
		return Set[T]{}
	}
	sorted := slices.Clone(ranges)
	sort.Slice(sorted, func(i, j int) bool {
		return sorted[i].From < sorted[j].From
	})
	out := make([]Range[T], 0, len(sorted))
	for _, r := range sorted {
		out = appendCondensed(out, r)
	}
	return Set[T]{ranges: out}
}

// Of builds a set from individual values.
func Of[T Symbol](values ...T) Set[T] {
	ranges := make([]Range[T], len(values))
	for i, v := range values {
		ranges[i] = Single(v)
	}
	return New(ranges...)
}

// appendCondensed appends r to a sorted list, merging it with the last
// range when they overlap or touch. r.From must be >= the last From.
func appendCondensed[T Symbol](dst []Range[T], r Range[T]) []Range[T] {
	if n := len(dst); n > 0 {
		last := &dst[n-1]
		if r.From <= last.To || Succ(last.To) == r.From {
			if r.To > last.To {
				last.To = r.To
			}
			return dst
		}
	}
	return append(dst, r)
}

// Ranges returns the condensed ranges of the set. The slice must not be
// modified.
func (s Set[T]) Ranges() []Range[T] {
	return s.ranges
}

// IsEmpty reports whether the set contains no value.
func (s Set[T]) IsEmpty() bool {
	return len(s.ranges) == 0
}

// Count returns the number of values in the set, saturating at
// math.MaxUint64.
func (s Set[T]) Count() uint64 {
	var n uint64
	for _, r := range s.ranges {
		sum, carry := bits.Add64(n, r.Len(), 0)
		if carry != 0 {
			return math.MaxUint64
		}
		n = sum
	}
	return n
}

// Search returns the index of the range containing v, or -1.
func (s Set[T]) Search(v T) int {
	return SearchRanges(s.ranges, v)
}

// SearchRanges binary-searches a sorted list of disjoint ranges for the
// range containing v and returns its index, or -1.
func SearchRanges[T Symbol](ranges []Range[T], v T) int {
	lo, hi := 0, len(ranges)
	for lo < hi {
		mid := int(uint(lo+hi) >> 1)
		switch {
		case v < ranges[mid].From:
			hi = mid
		case ranges[mid].To < v:
			lo = mid + 1
		default:
			return mid
		}
	}
	return -1
}

// Contains reports whether v is a member of the set.
func (s Set[T]) Contains(v T) bool {
	return s.Search(v) >= 0
}

// Equal reports whether both sets contain exactly the same values.
func (s Set[T]) Equal(other Set[T]) bool {
	return slices.Equal(s.ranges, other.ranges)
}

func (s Set[T]) combine(other Set[T], keep func(Membership) bool) Set[T] {
	var out []Range[T]
	EnumerateSets(s, other, func(r Range[T], m Membership) {
		if keep(m) {
			out = appendCondensed(out, r)
		}
	})
	return Set[T]{ranges: out}
}

// Union returns the values in either set.
func (s Set[T]) Union(other Set[T]) Set[T] {
	return s.combine(other, func(Membership) bool { return true })
}

// Intersect returns the values in both sets.
func (s Set[T]) Intersect(other Set[T]) Set[T] {
	return s.combine(other, func(m Membership) bool { return m == Both })
}

// Subtract returns the values of s that are not in other.
func (s Set[T]) Subtract(other Set[T]) Set[T] {
	return s.combine(other, func(m Membership) bool { return m == LeftOnly })
}

// Complement returns the values of universe that are not in s.
func (s Set[T]) Complement(universe Set[T]) Set[T] {
	return universe.Subtract(s)
}

// Values calls fn for every value in the set in ascending order until fn
// returns false.
func (s Set[T]) Values(fn func(T) bool) {
	for _, r := range s.ranges {
		for v := r.From; ; v++ {
			if !fn(v) {
				return
			}
			if v == r.To {
				break
			}
		}
	}
}

func (s Set[T]) String() string {
	var sb strings.Builder
	sb.WriteByte('{')
	for i, r := range s.ranges {
		if i > 0 {
			sb.WriteString(", ")
		}
		sb.WriteString(r.String())
	}
	sb.WriteByte('}')
	return sb.String()
}
