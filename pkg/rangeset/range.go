// Package rangeset implements sorted, condensed interval sets over
// discrete ordered symbol types.
package rangeset

import (
	"errors"
	"fmt"
	"math"
	"unsafe"

	"golang.org/x/exp/constraints"
)

// Symbol is the set of types a Range can be built over. Every integer type
// is steppable: it has a minimum, a maximum, a successor and a predecessor.
type Symbol interface {
	constraints.Integer
}

// ErrInvalidRange is returned when a range is constructed with from > to.
var ErrInvalidRange = errors.New("invalid range")

// MinOf returns the smallest value representable by T.
func MinOf[T Symbol]() T {
	var zero T
	if ^zero > 0 {
		return 0
	}
	return ^MaxOf[T]()
}

// MaxOf returns the largest value representable by T.
func MaxOf[T Symbol]() T {
	var zero T
	if ^zero > 0 {
		return ^zero
	}
	bits := unsafe.Sizeof(zero) * 8
	return T(^uint64(0) >> (65 - bits))
}

// Succ returns v+1. The caller must ensure v < MaxOf[T]().
func Succ[T Symbol](v T) T {
	return v + 1
}

// Pred returns v-1. The caller must ensure v > MinOf[T]().
func Pred[T Symbol](v T) T {
	return v - 1
}

// Range is a closed interval [From, To].
type Range[T Symbol] struct {
	From T
	To   T
}

// NewRange creates a range, validating that from <= to.
func NewRange[T Symbol](from, to T) (Range[T], error) {
	if from > to {
		return Range[T]{}, fmt.Errorf("%w: [%v, %v]", ErrInvalidRange, from, to)
	}
	return Range[T]{From: from, To: to}, nil
}

// MustRange is like NewRange but panics on invalid bounds.
func MustRange[T Symbol](from, to T) Range[T] {
	r, err := NewRange(from, to)
	if err != nil {
		panic(err)
	}
	return r
}

// Single returns the range containing only v.
func Single[T Symbol](v T) Range[T] {
	return Range[T]{From: v, To: v}
}

// Contains reports whether v lies within the range.
func (r Range[T]) Contains(v T) bool {
	return r.From <= v && v <= r.To
}

// Len returns the number of values in the range. A range spanning every
// 64-bit value saturates at math.MaxUint64.
func (r Range[T]) Len() uint64 {
	d := uint64(r.To) - uint64(r.From)
	if d == math.MaxUint64 {
		return d
	}
	return d + 1
}

func (r Range[T]) String() string {
	if r.From == r.To {
		return fmt.Sprintf("%v", r.From)
	}
	return fmt.Sprintf("%v..%v", r.From, r.To)
}
