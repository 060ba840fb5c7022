package rx

import (
	"math"

	"github.com/spicery/rxlex/pkg/rangeset"
)

// lengthCap bounds computed lengths so that precedences stay within int32.
const lengthCap = math.MaxInt32 / 4

func addLength(a, b int) int {
	if a == Unbounded || b == Unbounded {
		return Unbounded
	}
	return min(a+b, lengthCap)
}

func mulLength(a, b int) int {
	if a == 0 || b == 0 {
		return 0
	}
	if a == Unbounded || b == Unbounded {
		return Unbounded
	}
	if a > lengthCap/b {
		return lengthCap
	}
	return a * b
}

// Lengths returns the minimum and maximum number of symbols matched by n.
// The maximum is Unbounded for unbounded repetitions.
func (n *Node[T]) Lengths() (int, int) {
	switch n.kind {
	case KindMatch:
		return 1, 1
	case KindConcatenation:
		lmin, lmax := n.left.Lengths()
		rmin, rmax := n.right.Lengths()
		return addLength(lmin, rmin), addLength(lmax, rmax)
	case KindAlternation:
		lmin, lmax := n.left.Lengths()
		rmin, rmax := n.right.Lengths()
		hi := max(lmax, rmax)
		if lmax == Unbounded || rmax == Unbounded {
			hi = Unbounded
		}
		return min(lmin, rmin), hi
	case KindQuantified:
		imin, imax := n.left.Lengths()
		return mulLength(imin, n.min), mulLength(imax, n.max)
	case KindAccept:
		return n.left.Lengths()
	}
	return 0, 0
}

// IsEmpty reports whether n can only match the empty string.
func (n *Node[T]) IsEmpty() bool {
	_, hi := n.Lengths()
	return hi == 0
}

// DefaultPrecedence derives the accept precedence of a rule from its match
// lengths: twice the minimum length, plus one for fixed-length rules. A
// fixed-length rule thus outranks every variable-length rule accepting the
// same input, and longer mandatory prefixes outrank shorter ones.
func DefaultPrecedence[T rangeset.Symbol](inner *Node[T]) int {
	lo, hi := inner.Lengths()
	p := 2 * lo
	if lo == hi {
		p++
	}
	return p
}
