package rx

import "github.com/spicery/rxlex/pkg/rangeset"

// Optimize returns a simplified tree matching the same language with the
// same accept symbols. Alternatives of plain Match nodes are merged into a
// single class, duplicate alternatives are dropped, Empty operands of
// concatenations are removed and trivial quantifiers are unwrapped.
//
// Merged classes get fresh ids from b; other nodes keep their ids.
func (b *Builder[T]) Optimize(n *Node[T]) *Node[T] {
	switch n.kind {
	case KindConcatenation:
		var parts []*Node[T]
		for _, part := range flatten(n, KindConcatenation, nil) {
			part = b.Optimize(part)
			if part.kind == KindEmpty {
				continue
			}
			parts = append(parts, part)
		}
		return b.Concat(parts...)

	case KindAlternation:
		return b.optimizeAlternation(n)

	case KindQuantified:
		inner := b.Optimize(n.left)
		if n.max == 0 || inner.kind == KindEmpty {
			return b.Empty()
		}
		if n.min == 1 && n.max == 1 {
			return inner
		}
		if inner == n.left {
			return n
		}
		return &Node[T]{kind: KindQuantified, left: inner, min: n.min, max: n.max}

	case KindAccept:
		inner := b.Optimize(n.left)
		if inner == n.left {
			return n
		}
		return &Node[T]{kind: KindAccept, id: n.id, left: inner, symbol: n.symbol, precedence: n.precedence}
	}
	return n
}

func (b *Builder[T]) optimizeAlternation(n *Node[T]) *Node[T] {
	var (
		class    rangeset.Set[T]
		classes  int
		firstPos = -1
		out      []*Node[T]
		seen     = make(map[uint64][]*Node[T])
	)
	for _, alt := range flatten(n, KindAlternation, nil) {
		alt = b.Optimize(alt)
		if alt.kind == KindMatch && !alt.negate {
			if firstPos < 0 {
				firstPos = len(out)
				out = append(out, alt)
			}
			class = class.Union(alt.letters)
			classes++
			continue
		}
		fp := Fingerprint(alt)
		dup := false
		for _, prev := range seen[fp] {
			if Equal(prev, alt) {
				dup = true
				break
			}
		}
		if dup {
			continue
		}
		seen[fp] = append(seen[fp], alt)
		out = append(out, alt)
	}
	if classes > 1 {
		out[firstPos] = b.Match(class)
	}
	return b.Alt(out...)
}

func flatten[T rangeset.Symbol](n *Node[T], kind Kind, dst []*Node[T]) []*Node[T] {
	if n.kind != kind {
		return append(dst, n)
	}
	dst = flatten(n.left, kind, dst)
	return flatten(n.right, kind, dst)
}
