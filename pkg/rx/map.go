package rx

import "github.com/spicery/rxlex/pkg/rangeset"

// Map rewrites a tree over T into a tree over U with the same shape. Every
// Match node is replaced by a non-negated Match over the set returned by
// fn; ids, symbols and precedences are preserved, as is sub-tree sharing.
func Map[T, U rangeset.Symbol](n *Node[T], fn func(match *Node[T]) rangeset.Set[U]) *Node[U] {
	memo := make(map[*Node[T]]*Node[U])
	var rewrite func(*Node[T]) *Node[U]
	rewrite = func(n *Node[T]) *Node[U] {
		if n == nil {
			return nil
		}
		if m, ok := memo[n]; ok {
			return m
		}
		m := &Node[U]{
			kind:       n.kind,
			id:         n.id,
			min:        n.min,
			max:        n.max,
			symbol:     n.symbol,
			precedence: n.precedence,
		}
		if n.kind == KindMatch {
			m.letters = fn(n)
		}
		m.left = rewrite(n.left)
		m.right = rewrite(n.right)
		memo[n] = m
		return m
	}
	return rewrite(n)
}
