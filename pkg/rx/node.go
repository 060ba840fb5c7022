// Package rx defines the regular expression tree compiled by the automata
// pipeline. Trees are immutable and may share sub-trees.
package rx

import (
	"errors"
	"fmt"

	"github.com/spicery/rxlex/pkg/rangeset"
)

// Kind identifies the shape of a Node.
type Kind uint8

const (
	KindEmpty Kind = iota
	KindMatch
	KindConcatenation
	KindAlternation
	KindQuantified
	KindAccept
)

func (k Kind) String() string {
	switch k {
	case KindEmpty:
		return "empty"
	case KindMatch:
		return "match"
	case KindConcatenation:
		return "concatenation"
	case KindAlternation:
		return "alternation"
	case KindQuantified:
		return "quantified"
	case KindAccept:
		return "accept"
	}
	return fmt.Sprintf("Kind(%d)", k)
}

// Unbounded is the maximum of a quantifier without upper bound.
const Unbounded = -1

// Symbol identifies a recognized token.
type Symbol int32

// EOF is the symbol reported to token callbacks when the input ended
// cleanly. Rules must not use it.
const EOF Symbol = -1

// NodeID is assigned to every Match and Accept node by the Builder that
// created it. Distinct positions in a tree carry distinct ids even when
// the nodes are structurally equal.
type NodeID int32

// ErrQuantifierBounds is returned for a negative minimum or a maximum
// smaller than the minimum.
var ErrQuantifierBounds = errors.New("invalid quantifier bounds")

// Node is one element of a regular expression tree.
type Node[T rangeset.Symbol] struct {
	kind       Kind
	id         NodeID
	letters    rangeset.Set[T]
	negate     bool
	left       *Node[T]
	right      *Node[T]
	min, max   int
	symbol     Symbol
	precedence int
}

func (n *Node[T]) Kind() Kind { return n.kind }

// ID returns the build-time id of Match and Accept nodes, 0 otherwise.
func (n *Node[T]) ID() NodeID { return n.id }

// Letters returns the set matched by a Match node, before negation.
func (n *Node[T]) Letters() rangeset.Set[T] { return n.letters }

// Negated reports whether a Match node matches the complement of Letters.
func (n *Node[T]) Negated() bool { return n.negate }

// Left returns the first operand of a binary node.
func (n *Node[T]) Left() *Node[T] { return n.left }

// Right returns the second operand of a binary node.
func (n *Node[T]) Right() *Node[T] { return n.right }

// Inner returns the operand of a Quantified or Accept node.
func (n *Node[T]) Inner() *Node[T] { return n.left }

// Min returns the minimum repetition count of a Quantified node.
func (n *Node[T]) Min() int { return n.min }

// Max returns the maximum repetition count of a Quantified node, or
// Unbounded.
func (n *Node[T]) Max() int { return n.max }

// Symbol returns the symbol of an Accept node.
func (n *Node[T]) Symbol() Symbol { return n.symbol }

// Precedence returns the accept precedence of an Accept node.
func (n *Node[T]) Precedence() int { return n.precedence }

// Builder creates nodes and hands out node ids. All nodes of one tree must
// come from the same Builder, since ids are only unique per Builder. A
// Builder is not safe for concurrent use; the zero value is ready to use.
type Builder[T rangeset.Symbol] struct {
	last NodeID
}

// NewBuilder returns a fresh Builder.
func NewBuilder[T rangeset.Symbol]() *Builder[T] {
	return &Builder[T]{}
}

func (b *Builder[T]) nextID() NodeID {
	b.last++
	return b.last
}

// Empty returns a node matching the empty string.
func (b *Builder[T]) Empty() *Node[T] {
	return &Node[T]{kind: KindEmpty}
}

// Match returns a node matching one symbol of letters.
func (b *Builder[T]) Match(letters rangeset.Set[T]) *Node[T] {
	return &Node[T]{kind: KindMatch, id: b.nextID(), letters: letters}
}

// NotMatch returns a node matching one symbol outside letters. The
// complement is taken against the universe of the consumer.
func (b *Builder[T]) NotMatch(letters rangeset.Set[T]) *Node[T] {
	return &Node[T]{kind: KindMatch, id: b.nextID(), letters: letters, negate: true}
}

// Class is shorthand for Match(rangeset.New(ranges...)).
func (b *Builder[T]) Class(ranges ...rangeset.Range[T]) *Node[T] {
	return b.Match(rangeset.New(ranges...))
}

// Literal returns the concatenation of single-symbol matches.
func (b *Builder[T]) Literal(values ...T) *Node[T] {
	nodes := make([]*Node[T], len(values))
	for i, v := range values {
		nodes[i] = b.Match(rangeset.Of(v))
	}
	return b.Concat(nodes...)
}

// Concat joins nodes into a right-leaning chain of concatenations.
func (b *Builder[T]) Concat(nodes ...*Node[T]) *Node[T] {
	return b.join(KindConcatenation, nodes)
}

// Alt joins nodes into a right-leaning chain of alternations.
func (b *Builder[T]) Alt(nodes ...*Node[T]) *Node[T] {
	return b.join(KindAlternation, nodes)
}

func (b *Builder[T]) join(kind Kind, nodes []*Node[T]) *Node[T] {
	if len(nodes) == 0 {
		return b.Empty()
	}
	result := nodes[len(nodes)-1]
	for i := len(nodes) - 2; i >= 0; i-- {
		result = &Node[T]{kind: kind, left: nodes[i], right: result}
	}
	return result
}

// Quantified repeats inner between min and max times; max may be
// Unbounded.
func (b *Builder[T]) Quantified(inner *Node[T], min, max int) (*Node[T], error) {
	if min < 0 {
		return nil, fmt.Errorf("%w: minimum %d is negative", ErrQuantifierBounds, min)
	}
	if max != Unbounded && max < min {
		return nil, fmt.Errorf("%w: maximum %d is less than minimum %d", ErrQuantifierBounds, max, min)
	}
	return &Node[T]{kind: KindQuantified, left: inner, min: min, max: max}, nil
}

func (b *Builder[T]) mustQuantify(inner *Node[T], min, max int) *Node[T] {
	n, err := b.Quantified(inner, min, max)
	if err != nil {
		panic(err)
	}
	return n
}

// Star matches inner zero or more times.
func (b *Builder[T]) Star(inner *Node[T]) *Node[T] { return b.mustQuantify(inner, 0, Unbounded) }

// Plus matches inner one or more times.
func (b *Builder[T]) Plus(inner *Node[T]) *Node[T] { return b.mustQuantify(inner, 1, Unbounded) }

// Optional matches inner zero or one time.
func (b *Builder[T]) Optional(inner *Node[T]) *Node[T] { return b.mustQuantify(inner, 0, 1) }

// Accept marks inner as recognizing symbol with the default precedence
// derived from its match lengths.
func (b *Builder[T]) Accept(inner *Node[T], symbol Symbol) *Node[T] {
	return b.AcceptWithPrecedence(inner, symbol, DefaultPrecedence(inner))
}

// AcceptWithPrecedence marks inner as recognizing symbol. When several
// symbols are viable for the same input, the highest precedence wins.
func (b *Builder[T]) AcceptWithPrecedence(inner *Node[T], symbol Symbol, precedence int) *Node[T] {
	return &Node[T]{kind: KindAccept, id: b.nextID(), left: inner, symbol: symbol, precedence: precedence}
}

// Walk visits the tree in pre-order. Children are skipped when fn returns
// false.
func Walk[T rangeset.Symbol](n *Node[T], fn func(*Node[T]) bool) {
	if n == nil || !fn(n) {
		return
	}
	switch n.kind {
	case KindConcatenation, KindAlternation:
		Walk(n.left, fn)
		Walk(n.right, fn)
	case KindQuantified, KindAccept:
		Walk(n.left, fn)
	}
}
