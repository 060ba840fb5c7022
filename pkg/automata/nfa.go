// Package automata builds finite automata from regular expression trees:
// a Thompson NFA, and from it a deterministic automaton by subset
// construction followed by merging of equivalent states.
package automata

import (
	"github.com/spicery/rxlex/pkg/rangeset"
	"github.com/spicery/rxlex/pkg/rx"
)

// NFAAccept tags an accepting NFA state.
type NFAAccept struct {
	Symbol     rx.Symbol
	Precedence int
}

// MatchTransition consumes one letter of Letters and moves to Target.
type MatchTransition[L rangeset.Symbol] struct {
	Letters rangeset.Set[L]
	Target  int
}

// NFAState is a state of an NFA. Its id is its index in NFA.States.
type NFAState[L rangeset.Symbol] struct {
	ID      int
	Accept  *NFAAccept
	Epsilon []int
	Matches []MatchTransition[L]
}

// NFA is a non-deterministic automaton with epsilon transitions. An NFA is
// not safe for concurrent use while closures are being computed.
type NFA[L rangeset.Symbol] struct {
	States []*NFAState[L]
	Start  int
	End    int

	closures [][]int
}

type nfaBuilder[L rangeset.Symbol] struct {
	nfa      *NFA[L]
	universe rangeset.Set[L]
}

// BuildNFA converts root into an NFA by Thompson's construction.
func BuildNFA[L rangeset.Symbol](root *rx.Node[L], opts ...Option) *NFA[L] {
	o := newOptions(opts)
	b := &nfaBuilder[L]{nfa: &NFA[L]{}, universe: universeOf[L](o)}
	start := b.create(nil)
	b.nfa.Start = start
	b.nfa.End = b.visit(root, start)
	o.logger.Debug("Built NFA", "states", len(b.nfa.States))
	return b.nfa
}

func (b *nfaBuilder[L]) create(accept *NFAAccept) int {
	id := len(b.nfa.States)
	b.nfa.States = append(b.nfa.States, &NFAState[L]{ID: id, Accept: accept})
	return id
}

func (b *nfaBuilder[L]) epsilon(from, to int) {
	s := b.nfa.States[from]
	for _, e := range s.Epsilon {
		if e == to {
			return
		}
	}
	s.Epsilon = append(s.Epsilon, to)
}

func (b *nfaBuilder[L]) visit(n *rx.Node[L], current int) int {
	switch n.Kind() {
	case rx.KindEmpty:
		return current

	case rx.KindMatch:
		target := b.create(nil)
		letters := n.Letters()
		if n.Negated() {
			letters = letters.Complement(b.universe)
		}
		if !letters.IsEmpty() {
			s := b.nfa.States[current]
			s.Matches = append(s.Matches, MatchTransition[L]{Letters: letters, Target: target})
		}
		return target

	case rx.KindConcatenation:
		return b.visit(n.Right(), b.visit(n.Left(), current))

	case rx.KindAlternation:
		left, right := b.create(nil), b.create(nil)
		b.epsilon(current, left)
		b.epsilon(current, right)
		target := b.create(nil)
		b.epsilon(b.visit(n.Left(), left), target)
		b.epsilon(b.visit(n.Right(), right), target)
		return target

	case rx.KindQuantified:
		for i := 0; i < n.Min(); i++ {
			current = b.visit(n.Inner(), current)
		}
		if n.Max() == rx.Unbounded {
			entry, exit := b.create(nil), b.create(nil)
			b.epsilon(current, entry)
			b.epsilon(entry, exit)
			b.epsilon(b.visit(n.Inner(), entry), entry)
			return exit
		}
		if n.Max() == n.Min() {
			return current
		}
		exit := b.create(nil)
		b.epsilon(current, exit)
		for i := n.Min(); i < n.Max(); i++ {
			current = b.visit(n.Inner(), current)
			b.epsilon(current, exit)
		}
		return exit

	case rx.KindAccept:
		target := b.create(&NFAAccept{Symbol: n.Symbol(), Precedence: n.Precedence()})
		b.epsilon(b.visit(n.Inner(), current), target)
		return target
	}
	panic("automata: unknown node kind " + n.Kind().String())
}

// Closure returns the sorted ids of the states reachable from id over
// epsilon transitions, including id itself.
func (n *NFA[L]) Closure(id int) []int {
	if n.closures == nil {
		n.closures = make([][]int, len(n.States))
	}
	if c := n.closures[id]; c != nil {
		return c
	}
	seen := make([]bool, len(n.States))
	queue := []int{id}
	seen[id] = true
	for i := 0; i < len(queue); i++ {
		for _, e := range n.States[queue[i]].Epsilon {
			if !seen[e] {
				seen[e] = true
				queue = append(queue, e)
			}
		}
	}
	closure := make([]int, 0, len(queue))
	for s, ok := range seen {
		if ok {
			closure = append(closure, s)
		}
	}
	n.closures[id] = closure
	return closure
}

// Accepts reports the accept tags reachable by consuming input from the
// start state. It simulates the NFA directly and is meant for checking
// built automata.
func (n *NFA[L]) Accepts(input []L) []NFAAccept {
	current := n.Closure(n.Start)
	for _, letter := range input {
		seen := make(map[int]bool)
		var next []int
		for _, s := range current {
			for _, m := range n.States[s].Matches {
				if !m.Letters.Contains(letter) {
					continue
				}
				for _, c := range n.Closure(m.Target) {
					if !seen[c] {
						seen[c] = true
						next = append(next, c)
					}
				}
			}
		}
		if len(next) == 0 {
			return nil
		}
		current = next
	}
	var out []NFAAccept
	for _, s := range current {
		if a := n.States[s].Accept; a != nil {
			out = append(out, *a)
		}
	}
	return out
}
