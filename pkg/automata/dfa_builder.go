package automata

import (
	"encoding/binary"
	"errors"
	"fmt"
	"slices"

	"github.com/cespare/xxhash/v2"

	"github.com/spicery/rxlex/pkg/rangeset"
	"github.com/spicery/rxlex/pkg/rx"
)

// ErrAmbiguousAccept is wrapped by AmbiguityError.
var ErrAmbiguousAccept = errors.New("ambiguous accept state")

// AmbiguityError reports a DFA state in which several symbols are accepted
// with the same, highest precedence.
type AmbiguityError struct {
	Symbols    []rx.Symbol
	Precedence int
	// NFAStates is the set of NFA states the ambiguous DFA state stands for.
	NFAStates []int
}

func (e *AmbiguityError) Error() string {
	return fmt.Sprintf("%v: symbols %v have the same precedence %d", ErrAmbiguousAccept, e.Symbols, e.Precedence)
}

func (e *AmbiguityError) Unwrap() error {
	return ErrAmbiguousAccept
}

// candidate is a DFA state under construction, named by the sorted set of
// NFA states it stands for. Transition targets are candidate indexes.
type candidate[L rangeset.Symbol] struct {
	nfaStates   []int
	transitions []Transition[L]
	accepting   bool
	symbol      rx.Symbol
}

type piece[L rangeset.Symbol] struct {
	r       rangeset.Range[L]
	targets []int
}

type dfaBuilder[L rangeset.Symbol] struct {
	nfa        *NFA[L]
	candidates []*candidate[L]
	byHash     map[uint64][]int
	queue      []int
	eof        L
	hasEOF     bool
}

// BuildDFA converts nfa into a DFA by subset construction and merges
// states that accept the same symbol and have the same transitions.
//
// The accept symbol of a state is the symbol of its highest precedence NFA
// accept state. An *AmbiguityError is returned when that is not unique.
func BuildDFA[L rangeset.Symbol](nfa *NFA[L], opts ...Option) (*DFA[L], error) {
	o := newOptions(opts)
	if o.firstID < 0 {
		return nil, fmt.Errorf("automata: first state id %d is negative", o.firstID)
	}
	b := &dfaBuilder[L]{nfa: nfa, byHash: make(map[uint64][]int)}
	b.eof, b.hasEOF = eofOf[L](o)

	for i := range nfa.States {
		nfa.Closure(i)
	}
	b.lookup(nfa.Closure(nfa.Start))
	for len(b.queue) > 0 {
		i := b.queue[0]
		b.queue = b.queue[1:]
		b.expand(b.candidates[i])
	}
	for _, c := range b.candidates {
		if err := b.resolveAccept(c); err != nil {
			return nil, err
		}
	}

	rep := b.mergeEquivalent()
	d := b.materialize(rep, o.firstID)
	o.logger.Debug("Built DFA", "nfaStates", len(nfa.States), "candidates", len(b.candidates), "states", len(d.States), "accepting", len(d.Symbols))
	return d, nil
}

func fingerprint(set []int) uint64 {
	buf := make([]byte, 0, 4*len(set))
	for _, s := range set {
		buf = binary.LittleEndian.AppendUint32(buf, uint32(s))
	}
	return xxhash.Sum64(buf)
}

// lookup returns the index of the candidate for a sorted NFA state set,
// creating and queueing it when it is new.
func (b *dfaBuilder[L]) lookup(set []int) int {
	h := fingerprint(set)
	for _, i := range b.byHash[h] {
		if slices.Equal(b.candidates[i].nfaStates, set) {
			return i
		}
	}
	i := len(b.candidates)
	b.candidates = append(b.candidates, &candidate[L]{nfaStates: set})
	b.byHash[h] = append(b.byHash[h], i)
	b.queue = append(b.queue, i)
	return i
}

func fold[L rangeset.Symbol](pieces []piece[L], letters rangeset.Set[L], target int) []piece[L] {
	left := make([]rangeset.Range[L], len(pieces))
	for i, p := range pieces {
		left[i] = p.r
	}
	out := make([]piece[L], 0, len(pieces)+len(letters.Ranges()))
	rangeset.Enumerate(left, letters.Ranges(), func(r rangeset.Range[L], li, ri int) {
		var targets []int
		if li >= 0 {
			targets = pieces[li].targets
		}
		if ri >= 0 {
			targets = append(slices.Clip(targets), target)
		}
		out = append(out, piece[L]{r: r, targets: targets})
	})
	return out
}

func (b *dfaBuilder[L]) closureOf(targets []int) []int {
	var set []int
	for _, t := range targets {
		set = append(set, b.nfa.Closure(t)...)
	}
	slices.Sort(set)
	return slices.Compact(set)
}

func (b *dfaBuilder[L]) expand(c *candidate[L]) {
	var eofSet rangeset.Set[L]
	if b.hasEOF {
		eofSet = rangeset.Of(b.eof)
	}
	var pieces []piece[L]
	for _, s := range c.nfaStates {
		for _, m := range b.nfa.States[s].Matches {
			pieces = fold(pieces, m.Letters.Subtract(eofSet), m.Target)
		}
	}
	for _, p := range pieces {
		target := StateID(b.lookup(b.closureOf(p.targets)))
		c.transitions = appendTransition(c.transitions, Transition[L]{Range: p.r, Target: target})
	}
}

// appendTransition appends t, merging it into the last transition when
// both have the same target and adjacent ranges.
func appendTransition[L rangeset.Symbol](dst []Transition[L], t Transition[L]) []Transition[L] {
	if n := len(dst); n > 0 {
		last := &dst[n-1]
		if last.Target == t.Target && last.Range.To < t.Range.From && rangeset.Succ(last.Range.To) == t.Range.From {
			last.Range.To = t.Range.To
			return dst
		}
	}
	return append(dst, t)
}

func (b *dfaBuilder[L]) resolveAccept(c *candidate[L]) error {
	best := 0
	var symbols []rx.Symbol
	for _, s := range c.nfaStates {
		a := b.nfa.States[s].Accept
		if a == nil {
			continue
		}
		switch {
		case symbols == nil || a.Precedence > best:
			best = a.Precedence
			symbols = []rx.Symbol{a.Symbol}
		case a.Precedence == best && !slices.Contains(symbols, a.Symbol):
			symbols = append(symbols, a.Symbol)
		}
	}
	switch len(symbols) {
	case 0:
		return nil
	case 1:
		c.accepting, c.symbol = true, symbols[0]
		if b.hasEOF {
			at, _ := slices.BinarySearchFunc(c.transitions, b.eof, func(t Transition[L], eof L) int {
				if t.Range.From < eof {
					return -1
				}
				if t.Range.From > eof {
					return 1
				}
				return 0
			})
			c.transitions = slices.Insert(c.transitions, at, Transition[L]{Range: rangeset.Single(b.eof), Target: Accept})
		}
		return nil
	}
	slices.Sort(symbols)
	return &AmbiguityError{Symbols: symbols, Precedence: best, NFAStates: c.nfaStates}
}

// signature encodes the accept symbol and the transitions of c after
// replacing every target by its representative.
func (b *dfaBuilder[L]) signature(c *candidate[L], find func(StateID) StateID) string {
	buf := make([]byte, 0, 8+20*len(c.transitions))
	if c.accepting {
		buf = append(buf, 1)
		buf = binary.LittleEndian.AppendUint32(buf, uint32(c.symbol))
	} else {
		buf = append(buf, 0)
	}
	for _, t := range substitute(c.transitions, find) {
		buf = binary.LittleEndian.AppendUint64(buf, uint64(t.Range.From))
		buf = binary.LittleEndian.AppendUint64(buf, uint64(t.Range.To))
		buf = binary.LittleEndian.AppendUint32(buf, uint32(t.Target))
	}
	return string(buf)
}

func substitute[L rangeset.Symbol](transitions []Transition[L], find func(StateID) StateID) []Transition[L] {
	out := make([]Transition[L], 0, len(transitions))
	for _, t := range transitions {
		if !t.Target.IsSentinel() {
			t.Target = find(t.Target)
		}
		out = appendTransition(out, t)
	}
	return out
}

// mergeEquivalent merges candidates with equal signatures until a fixed
// point is reached and returns the representative of every candidate.
func (b *dfaBuilder[L]) mergeEquivalent() []StateID {
	rep := make([]StateID, len(b.candidates))
	for i := range rep {
		rep[i] = StateID(i)
	}
	find := func(id StateID) StateID {
		for rep[id] != id {
			id = rep[id]
		}
		return id
	}
	for {
		merged := false
		seen := make(map[string]StateID, len(b.candidates))
		for i, c := range b.candidates {
			if rep[i] != StateID(i) {
				continue
			}
			sig := b.signature(c, find)
			if j, ok := seen[sig]; ok {
				rep[i] = j
				merged = true
				continue
			}
			seen[sig] = StateID(i)
		}
		if !merged {
			break
		}
	}
	for i := range rep {
		rep[i] = find(StateID(i))
	}
	return rep
}

// materialize numbers the representatives breadth-first from the start
// candidate and builds the final states.
func (b *dfaBuilder[L]) materialize(rep []StateID, firstID StateID) *DFA[L] {
	find := func(id StateID) StateID { return rep[id] }
	ids := make(map[StateID]StateID)
	order := []StateID{rep[0]}
	ids[rep[0]] = firstID
	tables := make(map[StateID][]Transition[L])
	for i := 0; i < len(order); i++ {
		c := order[i]
		table := substitute(b.candidates[c].transitions, find)
		tables[c] = table
		for _, t := range table {
			if t.Target.IsSentinel() {
				continue
			}
			if _, ok := ids[t.Target]; !ok {
				ids[t.Target] = firstID + StateID(len(order))
				order = append(order, t.Target)
			}
		}
	}

	d := &DFA[L]{
		States:  make([]State[L], len(order)),
		Symbols: make(map[StateID]rx.Symbol),
		eof:     b.eof,
		hasEOF:  b.hasEOF,
	}
	for i, c := range order {
		id := firstID + StateID(i)
		table := tables[c]
		for j := range table {
			if !table[j].Target.IsSentinel() {
				table[j].Target = ids[table[j].Target]
			}
		}
		d.States[i] = State[L]{ID: id, Transitions: table}
		if cand := b.candidates[c]; cand.accepting {
			d.Symbols[id] = cand.symbol
		}
	}
	return d
}
