package automata

import (
	"strconv"

	"github.com/spicery/rxlex/pkg/rangeset"
	"github.com/spicery/rxlex/pkg/rx"
)

// StateID identifies a DFA state. Negative ids are sentinels.
type StateID int32

const (
	// Accept is reached on the EOF letter from an accepting state.
	Accept StateID = -1
	// Reject is reached on every letter without a transition.
	Reject StateID = -2
)

// IsSentinel reports whether id is Accept or Reject.
func (id StateID) IsSentinel() bool {
	return id < 0
}

func (id StateID) String() string {
	switch id {
	case Accept:
		return "accept"
	case Reject:
		return "reject"
	}
	return strconv.Itoa(int(id))
}

// Transition moves to Target on every letter of Range.
type Transition[L rangeset.Symbol] struct {
	Range  rangeset.Range[L]
	Target StateID
}

// State is a DFA state with transitions sorted by range.
type State[L rangeset.Symbol] struct {
	ID          StateID
	Transitions []Transition[L]
}

// Next returns the target for letter, or Reject.
func (s *State[L]) Next(letter L) StateID {
	t := s.Transitions
	lo, hi := 0, len(t)
	for lo < hi {
		mid := int(uint(lo+hi) >> 1)
		switch {
		case letter < t[mid].Range.From:
			hi = mid
		case t[mid].Range.To < letter:
			lo = mid + 1
		default:
			return t[mid].Target
		}
	}
	return Reject
}

// DFA is a deterministic automaton. States are numbered densely from the
// id of the start state. A DFA is immutable and safe for concurrent use.
type DFA[L rangeset.Symbol] struct {
	States  []State[L]
	Symbols map[StateID]rx.Symbol

	eof    L
	hasEOF bool
}

// Start returns the id of the start state.
func (d *DFA[L]) Start() StateID {
	return d.States[0].ID
}

// EOF returns the end-of-input letter, if the DFA handles one.
func (d *DFA[L]) EOF() (L, bool) {
	return d.eof, d.hasEOF
}

// HandlesEOF reports whether accepting states transition to Accept on the
// EOF letter.
func (d *DFA[L]) HandlesEOF() bool {
	return d.hasEOF
}

// State returns the state with the given id, or nil for sentinels and
// unknown ids.
func (d *DFA[L]) State(id StateID) *State[L] {
	i := int(id - d.Start())
	if id < 0 || i < 0 || i >= len(d.States) {
		return nil
	}
	return &d.States[i]
}

// Symbol returns the accept symbol of a state.
func (d *DFA[L]) Symbol(id StateID) (rx.Symbol, bool) {
	s, ok := d.Symbols[id]
	return s, ok
}

// Step returns the successor of state on letter together with its accept
// symbol, if any.
func (d *DFA[L]) Step(state StateID, letter L) (StateID, rx.Symbol, bool) {
	s := d.State(state)
	if s == nil {
		return Reject, 0, false
	}
	next := s.Next(letter)
	if next.IsSentinel() {
		return next, 0, false
	}
	sym, ok := d.Symbols[next]
	return next, sym, ok
}

// Match runs input from the start state and reports the accept symbol of
// the state it ends in.
func (d *DFA[L]) Match(input []L) (rx.Symbol, bool) {
	state := d.Start()
	for _, letter := range input {
		if state = d.State(state).Next(letter); state.IsSentinel() {
			return 0, false
		}
	}
	return d.Symbol(state)
}
