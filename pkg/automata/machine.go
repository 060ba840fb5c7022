package automata

import (
	"github.com/spicery/rxlex/pkg/rangeset"
	"github.com/spicery/rxlex/pkg/rx"
)

// Stepper is the transition function of a deterministic automaton over
// letters. DFA interprets its transition table; Table is a compiled jump
// table. Both produce identical results.
type Stepper[L rangeset.Symbol] interface {
	Start() StateID
	Step(state StateID, letter L) (StateID, rx.Symbol, bool)
	Symbol(state StateID) (rx.Symbol, bool)
	HandlesEOF() bool
}

// Machine drives an automaton with raw input. Step fails when the input
// cannot be mapped to a letter.
type Machine[I any] interface {
	Start() StateID
	Step(state StateID, input I) (next StateID, symbol rx.Symbol, accepting bool, err error)
	Symbol(state StateID) (rx.Symbol, bool)
	HandlesEOF() bool
}

type direct[L rangeset.Symbol] struct {
	Stepper[L]
}

func (m direct[L]) Step(state StateID, letter L) (StateID, rx.Symbol, bool, error) {
	next, sym, ok := m.Stepper.Step(state, letter)
	return next, sym, ok, nil
}

// Letters returns a Machine consuming letters directly.
func Letters[L rangeset.Symbol](s Stepper[L]) Machine[L] {
	return direct[L]{s}
}

type classified[I any, L rangeset.Symbol] struct {
	Stepper[L]
	classify func(I) (L, error)
}

func (m classified[I, L]) Step(state StateID, input I) (StateID, rx.Symbol, bool, error) {
	letter, err := m.classify(input)
	if err != nil {
		return Reject, 0, false, err
	}
	next, sym, ok := m.Stepper.Step(state, letter)
	return next, sym, ok, nil
}

// Classified returns a Machine that maps every input to a letter with
// classify before stepping s.
func Classified[I any, L rangeset.Symbol](s Stepper[L], classify func(I) (L, error)) Machine[I] {
	return classified[I, L]{Stepper: s, classify: classify}
}
