package automata

import (
	"errors"
	"fmt"

	"github.com/spicery/rxlex/pkg/rangeset"
	"github.com/spicery/rxlex/pkg/rx"
)

// ErrLetterOutOfRange is returned by Compile for a transition on a letter
// outside the table width.
var ErrLetterOutOfRange = errors.New("letter outside of table")

// Table is a DFA compiled into a dense jump table with one row per state
// and one column per letter. It implements the same transition function
// as the DFA it was compiled from and is safe for concurrent use.
type Table[L rangeset.Symbol] struct {
	width     int
	first     StateID
	next      []StateID
	symbols   []rx.Symbol
	accepting []bool
	hasEOF    bool
}

// Compile builds the jump table of d for letters 0 to width-1.
func Compile[L rangeset.Symbol](d *DFA[L], width int) (*Table[L], error) {
	if width <= 0 {
		return nil, fmt.Errorf("%w: width %d", ErrLetterOutOfRange, width)
	}
	t := &Table[L]{
		width:     width,
		first:     d.Start(),
		next:      make([]StateID, len(d.States)*width),
		symbols:   make([]rx.Symbol, len(d.States)),
		accepting: make([]bool, len(d.States)),
		hasEOF:    d.HandlesEOF(),
	}
	for i := range t.next {
		t.next[i] = Reject
	}
	for i, s := range d.States {
		row := t.next[i*width : (i+1)*width]
		for _, tr := range s.Transitions {
			if tr.Range.From < 0 || uint64(tr.Range.To) >= uint64(width) {
				return nil, fmt.Errorf("%w: state %v has transition on %v", ErrLetterOutOfRange, s.ID, tr.Range)
			}
			for l := int(tr.Range.From); l <= int(tr.Range.To); l++ {
				row[l] = tr.Target
			}
		}
		t.symbols[i], t.accepting[i] = d.Symbol(s.ID)
	}
	return t, nil
}

func (t *Table[L]) Start() StateID {
	return t.first
}

func (t *Table[L]) HandlesEOF() bool {
	return t.hasEOF
}

// Symbol returns the accept symbol of a state.
func (t *Table[L]) Symbol(state StateID) (rx.Symbol, bool) {
	row := int(state - t.first)
	if state < 0 || row < 0 || row >= len(t.symbols) {
		return 0, false
	}
	return t.symbols[row], t.accepting[row]
}

// Step implements Stepper. Letters outside the table reject.
func (t *Table[L]) Step(state StateID, letter L) (StateID, rx.Symbol, bool) {
	row := int(state - t.first)
	if state < 0 || row < 0 || row >= len(t.symbols) || letter < 0 || uint64(letter) >= uint64(t.width) {
		return Reject, 0, false
	}
	next := t.next[row*t.width+int(letter)]
	if next.IsSentinel() {
		return next, 0, false
	}
	i := int(next - t.first)
	return next, t.symbols[i], t.accepting[i]
}
