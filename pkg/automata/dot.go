package automata

import (
	"fmt"
	"io"

	"github.com/spicery/rxlex/pkg/rangeset"
	"github.com/spicery/rxlex/pkg/rx"
)

// LetterFormatter renders a set of letters as an edge label.
type LetterFormatter[L rangeset.Symbol] func(rangeset.Set[L]) string

// SymbolFormatter renders an accept symbol.
type SymbolFormatter func(rx.Symbol) string

func defaultSymbol(s rx.Symbol) string {
	return fmt.Sprint(int32(s))
}

// WriteDOT renders the DFA in Graphviz dot syntax. Transitions to the same
// target are drawn as one edge.
func (d *DFA[L]) WriteDOT(w io.Writer, letters LetterFormatter[L], symbols SymbolFormatter) error {
	if letters == nil {
		letters = func(s rangeset.Set[L]) string { return s.String() }
	}
	if symbols == nil {
		symbols = defaultSymbol
	}
	ew := &errWriter{w: w}
	ew.printf("digraph DFA {\n\trankdir=LR;\n\tnode [shape=circle];\n")
	ew.printf("\tstart [shape=point];\n\tstart -> %d;\n", d.Start())
	for _, s := range d.States {
		if sym, ok := d.Symbols[s.ID]; ok {
			ew.printf("\t%d [shape=doublecircle, label=%q];\n", s.ID, fmt.Sprintf("%d\n%s", s.ID, symbols(sym)))
		}
	}
	acceptUsed := false
	for _, s := range d.States {
		var targets []StateID
		ranges := make(map[StateID][]rangeset.Range[L])
		for _, t := range s.Transitions {
			if _, ok := ranges[t.Target]; !ok {
				targets = append(targets, t.Target)
			}
			ranges[t.Target] = append(ranges[t.Target], t.Range)
		}
		for _, target := range targets {
			label := letters(rangeset.New(ranges[target]...))
			if target == Accept {
				acceptUsed = true
				ew.printf("\t%d -> accept [label=%q];\n", s.ID, label)
				continue
			}
			ew.printf("\t%d -> %d [label=%q];\n", s.ID, target, label)
		}
	}
	if acceptUsed {
		ew.printf("\taccept [shape=doublecircle, style=filled, label=\"EOF\"];\n")
	}
	ew.printf("}\n")
	return ew.err
}

// WriteDOT renders the NFA in Graphviz dot syntax. Epsilon transitions are
// dashed.
func (n *NFA[L]) WriteDOT(w io.Writer, letters LetterFormatter[L], symbols SymbolFormatter) error {
	if letters == nil {
		letters = func(s rangeset.Set[L]) string { return s.String() }
	}
	if symbols == nil {
		symbols = defaultSymbol
	}
	ew := &errWriter{w: w}
	ew.printf("digraph NFA {\n\trankdir=LR;\n\tnode [shape=circle];\n")
	ew.printf("\tstart [shape=point];\n\tstart -> %d;\n", n.Start)
	for _, s := range n.States {
		if s.Accept != nil {
			ew.printf("\t%d [shape=doublecircle, label=%q];\n", s.ID, fmt.Sprintf("%d\n%s/%d", s.ID, symbols(s.Accept.Symbol), s.Accept.Precedence))
		}
		for _, e := range s.Epsilon {
			ew.printf("\t%d -> %d [style=dashed];\n", s.ID, e)
		}
		for _, m := range s.Matches {
			ew.printf("\t%d -> %d [label=%q];\n", s.ID, m.Target, letters(m.Letters))
		}
	}
	ew.printf("}\n")
	return ew.err
}

type errWriter struct {
	w   io.Writer
	err error
}

func (ew *errWriter) printf(format string, args ...any) {
	if ew.err != nil {
		return
	}
	_, ew.err = fmt.Fprintf(ew.w, format, args...)
}
