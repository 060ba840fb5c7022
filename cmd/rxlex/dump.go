package main

import (
	"bufio"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/spicery/rxlex/internal/logging"
	"github.com/spicery/rxlex/pkg/alphabet"
	"github.com/spicery/rxlex/pkg/automata"
	"github.com/spicery/rxlex/pkg/grammar"
	"github.com/spicery/rxlex/pkg/rangeset"
	"github.com/spicery/rxlex/pkg/syntax"
)

// maxLabelRanges bounds the number of rune ranges shown per label.
const maxLabelRanges = 6

type dumpCmd struct {
	grammarFlags

	Format string `short:"f" default:"text" enum:"text,dot,nfa" help:"Output format: text, dot (DFA) or nfa (NFA in dot)"`
	Output string `short:"o" placeholder:"FILE" help:"Output file (defaults to stdout)"`
}

func (c *dumpCmd) Run(rc *runContext) (err error) {
	g, err := c.compile(rc)
	if err != nil {
		return err
	}
	out, closeOut, err := openOutput(c.Output, rc.stdout)
	if err != nil {
		return err
	}
	defer closeOutput(closeOut, &err)

	rc.logger("automata").Debug("Dumping automaton", "format", c.Format, "states", len(g.DFA().States),
		"letters", logging.Expensive(func() any {
			return letterLabels(g.Alphabet())
		}))

	letters := letterFormatter(g.Alphabet())
	switch c.Format {
	case "dot":
		return g.DFA().WriteDOT(out, letters, g.Name)
	case "nfa":
		return g.NFA().WriteDOT(out, letters, g.Name)
	default:
		return writeText(out, g)
	}
}

// letterFormatter renders sets of letters as the runes they stand for.
func letterFormatter(a *alphabet.Alphabet[rune]) automata.LetterFormatter[alphabet.LetterID] {
	return func(set rangeset.Set[alphabet.LetterID]) string {
		return formatRunes(a.Symbols(set))
	}
}

func formatRunes(set rangeset.Set[rune]) string {
	ranges := set.Ranges()
	parts := make([]string, 0, min(len(ranges), maxLabelRanges)+1)
	for i, r := range ranges {
		if i == maxLabelRanges {
			parts = append(parts, fmt.Sprintf("… +%d", len(ranges)-i))
			break
		}
		if r.From == r.To {
			parts = append(parts, formatRune(r.From))
		} else {
			parts = append(parts, formatRune(r.From)+"-"+formatRune(r.To))
		}
	}
	return "[" + strings.Join(parts, " ") + "]"
}

func formatRune(r rune) string {
	if r == syntax.EOF {
		return grammar.EOFName
	}
	q := strconv.QuoteRune(r)
	return q[1 : len(q)-1]
}

// letterLabels renders every letter of a with the runes it stands for.
func letterLabels(a *alphabet.Alphabet[rune]) []string {
	labels := make([]string, a.Len())
	for i := range labels {
		id := alphabet.LetterID(i)
		labels[i] = fmt.Sprintf("L%d %s", id, formatRunes(a.Letters(id)))
	}
	return labels
}

// writeText lists the letters and states of the DFA of g.
func writeText(w io.Writer, g *grammar.Grammar) error {
	bw := bufio.NewWriter(w)
	a := g.Alphabet()
	dfa := g.DFA()

	fmt.Fprintf(bw, "letters: %d\n", a.Len())
	for _, label := range letterLabels(a) {
		fmt.Fprintf(bw, "  %s\n", label)
	}

	fmt.Fprintf(bw, "states: %d (start %d)\n", len(dfa.States), dfa.Start())
	for _, s := range dfa.States {
		fmt.Fprintf(bw, "  %d", s.ID)
		if sym, ok := dfa.Symbol(s.ID); ok {
			fmt.Fprintf(bw, " [%s]", g.Name(sym))
		}
		for i, t := range s.Transitions {
			sep := ","
			if i == 0 {
				sep = ":"
			}
			if t.Range.From == t.Range.To {
				fmt.Fprintf(bw, "%s L%d -> %v", sep, t.Range.From, t.Target)
			} else {
				fmt.Fprintf(bw, "%s L%d-L%d -> %v", sep, t.Range.From, t.Range.To, t.Target)
			}
		}
		fmt.Fprintln(bw)
	}
	return bw.Flush()
}
