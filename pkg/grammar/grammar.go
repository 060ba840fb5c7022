// Package grammar compiles named token rules into a reusable lexer.
package grammar

import (
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/spicery/rxlex/pkg/alphabet"
	"github.com/spicery/rxlex/pkg/automata"
	"github.com/spicery/rxlex/pkg/rangeset"
	"github.com/spicery/rxlex/pkg/rx"
	"github.com/spicery/rxlex/pkg/syntax"
)

var (
	ErrNoRules       = errors.New("no rules defined")
	ErrDuplicateRule = errors.New("duplicate rule")
)

// Option configures Compile.
type Option func(*config)

type config struct {
	eof    bool
	logger *slog.Logger
}

// WithEOF makes the compiled lexers expect syntax.EOF at the end of the
// input. The grammar Lexer pushes it on Terminate.
func WithEOF(enabled bool) Option {
	return func(c *config) {
		c.eof = enabled
	}
}

func WithLogger(logger *slog.Logger) Option {
	return func(c *config) {
		c.logger = logger
	}
}

// Grammar is a compiled set of rules. It is immutable and may be shared
// by any number of lexers.
type Grammar struct {
	rules      []Rule
	symbols    map[string]rx.Symbol
	ignore     []rx.Symbol
	alphabet   *alphabet.Alphabet[rune]
	classifier *alphabet.Classifier[rune]
	nfa        *automata.NFA[alphabet.LetterID]
	dfa        *automata.DFA[alphabet.LetterID]
	table      *automata.Table[alphabet.LetterID]
	logger     *slog.Logger
}

// Compile builds the automaton recognizing the rules of rf. Rule i is
// reported with symbol i+1.
func Compile(rf *RulesFile, opts ...Option) (*Grammar, error) {
	c := &config{logger: slog.Default()}
	for _, opt := range opts {
		opt(c)
	}
	if len(rf.Rules) == 0 {
		return nil, ErrNoRules
	}

	parseOpts, err := parseOptions(rf)
	if err != nil {
		return nil, err
	}
	mapper := syntax.Mapper{Normalize: rf.Options.Normalize}

	g := &Grammar{
		rules:   rf.Rules,
		symbols: make(map[string]rx.Symbol, len(rf.Rules)),
		logger:  c.logger,
	}
	b := rx.NewBuilder[rune]()
	accepts := make([]*rx.Node[rune], len(rf.Rules))
	for i, rule := range rf.Rules {
		sym := rx.Symbol(i + 1)
		if rule.Name == "" {
			return nil, fmt.Errorf("rule %d has no name", sym)
		}
		if rule.Name == EOFName {
			return nil, fmt.Errorf("rule name %q is reserved", EOFName)
		}
		if _, ok := g.symbols[rule.Name]; ok {
			return nil, fmt.Errorf("%w: %q", ErrDuplicateRule, rule.Name)
		}
		g.symbols[rule.Name] = sym
		if rule.Ignore {
			g.ignore = append(g.ignore, sym)
		}

		re, err := syntax.Parse(rule.Pattern, parseOpts)
		if err != nil {
			return nil, fmt.Errorf("rule %q: %w", rule.Name, err)
		}
		n, err := mapper.Build(b, re, rule.caseSensitive(rf.Options))
		if err != nil {
			return nil, fmt.Errorf("rule %q: %w", rule.Name, err)
		}
		n = b.Optimize(n)
		if rule.Precedence != nil {
			accepts[i] = b.AcceptWithPrecedence(n, sym, *rule.Precedence)
		} else {
			accepts[i] = b.Accept(n, sym)
		}
	}

	cfg := syntax.AlphabetConfig(c.eof)
	cfg.Logger = c.logger
	a, letters, err := alphabet.Compute(b.Alt(accepts...), cfg)
	if err != nil {
		return nil, err
	}
	g.alphabet = a
	g.classifier = a.NewClassifier(nil)

	automataOpts := []automata.Option{automata.WithLogger(c.logger)}
	if c.eof {
		automataOpts = append(automataOpts, automata.WithEOF(alphabet.EOFLetter))
	}
	g.nfa = automata.BuildNFA(letters, automataOpts...)
	if g.dfa, err = automata.BuildDFA(g.nfa, automataOpts...); err != nil {
		var ambiguous *automata.AmbiguityError
		if errors.As(err, &ambiguous) {
			names := make([]string, len(ambiguous.Symbols))
			for i, s := range ambiguous.Symbols {
				names[i] = g.Name(s)
			}
			return nil, fmt.Errorf("rules %s: %w", strings.Join(names, ", "), err)
		}
		return nil, err
	}
	if g.table, err = automata.Compile(g.dfa, a.Len()); err != nil {
		return nil, err
	}
	c.logger.Debug("Compiled grammar", "rules", len(rf.Rules), "letters", a.Len(), "states", len(g.dfa.States))
	return g, nil
}

func parseOptions(rf *RulesFile) (syntax.Options, error) {
	opts := syntax.Options{LiteralSpace: rf.Options.LiteralSpace}
	switch strings.ToLower(rf.Options.Classes) {
	case "", "unicode":
		opts.Classes = syntax.UnicodeClasses
	case "ecma":
		opts.Classes = syntax.ECMAClasses
	default:
		return opts, fmt.Errorf("unknown character classes %q", rf.Options.Classes)
	}

	opts.Sets = make(map[string]rangeset.Set[rune], len(rf.Sets))
	for name, pattern := range rf.Sets {
		re, err := syntax.Parse(pattern, syntax.Options{Classes: opts.Classes})
		if err != nil {
			return opts, fmt.Errorf("set %q: %w", name, err)
		}
		switch {
		case re.Op == syntax.OpSet && re.Negate:
			opts.Sets[name] = syntax.ValidRunes().Subtract(re.Set)
		case re.Op == syntax.OpSet:
			opts.Sets[name] = re.Set
		case re.Op == syntax.OpGrapheme && len([]rune(re.Text)) == 1:
			opts.Sets[name] = rangeset.Of([]rune(re.Text)[0])
		default:
			return opts, fmt.Errorf("set %q: pattern %q is not a single character class", name, pattern)
		}
	}
	return opts, nil
}

// Name returns the rule name of sym, or EOFName.
func (g *Grammar) Name(sym rx.Symbol) string {
	if sym == rx.EOF {
		return EOFName
	}
	if sym < 1 || int(sym) > len(g.rules) {
		return fmt.Sprintf("#%d", sym)
	}
	return g.rules[sym-1].Name
}

// Symbol returns the symbol of the rule called name.
func (g *Grammar) Symbol(name string) (rx.Symbol, bool) {
	sym, ok := g.symbols[name]
	return sym, ok
}

// Rules returns the rules the grammar was compiled from.
func (g *Grammar) Rules() []Rule {
	return g.rules
}

func (g *Grammar) Alphabet() *alphabet.Alphabet[rune] {
	return g.alphabet
}

func (g *Grammar) NFA() *automata.NFA[alphabet.LetterID] {
	return g.nfa
}

func (g *Grammar) DFA() *automata.DFA[alphabet.LetterID] {
	return g.dfa
}

// Machine returns the table-driven automaton over runes.
func (g *Grammar) Machine() automata.Machine[rune] {
	return automata.Classified[rune](g.table, g.classifier.Classify)
}

// HandlesEOF reports whether lexers expect syntax.EOF at the end.
func (g *Grammar) HandlesEOF() bool {
	return g.dfa.HandlesEOF()
}
