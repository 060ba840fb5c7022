package automata

import (
	"fmt"
	"log/slog"

	"github.com/spicery/rxlex/pkg/rangeset"
)

type options struct {
	hasEOF   bool
	eof      uint64
	firstID  StateID
	universe any
	logger   *slog.Logger
}

// Option configures BuildNFA and BuildDFA.
type Option func(*options)

// WithEOF declares the end-of-input letter. Accepting DFA states get a
// transition on it to the Accept sentinel.
func WithEOF[L rangeset.Symbol](letter L) Option {
	return func(o *options) {
		o.hasEOF = true
		o.eof = uint64(letter)
	}
}

// WithFirstID offsets the dense ids of the built DFA, so that several
// automata can share one numbering space.
func WithFirstID(id StateID) Option {
	return func(o *options) {
		o.firstID = id
	}
}

// WithUniverse sets the symbols a negated Match node is complemented
// against when building an NFA. It defaults to every value of L.
func WithUniverse[L rangeset.Symbol](universe rangeset.Set[L]) Option {
	return func(o *options) {
		o.universe = universe
	}
}

// WithLogger sets the logger for build statistics.
func WithLogger(logger *slog.Logger) Option {
	return func(o *options) {
		o.logger = logger
	}
}

func newOptions(opts []Option) *options {
	o := &options{logger: slog.Default()}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

func universeOf[L rangeset.Symbol](o *options) rangeset.Set[L] {
	if o.universe == nil {
		return rangeset.All[L]()
	}
	u, ok := o.universe.(rangeset.Set[L])
	if !ok {
		panic(fmt.Sprintf("automata: universe of type %T does not match letters", o.universe))
	}
	return u
}

func eofOf[L rangeset.Symbol](o *options) (L, bool) {
	return L(o.eof), o.hasEOF
}
