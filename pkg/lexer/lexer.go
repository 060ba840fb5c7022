// Package lexer runs a deterministic automaton as a streaming longest
// match tokenizer.
package lexer

import (
	"fmt"
	"log/slog"

	"github.com/spicery/rxlex/pkg/automata"
	"github.com/spicery/rxlex/pkg/rx"
)

// TokenFunc receives every recognized token: its symbol, its inputs and
// the offset of its first input. The span must not be modified. When the
// input ends cleanly it is called once more with rx.EOF and an empty span.
type TokenFunc[I any] func(symbol rx.Symbol, span []I, offset int64)

type config struct {
	start       automata.StateID
	hasStart    bool
	handleEOF   *bool
	ignore      map[rx.Symbol]bool
	onError     ErrorHandler
	logger      *slog.Logger
	segmentSize int
}

// Option configures a Lexer.
type Option func(*config)

// WithStartState starts every token in state instead of the start state of
// the machine.
func WithStartState(state automata.StateID) Option {
	return func(c *config) {
		c.start, c.hasStart = state, true
	}
}

// WithEOFHandling overrides whether the input is expected to end with the
// EOF letter. It defaults to the machine's HandlesEOF.
func WithEOFHandling(enabled bool) Option {
	return func(c *config) {
		c.handleEOF = &enabled
	}
}

// WithIgnore drops tokens of the given symbols instead of passing them to
// the TokenFunc. Ignoring rx.EOF suppresses the end notification.
func WithIgnore(symbols ...rx.Symbol) Option {
	return func(c *config) {
		for _, s := range symbols {
			c.ignore[s] = true
		}
	}
}

// WithErrorHandler sets the handler consulted on lexical errors. Without a
// handler every lexical error is fatal.
func WithErrorHandler(h ErrorHandler) Option {
	return func(c *config) {
		c.onError = h
	}
}

func WithLogger(logger *slog.Logger) Option {
	return func(c *config) {
		c.logger = logger
	}
}

// WithSegmentSize sets the number of inputs per buffer segment.
func WithSegmentSize(n int) Option {
	return func(c *config) {
		c.segmentSize = n
	}
}

// Lexer splits pushed input into tokens. It always prefers the longest
// token; after a token is emitted, scanning resumes right after its last
// input. A Lexer must not be used concurrently. Once it returns an error,
// every further call returns the same error.
type Lexer[I any] struct {
	machine   automata.Machine[I]
	onToken   TokenFunc[I]
	start     automata.StateID
	handleEOF bool
	ignore    map[rx.Symbol]bool
	onError   ErrorHandler
	logger    *slog.Logger

	buf        *buffer[I]
	state      automata.StateID
	tokenStart position[I]
	tokenEnd   position[I]
	cursor     position[I]
	pending    bool
	symbol     rx.Symbol
	done       bool
	err        error
}

// New returns a lexer driving machine.
func New[I any](machine automata.Machine[I], onToken TokenFunc[I], opts ...Option) (*Lexer[I], error) {
	c := &config{ignore: make(map[rx.Symbol]bool), logger: slog.Default()}
	for _, opt := range opts {
		opt(c)
	}
	if !c.hasStart {
		c.start = machine.Start()
	}
	if c.start.IsSentinel() {
		return nil, fmt.Errorf("invalid start state %v", c.start)
	}
	if sym, ok := machine.Symbol(c.start); ok {
		return nil, fmt.Errorf("%w: symbol %d", ErrEmptyToken, sym)
	}
	if onToken == nil {
		onToken = func(rx.Symbol, []I, int64) {}
	}
	l := &Lexer[I]{
		machine:   machine,
		onToken:   onToken,
		start:     c.start,
		handleEOF: machine.HandlesEOF(),
		ignore:    c.ignore,
		onError:   c.onError,
		logger:    c.logger,
		buf:       newBuffer[I](c.segmentSize),
	}
	if c.handleEOF != nil {
		l.handleEOF = *c.handleEOF
	}
	l.reset(l.buf.head())
	return l, nil
}

// Offset returns the offset of the next input to be scanned.
func (l *Lexer[I]) Offset() int64 {
	return l.cursor.offset()
}

// Push appends inputs and emits every token that is complete.
func (l *Lexer[I]) Push(inputs ...I) error {
	if l.err != nil {
		return l.err
	}
	if len(inputs) == 0 {
		return nil
	}
	if l.done {
		l.err = ErrTerminated
		return l.err
	}
	l.buf.write(inputs)
	return l.process()
}

// Terminate signals the end of the input. Without EOF handling the pending
// token is emitted and the remaining input scanned until everything is
// consumed; with EOF handling the EOF letter must already have been
// pushed and accepted. On success the TokenFunc receives rx.EOF.
func (l *Lexer[I]) Terminate() error {
	if l.err != nil {
		return l.err
	}
	if l.done {
		return nil
	}
	if l.handleEOF {
		end := l.buf.head()
		if err := l.lexicalError(true, end); err != nil {
			return err
		}
		l.finish(end, end.offset())
		return nil
	}
	for l.pending {
		l.flush()
		if err := l.process(); err != nil {
			return err
		}
	}
	if l.cursor.offset() != l.tokenStart.offset() {
		if err := l.lexicalError(true, l.cursor); err != nil {
			return err
		}
	}
	l.finish(l.cursor, l.cursor.offset())
	return nil
}

func (l *Lexer[I]) process() error {
	for !l.done {
		input, next, ok := l.cursor.read()
		if !ok {
			return nil
		}
		state, sym, accepting, err := l.machine.Step(l.state, input)
		if err != nil {
			l.err = fmt.Errorf("offset %d: %w", l.cursor.offset(), err)
			return l.err
		}
		switch {
		case !state.IsSentinel():
			l.state = state
			l.cursor = next
			if accepting {
				l.tokenEnd = next
				l.symbol = sym
				l.pending = true
			}
		case !l.pending:
			if err := l.lexicalError(false, next); err != nil {
				return err
			}
		case state == automata.Accept:
			// The EOF letter directly follows the pending token.
			l.flush()
			l.finish(next, l.cursor.offset())
		default:
			l.flush()
		}
	}
	if _, _, ok := l.cursor.read(); ok {
		l.err = fmt.Errorf("offset %d: %w", l.cursor.offset(), ErrTerminated)
		return l.err
	}
	return nil
}

// flush emits the pending token and restarts scanning after it.
func (l *Lexer[I]) flush() {
	if !l.ignore[l.symbol] {
		l.onToken(l.symbol, span(l.tokenStart, l.tokenEnd), l.tokenStart.offset())
	}
	l.reset(l.tokenEnd)
}

func (l *Lexer[I]) reset(p position[I]) {
	l.tokenStart, l.tokenEnd, l.cursor = p, p, p
	l.pending = false
	l.state = l.start
}

// finish consumes the input up to p and emits the end notification.
func (l *Lexer[I]) finish(p position[I], offset int64) {
	l.reset(p)
	l.state = automata.Accept
	l.done = true
	if !l.ignore[rx.EOF] {
		l.onToken(rx.EOF, nil, offset)
	}
}

// lexicalError reports the input from the token start up to the cursor as
// unmatched. If the error handler recovers, scanning resumes at resume.
func (l *Lexer[I]) lexicalError(flushing bool, resume position[I]) error {
	lexErr := &LexicalError{Offset: l.cursor.offset(), TokenOffset: l.tokenStart.offset(), Flushing: flushing}
	if l.onError == nil {
		l.err = lexErr
		return l.err
	}
	if err := l.onError(lexErr); err != nil {
		l.err = err
		return l.err
	}
	l.logger.Debug("Recovered from lexical error", "offset", lexErr.Offset, "tokenOffset", lexErr.TokenOffset, "flushing", flushing)
	l.reset(resume)
	return nil
}
