package lexer

import (
	"errors"
	"fmt"
)

var (
	// ErrLexical is wrapped by every LexicalError.
	ErrLexical = errors.New("lexical error")
	// ErrEmptyToken is returned by New when the start state accepts, which
	// would make the lexer emit empty tokens forever.
	ErrEmptyToken = errors.New("start state accepts the empty token")
	// ErrTerminated is returned when input is pushed after the end of
	// input was reached.
	ErrTerminated = errors.New("lexer already terminated")
)

// LexicalError reports input that no rule matches.
type LexicalError struct {
	// Offset is the offset of the rejected input, or the end of input
	// when Flushing is set.
	Offset int64
	// TokenOffset is where the unmatched token starts.
	TokenOffset int64
	// Flushing is set for errors raised by Terminate.
	Flushing bool
}

func (e *LexicalError) Error() string {
	if e.Flushing {
		return fmt.Sprintf("%v: unterminated token at offset %d", ErrLexical, e.TokenOffset)
	}
	return fmt.Sprintf("%v at offset %d", ErrLexical, e.Offset)
}

func (e *LexicalError) Unwrap() error {
	return ErrLexical
}

// ErrorHandler decides how to proceed after a lexical error. Returning nil
// discards the unmatched input and resumes scanning after it; any other
// error stops the lexer and is returned to the caller.
type ErrorHandler func(err *LexicalError) error
