package grammar

import (
	"slices"

	"github.com/spicery/rxlex/pkg/lexer"
	"github.com/spicery/rxlex/pkg/rx"
	"github.com/spicery/rxlex/pkg/syntax"
)

// Lexer tokenizes text with a Grammar and tracks line and column
// positions.
type Lexer struct {
	grammar *Grammar
	inner   *lexer.Lexer[rune]
	onToken func(*Token)
	lines   lines
	offset  int64
	newline bool
	eofSent bool
}

// NewLexer returns a lexer delivering tokens to onToken. Tokens of ignored
// rules are dropped. Options are passed to the underlying lexer.
func (g *Grammar) NewLexer(onToken func(*Token), opts ...lexer.Option) (*Lexer, error) {
	l := &Lexer{grammar: g, onToken: onToken}
	opts = append([]lexer.Option{lexer.WithLogger(g.logger)}, opts...)
	inner, err := lexer.New(g.Machine(), l.emit, opts...)
	if err != nil {
		return nil, err
	}
	l.inner = inner
	return l, nil
}

func (l *Lexer) emit(sym rx.Symbol, span []rune, offset int64) {
	ignored := slices.Contains(l.grammar.ignore, sym)
	if ignored {
		if slices.Contains(span, '\n') {
			l.newline = true
		}
		return
	}
	if l.onToken == nil {
		return
	}
	t := &Token{
		Text:   string(span),
		Span:   l.lines.span(offset, len(span)),
		Name:   l.grammar.Name(sym),
		Symbol: sym,
		Offset: offset,
	}
	if l.newline {
		lnBefore := true
		t.LnBefore = &lnBefore
		l.newline = false
	}
	l.onToken(t)
}

// Push appends text to the input.
func (l *Lexer) Push(text string) error {
	return l.PushRunes([]rune(text)...)
}

// PushRunes appends runes to the input.
func (l *Lexer) PushRunes(runes ...rune) error {
	l.lines.observe(l.offset, runes)
	l.offset += int64(len(runes))
	return l.inner.Push(runes...)
}

// Terminate ends the input, pushing syntax.EOF first when the grammar
// expects it.
func (l *Lexer) Terminate() error {
	if l.grammar.HandlesEOF() && !l.eofSent {
		l.eofSent = true
		if err := l.inner.Push(syntax.EOF); err != nil {
			return err
		}
	}
	return l.inner.Terminate()
}

// Tokenize returns the tokens of input, ending with the EOF token.
func (g *Grammar) Tokenize(input string, opts ...lexer.Option) ([]*Token, error) {
	var tokens []*Token
	l, err := g.NewLexer(func(t *Token) { tokens = append(tokens, t) }, opts...)
	if err != nil {
		return nil, err
	}
	if err := l.Push(input); err != nil {
		return tokens, err
	}
	if err := l.Terminate(); err != nil {
		return tokens, err
	}
	return tokens, nil
}
