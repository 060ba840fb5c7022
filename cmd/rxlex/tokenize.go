package main

import (
	"bufio"
	"encoding/json"
	"errors"
	"fmt"
	"io"

	"github.com/spicery/rxlex/pkg/grammar"
	"github.com/spicery/rxlex/pkg/lexer"
)

// chunkSize is the number of runes handed to the lexer at a time.
const chunkSize = 4096

type tokenizeCmd struct {
	grammarFlags

	Input   string `short:"i" placeholder:"FILE" help:"Input file (defaults to stdin)"`
	Output  string `short:"o" placeholder:"FILE" help:"Output file (defaults to stdout)"`
	Recover bool   `help:"Skip input that no rule matches instead of stopping"`
	Exit0   bool   `name:"exit0" help:"Exit with code 0 even on tokenization errors (suppresses error messages)"`
}

func (c *tokenizeCmd) Run(rc *runContext) (err error) {
	g, err := c.compile(rc)
	if err != nil {
		return err
	}

	in, closeIn, err := openInput(c.Input, rc.stdin)
	if err != nil {
		return err
	}
	defer closeIn()
	out, closeOut, err := openOutput(c.Output, rc.stdout)
	if err != nil {
		return err
	}
	defer closeOutput(closeOut, &err)

	err = c.tokenize(rc, g, in, out)
	if errors.Is(err, errTokenize) && c.Exit0 {
		return nil
	}
	return err
}

// tokenize streams in through the lexer and writes each token as a JSON
// line. Tokens found before an error are still written.
func (c *tokenizeCmd) tokenize(rc *runContext, g *grammar.Grammar, in io.Reader, out io.Writer) error {
	log := rc.logger("lexer")
	w := bufio.NewWriter(out)
	enc := json.NewEncoder(w)
	var writeErr error
	count := 0
	onToken := func(t *grammar.Token) {
		if writeErr != nil {
			return
		}
		writeErr = enc.Encode(t)
		count++
	}

	opts := []lexer.Option{lexer.WithLogger(log)}
	if c.Recover {
		opts = append(opts, lexer.WithErrorHandler(func(e *lexer.LexicalError) error {
			log.Warn("Skipping unmatched input", "offset", e.TokenOffset, "flushing", e.Flushing)
			return nil
		}))
	}
	l, err := g.NewLexer(onToken, opts...)
	if err != nil {
		return err
	}

	lexErr := pushAll(in, l)
	if lexErr == nil {
		if err := l.Terminate(); err != nil {
			lexErr = fmt.Errorf("%w: %w", errTokenize, err)
		}
	}
	if err := w.Flush(); err != nil && writeErr == nil {
		writeErr = err
	}
	if writeErr != nil {
		return fmt.Errorf("writing tokens: %w", writeErr)
	}
	log.Debug("Tokenized input", "tokens", count, "error", lexErr)
	return lexErr
}

// pushAll feeds in to l in chunks. Read failures are returned as they are;
// lexer failures are marked with errTokenize.
func pushAll(in io.Reader, l *grammar.Lexer) error {
	r := bufio.NewReader(in)
	buf := make([]rune, 0, chunkSize)
	flush := func() error {
		if len(buf) == 0 {
			return nil
		}
		err := l.PushRunes(buf...)
		buf = buf[:0]
		if err != nil {
			return fmt.Errorf("%w: %w", errTokenize, err)
		}
		return nil
	}
	for {
		ch, _, err := r.ReadRune()
		if err == io.EOF {
			break
		}
		if err != nil {
			return fmt.Errorf("reading input: %w", err)
		}
		buf = append(buf, ch)
		if len(buf) == cap(buf) {
			if err := flush(); err != nil {
				return err
			}
		}
	}
	return flush()
}
