// Command rxlex tokenizes text with lexers compiled from YAML rules files
// and shows the automata behind them.
package main

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/alecthomas/kong"

	"github.com/spicery/rxlex/internal/logging"
	"github.com/spicery/rxlex/pkg/grammar"
)

const version = "0.1.0"

// errTokenize marks failures caused by the input rather than by the
// command line or the environment.
var errTokenize = errors.New("tokenization error")

type CLI struct {
	LogLevel string           `help:"Default log level" default:"warn" enum:"debug,info,warn,error" env:"RXLEX_LOG_LEVEL"`
	LogJSON  bool             `name:"log-json" help:"Write logs as JSON"`
	Trace    string           `help:"Per package log levels, like 'grammar,lexer:info'" env:"RXLEX_TRACE"`
	Version  kong.VersionFlag `short:"v" help:"Show version information"`

	Tokenize  tokenizeCmd  `cmd:"" default:"withargs" help:"Tokenize input, writing one JSON token object per line"`
	Dump      dumpCmd      `cmd:"" help:"Show the automaton compiled from the rules"`
	MakeRules makeRulesCmd `cmd:"" help:"Generate default rules YAML"`
}

// runContext carries the process environment into commands.
type runContext struct {
	stdin   io.Reader
	stdout  io.Writer
	stderr  io.Writer
	logging *logging.Logging
}

func (rc *runContext) logger(pkg string) *slog.Logger {
	return rc.logging.Logger(pkg)
}

// grammarFlags selects and compiles the rules.
type grammarFlags struct {
	Rules          string `placeholder:"FILE" help:"YAML rules file (defaults to the built-in rules)" env:"RXLEX_RULES"`
	ExtendDefaults bool   `help:"Apply the rules file on top of the built-in rules"`
	EOF            bool   `name:"eof" help:"Compile the lexer with an explicit end-of-input symbol"`
}

func (f *grammarFlags) compile(rc *runContext) (*grammar.Grammar, error) {
	rules := grammar.DefaultRules()
	if f.Rules != "" {
		loaded, err := grammar.LoadRulesFile(f.Rules)
		if err != nil {
			return nil, err
		}
		rules = loaded
		if f.ExtendDefaults {
			if rules, err = grammar.ApplyRulesToDefaults(loaded); err != nil {
				return nil, fmt.Errorf("applying rules: %w", err)
			}
		}
	}
	g, err := grammar.Compile(rules, grammar.WithEOF(f.EOF), grammar.WithLogger(rc.logger("grammar")))
	if err != nil {
		return nil, fmt.Errorf("compiling rules: %w", err)
	}
	return g, nil
}

// openOutput returns the named file, or fallback for an empty name.
func openOutput(name string, fallback io.Writer) (io.Writer, func() error, error) {
	if name == "" {
		return fallback, func() error { return nil }, nil
	}
	file, err := os.Create(name)
	if err != nil {
		return nil, nil, fmt.Errorf("creating output file '%s': %w", name, err)
	}
	return file, file.Close, nil
}

// closeOutput closes an output and reports the failure in err unless err
// already holds an error.
func closeOutput(close func() error, err *error) {
	if cerr := close(); cerr != nil && *err == nil {
		*err = fmt.Errorf("closing output: %w", cerr)
	}
}

func openInput(name string, fallback io.Reader) (io.Reader, func() error, error) {
	if name == "" {
		return fallback, func() error { return nil }, nil
	}
	file, err := os.Open(name)
	if err != nil {
		return nil, nil, fmt.Errorf("reading file '%s': %w", name, err)
	}
	return file, file.Close, nil
}

func run(args []string, stdin io.Reader, stdout, stderr io.Writer, exit func(int)) int {
	var cli CLI
	parser, err := kong.New(&cli,
		kong.Name("rxlex"),
		kong.Description("A regular expression lexer generator."),
		kong.Vars{"version": "rxlex version " + version},
		kong.Writers(stdout, stderr),
		kong.Exit(exit),
		kong.UsageOnError(),
	)
	if err != nil {
		fmt.Fprintf(stderr, "Error: %v\n", err)
		return 1
	}
	ctx, err := parser.Parse(args)
	if err != nil {
		parser.Errorf("%v", err)
		return 2
	}

	var level slog.Level
	if err := level.UnmarshalText([]byte(cli.LogLevel)); err != nil {
		fmt.Fprintf(stderr, "Error: %v\n", err)
		return 2
	}
	logs, err := logging.New(logging.Config{Writer: stderr, JSON: cli.LogJSON, Level: level, Trace: cli.Trace})
	if err != nil {
		fmt.Fprintf(stderr, "Error: %v\n", err)
		return 2
	}

	rc := &runContext{stdin: stdin, stdout: stdout, stderr: stderr, logging: logs}
	if err := ctx.Run(rc); err != nil {
		fmt.Fprintf(stderr, "Error: %v\n", err)
		return 1
	}
	return 0
}

func main() {
	os.Exit(run(os.Args[1:], os.Stdin, os.Stdout, os.Stderr, os.Exit))
}
