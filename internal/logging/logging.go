// Package logging configures the slog loggers of the rxlex command.
//
// Every package gets its own logger with its own level. The RXLEX_TRACE
// environment variable lowers packages to debug level, or to any other
// level given after a colon:
//
//	RXLEX_TRACE="automata,lexer"          # both at DEBUG level
//	RXLEX_TRACE="automata:WARN,lexer:DEBUG"
package logging

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"sync"
)

// TraceEnv names the environment variable holding level overrides.
const TraceEnv = "RXLEX_TRACE"

// Config describes the log output.
type Config struct {
	Writer io.Writer
	JSON   bool
	// Level is the default level of packages without an override.
	Level slog.Level
	// Trace holds overrides in the RXLEX_TRACE format.
	Trace string
}

// Logging hands out per-package loggers sharing one output.
type Logging struct {
	handler slog.Handler

	mut      sync.RWMutex
	defLevel slog.Level
	levels   map[string]*slog.LevelVar
}

// New sets up logging as described by cfg.
func New(cfg Config) (*Logging, error) {
	opts := &slog.HandlerOptions{Level: slog.LevelDebug}
	var handler slog.Handler
	if cfg.JSON {
		handler = slog.NewJSONHandler(cfg.Writer, opts)
	} else {
		handler = slog.NewTextHandler(cfg.Writer, opts)
	}
	l := &Logging{
		handler:  handler,
		defLevel: cfg.Level,
		levels:   make(map[string]*slog.LevelVar),
	}
	if err := l.SetLevelOverrides(cfg.Trace); err != nil {
		return nil, err
	}
	return l, nil
}

// SetLevelOverrides applies overrides in the RXLEX_TRACE format.
func (l *Logging) SetLevelOverrides(trace string) error {
	for _, pkg := range strings.Split(trace, ",") {
		pkg = strings.TrimSpace(pkg)
		if pkg == "" {
			continue
		}
		level := slog.LevelDebug
		if cutPkg, levelStr, ok := strings.Cut(pkg, ":"); ok {
			pkg = cutPkg
			if err := level.UnmarshalText([]byte(levelStr)); err != nil {
				return fmt.Errorf("bad log level %q for package %q in %s: %w", levelStr, pkg, TraceEnv, err)
			}
		}
		l.SetPackageLevel(pkg, level)
	}
	return nil
}

// SetPackageLevel changes the level of the logger of pkg, including
// loggers already handed out.
func (l *Logging) SetPackageLevel(pkg string, level slog.Level) {
	l.levelVar(pkg).Set(level)
}

// Level returns the current level of pkg.
func (l *Logging) Level(pkg string) slog.Level {
	return l.levelVar(pkg).Level()
}

func (l *Logging) levelVar(pkg string) *slog.LevelVar {
	l.mut.RLock()
	v, ok := l.levels[pkg]
	l.mut.RUnlock()
	if ok {
		return v
	}

	l.mut.Lock()
	defer l.mut.Unlock()
	if v, ok := l.levels[pkg]; ok {
		return v
	}
	v = new(slog.LevelVar)
	v.Set(l.defLevel)
	l.levels[pkg] = v
	return v
}

// Logger returns the logger of pkg.
func (l *Logging) Logger(pkg string) *slog.Logger {
	h := &levelHandler{
		Handler: l.handler.WithAttrs([]slog.Attr{slog.String("pkg", pkg)}),
		level:   l.levelVar(pkg),
	}
	return slog.New(h)
}

// levelHandler filters records below a per-package level.
type levelHandler struct {
	slog.Handler
	level slog.Leveler
}

func (h *levelHandler) Enabled(ctx context.Context, level slog.Level) bool {
	return level >= h.level.Level() && h.Handler.Enabled(ctx, level)
}

func (h *levelHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	return &levelHandler{Handler: h.Handler.WithAttrs(attrs), level: h.level}
}

func (h *levelHandler) WithGroup(name string) slog.Handler {
	return &levelHandler{Handler: h.Handler.WithGroup(name), level: h.level}
}

// Expensive wraps a log value that is expensive to compute and should only
// be computed if the log line is actually emitted.
func Expensive(fn func() any) slog.LogValuer {
	return expensive{fn}
}

type expensive struct {
	fn func() any
}

func (e expensive) LogValue() slog.Value {
	return slog.AnyValue(e.fn())
}
