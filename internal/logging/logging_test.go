package logging

import (
	"bytes"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTraceOverrides(t *testing.T) {
	var buf bytes.Buffer
	l, err := New(Config{Writer: &buf, Level: slog.LevelInfo, Trace: "automata, lexer:WARN"})
	require.NoError(t, err)

	assert.Equal(t, slog.LevelDebug, l.Level("automata"))
	assert.Equal(t, slog.LevelWarn, l.Level("lexer"))
	assert.Equal(t, slog.LevelInfo, l.Level("grammar"))

	l.Logger("automata").Debug("built", "states", 3)
	l.Logger("lexer").Info("dropped")
	l.Logger("grammar").Debug("dropped")
	l.Logger("grammar").Info("kept")

	out := buf.String()
	assert.Contains(t, out, "msg=built pkg=automata states=3")
	assert.Contains(t, out, "msg=kept pkg=grammar")
	assert.NotContains(t, out, "dropped")
}

func TestLevelChangeAffectsExistingLoggers(t *testing.T) {
	var buf bytes.Buffer
	l, err := New(Config{Writer: &buf, JSON: true, Level: slog.LevelInfo})
	require.NoError(t, err)

	logger := l.Logger("alphabet").With("k", "v")
	logger.Debug("hidden")
	assert.Empty(t, buf.String())

	l.SetPackageLevel("alphabet", slog.LevelDebug)
	logger.Debug("shown")
	assert.Contains(t, buf.String(), `"msg":"shown"`)
	assert.Contains(t, buf.String(), `"pkg":"alphabet"`)
}

func TestBadTraceLevel(t *testing.T) {
	_, err := New(Config{Writer: &bytes.Buffer{}, Trace: "lexer:LOUD"})
	assert.ErrorContains(t, err, TraceEnv)
}

func TestExpensiveIsLazy(t *testing.T) {
	var buf bytes.Buffer
	l, err := New(Config{Writer: &buf, Level: slog.LevelInfo})
	require.NoError(t, err)

	called := false
	l.Logger("x").Debug("skip", "v", Expensive(func() any {
		called = true
		return 1
	}))
	assert.False(t, called)

	l.Logger("x").Info("run", "v", Expensive(func() any { return 42 }))
	assert.Contains(t, buf.String(), "v=42")
}
