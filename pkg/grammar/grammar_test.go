package grammar

import (
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spicery/rxlex/pkg/automata"
	"github.com/spicery/rxlex/pkg/lexer"
	"github.com/spicery/rxlex/pkg/rx"
	"github.com/spicery/rxlex/pkg/syntax"
)

func defaultGrammar(t *testing.T) *Grammar {
	t.Helper()
	g, err := Compile(DefaultRules())
	require.NoError(t, err)
	return g
}

func TestBasicTokenisation(t *testing.T) {
	g := defaultGrammar(t)
	tests := []struct {
		name     string
		input    string
		expected int // expected number of tokens, EOF included
	}{
		{"Empty input", "", 1},
		{"Single identifier", "hello", 2},
		{"Multiple identifiers", "hello world", 3},
		{"Number", "42", 2},
		{"String", `"hello"`, 2},
		{"Operator", "+", 2},
		{"Delimiter", "(", 2},
		{"Complex expression", "def foo(x) x + 1 end", 10},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tokens, err := g.Tokenize(tt.input)

			if err != nil {
				t.Errorf("Unexpected error: %v", err)
				return
			}

			if len(tokens) != tt.expected {
				t.Errorf("Expected %d tokens, got %d", tt.expected, len(tokens))
			}
		})
	}
}

func TestTokenTypes(t *testing.T) {
	g := defaultGrammar(t)
	tests := []struct {
		input    string
		expected string
	}{
		{"hello_1", "identifier"},
		{"1_000.5e-3", "decimal"},
		{"0x1F", "radix"},
		{"2r1010", "radix"},
		{`"quote\"test"`, "string"},
		{`'single'`, "string"},
		{"<=>", "operator"},
		{"[", "open"},
		{"}", "close"},
		{";", "mark"},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			tokens, err := g.Tokenize(tt.input)
			require.NoError(t, err)
			require.Len(t, tokens, 2)
			assert.Equal(t, tt.input, tokens[0].Text)
			assert.Equal(t, tt.expected, tokens[0].Name)
			assert.Equal(t, EOFName, tokens[1].Name)
		})
	}
}

func TestCommentsAreIgnored(t *testing.T) {
	input := `hello ### this is a comment
world`
	tokens, err := defaultGrammar(t).Tokenize(input)

	if err != nil {
		t.Errorf("Unexpected error: %v", err)
		return
	}

	if len(tokens) != 3 {
		t.Errorf("Expected 3 tokens (ignoring comment), got %d", len(tokens))
		return
	}

	if tokens[0].Text != "hello" {
		t.Errorf("Expected first token to be 'hello', got '%s'", tokens[0].Text)
	}

	if tokens[1].Text != "world" {
		t.Errorf("Expected second token to be 'world', got '%s'", tokens[1].Text)
	}

	if tokens[1].LnBefore == nil || !*tokens[1].LnBefore {
		t.Errorf("Expected 'world' to be preceded by a newline")
	}
}

func TestPositions(t *testing.T) {
	tokens, err := defaultGrammar(t).Tokenize("ab\n  cd")
	require.NoError(t, err)
	require.Len(t, tokens, 3)

	assert.Equal(t, Span{Start: Position{1, 1}, End: Position{1, 3}}, tokens[0].Span)
	assert.Nil(t, tokens[0].LnBefore)
	assert.Equal(t, Span{Start: Position{2, 3}, End: Position{2, 5}}, tokens[1].Span)
	assert.Equal(t, int64(5), tokens[1].Offset)
	assert.Equal(t, Span{Start: Position{2, 5}, End: Position{2, 5}}, tokens[2].Span)
}

func TestJSONSerialization(t *testing.T) {
	input := `def hello(name) "Hello, " + name end`
	tokens, err := defaultGrammar(t).Tokenize(input)

	if err != nil {
		t.Errorf("Unexpected error: %v", err)
		return
	}

	for i, token := range tokens {
		jsonBytes, err := json.Marshal(token)
		if err != nil {
			t.Errorf("Failed to serialize token %d to JSON: %v", i, err)
			continue
		}

		var deserializedToken Token
		err = json.Unmarshal(jsonBytes, &deserializedToken)
		if err != nil {
			t.Errorf("Failed to deserialize token %d from JSON: %v", i, err)
			continue
		}

		if deserializedToken.Text != token.Text {
			t.Errorf("Token %d text mismatch after JSON round-trip: expected '%s', got '%s'", i, token.Text, deserializedToken.Text)
		}

		if deserializedToken.Span != token.Span {
			t.Errorf("Token %d span mismatch after JSON round-trip: expected %v, got %v", i, token.Span, deserializedToken.Span)
		}
	}

	data, err := json.Marshal(tokens[0])
	require.NoError(t, err)
	assert.JSONEq(t, `{"text":"def","span":[1,1,1,4],"type":"identifier","symbol":3,"offset":0}`, string(data))
}

func TestLexicalError(t *testing.T) {
	tokens, err := defaultGrammar(t).Tokenize("a @ b")
	var lexErr *lexer.LexicalError
	require.True(t, errors.As(err, &lexErr))
	assert.Equal(t, int64(2), lexErr.Offset)
	require.Len(t, tokens, 1)
	assert.Equal(t, "a", tokens[0].Text)
}

func TestErrorRecovery(t *testing.T) {
	var skipped []int64
	handler := func(err *lexer.LexicalError) error {
		skipped = append(skipped, err.Offset)
		return nil
	}
	tokens, err := defaultGrammar(t).Tokenize("a @ b", lexer.WithErrorHandler(handler))
	require.NoError(t, err)
	assert.Equal(t, []int64{2}, skipped)
	require.Len(t, tokens, 3)
	assert.Equal(t, "b", tokens[1].Text)
}

func TestEOFMode(t *testing.T) {
	g, err := Compile(DefaultRules(), WithEOF(true))
	require.NoError(t, err)
	assert.True(t, g.HandlesEOF())

	tokens, err := g.Tokenize("a b")
	require.NoError(t, err)
	require.Len(t, tokens, 3)
	assert.Equal(t, rx.EOF, tokens[2].Symbol)
	assert.Equal(t, int64(3), tokens[2].Offset)

	var got []string
	l, err := g.NewLexer(func(t *Token) { got = append(got, t.Name) })
	require.NoError(t, err)
	require.NoError(t, l.Push("x "))
	require.NoError(t, l.Push("42"))
	require.NoError(t, l.Terminate())
	require.NoError(t, l.Terminate())
	assert.Equal(t, []string{"identifier", "decimal", EOFName}, got)
}

func boolPtr(b bool) *bool { return &b }
func intPtr(i int) *int    { return &i }

func TestCaseInsensitiveRule(t *testing.T) {
	rf := &RulesFile{Rules: []Rule{
		{Name: "space", Pattern: `\s+`, Ignore: true},
		{Name: "select", Pattern: "select", CaseInsensitive: boolPtr(true)},
		{Name: "word", Pattern: "[a-zA-Z]+"},
	}}
	g, err := Compile(rf)
	require.NoError(t, err)

	tokens, err := g.Tokenize("SeLeCt selects")
	require.NoError(t, err)
	require.Len(t, tokens, 3)
	assert.Equal(t, "select", tokens[0].Name)
	assert.Equal(t, "word", tokens[1].Name)
}

func TestAmbiguousRules(t *testing.T) {
	rf := &RulesFile{Rules: []Rule{
		{Name: "a", Pattern: "a"},
		{Name: "ab", Pattern: "[ab]"},
	}}
	_, err := Compile(rf)
	require.Error(t, err)
	assert.True(t, errors.Is(err, automata.ErrAmbiguousAccept))
	assert.Contains(t, err.Error(), "rules a, ab")

	rf.Rules[1].Precedence = intPtr(10)
	g, err := Compile(rf)
	require.NoError(t, err)
	tokens, err := g.Tokenize("ab")
	require.NoError(t, err)
	assert.Equal(t, "ab", tokens[0].Name)
	assert.Equal(t, "ab", tokens[1].Name)
}

func TestCompileErrors(t *testing.T) {
	_, err := Compile(&RulesFile{})
	assert.True(t, errors.Is(err, ErrNoRules))

	_, err = Compile(&RulesFile{Rules: []Rule{{Name: "x", Pattern: "a"}, {Name: "x", Pattern: "b"}}})
	assert.True(t, errors.Is(err, ErrDuplicateRule))

	_, err = Compile(&RulesFile{Rules: []Rule{{Name: "x", Pattern: "(a"}}})
	var synErr *syntax.Error
	assert.True(t, errors.As(err, &synErr))

	_, err = Compile(&RulesFile{Sets: map[string]string{"Bad": "ab"}, Rules: []Rule{{Name: "x", Pattern: "a"}}})
	assert.Error(t, err)
}

func TestEmptyTokenRule(t *testing.T) {
	g, err := Compile(&RulesFile{Rules: []Rule{{Name: "x", Pattern: "a*"}}})
	require.NoError(t, err)
	_, err = g.NewLexer(nil)
	assert.True(t, errors.Is(err, lexer.ErrEmptyToken))
}

func TestNamedSets(t *testing.T) {
	rf := &RulesFile{
		Options: RulesOptions{Classes: "ecma"},
		Sets:    map[string]string{"Vowel": "[aeiou]", "Other": `[^aeiou\s]`},
		Rules: []Rule{
			{Name: "space", Pattern: `\s`, Ignore: true},
			{Name: "vowels", Pattern: "{Vowel}+"},
			{Name: "others", Pattern: "{Other}+"},
		},
	}
	g, err := Compile(rf)
	require.NoError(t, err)
	tokens, err := g.Tokenize("aei xyz")
	require.NoError(t, err)
	require.Len(t, tokens, 3)
	assert.Equal(t, "vowels", tokens[0].Name)
	assert.Equal(t, "others", tokens[1].Name)
}

func TestLoadRulesFile(t *testing.T) {
	rulesContent := `options:
  case_insensitive: true
sets:
  Digit: "[0-9]"
rules:
  - name: space
    pattern: '\s+'
    ignore: true
  - name: number
    pattern: "{Digit}+"
  - name: word
    pattern: "[a-z]+"
    precedence: 7
`
	tmpFile := filepath.Join(t.TempDir(), "rules.yaml")
	if err := os.WriteFile(tmpFile, []byte(rulesContent), 0o644); err != nil {
		t.Fatalf("Failed to create temp rules file: %v", err)
	}

	rules, err := LoadRulesFile(tmpFile)
	if err != nil {
		t.Fatalf("Failed to load rules file: %v", err)
	}

	if len(rules.Rules) != 3 || rules.Rules[1].Name != "number" {
		t.Errorf("Expected rule 'number' second, got %+v", rules.Rules)
	}
	if rules.Rules[2].Precedence == nil || *rules.Rules[2].Precedence != 7 {
		t.Errorf("Expected precedence 7 for 'word', got %v", rules.Rules[2].Precedence)
	}
	if !rules.Options.CaseInsensitive {
		t.Errorf("Expected case_insensitive option to be set")
	}

	g, err := Compile(rules)
	require.NoError(t, err)
	tokens, err := g.Tokenize("ABC 12")
	require.NoError(t, err)
	require.Len(t, tokens, 3)
	assert.Equal(t, "word", tokens[0].Name)
	assert.Equal(t, "number", tokens[1].Name)
}

func TestLoadRulesFileErrors(t *testing.T) {
	_, err := LoadRulesFile(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.ErrorContains(t, err, "failed to read rules file")

	tmpFile := filepath.Join(t.TempDir(), "bad.yaml")
	require.NoError(t, os.WriteFile(tmpFile, []byte("rules: [unterminated"), 0o644))
	_, err = LoadRulesFile(tmpFile)
	assert.ErrorContains(t, err, "failed to parse YAML in rules file")
}

func TestDefaultRulesRoundTrip(t *testing.T) {
	data, err := DefaultRules().Marshal()
	require.NoError(t, err)
	rules, err := ParseRules(data)
	require.NoError(t, err)
	assert.Equal(t, DefaultRules(), rules)
}

func TestApplyRulesToDefaults(t *testing.T) {
	overlay := &RulesFile{Rules: []Rule{
		{Name: "identifier", Pattern: "[a-z]+"},
		{Name: "at", Pattern: "@"},
	}}
	merged, err := ApplyRulesToDefaults(overlay)
	require.NoError(t, err)
	assert.Len(t, merged.Rules, len(DefaultRules().Rules)+1)

	g, err := Compile(merged)
	require.NoError(t, err)
	tokens, err := g.Tokenize("a@b")
	require.NoError(t, err)
	require.Len(t, tokens, 4)
	assert.Equal(t, "at", tokens[1].Name)

	_, err = ApplyRulesToDefaults(&RulesFile{Rules: []Rule{{Name: "x", Pattern: "x"}, {Name: "x", Pattern: "y"}}})
	assert.True(t, errors.Is(err, ErrDuplicateRule))
}

func TestCache(t *testing.T) {
	cache, err := NewCache(2)
	require.NoError(t, err)

	first, err := cache.Get(DefaultRules())
	require.NoError(t, err)
	second, err := cache.Get(DefaultRules())
	require.NoError(t, err)
	assert.Same(t, first, second)
	assert.Equal(t, 1, cache.Len())

	_, err = cache.Get(&RulesFile{})
	assert.True(t, errors.Is(err, ErrNoRules))
	assert.Equal(t, 1, cache.Len())
}

func TestTableAndInterpreterAgree(t *testing.T) {
	g := defaultGrammar(t)
	interpreter := automata.Classified[rune](g.DFA(), g.Alphabet().NewClassifier(nil).Classify)

	var viaTable, viaDFA []rx.Symbol
	l1, err := lexer.New(g.Machine(), func(s rx.Symbol, _ []rune, _ int64) { viaTable = append(viaTable, s) })
	require.NoError(t, err)
	l2, err := lexer.New(interpreter, func(s rx.Symbol, _ []rune, _ int64) { viaDFA = append(viaDFA, s) })
	require.NoError(t, err)

	input := []rune(`if x <= 0x1F then "ok" ### done`)
	require.NoError(t, l1.Push(input...))
	require.NoError(t, l1.Terminate())
	require.NoError(t, l2.Push(input...))
	require.NoError(t, l2.Terminate())
	assert.Equal(t, viaDFA, viaTable)
}
