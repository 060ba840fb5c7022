package alphabet

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spicery/rxlex/pkg/rangeset"
	"github.com/spicery/rxlex/pkg/rx"
)

func rr(from, to rune) rangeset.Range[rune] {
	return rangeset.MustRange(from, to)
}

var codepoints = rangeset.New(rr(0, 0xD7FF), rr(0xE000, 0x10FFFF))

func classesOf(root *rx.Node[rune]) []rangeset.Set[rune] {
	var out []rangeset.Set[rune]
	rx.Walk(root, func(n *rx.Node[rune]) bool {
		if n.Kind() == rx.KindMatch {
			set := n.Letters().Intersect(codepoints)
			if n.Negated() {
				set = n.Letters().Complement(codepoints)
			}
			out = append(out, set)
		}
		return true
	})
	return out
}

func TestLettersOfClassAndLiteral(t *testing.T) {
	b := rx.NewBuilder[rune]()
	root := b.Alt(b.Class(rr('a', 'z'), rr('0', '9')), b.Literal('T', 'e', 's', 't'))

	a, letters, err := Compute(root, Config[rune]{HasEOF: true, EOF: -1, Valid: &codepoints})
	require.NoError(t, err)
	assert.Equal(t, 7, a.Len())

	tests := []struct {
		input    rune
		expected LetterID
	}{
		{-1, EOFLetter},
		{' ', 1},
		{'0', 2},
		{'q', 2},
		{'T', 3},
		{'e', 4},
		{'s', 5},
		{'t', 6},
		{0x10FFFF, 1},
	}
	for _, tt := range tests {
		t.Run(string(tt.input), func(t *testing.T) {
			got, ok := a.Lookup(tt.input)
			require.True(t, ok)
			assert.Equal(t, tt.expected, got)
		})
	}

	_, ok := a.Lookup(0xD800)
	assert.False(t, ok, "surrogates are not valid")

	// The class matches every letter except the literal T and the unused
	// remainder.
	assert.Equal(t, "[\\x{2}\\x{4}-\\x{6}]|\\x{3}\\x{4}\\x{5}\\x{6}", letters.String())
}

func TestPartitionSoundnessAndCoverage(t *testing.T) {
	b := rx.NewBuilder[rune]()
	root := b.Alt(
		b.Accept(b.Plus(b.Class(rr('a', 'z'), rr('A', 'Z'), rr('_', '_'))), 1),
		b.Accept(b.Plus(b.Class(rr('0', '9'))), 2),
		b.Accept(b.Concat(b.Literal('0', 'x'), b.Plus(b.Class(rr('0', '9'), rr('a', 'f'), rr('A', 'F')))), 3),
		b.Accept(b.Concat(b.Literal('"'), b.Star(b.NotMatch(rangeset.Of('"', '\n'))), b.Literal('"')), 4),
		b.Accept(b.Class(rr(0x80, 0x10FFFF)), 5),
	)

	a, _, err := Compute(root, Config[rune]{HasEOF: true, EOF: -1, Valid: &codepoints})
	require.NoError(t, err)

	var union rangeset.Set[rune]
	for id := LetterID(1); int(id) < a.Len(); id++ {
		letter := a.Letters(id)
		require.False(t, letter.IsEmpty(), "letter %d is empty", id)
		assert.True(t, union.Intersect(letter).IsEmpty(), "letter %d overlaps another letter", id)
		union = union.Union(letter)
		for _, class := range classesOf(root) {
			common := class.Intersect(letter)
			if !common.IsEmpty() && !common.Equal(letter) {
				t.Errorf("Letter %d %v straddles class %v", id, letter, class)
			}
		}
	}
	assert.True(t, union.Equal(codepoints), "letters cover %v", union)
	assert.True(t, a.Letters(EOFLetter).Equal(rangeset.Of[rune](-1)))
}

func TestSharedMatchNodeIsOneClass(t *testing.T) {
	b := rx.NewBuilder[uint8]()
	digit := b.Class(rangeset.MustRange[uint8]('0', '9'))
	root := b.Concat(digit, b.Star(digit))

	a, letters, err := Compute(root, Config[uint8]{})
	require.NoError(t, err)
	// EOF letter (empty), digits, and the rest.
	assert.Equal(t, 3, a.Len())
	assert.True(t, a.Letters(EOFLetter).IsEmpty())
	assert.Equal(t, "\\x{2}\\x{2}*", letters.String())
	assert.Same(t, letters.Left(), letters.Right().Inner())
}

func TestNegatedClassExcludesEOF(t *testing.T) {
	b := rx.NewBuilder[uint8]()
	root := b.NotMatch(rangeset.Of[uint8]('a'))

	a, letters, err := Compute(root, Config[uint8]{HasEOF: true, EOF: 0})
	require.NoError(t, err)
	require.Equal(t, rx.KindMatch, letters.Kind())
	assert.False(t, letters.Negated())

	id, ok := a.Lookup('a')
	require.True(t, ok)
	assert.True(t, letters.Letters().Equal(a.Negate(rangeset.Of(id))))
	assert.False(t, letters.Letters().Contains(EOFLetter))

	symbols := a.Symbols(letters.Letters())
	assert.False(t, symbols.Contains(0))
	assert.False(t, symbols.Contains('a'))
	assert.True(t, symbols.Contains(255))
}

func TestClassifier(t *testing.T) {
	b := rx.NewBuilder[rune]()
	valid := rangeset.New(rr('a', 'z'), rr(0x400, 0x4FF))
	root := b.Alt(b.Literal('x'), b.Literal(0x416))

	a, _, err := Compute(root, Config[rune]{Valid: &valid})
	require.NoError(t, err)

	c := a.NewClassifier(nil)
	x, err := c.Classify('x')
	require.NoError(t, err)
	zh, err := c.Classify(0x416)
	require.NoError(t, err)
	assert.NotEqual(t, x, zh)

	_, err = c.Classify('?')
	assert.True(t, errors.Is(err, ErrUnmapped), "ascii path: %v", err)
	_, err = c.Classify(0x2000)
	assert.True(t, errors.Is(err, ErrUnmapped), "search path: %v", err)

	fallback := LetterID(1)
	c = a.NewClassifier(&fallback)
	got, err := c.Classify('?')
	require.NoError(t, err)
	assert.Equal(t, fallback, got)
}

func TestEmptyUniverse(t *testing.T) {
	b := rx.NewBuilder[uint8]()
	valid := rangeset.Of[uint8](0)
	_, _, err := Compute(b.Literal('a'), Config[uint8]{HasEOF: true, EOF: 0, Valid: &valid})
	assert.Error(t, err)
}

func TestNodesFromTwoBuilders(t *testing.T) {
	b1, b2 := rx.NewBuilder[rune](), rx.NewBuilder[rune]()
	root := b1.Alt(
		b1.AcceptWithPrecedence(b1.Literal('a'), 1, 1),
		b2.AcceptWithPrecedence(b2.Literal('b'), 2, 2),
	)

	_, _, err := Compute(root, Config[rune]{HasEOF: true, EOF: -1, Valid: &codepoints})
	assert.True(t, errors.Is(err, ErrNodeIDConflict))
}
