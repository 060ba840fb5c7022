package syntax

import (
	"unicode"

	"golang.org/x/text/unicode/rangetable"

	"github.com/spicery/rxlex/pkg/rangeset"
)

// Class names one of the shorthand classes \d \w \s and the dot.
type Class uint8

const (
	ClassDigit Class = iota
	ClassWord
	ClassSpace
	ClassDot
)

// Classes resolves the shorthand classes. UnicodeClasses and ECMAClasses
// are the two flavours available.
type Classes func(Class) rangeset.Set[rune]

var (
	unicodeDigit = fromTable(unicode.Nd)
	unicodeWord  = fromTable(rangetable.Merge(unicode.L, unicode.Nd, rangetable.New('_')))
	unicodeSpace = fromTable(rangetable.Merge(unicode.Z, unicode.White_Space))

	ecmaDigit = rangeset.New(rangeset.MustRange('0', '9'))
	ecmaWord  = rangeset.New(
		rangeset.MustRange('0', '9'),
		rangeset.MustRange('A', 'Z'),
		rangeset.Single('_'),
		rangeset.MustRange('a', 'z'),
	)
	ecmaSpace = rangeset.Of(' ', '\t', '\n', '\r').Union(fromTable(unicode.Zs))

	dot = ValidRunes().Subtract(rangeset.Of('\n'))
)

// UnicodeClasses treats \d as decimal digits, \w as letters, decimal
// digits and underscore and \s as separators and white space.
func UnicodeClasses(c Class) rangeset.Set[rune] {
	switch c {
	case ClassDigit:
		return unicodeDigit
	case ClassWord:
		return unicodeWord
	case ClassSpace:
		return unicodeSpace
	}
	return dot
}

// ECMAClasses restricts \d and \w to ASCII.
func ECMAClasses(c Class) rangeset.Set[rune] {
	switch c {
	case ClassDigit:
		return ecmaDigit
	case ClassWord:
		return ecmaWord
	case ClassSpace:
		return ecmaSpace
	}
	return dot
}

// categoryAliases maps long general category names to the short ones used
// by the unicode package.
var categoryAliases = map[string]string{
	"Letter":      "L",
	"Mark":        "M",
	"Number":      "N",
	"Punctuation": "P",
	"Symbol":      "S",
	"Separator":   "Z",
	"Other":       "C",
	"Control":     "Cc",
	"Uppercase":   "Lu",
	"Lowercase":   "Ll",
}

// UnicodeSet returns the runes of a general category, script or property
// name as accepted by \p{Name}.
func UnicodeSet(name string) (rangeset.Set[rune], bool) {
	if short, ok := categoryAliases[name]; ok {
		name = short
	}
	for _, tables := range []map[string]*unicode.RangeTable{unicode.Categories, unicode.Scripts, unicode.Properties} {
		if t, ok := tables[name]; ok {
			return fromTable(t), true
		}
	}
	return rangeset.Set[rune]{}, false
}

func fromTable(t *unicode.RangeTable) rangeset.Set[rune] {
	var ranges []rangeset.Range[rune]
	add := func(lo, hi, stride rune) {
		if stride == 1 {
			ranges = append(ranges, rangeset.MustRange(lo, hi))
			return
		}
		for r := lo; r <= hi; r += stride {
			ranges = append(ranges, rangeset.Single(r))
		}
	}
	for _, r := range t.R16 {
		add(rune(r.Lo), rune(r.Hi), rune(r.Stride))
	}
	for _, r := range t.R32 {
		add(rune(r.Lo), rune(r.Hi), rune(r.Stride))
	}
	return rangeset.New(ranges...)
}
