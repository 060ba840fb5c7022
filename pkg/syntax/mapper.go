package syntax

import (
	"slices"
	"sync"
	"unicode"

	"golang.org/x/text/unicode/norm"

	"github.com/spicery/rxlex/pkg/alphabet"
	"github.com/spicery/rxlex/pkg/rangeset"
	"github.com/spicery/rxlex/pkg/rx"
)

// EOF is the rune fed to a lexer to signal the end of input.
const EOF rune = -1

var validRunes = rangeset.New(
	rangeset.MustRange[rune](0, 0xD7FF),
	rangeset.MustRange(0xE000, unicode.MaxRune),
)

// ValidRunes returns every Unicode scalar value, that is every code point
// except the surrogates.
func ValidRunes() rangeset.Set[rune] {
	return validRunes
}

// AlphabetConfig returns the alphabet configuration for trees built by a
// Mapper, optionally reserving EOF.
func AlphabetConfig(withEOF bool) alphabet.Config[rune] {
	valid := validRunes
	if withEOF {
		valid = valid.Union(rangeset.Of(EOF))
	}
	return alphabet.Config[rune]{HasEOF: withEOF, EOF: EOF, Valid: &valid}
}

// foldable holds the runes whose simple case folding orbit is not
// trivial.
var foldable = sync.OnceValue(func() rangeset.Set[rune] {
	var ranges []rangeset.Range[rune]
	for _, cr := range unicode.CaseRanges {
		for r := rune(cr.Lo); r <= rune(cr.Hi); r++ {
			if unicode.SimpleFold(r) != r {
				ranges = append(ranges, rangeset.Single(r))
			}
		}
	}
	return rangeset.New(ranges...)
})

// CaseFold adds the simple case folding orbit of every rune of set.
func CaseFold(set rangeset.Set[rune]) rangeset.Set[rune] {
	var extra []rangeset.Range[rune]
	set.Intersect(foldable()).Values(func(r rune) bool {
		for f := unicode.SimpleFold(r); f != r; f = unicode.SimpleFold(f) {
			extra = append(extra, rangeset.Single(f))
		}
		return true
	})
	if len(extra) == 0 {
		return set
	}
	return set.Union(rangeset.New(extra...))
}

// Mapper turns parsed patterns into rx trees over code points.
type Mapper struct {
	// Normalize makes every literal also match its NFC and NFD forms.
	Normalize bool
	// Compat additionally matches the NFKC and NFKD forms.
	Compat bool
}

// MapSet returns a node matching one rune of set, or one valid rune
// outside of it when negate is set.
func (m Mapper) MapSet(b *rx.Builder[rune], negate bool, set rangeset.Set[rune], caseSensitive bool) *rx.Node[rune] {
	if !caseSensitive {
		set = CaseFold(set)
	}
	set = set.Intersect(validRunes)
	if negate {
		return b.NotMatch(set)
	}
	return b.Match(set)
}

// MapGrapheme returns a node matching the literal text of one grapheme in
// each of its normalization forms.
func (m Mapper) MapGrapheme(b *rx.Builder[rune], text string, caseSensitive bool) *rx.Node[rune] {
	forms := []string{text}
	if m.Normalize {
		forms = append(forms, norm.NFC.String(text), norm.NFD.String(text))
	}
	if m.Compat {
		forms = append(forms, norm.NFKC.String(text), norm.NFKD.String(text))
	}
	slices.Sort(forms)
	forms = slices.Compact(forms)

	singles := rangeset.Empty[rune]()
	var nodes []*rx.Node[rune]
	for _, form := range forms {
		runes := []rune(form)
		if len(runes) == 1 {
			singles = singles.Union(rangeset.Of(runes[0]))
			continue
		}
		seq := make([]*rx.Node[rune], len(runes))
		for i, r := range runes {
			seq[i] = m.MapSet(b, false, rangeset.Of(r), caseSensitive)
		}
		nodes = append(nodes, b.Concat(seq...))
	}
	if !singles.IsEmpty() {
		nodes = append(nodes, m.MapSet(b, false, singles, caseSensitive))
	}
	return b.Alt(nodes...)
}

// Build converts a parsed pattern into a tree created by b.
func (m Mapper) Build(b *rx.Builder[rune], re *Regexp, caseSensitive bool) (*rx.Node[rune], error) {
	switch re.Op {
	case OpEmpty:
		return b.Empty(), nil
	case OpGrapheme:
		return m.MapGrapheme(b, re.Text, caseSensitive), nil
	case OpSet:
		return m.MapSet(b, re.Negate, re.Set, caseSensitive), nil
	case OpCaseGroup:
		return m.Build(b, re.Sub[0], re.CaseSensitive)
	case OpRepeat:
		inner, err := m.Build(b, re.Sub[0], caseSensitive)
		if err != nil {
			return nil, err
		}
		return b.Quantified(inner, re.Min, re.Max)
	}
	nodes := make([]*rx.Node[rune], len(re.Sub))
	for i, sub := range re.Sub {
		n, err := m.Build(b, sub, caseSensitive)
		if err != nil {
			return nil, err
		}
		nodes[i] = n
	}
	if re.Op == OpAlternate {
		return b.Alt(nodes...), nil
	}
	return b.Concat(nodes...), nil
}
