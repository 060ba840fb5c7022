// Package syntax parses textual regular expressions and maps them onto
// rx trees over Unicode code points.
package syntax

import (
	"fmt"
	"strconv"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/spicery/rxlex/pkg/rangeset"
	"github.com/spicery/rxlex/pkg/rx"
)

// MaxRepeat is the largest count accepted in a {n,m} quantifier.
const MaxRepeat = 1000

// Op is the kind of a Regexp.
type Op uint8

const (
	OpEmpty Op = iota
	OpGrapheme
	OpSet
	OpConcat
	OpAlternate
	OpRepeat
	OpCaseGroup
)

// Regexp is a parsed pattern. Sets are fully resolved; only case
// sensitivity is left to the Mapper.
type Regexp struct {
	Op  Op
	Sub []*Regexp
	// Text is the literal grapheme of OpGrapheme.
	Text   string
	Set    rangeset.Set[rune]
	Negate bool
	// Min and Max bound OpRepeat; Max is rx.Unbounded for open ranges.
	Min, Max int
	// CaseSensitive applies to the contents of an OpCaseGroup.
	CaseSensitive bool
}

// Options controls parsing.
type Options struct {
	// Classes resolves \d \w \s and the dot. Nil means UnicodeClasses.
	Classes Classes
	// Sets holds the named sets referenced as {Name}.
	Sets map[string]rangeset.Set[rune]
	// LiteralSpace makes unescaped white space match itself instead of
	// being ignored.
	LiteralSpace bool
}

// Error describes a malformed pattern.
type Error struct {
	Pattern string
	Offset  int
	Msg     string
}

func (e *Error) Error() string {
	return fmt.Sprintf("invalid pattern %q at offset %d: %s", e.Pattern, e.Offset, e.Msg)
}

type parser struct {
	input    string
	position int
	opts     Options
}

// Parse parses pattern.
func Parse(pattern string, opts Options) (*Regexp, error) {
	if opts.Classes == nil {
		opts.Classes = UnicodeClasses
	}
	for i, r := range pattern {
		if r != utf8.RuneError {
			continue
		}
		if _, size := utf8.DecodeRuneInString(pattern[i:]); size == 1 {
			return nil, &Error{Pattern: pattern, Offset: i, Msg: "invalid UTF-8"}
		}
	}
	p := &parser{input: pattern, opts: opts}
	re, err := p.parseAlternation()
	if err != nil {
		return nil, err
	}
	if r, ok := p.peek(); ok {
		if r == ')' {
			return nil, p.errorf("unmatched ')'")
		}
		return nil, p.errorf("unexpected %q", r)
	}
	return re, nil
}

// MustParse is like Parse but panics on error.
func MustParse(pattern string, opts Options) *Regexp {
	re, err := Parse(pattern, opts)
	if err != nil {
		panic(err)
	}
	return re
}

// Compile parses pattern and builds it with a default Mapper.
func Compile(b *rx.Builder[rune], pattern string, caseSensitive bool, opts Options) (*rx.Node[rune], error) {
	re, err := Parse(pattern, opts)
	if err != nil {
		return nil, err
	}
	return Mapper{}.Build(b, re, caseSensitive)
}

func (p *parser) errorf(format string, args ...any) error {
	return &Error{Pattern: p.input, Offset: p.position, Msg: fmt.Sprintf(format, args...)}
}

func (p *parser) peek() (rune, bool) {
	if p.position >= len(p.input) {
		return 0, false
	}
	r, _ := utf8.DecodeRuneInString(p.input[p.position:])
	return r, true
}

func (p *parser) peekN(n int) (rune, bool) {
	pos := p.position
	var r rune
	for i := 0; i < n; i++ {
		if pos >= len(p.input) {
			return 0, false
		}
		var size int
		r, size = utf8.DecodeRuneInString(p.input[pos:])
		pos += size
	}
	return r, true
}

func (p *parser) consume() rune {
	r, size := utf8.DecodeRuneInString(p.input[p.position:])
	p.position += size
	return r
}

func (p *parser) tryConsumeRune(char rune) bool {
	if r, ok := p.peek(); ok && r == char {
		p.consume()
		return true
	}
	return false
}

func (p *parser) tryConsumeText(text string) bool {
	if strings.HasPrefix(p.input[p.position:], text) {
		p.position += len(text)
		return true
	}
	return false
}

func (p *parser) skipSpace() {
	if p.opts.LiteralSpace {
		return
	}
	for {
		r, ok := p.peek()
		if !ok || !unicode.IsSpace(r) {
			return
		}
		p.consume()
	}
}

func (p *parser) parseAlternation() (*Regexp, error) {
	var alternatives []*Regexp
	for {
		re, err := p.parseConcatenation()
		if err != nil {
			return nil, err
		}
		alternatives = append(alternatives, re)
		if !p.tryConsumeRune('|') {
			break
		}
	}
	if len(alternatives) == 1 {
		return alternatives[0], nil
	}
	return &Regexp{Op: OpAlternate, Sub: alternatives}, nil
}

func (p *parser) parseConcatenation() (*Regexp, error) {
	var items []*Regexp
	for {
		p.skipSpace()
		r, ok := p.peek()
		if !ok || r == '|' || r == ')' {
			break
		}
		atom, err := p.parseAtom()
		if err != nil {
			return nil, err
		}
		p.skipSpace()
		if atom, err = p.parseQuantifier(atom); err != nil {
			return nil, err
		}
		if atom.Op != OpEmpty {
			items = append(items, atom)
		}
	}
	switch len(items) {
	case 0:
		return &Regexp{Op: OpEmpty}, nil
	case 1:
		return items[0], nil
	}
	return &Regexp{Op: OpConcat, Sub: items}, nil
}

// parseQuantifier applies at most one quantifier to atom.
func (p *parser) parseQuantifier(atom *Regexp) (*Regexp, error) {
	start := p.position
	min, max, ok, err := p.tryParseQuantifier()
	if err != nil || !ok {
		return atom, err
	}
	p.skipSpace()
	if _, again, _ := p.peekQuantifier(); again {
		return nil, p.errorf("repeated quantifier")
	}
	if atom.Op == OpEmpty {
		p.position = start
		return nil, p.errorf("quantifier without operand")
	}
	return &Regexp{Op: OpRepeat, Sub: []*Regexp{atom}, Min: min, Max: max}, nil
}

func (p *parser) peekQuantifier() (int, bool, error) {
	save := p.position
	defer func() { p.position = save }()
	min, _, ok, err := p.tryParseQuantifier()
	return min, ok, err
}

func (p *parser) tryParseQuantifier() (min, max int, ok bool, err error) {
	r, ok := p.peek()
	if !ok {
		return 0, 0, false, nil
	}
	switch r {
	case '*':
		p.consume()
		return 0, rx.Unbounded, true, nil
	case '+':
		p.consume()
		return 1, rx.Unbounded, true, nil
	case '?':
		p.consume()
		return 0, 1, true, nil
	case '{':
		if next, ok := p.peekN(2); !ok || !(next == ',' || isDigit(next)) {
			return 0, 0, false, nil
		}
		p.consume()
		min, max, err = p.parseRepeat()
		return min, max, err == nil, err
	}
	return 0, 0, false, nil
}

// parseRepeat parses the body of {n}, {n,}, {,m} or {n,m} after the brace.
func (p *parser) parseRepeat() (int, int, error) {
	min, err := p.parseCount(0)
	if err != nil {
		return 0, 0, err
	}
	max := min
	if p.tryConsumeRune(',') {
		if max, err = p.parseCount(rx.Unbounded); err != nil {
			return 0, 0, err
		}
	}
	if !p.tryConsumeRune('}') {
		return 0, 0, p.errorf("missing '}' in repetition")
	}
	if max != rx.Unbounded && max < min {
		return 0, 0, p.errorf("invalid repetition {%d,%d}", min, max)
	}
	return min, max, nil
}

func (p *parser) parseCount(missing int) (int, error) {
	start := p.position
	for {
		r, ok := p.peek()
		if !ok || !isDigit(r) {
			break
		}
		p.consume()
	}
	if start == p.position {
		return missing, nil
	}
	n, err := strconv.Atoi(p.input[start:p.position])
	if err != nil || n > MaxRepeat {
		p.position = start
		return 0, p.errorf("repetition count exceeds %d", MaxRepeat)
	}
	return n, nil
}

func (p *parser) parseAtom() (*Regexp, error) {
	start := p.position
	r := p.consume()
	switch r {
	case '(':
		return p.parseGroup()
	case '[':
		return p.parseClass()
	case '.':
		return &Regexp{Op: OpSet, Set: p.opts.Classes(ClassDot)}, nil
	case '\\':
		return p.parseEscape()
	case '{':
		return p.parseNamedSet()
	case '*', '+', '?':
		p.position = start
		return nil, p.errorf("quantifier without operand")
	case ']', '}':
		p.position = start
		return nil, p.errorf("unexpected %q", r)
	}
	p.position = start
	return &Regexp{Op: OpGrapheme, Text: p.readGrapheme()}, nil
}

// readGrapheme reads one rune together with the combining marks that
// follow it.
func (p *parser) readGrapheme() string {
	start := p.position
	p.consume()
	for {
		r, ok := p.peek()
		if !ok || !unicode.Is(unicode.M, r) {
			break
		}
		p.consume()
	}
	return p.input[start:p.position]
}

func (p *parser) parseGroup() (*Regexp, error) {
	caseGroup, sensitive := false, false
	switch {
	case p.tryConsumeText("?i:"):
		caseGroup = true
	case p.tryConsumeText("?-i:"):
		caseGroup, sensitive = true, true
	case p.tryConsumeRune('?'):
		return nil, p.errorf("unsupported group flags")
	}
	inner, err := p.parseAlternation()
	if err != nil {
		return nil, err
	}
	if !p.tryConsumeRune(')') {
		return nil, p.errorf("missing ')'")
	}
	if caseGroup && inner.Op != OpEmpty {
		return &Regexp{Op: OpCaseGroup, Sub: []*Regexp{inner}, CaseSensitive: sensitive}, nil
	}
	return inner, nil
}

func (p *parser) parseNamedSet() (*Regexp, error) {
	end := strings.IndexByte(p.input[p.position:], '}')
	if end < 0 {
		return nil, p.errorf("missing '}' in named set")
	}
	name := strings.TrimSpace(p.input[p.position : p.position+end])
	set, ok := p.opts.Sets[name]
	if !ok {
		return nil, p.errorf("unknown named set %q", name)
	}
	p.position += end + 1
	return &Regexp{Op: OpSet, Set: set}, nil
}

// parseClass parses a bracketed class after the '['.
func (p *parser) parseClass() (*Regexp, error) {
	negate := p.tryConsumeRune('^')
	set := rangeset.Empty[rune]()
	first := true
	for {
		r, ok := p.peek()
		if !ok {
			return nil, p.errorf("missing ']'")
		}
		if r == ']' && !first {
			p.consume()
			break
		}
		first = false
		lo, item, err := p.parseClassItem()
		if err != nil {
			return nil, err
		}
		if item != nil {
			set = set.Union(*item)
			continue
		}
		if next, ok := p.peekN(2); ok && next != ']' && p.tryConsumeRune('-') {
			hi, item, err := p.parseClassItem()
			if err != nil {
				return nil, err
			}
			if item != nil {
				return nil, p.errorf("class cannot bound a range")
			}
			rng, err := rangeset.NewRange(lo, hi)
			if err != nil {
				return nil, p.errorf("invalid range %q-%q", lo, hi)
			}
			set = set.Union(rangeset.New(rng))
			continue
		}
		set = set.Union(rangeset.Of(lo))
	}
	return &Regexp{Op: OpSet, Set: set, Negate: negate}, nil
}

// parseClassItem returns either a single rune or a set.
func (p *parser) parseClassItem() (rune, *rangeset.Set[rune], error) {
	r := p.consume()
	if r != '\\' {
		return r, nil, nil
	}
	re, err := p.parseEscape()
	if err != nil {
		return 0, nil, err
	}
	if re.Op == OpGrapheme {
		v, _ := utf8.DecodeRuneInString(re.Text)
		return v, nil, nil
	}
	set := re.Set
	if re.Negate {
		set = validRunes.Subtract(set)
	}
	return 0, &set, nil
}

var simpleEscapes = map[rune]rune{
	'0': 0,
	'a': '\a',
	'e': 0x1B,
	'f': '\f',
	'n': '\n',
	'r': '\r',
	't': '\t',
	'v': '\v',
}

var classEscapes = map[rune]Class{
	'd': ClassDigit,
	'w': ClassWord,
	's': ClassSpace,
}

// parseEscape parses an escape after the backslash. Single runes are
// returned as OpGrapheme, classes as OpSet.
func (p *parser) parseEscape() (*Regexp, error) {
	r, ok := p.peek()
	if !ok {
		return nil, p.errorf("trailing backslash")
	}
	p.consume()
	if v, ok := simpleEscapes[r]; ok {
		return literal(v), nil
	}
	if c, ok := classEscapes[unicode.ToLower(r)]; ok {
		return &Regexp{Op: OpSet, Set: p.opts.Classes(c), Negate: unicode.IsUpper(r)}, nil
	}
	switch r {
	case 'x':
		if p.tryConsumeRune('{') {
			end := strings.IndexByte(p.input[p.position:], '}')
			if end < 0 {
				return nil, p.errorf("missing '}' in hex escape")
			}
			hex := p.input[p.position : p.position+end]
			v, err := p.parseHex(hex, 1, 8)
			if err != nil {
				return nil, err
			}
			p.position += end + 1
			return literal(v), nil
		}
		return p.parseFixedHex(2)
	case 'u':
		return p.parseFixedHex(4)
	case 'U':
		return p.parseFixedHex(8)
	case 'p', 'P':
		name, err := p.readPropertyName()
		if err != nil {
			return nil, err
		}
		set, ok := UnicodeSet(name)
		if !ok {
			return nil, p.errorf("unknown Unicode class %q", name)
		}
		return &Regexp{Op: OpSet, Set: set, Negate: r == 'P'}, nil
	}
	if unicode.IsLetter(r) || unicode.IsDigit(r) {
		return nil, p.errorf("invalid escape \\%c", r)
	}
	return literal(r), nil
}

func (p *parser) readPropertyName() (string, error) {
	if !p.tryConsumeRune('{') {
		r, ok := p.peek()
		if !ok || !unicode.IsLetter(r) {
			return "", p.errorf("missing Unicode class name")
		}
		p.consume()
		return string(r), nil
	}
	end := strings.IndexByte(p.input[p.position:], '}')
	if end < 0 {
		return "", p.errorf("missing '}' in Unicode class")
	}
	name := p.input[p.position : p.position+end]
	p.position += end + 1
	return name, nil
}

func (p *parser) parseFixedHex(digits int) (*Regexp, error) {
	if len(p.input)-p.position < digits {
		return nil, p.errorf("expected %d hex digits", digits)
	}
	v, err := p.parseHex(p.input[p.position:p.position+digits], digits, digits)
	if err != nil {
		return nil, err
	}
	p.position += digits
	return literal(v), nil
}

func (p *parser) parseHex(hex string, minDigits, maxDigits int) (rune, error) {
	if len(hex) < minDigits || len(hex) > maxDigits {
		return 0, p.errorf("invalid hex escape %q", hex)
	}
	v, err := strconv.ParseUint(hex, 16, 32)
	if err != nil {
		return 0, p.errorf("invalid hex escape %q", hex)
	}
	if !validRunes.Contains(rune(v)) {
		return 0, p.errorf("escape %q is not a valid code point", hex)
	}
	return rune(v), nil
}

func literal(r rune) *Regexp {
	return &Regexp{Op: OpGrapheme, Text: string(r)}
}

func isDigit(r rune) bool {
	return '0' <= r && r <= '9'
}
