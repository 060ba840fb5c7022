package rx

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/spicery/rxlex/pkg/rangeset"
)

// binding levels; an operand is parenthesized when its level exceeds the
// level allowed at its position.
const (
	levelAtom = iota
	levelQuantified
	levelConcatenation
	levelAlternation
)

func (n *Node[T]) level() int {
	switch n.kind {
	case KindConcatenation:
		return levelConcatenation
	case KindAlternation:
		return levelAlternation
	case KindQuantified:
		return levelQuantified
	case KindAccept:
		return n.left.level()
	}
	return levelAtom
}

// String renders the tree in regular expression notation. Accept nodes are
// rendered as {=symbol} after their operand.
func (n *Node[T]) String() string {
	var sb strings.Builder
	n.write(&sb, levelAlternation)
	return sb.String()
}

func (n *Node[T]) write(sb *strings.Builder, allowed int) {
	if n.level() > allowed {
		sb.WriteByte('(')
		n.writeInner(sb)
		sb.WriteByte(')')
		return
	}
	n.writeInner(sb)
}

func (n *Node[T]) writeInner(sb *strings.Builder) {
	switch n.kind {
	case KindEmpty:
		sb.WriteString("()")
	case KindMatch:
		writeMatch(sb, n.letters, n.negate)
	case KindConcatenation:
		n.left.write(sb, levelConcatenation)
		n.right.write(sb, levelConcatenation)
	case KindAlternation:
		n.left.write(sb, levelAlternation)
		sb.WriteByte('|')
		n.right.write(sb, levelAlternation)
	case KindQuantified:
		n.left.write(sb, levelAtom)
		switch {
		case n.min == 0 && n.max == 1:
			sb.WriteByte('?')
		case n.min == 0 && n.max == Unbounded:
			sb.WriteByte('*')
		case n.min == 1 && n.max == Unbounded:
			sb.WriteByte('+')
		case n.min == n.max:
			fmt.Fprintf(sb, "{%d}", n.min)
		case n.max == Unbounded:
			fmt.Fprintf(sb, "{%d,}", n.min)
		default:
			fmt.Fprintf(sb, "{%d,%d}", n.min, n.max)
		}
	case KindAccept:
		n.left.writeInner(sb)
		fmt.Fprintf(sb, "{=%d}", n.symbol)
	}
}

func writeMatch[T rangeset.Symbol](sb *strings.Builder, letters rangeset.Set[T], negate bool) {
	ranges := letters.Ranges()
	if !negate && len(ranges) == 1 && ranges[0].From == ranges[0].To {
		sb.WriteString(formatValue(ranges[0].From))
		return
	}
	sb.WriteByte('[')
	if negate {
		sb.WriteByte('^')
	}
	for _, r := range ranges {
		sb.WriteString(formatValue(r.From))
		switch {
		case r.From == r.To:
		case rangeset.Succ(r.From) == r.To:
			sb.WriteString(formatValue(r.To))
		default:
			sb.WriteByte('-')
			sb.WriteString(formatValue(r.To))
		}
	}
	sb.WriteByte(']')
}

const metaChars = `\.[]()|*+?{}^$-`

func formatValue[T rangeset.Symbol](v T) string {
	i := int64(v)
	if i >= 0x20 && i < 0x7f {
		c := byte(i)
		if strings.IndexByte(metaChars, c) >= 0 {
			return `\` + string(c)
		}
		return string(c)
	}
	if i < 0 {
		return `\x{` + strconv.FormatInt(i, 10) + `}`
	}
	return `\x{` + strconv.FormatUint(uint64(v), 16) + `}`
}
