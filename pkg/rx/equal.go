package rx

import (
	"encoding/binary"

	"github.com/cespare/xxhash/v2"

	"github.com/spicery/rxlex/pkg/rangeset"
)

// Equal reports whether a and b have the same shape and the same leaf
// data. Node ids are not compared.
func Equal[T rangeset.Symbol](a, b *Node[T]) bool {
	if a == b {
		return true
	}
	if a == nil || b == nil || a.kind != b.kind {
		return false
	}
	switch a.kind {
	case KindEmpty:
		return true
	case KindMatch:
		return a.negate == b.negate && a.letters.Equal(b.letters)
	case KindConcatenation, KindAlternation:
		return Equal(a.left, b.left) && Equal(a.right, b.right)
	case KindQuantified:
		return a.min == b.min && a.max == b.max && Equal(a.left, b.left)
	case KindAccept:
		return a.symbol == b.symbol && a.precedence == b.precedence && Equal(a.left, b.left)
	}
	return false
}

// Fingerprint returns a structural hash of n: Equal nodes have equal
// fingerprints.
func Fingerprint[T rangeset.Symbol](n *Node[T]) uint64 {
	d := xxhash.New()
	var buf []byte
	var write func(*Node[T])
	write = func(n *Node[T]) {
		buf = append(buf[:0], byte(n.kind))
		switch n.kind {
		case KindMatch:
			if n.negate {
				buf = append(buf, 1)
			} else {
				buf = append(buf, 0)
			}
			for _, r := range n.letters.Ranges() {
				buf = binary.LittleEndian.AppendUint64(buf, uint64(r.From))
				buf = binary.LittleEndian.AppendUint64(buf, uint64(r.To))
			}
			buf = append(buf, 0xff)
			_, _ = d.Write(buf)
		case KindConcatenation, KindAlternation:
			_, _ = d.Write(buf)
			write(n.left)
			write(n.right)
		case KindQuantified:
			buf = binary.LittleEndian.AppendUint64(buf, uint64(n.min))
			buf = binary.LittleEndian.AppendUint64(buf, uint64(n.max))
			_, _ = d.Write(buf)
			write(n.left)
		case KindAccept:
			buf = binary.LittleEndian.AppendUint32(buf, uint32(n.symbol))
			buf = binary.LittleEndian.AppendUint64(buf, uint64(n.precedence))
			_, _ = d.Write(buf)
			write(n.left)
		default:
			_, _ = d.Write(buf)
		}
	}
	write(n)
	return d.Sum64()
}
