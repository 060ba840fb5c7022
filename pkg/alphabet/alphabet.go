// Package alphabet compresses the symbols used by a regular expression
// tree into letters: the coarsest partition of the valid symbols that no
// character class of the tree splits.
package alphabet

import (
	"encoding/binary"
	"errors"
	"fmt"
	"log/slog"
	"slices"

	"github.com/spicery/rxlex/pkg/rangeset"
	"github.com/spicery/rxlex/pkg/rx"
)

// ErrNodeIDConflict is returned when two distinct Match nodes of a tree
// carry the same id, which happens when the tree mixes nodes of several
// rx.Builders.
var ErrNodeIDConflict = errors.New("distinct match nodes share an id")

// LetterID names one cell of the partition.
type LetterID int32

// EOFLetter is the letter reserved for the end-of-input symbol. It is
// never merged with any other letter.
const EOFLetter LetterID = 0

// Config controls how Compute interprets the symbols of a tree.
type Config[T rangeset.Symbol] struct {
	// HasEOF reports whether EOF is a valid end-of-input symbol.
	HasEOF bool
	EOF    T
	// Valid is the universe of input symbols. Nil means every value of T.
	Valid  *rangeset.Set[T]
	Logger *slog.Logger
}

// Alphabet maps letters to the symbols they stand for. It is immutable and
// safe for concurrent use.
type Alphabet[T rangeset.Symbol] struct {
	letters  []rangeset.Set[T]
	universe rangeset.Set[T]
	hasEOF   bool
	eof      T

	// index holds the condensed symbol ranges of all letters except
	// EOFLetter in ascending order, owners holds their letters.
	index  []rangeset.Range[T]
	owners []LetterID
}

// cell is one range of the partition under construction together with the
// ids of the Match nodes covering it.
type cell[T rangeset.Symbol] struct {
	r     rangeset.Range[T]
	users []rx.NodeID
}

type partition[T rangeset.Symbol] struct {
	cells []cell[T]
}

func (p *partition[T]) search(v T) int {
	lo, hi := 0, len(p.cells)
	for lo < hi {
		mid := int(uint(lo+hi) >> 1)
		switch {
		case v < p.cells[mid].r.From:
			hi = mid
		case p.cells[mid].r.To < v:
			lo = mid + 1
		default:
			return mid
		}
	}
	panic(fmt.Sprintf("alphabet: symbol %v outside of partition", v))
}

// split divides the cell at index i so that a new cell starts at v and
// returns the index of that cell.
func (p *partition[T]) split(i int, v T) int {
	c := p.cells[i]
	left := cell[T]{r: rangeset.Range[T]{From: c.r.From, To: rangeset.Pred(v)}, users: c.users}
	right := cell[T]{r: rangeset.Range[T]{From: v, To: c.r.To}, users: slices.Clone(c.users)}
	p.cells[i] = left
	p.cells = slices.Insert(p.cells, i+1, right)
	return i + 1
}

func (p *partition[T]) use(r rangeset.Range[T], user rx.NodeID) {
	lo := p.search(r.From)
	if p.cells[lo].r.From < r.From {
		lo = p.split(lo, r.From)
	}
	hi := p.search(r.To)
	if p.cells[hi].r.To > r.To {
		p.split(hi, rangeset.Succ(r.To))
	}
	for i := lo; i <= hi; i++ {
		p.cells[i].users = append(p.cells[i].users, user)
	}
}

func usersKey(users []rx.NodeID) string {
	buf := make([]byte, 0, 4*len(users))
	for _, u := range users {
		buf = binary.LittleEndian.AppendUint32(buf, uint32(u))
	}
	return string(buf)
}

// Compute partitions the valid symbols of cfg by the character classes of
// root and returns the alphabet together with root rewritten over letters.
//
// Negated classes are complemented against the valid symbols, and the EOF
// symbol never belongs to a class. Every letter other than EOFLetter is
// either contained in or disjoint from every class of root, and the
// letters together with EOF cover the valid symbols exactly.
func Compute[T rangeset.Symbol](root *rx.Node[T], cfg Config[T]) (*Alphabet[T], *rx.Node[LetterID], error) {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	universe := rangeset.All[T]()
	if cfg.Valid != nil {
		universe = *cfg.Valid
	}
	base := universe
	if cfg.HasEOF {
		base = base.Subtract(rangeset.Of(cfg.EOF))
	}
	if base.IsEmpty() {
		return nil, nil, fmt.Errorf("alphabet: no valid symbols besides EOF")
	}

	// Step 1: effective class of every Match node, in id order.
	classes := make(map[rx.NodeID]rangeset.Set[T])
	owners := make(map[rx.NodeID]*rx.Node[T])
	var ids []rx.NodeID
	var conflict error
	rx.Walk(root, func(n *rx.Node[T]) bool {
		if n.Kind() != rx.KindMatch {
			return true
		}
		if owner, ok := owners[n.ID()]; ok {
			if owner != n && conflict == nil {
				conflict = fmt.Errorf("%w: id %d", ErrNodeIDConflict, n.ID())
			}
			return false
		}
		owners[n.ID()] = n
		if n.Negated() {
			classes[n.ID()] = n.Letters().Complement(base)
		} else {
			classes[n.ID()] = n.Letters().Intersect(base)
		}
		ids = append(ids, n.ID())
		return false
	})
	if conflict != nil {
		return nil, nil, conflict
	}
	slices.Sort(ids)

	// Step 2: refine the partition and register the users of every cell.
	p := &partition[T]{}
	for _, r := range base.Ranges() {
		p.cells = append(p.cells, cell[T]{r: r})
	}
	for _, id := range ids {
		for _, r := range classes[id].Ranges() {
			p.use(r, id)
		}
	}

	// Step 3: one letter per distinct user set, numbered by first cell.
	a := &Alphabet[T]{universe: universe, hasEOF: cfg.HasEOF, eof: cfg.EOF}
	eofSet := rangeset.Empty[T]()
	if cfg.HasEOF {
		eofSet = rangeset.Of(cfg.EOF)
	}
	byKey := make(map[string]LetterID)
	var letterRanges [][]rangeset.Range[T]
	var letterUsers [][]rx.NodeID
	cellLetters := make([]LetterID, len(p.cells))
	for i, c := range p.cells {
		key := usersKey(c.users)
		id, ok := byKey[key]
		if !ok {
			id = LetterID(len(letterRanges) + 1)
			byKey[key] = id
			letterRanges = append(letterRanges, nil)
			letterUsers = append(letterUsers, c.users)
		}
		letterRanges[id-1] = append(letterRanges[id-1], c.r)
		cellLetters[i] = id
	}
	a.letters = make([]rangeset.Set[T], len(letterRanges)+1)
	a.letters[EOFLetter] = eofSet
	for i, ranges := range letterRanges {
		a.letters[i+1] = rangeset.New(ranges...)
	}
	for i, c := range p.cells {
		if n := len(a.index); n > 0 && a.owners[n-1] == cellLetters[i] && rangeset.Succ(a.index[n-1].To) == c.r.From {
			a.index[n-1].To = c.r.To
			continue
		}
		a.index = append(a.index, c.r)
		a.owners = append(a.owners, cellLetters[i])
	}

	// Step 4: back-patch the letters matched by every Match node.
	matched := make(map[rx.NodeID][]LetterID, len(ids))
	for i, users := range letterUsers {
		for _, u := range users {
			matched[u] = append(matched[u], LetterID(i+1))
		}
	}
	rewritten := rx.Map(root, func(n *rx.Node[T]) rangeset.Set[LetterID] {
		return rangeset.Of(matched[n.ID()]...)
	})

	logger.Debug("Computed alphabet", "classes", len(ids), "cells", len(p.cells), "letters", len(a.letters))
	return a, rewritten, nil
}

// Len returns the number of letters including EOFLetter.
func (a *Alphabet[T]) Len() int {
	return len(a.letters)
}

// Letters returns the symbols represented by id.
func (a *Alphabet[T]) Letters(id LetterID) rangeset.Set[T] {
	if id < 0 || int(id) >= len(a.letters) {
		return rangeset.Empty[T]()
	}
	return a.letters[id]
}

// Universe returns the valid symbols including EOF.
func (a *Alphabet[T]) Universe() rangeset.Set[T] {
	return a.universe
}

// EOF returns the end-of-input symbol, if any.
func (a *Alphabet[T]) EOF() (T, bool) {
	return a.eof, a.hasEOF
}

// Lookup returns the letter containing v.
func (a *Alphabet[T]) Lookup(v T) (LetterID, bool) {
	if a.hasEOF && v == a.eof {
		return EOFLetter, true
	}
	if i := rangeset.SearchRanges(a.index, v); i >= 0 {
		return a.owners[i], true
	}
	return 0, false
}

// Negate returns every letter except EOFLetter that is not in set.
func (a *Alphabet[T]) Negate(set rangeset.Set[LetterID]) rangeset.Set[LetterID] {
	if len(a.letters) < 2 {
		return rangeset.Empty[LetterID]()
	}
	all := rangeset.New(rangeset.Range[LetterID]{From: 1, To: LetterID(len(a.letters) - 1)})
	return set.Complement(all)
}

// Symbols returns the union of the symbols represented by the letters of
// set.
func (a *Alphabet[T]) Symbols(set rangeset.Set[LetterID]) rangeset.Set[T] {
	var out rangeset.Set[T]
	set.Values(func(id LetterID) bool {
		out = out.Union(a.Letters(id))
		return true
	})
	return out
}
