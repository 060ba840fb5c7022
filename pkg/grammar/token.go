package grammar

import (
	"encoding/json"
	"sort"

	"github.com/spicery/rxlex/pkg/rx"
)

// EOFName is the name reported for the end-of-input token.
const EOFName = "EOF"

// Position represents a line and column position in the input. Both are
// 1-based and count runes.
type Position struct {
	Line int `json:"line"`
	Col  int `json:"col"`
}

// Span represents the start and end positions of a token. End is
// exclusive.
type Span struct {
	Start Position `json:"start"`
	End   Position `json:"end"`
}

// MarshalJSON implements custom JSON marshaling for Span.
func (s Span) MarshalJSON() ([]byte, error) {
	arr := [4]int{s.Start.Line, s.Start.Col, s.End.Line, s.End.Col}
	return json.Marshal(arr)
}

// UnmarshalJSON implements custom JSON unmarshaling for Span.
func (s *Span) UnmarshalJSON(data []byte) error {
	var arr [4]int
	if err := json.Unmarshal(data, &arr); err != nil {
		return err
	}
	s.Start = Position{Line: arr[0], Col: arr[1]}
	s.End = Position{Line: arr[2], Col: arr[3]}
	return nil
}

// Token is a single token recognized by a grammar lexer.
type Token struct {
	Text   string    `json:"text"`
	Span   Span      `json:"span"`
	Name   string    `json:"type"`
	Symbol rx.Symbol `json:"symbol"`
	// Offset counts the runes before the token.
	Offset int64 `json:"offset"`

	// LnBefore is set when ignored input containing a newline precedes
	// the token.
	LnBefore *bool `json:"ln_before,omitempty"`
}

// lines maps rune offsets to positions.
type lines struct {
	// starts holds the offsets at which lines 2, 3, ... begin.
	starts []int64
}

func (l *lines) observe(offset int64, runes []rune) {
	for i, r := range runes {
		if r == '\n' {
			l.starts = append(l.starts, offset+int64(i)+1)
		}
	}
}

func (l *lines) position(offset int64) Position {
	line := sort.Search(len(l.starts), func(i int) bool { return l.starts[i] > offset })
	start := int64(0)
	if line > 0 {
		start = l.starts[line-1]
	}
	return Position{Line: line + 1, Col: int(offset-start) + 1}
}

func (l *lines) span(offset int64, length int) Span {
	return Span{Start: l.position(offset), End: l.position(offset + int64(length))}
}
