package rangeset

import (
	"errors"
	"math"
	"testing"
)

func r(from, to rune) Range[rune] {
	return Range[rune]{From: from, To: to}
}

func TestNewRangeRejectsInvertedBounds(t *testing.T) {
	if _, err := NewRange[rune]('b', 'a'); !errors.Is(err, ErrInvalidRange) {
		t.Errorf("Expected ErrInvalidRange, got %v", err)
	}
	if _, err := NewRange[rune]('a', 'a'); err != nil {
		t.Errorf("Unexpected error: %v", err)
	}
}

func TestMinMax(t *testing.T) {
	if MaxOf[uint8]() != math.MaxUint8 || MinOf[uint8]() != 0 {
		t.Errorf("uint8 bounds wrong: %d %d", MinOf[uint8](), MaxOf[uint8]())
	}
	if MaxOf[int32]() != math.MaxInt32 || MinOf[int32]() != math.MinInt32 {
		t.Errorf("int32 bounds wrong: %d %d", MinOf[int32](), MaxOf[int32]())
	}
	if MaxOf[int64]() != math.MaxInt64 || MinOf[int64]() != math.MinInt64 {
		t.Errorf("int64 bounds wrong")
	}
	if MaxOf[uint16]() != math.MaxUint16 {
		t.Errorf("uint16 max wrong: %d", MaxOf[uint16]())
	}
}

func TestNewCondenses(t *testing.T) {
	tests := []struct {
		name     string
		input    []Range[rune]
		expected []Range[rune]
	}{
		{"Empty", nil, nil},
		{"Single", []Range[rune]{r('a', 'c')}, []Range[rune]{r('a', 'c')}},
		{"Adjacent", []Range[rune]{r('d', 'f'), r('a', 'c')}, []Range[rune]{r('a', 'f')}},
		{"Overlapping", []Range[rune]{r('a', 'e'), r('c', 'g')}, []Range[rune]{r('a', 'g')}},
		{"Contained", []Range[rune]{r('a', 'z'), r('c', 'g')}, []Range[rune]{r('a', 'z')}},
		{"Disjoint", []Range[rune]{r('x', 'z'), r('a', 'b')}, []Range[rune]{r('a', 'b'), r('x', 'z')}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := New(tt.input...).Ranges()
			if len(got) != len(tt.expected) {
				t.Fatalf("Expected %v, got %v", tt.expected, got)
			}
			for i := range got {
				if got[i] != tt.expected[i] {
					t.Errorf("Expected %v, got %v", tt.expected, got)
				}
			}
		})
	}
}

func TestSetOperations(t *testing.T) {
	a := New(r('a', 'f'), r('m', 'p'))
	b := New(r('d', 'n'))

	if got, want := a.Union(b), New(r('a', 'p')); !got.Equal(want) {
		t.Errorf("Union: expected %v, got %v", want, got)
	}
	if got, want := a.Intersect(b), New(r('d', 'f'), r('m', 'n')); !got.Equal(want) {
		t.Errorf("Intersect: expected %v, got %v", want, got)
	}
	if got, want := a.Subtract(b), New(r('a', 'c'), r('o', 'p')); !got.Equal(want) {
		t.Errorf("Subtract: expected %v, got %v", want, got)
	}
	universe := New(r('a', 'z'))
	if got, want := a.Complement(universe), New(r('g', 'l'), r('q', 'z')); !got.Equal(want) {
		t.Errorf("Complement: expected %v, got %v", want, got)
	}
}

func TestOperationsAtTypeBounds(t *testing.T) {
	all := All[uint8]()
	low := New(Range[uint8]{0, 10})
	high := New(Range[uint8]{250, 255})

	rest := all.Subtract(low).Subtract(high)
	if want := New(Range[uint8]{11, 249}); !rest.Equal(want) {
		t.Errorf("Expected %v, got %v", want, rest)
	}
	if got := rest.Union(low).Union(high); !got.Equal(all) {
		t.Errorf("Expected full set, got %v", got)
	}
	if got := high.Complement(all); !got.Equal(New(Range[uint8]{0, 249})) {
		t.Errorf("Unexpected complement %v", got)
	}
	if all.Count() != 256 {
		t.Errorf("Expected 256 values, got %d", all.Count())
	}
}

func TestContains(t *testing.T) {
	s := New(r('0', '9'), r('A', 'Z'), r('a', 'z'))
	for _, c := range "09AZaz5Qq" {
		if !s.Contains(c) {
			t.Errorf("Expected %q to be contained", c)
		}
	}
	for _, c := range "/:@[`{ -" {
		if s.Contains(c) {
			t.Errorf("Expected %q not to be contained", c)
		}
	}
	if Empty[rune]().Contains('a') {
		t.Errorf("Empty set must not contain anything")
	}
}

func TestEnumerate(t *testing.T) {
	type piece struct {
		r      Range[rune]
		li, ri int
	}
	left := []Range[rune]{r('a', 'e'), r('f', 'h'), r('x', 'z')}
	right := []Range[rune]{r('c', 'g'), r('y', 'y')}
	expected := []piece{
		{r('a', 'b'), 0, -1},
		{r('c', 'e'), 0, 0},
		{r('f', 'g'), 1, 0},
		{r('h', 'h'), 1, -1},
		{r('x', 'x'), 2, -1},
		{r('y', 'y'), 2, 1},
		{r('z', 'z'), 2, -1},
	}
	var got []piece
	Enumerate(left, right, func(rg Range[rune], li, ri int) {
		got = append(got, piece{rg, li, ri})
	})
	if len(got) != len(expected) {
		t.Fatalf("Expected %v, got %v", expected, got)
	}
	for i := range got {
		if got[i] != expected[i] {
			t.Errorf("Piece %d: expected %v, got %v", i, expected[i], got[i])
		}
	}
}

func TestEnumerateSetsMembership(t *testing.T) {
	a := New(r('a', 'c'))
	b := New(r('b', 'd'))
	var tags []Membership
	EnumerateSets(a, b, func(_ Range[rune], m Membership) {
		tags = append(tags, m)
	})
	want := []Membership{LeftOnly, Both, RightOnly}
	if len(tags) != len(want) {
		t.Fatalf("Expected %v, got %v", want, tags)
	}
	for i := range want {
		if tags[i] != want[i] {
			t.Errorf("Expected %v, got %v", want, tags)
		}
	}
}

func TestValues(t *testing.T) {
	var got []uint8
	New(Range[uint8]{1, 2}, Range[uint8]{254, 255}).Values(func(v uint8) bool {
		got = append(got, v)
		return true
	})
	if len(got) != 4 || got[3] != 255 {
		t.Errorf("Unexpected values %v", got)
	}
}

func TestCountSaturates(t *testing.T) {
	tests := []struct {
		name string
		got  uint64
		want uint64
	}{
		{"full int64", All[int64]().Count(), math.MaxUint64},
		{"full uint64", All[uint64]().Count(), math.MaxUint64},
		{"full int32", All[int32]().Count(), 1 << 32},
		{"full int64 range", Range[int64]{math.MinInt64, math.MaxInt64}.Len(), math.MaxUint64},
		{"negative range", Range[int64]{-3, 3}.Len(), 7},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.got != tt.want {
				t.Errorf("Expected %d, got %d", tt.want, tt.got)
			}
		})
	}
}
