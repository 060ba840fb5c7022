package alphabet

import (
	"errors"
	"fmt"

	"github.com/spicery/rxlex/pkg/rangeset"
)

// ErrUnmapped is returned by a Classifier for a symbol outside every
// letter when no default letter is configured.
var ErrUnmapped = errors.New("symbol not in alphabet")

const asciiLen = 128

// Classifier maps input symbols to letters. Symbols below 128 are looked
// up in a table, all others by binary search.
type Classifier[T rangeset.Symbol] struct {
	alphabet *Alphabet[T]
	ascii    [asciiLen]LetterID
	fallback LetterID
	hasDef   bool
}

// NewClassifier returns a classifier for the alphabet. Symbols outside
// the alphabet map to defaultLetter when it is non-nil.
func (a *Alphabet[T]) NewClassifier(defaultLetter *LetterID) *Classifier[T] {
	c := &Classifier[T]{alphabet: a}
	if defaultLetter != nil {
		c.fallback, c.hasDef = *defaultLetter, true
	}
	for i := range c.ascii {
		c.ascii[i] = -1
		v := T(i)
		if int(v) != i {
			continue
		}
		if id, ok := a.Lookup(v); ok {
			c.ascii[i] = id
		}
	}
	return c
}

// Classify returns the letter of v.
func (c *Classifier[T]) Classify(v T) (LetterID, error) {
	if v >= 0 && uint64(v) < asciiLen {
		if id := c.ascii[uint64(v)]; id >= 0 {
			return id, nil
		}
	} else if id, ok := c.alphabet.Lookup(v); ok {
		return id, nil
	}
	if c.hasDef {
		return c.fallback, nil
	}
	return 0, fmt.Errorf("%w: %v", ErrUnmapped, v)
}

// Alphabet returns the alphabet the classifier maps into.
func (c *Classifier[T]) Alphabet() *Alphabet[T] {
	return c.alphabet
}
