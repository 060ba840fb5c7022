package grammar

import (
	lru "github.com/hashicorp/golang-lru/v2"
)

// Cache memoizes compiled grammars by the fingerprint of their rules. All
// grammars of a cache are compiled with the same options. It is safe for
// concurrent use.
type Cache struct {
	grammars *lru.Cache[uint64, *Grammar]
	opts     []Option
}

// NewCache returns a cache holding up to size grammars compiled with
// opts.
func NewCache(size int, opts ...Option) (*Cache, error) {
	grammars, err := lru.New[uint64, *Grammar](size)
	if err != nil {
		return nil, err
	}
	return &Cache{grammars: grammars, opts: opts}, nil
}

// Get returns the grammar for rf, compiling it on a miss.
func (c *Cache) Get(rf *RulesFile) (*Grammar, error) {
	fp, err := rf.Fingerprint()
	if err != nil {
		return nil, err
	}
	if g, ok := c.grammars.Get(fp); ok {
		return g, nil
	}
	g, err := Compile(rf, c.opts...)
	if err != nil {
		return nil, err
	}
	c.grammars.Add(fp, g)
	return g, nil
}

// Len returns the number of cached grammars.
func (c *Cache) Len() int {
	return c.grammars.Len()
}
