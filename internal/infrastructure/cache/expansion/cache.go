// Package expansion memoizes oracle term expansions per normalized query.
package expansion

import (
	"slices"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"

	"github.com/kirillkom/bazaar-search/internal/core/domain"
)

const (
	DefaultSize = 1024
	DefaultTTL  = 10 * time.Minute
)

type Cache struct {
	lru *expirable.LRU[string, domain.ExpandedTermSet]
}

func New(size int, ttl time.Duration) *Cache {
	if size <= 0 {
		size = DefaultSize
	}
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &Cache{lru: expirable.NewLRU[string, domain.ExpandedTermSet](size, nil, ttl)}
}

func (c *Cache) Get(query string) (domain.ExpandedTermSet, bool) {
	terms, ok := c.lru.Get(query)
	if !ok {
		return domain.ExpandedTermSet{}, false
	}
	return clone(terms), true
}

func (c *Cache) Add(query string, terms domain.ExpandedTermSet) {
	c.lru.Add(query, clone(terms))
}

func (c *Cache) Len() int {
	return c.lru.Len()
}

// clone keeps cached slices isolated from callers that append to results.
func clone(terms domain.ExpandedTermSet) domain.ExpandedTermSet {
	terms.Direct = slices.Clone(terms.Direct)
	terms.Related = slices.Clone(terms.Related)
	terms.Pool = slices.Clone(terms.Pool)
	return terms
}
