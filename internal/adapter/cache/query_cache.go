// Package cache provides a generation-stamped query result cache.
package cache

import (
	"sync/atomic"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"
)

// QueryCache memoizes search results keyed by query string. Every entry is
// stamped with the index generation it was computed against; entries from an
// older generation are treated as misses, so a reindex invalidates the cache
// without racing in-flight lookups.
type QueryCache[V any] struct {
	lru *expirable.LRU[string, entry[V]]
	gen atomic.Uint64
}

type entry[V any] struct {
	gen   uint64
	value V
}

// New creates a cache holding up to size entries, each expiring after ttl.
// A ttl of zero disables expiry.
func New[V any](size int, ttl time.Duration) *QueryCache[V] {
	return &QueryCache[V]{
		lru: expirable.NewLRU[string, entry[V]](size, nil, ttl),
	}
}

// Get returns the cached value for key, if present and current.
func (c *QueryCache[V]) Get(key string) (V, bool) {
	e, ok := c.lru.Get(key)
	if !ok || e.gen != c.gen.Load() {
		var zero V
		return zero, false
	}
	return e.value, true
}

// Put stores a value computed against the current index generation.
func (c *QueryCache[V]) Put(key string, value V) {
	c.lru.Add(key, entry[V]{gen: c.gen.Load(), value: value})
}

// Invalidate drops all entries and bumps the generation.
func (c *QueryCache[V]) Invalidate() {
	c.gen.Add(1)
	c.lru.Purge()
}

// Len returns the number of live entries.
func (c *QueryCache[V]) Len() int {
	return c.lru.Len()
}
