// Package cache bounds repeated lookups against slow third-party APIs.
package cache

import (
	"strings"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"
	"golang.org/x/text/cases"
)

// TTLCache is a size-bounded LRU whose entries also expire after ttl. Keys
// are normalized so "12 Main St" and "12  main st " share an entry. Safe for
// concurrent use.
type TTLCache[V any] struct {
	lru *expirable.LRU[string, V]
}

func NewTTLCache[V any](size int, ttl time.Duration) *TTLCache[V] {
	if size <= 0 {
		size = 256
	}
	return &TTLCache[V]{lru: expirable.NewLRU[string, V](size, nil, ttl)}
}

func (c *TTLCache[V]) Get(key string) (V, bool) {
	return c.lru.Get(NormalizeKey(key))
}

func (c *TTLCache[V]) Add(key string, value V) {
	c.lru.Add(NormalizeKey(key), value)
}

func (c *TTLCache[V]) Len() int {
	return c.lru.Len()
}

// NormalizeKey case-folds and collapses whitespace.
func NormalizeKey(key string) string {
	return cases.Fold().String(strings.Join(strings.Fields(key), " "))
}
