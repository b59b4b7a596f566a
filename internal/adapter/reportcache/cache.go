// Package reportcache memoizes assembled report bundles per year scope.
//
// The core assembler is stateless and re-fits the model on every call;
// this decorator owns the (scope → bundle) mapping so the serving layer
// pays the fit cost once per scope. Each cached bundle keeps the
// synthetic per-month confidence values it was built with.
package reportcache

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"

	"github.com/dengueatlas/analytics-service/internal/domain"
	"github.com/dengueatlas/analytics-service/internal/observability"
	"github.com/dengueatlas/analytics-service/internal/report"
)

// Builder assembles a bundle for a raw table and year scope.
type Builder interface {
	Assemble(raw domain.RawTable, year int) (report.Bundle, error)
}

// Cache wraps a Builder with an LRU of bundles keyed by year scope over
// one fixed raw table.
type Cache struct {
	builder Builder
	raw     domain.RawTable
	metrics *observability.Metrics
	lru     *lruCache
	ready   atomic.Bool

	// buildMu serializes cache-miss builds; concurrent requests for the
	// same cold scope would otherwise each fit the model.
	buildMu sync.Mutex
}

// New creates a bundle cache over the given raw table.
func New(builder Builder, raw domain.RawTable, maxEntries int, metrics *observability.Metrics) *Cache {
	return &Cache{
		builder: builder,
		raw:     raw,
		metrics: metrics,
		lru:     newLRUCache(maxEntries),
	}
}

// Bundle returns the cached bundle for the year scope (0 means all
// years), building and caching it on a miss. Failed builds are not
// cached so the next request retries.
func (c *Cache) Bundle(year int) (report.Bundle, error) {
	if bundle, ok := c.lru.get(year); ok {
		c.metrics.CacheLookups.WithLabelValues("hit").Inc()
		return bundle, nil
	}
	c.metrics.CacheLookups.WithLabelValues("miss").Inc()

	c.buildMu.Lock()
	defer c.buildMu.Unlock()

	// Another request may have completed the build while we waited.
	if bundle, ok := c.lru.get(year); ok {
		return bundle, nil
	}

	bundle, err := c.builder.Assemble(c.raw, year)
	if err != nil {
		return report.Bundle{}, err
	}
	c.lru.put(year, bundle)
	c.ready.Store(true)
	return bundle, nil
}

// CheckReadiness reports nil once at least one bundle has been built.
func (c *Cache) CheckReadiness(_ context.Context) error {
	if !c.ready.Load() {
		return errors.New("no report bundle has been built yet")
	}
	return nil
}

// lruCache is a simple thread-safe LRU of bundles keyed by year scope.
type lruCache struct {
	maxEntries int
	mu         sync.Mutex
	entries    map[int]*entry
	head       *entry // most recently used
	tail       *entry // least recently used
}

type entry struct {
	key   int
	value report.Bundle
	prev  *entry
	next  *entry
}

func newLRUCache(maxEntries int) *lruCache {
	return &lruCache{
		maxEntries: maxEntries,
		entries:    make(map[int]*entry),
	}
}

func (c *lruCache) get(key int) (report.Bundle, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	e, ok := c.entries[key]
	if !ok {
		return report.Bundle{}, false
	}
	c.moveToFront(e)
	return e.value, true
}

func (c *lruCache) put(key int, value report.Bundle) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if e, ok := c.entries[key]; ok {
		e.value = value
		c.moveToFront(e)
		return
	}

	e := &entry{key: key, value: value}
	c.entries[key] = e
	c.addToFront(e)

	if len(c.entries) > c.maxEntries {
		c.evictTail()
	}
}

func (c *lruCache) moveToFront(e *entry) {
	if e == c.head {
		return
	}
	c.remove(e)
	c.addToFront(e)
}

func (c *lruCache) addToFront(e *entry) {
	e.next = c.head
	e.prev = nil
	if c.head != nil {
		c.head.prev = e
	}
	c.head = e
	if c.tail == nil {
		c.tail = e
	}
}

func (c *lruCache) remove(e *entry) {
	if e.prev != nil {
		e.prev.next = e.next
	} else {
		c.head = e.next
	}
	if e.next != nil {
		e.next.prev = e.prev
	} else {
		c.tail = e.prev
	}
}

func (c *lruCache) evictTail() {
	if c.tail == nil {
		return
	}
	delete(c.entries, c.tail.key)
	c.remove(c.tail)
}
