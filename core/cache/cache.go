// Package cache provides a small generic LRU cache. The sqlite package uses
// it to keep compiled statements keyed by their SQL text.
package cache

import (
	"container/list"
	"sync"
	"time"
)

// Cache is a generic LRU cache interface.
type Cache[K comparable, V any] interface {
	// Get retrieves a value and marks it most recently used.
	Get(key K) (V, bool)

	// Take removes a value from the cache and hands it to the caller
	// without running the eviction callback.
	Take(key K) (V, bool)

	// Put stores a value. A value already stored under key is evicted.
	Put(key K, value V)

	// Remove evicts the value stored under key.
	Remove(key K)

	// Clear evicts every entry.
	Clear()

	// Len returns the number of entries in the cache.
	Len() int

	// Stats returns cache statistics.
	Stats() Stats
}

// Stats contains cache statistics.
type Stats struct {
	Hits      int64
	Misses    int64
	Evictions int64
	Size      int
	MaxSize   int
}

// Config contains cache configuration options.
type Config[K comparable, V any] struct {
	// MaxSize is the maximum number of entries (0 = unlimited).
	MaxSize int

	// TTL is the time-to-live for entries (0 = no expiration).
	TTL time.Duration

	// OnEvict is called, outside the cache lock, for every value that
	// leaves the cache other than through Take.
	OnEvict func(key K, value V)
}

type entry[K comparable, V any] struct {
	key       K
	value     V
	expiresAt time.Time
}

// lruCache is a thread-safe LRU cache implementation.
type lruCache[K comparable, V any] struct {
	mu        sync.Mutex
	config    Config[K, V]
	entries   map[K]*list.Element
	evictList *list.List
	stats     Stats
	now       func() time.Time
}

// NewLRUCache creates a new LRU cache with the given configuration.
func NewLRUCache[K comparable, V any](config Config[K, V]) Cache[K, V] {
	if config.MaxSize < 0 {
		config.MaxSize = 0
	}
	return &lruCache[K, V]{
		config:    config,
		entries:   make(map[K]*list.Element),
		evictList: list.New(),
		now:       time.Now,
	}
}

func (c *lruCache[K, V]) Get(key K) (V, bool) {
	c.mu.Lock()
	ent, evicted := c.lookup(key)
	if ent == nil {
		c.mu.Unlock()
		c.notify(evicted)
		var zero V
		return zero, false
	}
	c.evictList.MoveToFront(ent)
	v := ent.Value.(*entry[K, V]).value
	c.mu.Unlock()
	return v, true
}

func (c *lruCache[K, V]) Take(key K) (V, bool) {
	c.mu.Lock()
	ent, evicted := c.lookup(key)
	if ent == nil {
		c.mu.Unlock()
		c.notify(evicted)
		var zero V
		return zero, false
	}
	c.evictList.Remove(ent)
	e := ent.Value.(*entry[K, V])
	delete(c.entries, e.key)
	c.mu.Unlock()
	return e.value, true
}

// lookup finds a live entry and counts the hit or miss. An expired entry is
// unlinked and returned for eviction. Caller holds mu.
func (c *lruCache[K, V]) lookup(key K) (*list.Element, []*entry[K, V]) {
	ent, ok := c.entries[key]
	if !ok {
		c.stats.Misses++
		return nil, nil
	}
	e := ent.Value.(*entry[K, V])
	if c.config.TTL > 0 && c.now().After(e.expiresAt) {
		c.unlink(ent)
		c.stats.Misses++
		c.stats.Evictions++
		return nil, []*entry[K, V]{e}
	}
	c.stats.Hits++
	return ent, nil
}

func (c *lruCache[K, V]) Put(key K, value V) {
	c.mu.Lock()
	var evicted []*entry[K, V]
	if ent, ok := c.entries[key]; ok {
		evicted = append(evicted, c.unlink(ent))
	}

	e := &entry[K, V]{key: key, value: value}
	if c.config.TTL > 0 {
		e.expiresAt = c.now().Add(c.config.TTL)
	}
	c.entries[key] = c.evictList.PushFront(e)

	for c.config.MaxSize > 0 && c.evictList.Len() > c.config.MaxSize {
		evicted = append(evicted, c.unlink(c.evictList.Back()))
		c.stats.Evictions++
	}
	c.mu.Unlock()
	c.notify(evicted)
}

func (c *lruCache[K, V]) Remove(key K) {
	c.mu.Lock()
	var evicted []*entry[K, V]
	if ent, ok := c.entries[key]; ok {
		evicted = append(evicted, c.unlink(ent))
	}
	c.mu.Unlock()
	c.notify(evicted)
}

func (c *lruCache[K, V]) Clear() {
	c.mu.Lock()
	evicted := make([]*entry[K, V], 0, c.evictList.Len())
	for ent := c.evictList.Back(); ent != nil; ent = ent.Prev() {
		evicted = append(evicted, ent.Value.(*entry[K, V]))
	}
	c.entries = make(map[K]*list.Element)
	c.evictList.Init()
	c.mu.Unlock()
	c.notify(evicted)
}

func (c *lruCache[K, V]) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.evictList.Len()
}

func (c *lruCache[K, V]) Stats() Stats {
	c.mu.Lock()
	defer c.mu.Unlock()

	s := c.stats
	s.Size = c.evictList.Len()
	s.MaxSize = c.config.MaxSize
	return s
}

// unlink drops ent from the list and index. Caller holds mu.
func (c *lruCache[K, V]) unlink(ent *list.Element) *entry[K, V] {
	c.evictList.Remove(ent)
	e := ent.Value.(*entry[K, V])
	delete(c.entries, e.key)
	return e
}

func (c *lruCache[K, V]) notify(evicted []*entry[K, V]) {
	if c.config.OnEvict == nil {
		return
	}
	for _, e := range evicted {
		c.config.OnEvict(e.key, e.value)
	}
}
