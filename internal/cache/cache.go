package cache

import (
	"container/list"
	"sync"
	"time"

	"storefront/internal/metrics"

	"github.com/google/uuid"
)

const (
	defaultCapacity = 1024
	defaultTTL      = 60 * time.Second
)

// Cache is a bounded in-process key-value cache with per-entry TTL, LRU
// eviction and synchronous invalidation. Entries declare which product IDs
// their content depends on; invalidating a product drops every dependent entry,
// including aggregate keys such as the full product listing. The TTL is a
// backstop for invalidation signals that never arrive, not the primary
// coherence mechanism.
//
// Each key also carries a generation counter that is bumped on invalidation.
// Readers snapshot the generation before fetching from the store and publish
// with PutIfFresh, so a fetch that raced a committed write cannot reinstall
// stale data.
type Cache struct {
	mu          sync.Mutex
	capacity    int
	ttl         time.Duration
	order       *list.List // front = most recently used
	entries     map[string]*list.Element
	deps        map[uuid.UUID]map[string]struct{}
	generations map[string]uint64
}

type entry struct {
	key       string
	value     interface{}
	version   int64
	expiresAt time.Time
	products  []uuid.UUID
}

// New creates a cache. Non-positive capacity or TTL fall back to defaults.
func New(capacity int, ttl time.Duration) *Cache {
	if capacity <= 0 {
		capacity = defaultCapacity
	}
	if ttl <= 0 {
		ttl = defaultTTL
	}

	return &Cache{
		capacity:    capacity,
		ttl:         ttl,
		order:       list.New(),
		entries:     make(map[string]*list.Element),
		deps:        make(map[uuid.UUID]map[string]struct{}),
		generations: make(map[string]uint64),
	}
}

// Get returns the cached value for key if it has neither expired nor been
// invalidated since caching, and marks the entry recently used.
func (c *Cache) Get(key string) (interface{}, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	elem, ok := c.entries[key]
	if !ok {
		metrics.CacheRequestsTotal.WithLabelValues("miss").Inc()
		return nil, false
	}

	ent := elem.Value.(*entry)
	if time.Now().After(ent.expiresAt) {
		c.removeElement(elem)
		metrics.CacheRequestsTotal.WithLabelValues("expired").Inc()
		return nil, false
	}

	c.order.MoveToFront(elem)
	metrics.CacheRequestsTotal.WithLabelValues("hit").Inc()
	return ent.value, true
}

// Generation returns the current invalidation generation for key. Readers
// snapshot it before a store fetch and pass it to PutIfFresh.
func (c *Cache) Generation(key string) uint64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.generations[key]
}

// Put stores value under key with the configured TTL. products lists the
// product IDs the value depends on; invalidating any of them removes the entry.
func (c *Cache) Put(key string, value interface{}, version int64, products ...uuid.UUID) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.put(key, value, version, products)
}

// PutIfFresh stores value only if no invalidation for key happened since the
// caller observed generation gen. It reports whether the value was stored.
func (c *Cache) PutIfFresh(key string, value interface{}, version int64, gen uint64, products ...uuid.UUID) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.generations[key] != gen {
		return false
	}
	c.put(key, value, version, products)
	return true
}

func (c *Cache) put(key string, value interface{}, version int64, products []uuid.UUID) {
	if elem, ok := c.entries[key]; ok {
		c.removeElement(elem)
	}

	ent := &entry{
		key:       key,
		value:     value,
		version:   version,
		expiresAt: time.Now().Add(c.ttl),
		products:  products,
	}
	c.entries[key] = c.order.PushFront(ent)

	for _, id := range products {
		keys, ok := c.deps[id]
		if !ok {
			keys = make(map[string]struct{})
			c.deps[id] = keys
		}
		keys[key] = struct{}{}
	}

	for c.order.Len() > c.capacity {
		oldest := c.order.Back()
		if oldest == nil {
			break
		}
		c.removeElement(oldest)
		metrics.CacheEvictionsTotal.Inc()
	}
}

// Invalidate removes the given keys and bumps their generations.
func (c *Cache) Invalidate(keys ...string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	for _, key := range keys {
		c.invalidateKey(key)
	}
}

// InvalidateProduct removes every entry whose content depends on the given
// product, aggregates included. Called synchronously by the reservation
// coordinator on every committed stock mutation.
//
// The product's own key and the aggregate keys are bumped even when they have
// no installed entry: a read-through fetch for an absent key may be in flight,
// and its PutIfFresh must observe that this write happened. The reverse index
// only covers installed entries, so it cannot carry that signal alone.
func (c *Cache) InvalidateProduct(id uuid.UUID) {
	c.mu.Lock()
	defer c.mu.Unlock()

	dependent := map[string]struct{}{
		ProductKey(id): {},
		KeyAllProducts: {},
		KeyTopProducts: {},
	}
	for key := range c.deps[id] {
		dependent[key] = struct{}{}
	}
	for key := range dependent {
		c.invalidateKey(key)
	}
}

func (c *Cache) invalidateKey(key string) {
	c.generations[key]++
	if elem, ok := c.entries[key]; ok {
		c.removeElement(elem)
		metrics.CacheInvalidationsTotal.Inc()
	}
}

// Len reports the number of live entries.
func (c *Cache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.order.Len()
}

// Purge drops all entries. Generations survive so in-flight PutIfFresh calls
// still publish correctly.
func (c *Cache) Purge() {
	c.mu.Lock()
	defer c.mu.Unlock()

	for c.order.Len() > 0 {
		c.removeElement(c.order.Back())
	}
}

func (c *Cache) removeElement(elem *list.Element) {
	ent := elem.Value.(*entry)
	c.order.Remove(elem)
	delete(c.entries, ent.key)

	for _, id := range ent.products {
		if keys, ok := c.deps[id]; ok {
			delete(keys, ent.key)
			if len(keys) == 0 {
				delete(c.deps, id)
			}
		}
	}
}
