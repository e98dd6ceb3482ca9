package objectstore

import (
	"context"
	"sync"

	"github.com/couchcryptid/radar-composite/internal/observability"
	"github.com/couchcryptid/radar-composite/internal/storage"
	"github.com/google/uuid"
)

// CachedFetcher wraps a BlobFetcher with an in-memory LRU cache. Objects are
// immutable once stored, so entries never go stale.
type CachedFetcher struct {
	inner   storage.BlobFetcher
	cache   *lruCache
	metrics *observability.Metrics
}

// NewCachedFetcher creates a cache decorator around a fetcher.
func NewCachedFetcher(inner storage.BlobFetcher, maxEntries int, metrics *observability.Metrics) *CachedFetcher {
	return &CachedFetcher{
		inner:   inner,
		cache:   newLRUCache(maxEntries),
		metrics: metrics,
	}
}

func (c *CachedFetcher) Fetch(ctx context.Context, id uuid.UUID) ([]byte, error) {
	if data, ok := c.cache.get(id); ok {
		c.metrics.ObjectStoreCache.WithLabelValues("hit").Inc()
		return data, nil
	}
	c.metrics.ObjectStoreCache.WithLabelValues("miss").Inc()
	data, err := c.inner.Fetch(ctx, id)
	if err != nil {
		return nil, err
	}
	c.cache.put(id, data)
	return data, nil
}

// lruCache is a simple thread-safe LRU cache of object bytes.
type lruCache struct {
	maxEntries int
	mu         sync.Mutex
	entries    map[uuid.UUID]*entry
	head       *entry // most recently used
	tail       *entry // least recently used
}

type entry struct {
	key   uuid.UUID
	value []byte
	prev  *entry
	next  *entry
}

func newLRUCache(maxEntries int) *lruCache {
	return &lruCache{
		maxEntries: maxEntries,
		entries:    make(map[uuid.UUID]*entry),
	}
}

func (c *lruCache) get(key uuid.UUID) ([]byte, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	e, ok := c.entries[key]
	if !ok {
		return nil, false
	}
	c.moveToFront(e)
	return e.value, true
}

func (c *lruCache) put(key uuid.UUID, value []byte) {
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
