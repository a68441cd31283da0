package cache

import (
	"context"
	"sync"

	"golang.org/x/sync/singleflight"
)

// Stats is a snapshot of cache counters.
type Stats struct {
	Size      int    `json:"size"`
	Capacity  int    `json:"capacity"`
	Hits      uint64 `json:"hits"`
	Misses    uint64 `json:"misses"`
	Evictions uint64 `json:"evictions"`
}

// Bounded is a capacity-bounded in-process cache.
// When a Put leaves it over capacity, the oldest quarter of the entries by
// insertion order is dropped in one pass. There is no TTL.
type Bounded[V any] struct {
	mu       sync.Mutex
	entries  map[string]V
	order    []string // insertion order (oldest first)
	capacity int

	hits      uint64
	misses    uint64
	evictions uint64

	group singleflight.Group
}

// New creates a cache holding at most capacity entries.
// A capacity below 1 is treated as 1.
func New[V any](capacity int) *Bounded[V] {
	if capacity < 1 {
		capacity = 1
	}
	return &Bounded[V]{
		entries:  make(map[string]V, capacity),
		order:    make([]string, 0, capacity),
		capacity: capacity,
	}
}

// Get returns the value stored under key.
func (c *Bounded[V]) Get(key string) (V, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	v, ok := c.entries[key]
	if ok {
		c.hits++
	} else {
		c.misses++
	}
	return v, ok
}

// Put stores value under key. Overwriting keeps the key's insertion position.
func (c *Bounded[V]) Put(key string, value V) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if _, exists := c.entries[key]; exists {
		c.entries[key] = value
		return
	}
	c.entries[key] = value
	c.order = append(c.order, key)

	if len(c.entries) > c.capacity {
		c.evictLocked()
	}
}

// evictLocked drops floor(size/4) of the oldest entries, or enough to get
// back under capacity when that quarter rounds down too far.
func (c *Bounded[V]) evictLocked() {
	size := len(c.entries)
	n := size / 4
	if over := size - c.capacity; n < over {
		n = over
	}
	for _, key := range c.order[:n] {
		delete(c.entries, key)
	}
	c.order = append(c.order[:0:0], c.order[n:]...)
	c.evictions += uint64(n)
}

// Len returns the number of entries.
func (c *Bounded[V]) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}

// Clear removes every entry. Counters are kept.
func (c *Bounded[V]) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries = make(map[string]V, c.capacity)
	c.order = c.order[:0]
}

// Stats returns a snapshot of the cache counters.
func (c *Bounded[V]) Stats() Stats {
	c.mu.Lock()
	defer c.mu.Unlock()
	return Stats{
		Size:      len(c.entries),
		Capacity:  c.capacity,
		Hits:      c.hits,
		Misses:    c.misses,
		Evictions: c.evictions,
	}
}

// GetOrLoad returns the cached value for key, calling load on a miss.
// Concurrent misses on the same key share one load. Errors are not cached.
func (c *Bounded[V]) GetOrLoad(ctx context.Context, key string, load func(context.Context) (V, error)) (V, error) {
	if v, ok := c.Get(key); ok {
		return v, nil
	}

	res, err, _ := c.group.Do(key, func() (interface{}, error) {
		// Another caller may have filled the entry while we waited.
		c.mu.Lock()
		v, ok := c.entries[key]
		c.mu.Unlock()
		if ok {
			return v, nil
		}

		v, err := load(ctx)
		if err != nil {
			return nil, err
		}
		c.Put(key, v)
		return v, nil
	})
	if err != nil {
		var zero V
		return zero, err
	}
	return res.(V), nil
}
