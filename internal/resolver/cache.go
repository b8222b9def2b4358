// internal/resolver/cache.go
package resolver

import "github.com/webloop/webloop/internal/dom"

// DefaultCacheSize bounds the resolution cache. Empirical default; override
// through configuration, not by editing this.
const DefaultCacheSize = 500

// refCache maps descriptor strings to their last-resolved references.
// Eviction is insertion-order FIFO, not LRU: an explicit ordered structure
// keeps the policy observable and testable. Re-resolving an existing key
// updates the entry in place without refreshing its position.
type refCache struct {
	capacity int
	entries  map[string]*dom.ElementRef
	order    []string
}

func newRefCache(capacity int) *refCache {
	if capacity <= 0 {
		capacity = DefaultCacheSize
	}
	return &refCache{
		capacity: capacity,
		entries:  make(map[string]*dom.ElementRef, capacity),
	}
}

func (c *refCache) get(key string) (*dom.ElementRef, bool) {
	ref, ok := c.entries[key]
	return ref, ok
}

func (c *refCache) put(key string, ref *dom.ElementRef) {
	if _, exists := c.entries[key]; exists {
		c.entries[key] = ref
		return
	}
	if len(c.order) >= c.capacity {
		oldest := c.order[0]
		c.order = c.order[1:]
		delete(c.entries, oldest)
	}
	c.entries[key] = ref
	c.order = append(c.order, key)
}

func (c *refCache) remove(key string) {
	if _, exists := c.entries[key]; !exists {
		return
	}
	delete(c.entries, key)
	for i, k := range c.order {
		if k == key {
			c.order = append(c.order[:i], c.order[i+1:]...)
			break
		}
	}
}

func (c *refCache) len() int { return len(c.entries) }
