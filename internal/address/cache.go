// Package address resolves a document's site address from the registry, the
// document itself, and addresses already seen for the same site in this run.
package address

import "sync"

// Cache maps site ID to the first real address seen during one run.
// Entries are never replaced or evicted.
type Cache struct {
	mu sync.RWMutex
	m  map[string]string
}

func NewCache() *Cache {
	return &Cache{m: map[string]string{}}
}

func (c *Cache) Get(siteID string) (string, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	v, ok := c.m[siteID]
	return v, ok
}

// StoreIfAbsent keeps the first value stored for siteID and reports whether v was stored.
func (c *Cache) StoreIfAbsent(siteID, v string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if _, ok := c.m[siteID]; ok {
		return false
	}
	c.m[siteID] = v
	return true
}

func (c *Cache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.m)
}
