package analytics

import (
	"sync"
	"time"
)

// DefaultTTL bounds how long a loaded snapshot is served before re-reading
// the blob store.
const DefaultTTL = 30 * time.Second

// Cache holds one snapshot and the time it was loaded.
type Cache struct {
	mu       sync.Mutex
	value    *Snapshot
	loadedAt time.Time
	ttl      time.Duration
	now      func() time.Time
}

func NewCache(ttl time.Duration) *Cache {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &Cache{ttl: ttl, now: time.Now}
}

// Get returns the cached snapshot while it is younger than the TTL.
func (c *Cache) Get() (*Snapshot, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.value == nil || c.now().Sub(c.loadedAt) >= c.ttl {
		return nil, false
	}
	return c.value, true
}

func (c *Cache) Put(s *Snapshot) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.value = s
	c.loadedAt = c.now()
}

func (c *Cache) Invalidate() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.value = nil
	c.loadedAt = time.Time{}
}
