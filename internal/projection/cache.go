package projection

import (
	"sync"

	"github.com/google/uuid"
)

// cache is an optional write-through, read-preferring in-memory mirror of
// spec_projections, keyed by id. Writers must only populate it after the
// database commit that produced the value has succeeded — never before,
// and never on a path that might still roll back.
type cache struct {
	mu sync.RWMutex
	m  map[uuid.UUID]Spec
}

func newCache() *cache {
	return &cache{m: make(map[uuid.UUID]Spec)}
}

func (c *cache) get(id uuid.UUID) (Spec, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	s, ok := c.m[id]
	return s, ok
}

func (c *cache) put(s Spec) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.m[s.ID] = s
}

func (c *cache) delete(id uuid.UUID) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.m, id)
}

func (c *cache) clear() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.m = make(map[uuid.UUID]Spec)
}
