package query

import (
	"fmt"
	"sync"

	"github.com/specialistvlad/voxelflow/internal/metrics"
	"github.com/zclconf/go-cty/cty"
)

// Key identifies one cached pin value.
type Key struct {
	ID          RuntimeID
	Fingerprint string
}

func (k Key) String() string { return fmt.Sprintf("%d/%s", k.ID, k.Fingerprint) }

type entry struct {
	future *Future

	mu      sync.Mutex
	dropped bool
	cancels []func()
}

func (e *entry) setCancels(cancels []func()) {
	e.mu.Lock()
	if e.dropped {
		e.mu.Unlock()
		for _, cancel := range cancels {
			cancel()
		}
		return
	}
	e.cancels = cancels
	e.mu.Unlock()
}

func (e *entry) drop() {
	e.mu.Lock()
	if e.dropped {
		e.mu.Unlock()
		return
	}
	e.dropped = true
	cancels := e.cancels
	e.cancels = nil
	e.mu.Unlock()
	for _, cancel := range cancels {
		cancel()
	}
}

// Cache maps keys to futures. Successful values stay until one of the
// dependencies they were computed from is invalidated; failures are
// forgotten as soon as they resolve.
type Cache struct {
	metrics *metrics.Metrics

	mu      sync.Mutex
	entries map[Key]*entry
}

// NewCache returns an empty cache. m may be nil.
func NewCache(m *metrics.Metrics) *Cache {
	return &Cache{metrics: m, entries: make(map[Key]*entry)}
}

// Claim returns the future for key. owner is true when the caller created
// it and must call Resolve.
func (c *Cache) Claim(key Key) (f *Future, owner bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if e, ok := c.entries[key]; ok {
		c.metrics.CacheLookup(true)
		return e.future, false
	}
	c.metrics.CacheLookup(false)
	e := &entry{future: newFuture()}
	c.entries[key] = e
	return e.future, true
}

// Resolve completes a claimed future and wakes its waiters. A failed entry
// leaves the cache before waiters wake, so a retrying waiter claims a fresh
// slot.
func (c *Cache) Resolve(key Key, f *Future, v cty.Value, err error, deps map[*Dependency]uint64) {
	c.mu.Lock()
	e, ok := c.entries[key]
	current := ok && e.future == f
	if current && err != nil {
		delete(c.entries, key)
	}
	c.mu.Unlock()
	f.resolve(v, err, deps)
	if !current || err != nil {
		return
	}

	cancels := make([]func(), 0, len(deps))
	for d := range deps {
		cancels = append(cancels, d.Subscribe(func() { c.remove(key, e) }))
	}
	e.setCancels(cancels)
	// A dependency that changed before the subscription was made would
	// never notify.
	if Stale(deps) {
		c.remove(key, e)
	}
}

func (c *Cache) remove(key Key, e *entry) {
	c.mu.Lock()
	if c.entries[key] == e {
		delete(c.entries, key)
	}
	c.mu.Unlock()
	e.drop()
}

// Len returns the number of cached or pending entries.
func (c *Cache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}

// Clear drops every entry. Pending futures still resolve for their waiters.
func (c *Cache) Clear() {
	c.mu.Lock()
	entries := c.entries
	c.entries = make(map[Key]*entry)
	c.mu.Unlock()
	for _, e := range entries {
		e.drop()
	}
}
