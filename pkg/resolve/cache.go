package resolve

import (
	"maps"
	"sync"
)

// Cache is the in-memory resolution map: import name to install identifier.
// It tracks whether it changed since it was loaded so that callers can skip
// rewriting an unchanged store. Entries added with [Cache.SetTransient] are
// served by Get but never appear in a snapshot. It is safe for concurrent use.
type Cache struct {
	mu        sync.RWMutex
	entries   map[string]string
	transient map[string]string
	dirty     bool
}

// NewCache returns a cache seeded with entries. The map is copied.
func NewCache(entries map[string]string) *Cache {
	c := &Cache{
		entries:   make(map[string]string, len(entries)),
		transient: make(map[string]string),
	}
	for k, v := range entries {
		if k != "" && v != "" {
			c.entries[k] = v
		}
	}
	return c
}

// Get returns the cached install identifier for name.
func (c *Cache) Get(name string) (string, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if pkg, ok := c.entries[name]; ok {
		return pkg, true
	}
	pkg, ok := c.transient[name]
	return pkg, ok
}

// Set records name → pkg and marks the cache dirty when the value changed.
func (c *Cache) Set(name, pkg string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if old, ok := c.entries[name]; ok && old == pkg {
		return
	}
	delete(c.transient, name)
	c.entries[name] = pkg
	c.dirty = true
}

// SetTransient records name → pkg for the lifetime of c only. It does not
// mark the cache dirty and a persisted entry for name is left alone.
func (c *Cache) SetTransient(name, pkg string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if _, ok := c.entries[name]; ok {
		return
	}
	c.transient[name] = pkg
}

// Delete removes name.
func (c *Cache) Delete(name string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.transient, name)
	if _, ok := c.entries[name]; ok {
		delete(c.entries, name)
		c.dirty = true
	}
}

// Dirty reports whether the cache changed since it was created or last marked clean.
func (c *Cache) Dirty() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.dirty
}

// MarkClean resets the dirty flag, typically after a successful save.
func (c *Cache) MarkClean() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.dirty = false
}

// Len returns the number of persistable entries.
func (c *Cache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries)
}

// Snapshot returns a copy of the persistable entries.
func (c *Cache) Snapshot() map[string]string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return maps.Clone(c.entries)
}
