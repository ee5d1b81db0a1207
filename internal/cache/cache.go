// Package cache provides the local ephemeral tier of the mirror: a
// bounded in-memory key-value store with per-entry expiry. It is a
// derived accelerator with no authority; dropping it entirely loses no
// data.
package cache

import (
	"encoding/json"
	"sync"
	"time"

	"github.com/memohq/memomirror/internal/log"
)

// DefaultCapacity bounds the number of live entries before writes
// trigger an expired-entry sweep.
const DefaultCapacity = 1024

// Cacher defines the interface for cache operations.
// This interface enables mocking the cache in unit tests.
type Cacher interface {
	Set(key string, data any, opts Options)
	Get(key string, out any) bool
	Remove(key string)
	Clear()
	Has(key string) bool
	Stats() Stats
}

// Ensure Cache implements Cacher interface.
var _ Cacher = (*Cache)(nil)

// Cache is the in-memory implementation. It is constructed once per
// process and injected into the orchestrator rather than reached
// through package state, so tests can substitute a fake clock.
type Cache struct {
	mu       sync.RWMutex
	entries  map[string]entry
	capacity int
	now      func() time.Time
}

// New creates a cache with the given capacity. capacity <= 0 uses
// DefaultCapacity.
func New(capacity int) *Cache {
	if capacity <= 0 {
		capacity = DefaultCapacity
	}
	return &Cache{
		entries:  make(map[string]entry),
		capacity: capacity,
		now:      time.Now,
	}
}

// NewWithClock creates a cache with an injected clock (for testing).
func NewWithClock(capacity int, now func() time.Time) *Cache {
	c := New(capacity)
	c.now = now
	return c
}

// Set serializes data and stores it under key. Write failures are never
// surfaced to the caller: on a full cache the expired entries under the
// key prefix are swept and the write retried once; if still full the
// write is dropped and logged.
func (c *Cache) Set(key string, data any, opts Options) {
	raw, err := json.Marshal(data)
	if err != nil {
		log.Debug("cache set dropped, marshal failed", "key", key, "error", err)
		return
	}

	version := opts.Version
	if version == "" {
		version = Version
	}

	e := entry{
		Data:      raw,
		Timestamp: c.now(),
		Version:   version,
		ExpiryMS:  opts.Expiry.Milliseconds(),
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if !c.hasRoomLocked(key) {
		removed := c.sweepExpiredLocked()
		log.Debug("cache full, swept expired entries", "removed", removed)
		if !c.hasRoomLocked(key) {
			log.Debug("cache set dropped, cache still full", "key", key, "size", len(c.entries))
			return
		}
	}

	c.entries[key] = e
}

// Get deserializes the entry under key into out. An expired or corrupt
// entry is removed and reported as a miss, never returned stale.
func (c *Cache) Get(key string, out any) bool {
	c.mu.RLock()
	e, ok := c.entries[key]
	c.mu.RUnlock()
	if !ok {
		return false
	}

	if c.expired(e) {
		c.Remove(key)
		return false
	}

	if e.Version != Version {
		log.Debug("cache version mismatch", "cached", e.Version, "current", Version, "key", key)
		c.Remove(key)
		return false
	}

	if err := json.Unmarshal(e.Data, out); err != nil {
		log.Debug("cache entry corrupt, removing", "key", key, "error", err)
		c.Remove(key)
		return false
	}

	return true
}

// Has reports whether a live (non-expired) entry exists under key.
// Expired entries are lazily removed, so an expired key never
// resurrects.
func (c *Cache) Has(key string) bool {
	c.mu.RLock()
	e, ok := c.entries[key]
	c.mu.RUnlock()
	if !ok {
		return false
	}
	if c.expired(e) {
		c.Remove(key)
		return false
	}
	return true
}

// Remove deletes the entry under key.
func (c *Cache) Remove(key string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.entries, key)
}

// Clear removes every entry under the cache's key prefix.
func (c *Cache) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries = make(map[string]entry)
}

// Stats returns the current size and keys of the cache.
func (c *Cache) Stats() Stats {
	c.mu.RLock()
	defer c.mu.RUnlock()

	keys := make([]string, 0, len(c.entries))
	for k := range c.entries {
		keys = append(keys, k)
	}
	return Stats{Size: len(keys), Keys: keys}
}

// expired reports whether the entry is logically absent:
// now - timestamp > expiry.
func (c *Cache) expired(e entry) bool {
	if e.ExpiryMS <= 0 {
		return false
	}
	return c.now().Sub(e.Timestamp) > time.Duration(e.ExpiryMS)*time.Millisecond
}

// hasRoomLocked reports whether a write for key would fit. Overwrites
// of an existing key always fit.
func (c *Cache) hasRoomLocked(key string) bool {
	if _, exists := c.entries[key]; exists {
		return true
	}
	return len(c.entries) < c.capacity
}

// sweepExpiredLocked removes all expired entries and returns the count.
func (c *Cache) sweepExpiredLocked() int {
	removed := 0
	for k, e := range c.entries {
		if c.expired(e) {
			delete(c.entries, k)
			removed++
		}
	}
	return removed
}
