package cache

import (
	"context"
	"sync"
	"time"
)

type memoryEntry struct {
	value  string
	expiry time.Time
}

// Memory is a process-local cache. Expired entries are dropped lazily.
type Memory struct {
	mu         sync.RWMutex
	generation int64
	entries    map[string]memoryEntry
	ttl        time.Duration
}

var _ Cache = (*Memory)(nil)

func NewMemory(ttl time.Duration) *Memory {
	return &Memory{entries: make(map[string]memoryEntry), ttl: ttl}
}

func (c *Memory) Get(_ context.Context, gen int64, key string) (string, bool, error) {
	c.mu.RLock()
	entry, found := c.entries[key]
	current := c.generation
	c.mu.RUnlock()
	if !found || gen != current {
		return "", false, nil
	}
	if time.Now().After(entry.expiry) {
		c.mu.Lock()
		if e, ok := c.entries[key]; ok && e.expiry.Equal(entry.expiry) {
			delete(c.entries, key)
		}
		c.mu.Unlock()
		return "", false, nil
	}
	return entry.value, true, nil
}

// Set drops the write when the cache has cycled since gen was read.
func (c *Memory) Set(_ context.Context, gen int64, key string, value string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if gen != c.generation {
		return nil
	}
	c.entries[key] = memoryEntry{value: value, expiry: time.Now().Add(c.ttl)}
	return nil
}

func (c *Memory) Cycle(_ context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.generation++
	c.entries = make(map[string]memoryEntry)
	return nil
}

func (c *Memory) Generation(_ context.Context) (int64, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.generation, nil
}

func (c *Memory) Close() {}
