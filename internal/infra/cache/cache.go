// Package cache provides the caching backends: an in-memory TTL cache and a
// Redis-backed variant selected when REDIS_ADDR is configured.
package cache

import (
	"sync"
	"time"
)

type item[T any] struct {
	value  T
	expiry time.Time
}

// InMemory is a concurrency-safe TTL cache. Expired entries are invisible to
// Get immediately; a background sweep reclaims their memory.
type InMemory[T any] struct {
	mu  sync.RWMutex
	m   map[string]item[T]
	ttl time.Duration
}

// New builds an in-memory cache whose entries live for ttl.
func New[T any](ttl time.Duration) *InMemory[T] {
	c := &InMemory[T]{
		m:   make(map[string]item[T]),
		ttl: ttl,
	}
	go c.sweep()
	return c
}

func (c *InMemory[T]) Get(key string) (T, bool) {
	c.mu.RLock()
	it, ok := c.m[key]
	c.mu.RUnlock()

	if !ok || time.Now().After(it.expiry) {
		var zero T
		return zero, false
	}
	return it.value, true
}

func (c *InMemory[T]) Set(key string, value T) {
	c.mu.Lock()
	c.m[key] = item[T]{value: value, expiry: time.Now().Add(c.ttl)}
	c.mu.Unlock()
}

func (c *InMemory[T]) Delete(key string) {
	c.mu.Lock()
	delete(c.m, key)
	c.mu.Unlock()
}

func (c *InMemory[T]) sweep() {
	interval := c.ttl
	if interval < time.Minute {
		interval = time.Minute
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for range ticker.C {
		now := time.Now()
		c.mu.Lock()
		for k, it := range c.m {
			if now.After(it.expiry) {
				delete(c.m, k)
			}
		}
		c.mu.Unlock()
	}
}
