package agent

import (
	"context"
	"fmt"
	"sync"

	lru "github.com/hashicorp/golang-lru/v2"
)

// Cache holds one value per key. Values are stored as given; callers copy
// what they must not share.
type Cache[S any] interface {
	Set(ctx context.Context, key string, val S) error
	Get(ctx context.Context, key string) (S, bool, error)
	Del(ctx context.Context, key string) error
}

type MemoryCache[S any] struct {
	mu sync.RWMutex
	m  map[string]S
}

func NewMemoryCache[S any]() *MemoryCache[S] {
	return &MemoryCache[S]{m: map[string]S{}}
}

func (m *MemoryCache[S]) Set(ctx context.Context, key string, val S) error {
	m.mu.Lock()
	m.m[key] = val
	m.mu.Unlock()
	return nil
}

func (m *MemoryCache[S]) Get(ctx context.Context, key string) (S, bool, error) {
	m.mu.RLock()
	val, ok := m.m[key]
	m.mu.RUnlock()
	return val, ok, nil
}

func (m *MemoryCache[S]) Del(ctx context.Context, key string) error {
	m.mu.Lock()
	delete(m.m, key)
	m.mu.Unlock()
	return nil
}

// LRUCache bounds the number of keys it holds; the least recently used key
// is evicted first. Evicted sessions are forgotten, so it suits processes
// that only need recent conversations.
type LRUCache[S any] struct {
	lru *lru.Cache[string, S]
}

func NewLRUCache[S any](size int) (*LRUCache[S], error) {
	c, err := lru.New[string, S](size)
	if err != nil {
		return nil, fmt.Errorf("failed to create LRU cache: %w", err)
	}
	return &LRUCache[S]{lru: c}, nil
}

func (c *LRUCache[S]) Set(ctx context.Context, key string, val S) error {
	c.lru.Add(key, val)
	return nil
}

func (c *LRUCache[S]) Get(ctx context.Context, key string) (S, bool, error) {
	val, ok := c.lru.Get(key)
	return val, ok, nil
}

func (c *LRUCache[S]) Del(ctx context.Context, key string) error {
	c.lru.Remove(key)
	return nil
}

// Len reports the number of cached keys.
func (c *LRUCache[S]) Len() int {
	return c.lru.Len()
}
