// Package cache 进程内的价格快照缓存，未配置 Redis 时使用。
package cache

import (
	"context"
	"sync"
	"time"

	"github.com/franksiereveld/rationalmarkets/internal/marketdata/domain"
)

type entry struct {
	snap      *domain.PriceSnapshot
	expiresAt time.Time
}

// MemoryCache 带 TTL 的内存快照缓存，读取时惰性淘汰过期项。
type MemoryCache struct {
	mu      sync.RWMutex
	entries map[string]entry
	now     func() time.Time
}

// NewMemoryCache 创建内存缓存。
func NewMemoryCache() *MemoryCache {
	return &MemoryCache{
		entries: make(map[string]entry),
		now:     time.Now,
	}
}

// SetClock 注入时钟，测试用。
func (c *MemoryCache) SetClock(now func() time.Time) {
	c.now = now
}

// Get 读取符号的缓存快照，未命中或已过期返回 (nil, nil)。
func (c *MemoryCache) Get(_ context.Context, symbol string) (*domain.PriceSnapshot, error) {
	c.mu.RLock()
	e, ok := c.entries[symbol]
	c.mu.RUnlock()
	if !ok {
		return nil, nil
	}
	if c.now().After(e.expiresAt) {
		c.mu.Lock()
		if cur, ok := c.entries[symbol]; ok && cur.expiresAt.Equal(e.expiresAt) {
			delete(c.entries, symbol)
		}
		c.mu.Unlock()
		return nil, nil
	}
	return e.snap.Clone(), nil
}

// Set 写入符号的快照。
func (c *MemoryCache) Set(_ context.Context, snap *domain.PriceSnapshot, ttl time.Duration) error {
	if snap == nil {
		return nil
	}
	c.mu.Lock()
	c.entries[snap.Symbol] = entry{snap: snap.Clone(), expiresAt: c.now().Add(ttl)}
	c.mu.Unlock()
	return nil
}
