// Package redis 基于 Redis 的价格快照缓存。
package redis

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/franksiereveld/rationalmarkets/internal/marketdata/domain"
)

// SnapshotRedisCache 把价格快照以 JSON 存入 Redis，TTL 由写入方指定。
type SnapshotRedisCache struct {
	client redis.UniversalClient
	prefix string
}

// NewSnapshotRedisCache 创建基于 Redis 的快照缓存。
func NewSnapshotRedisCache(client redis.UniversalClient) *SnapshotRedisCache {
	return &SnapshotRedisCache{
		client: client,
		prefix: "marketdata:snapshot:",
	}
}

// Get 读取符号的缓存快照，未命中返回 (nil, nil)。
func (c *SnapshotRedisCache) Get(ctx context.Context, symbol string) (*domain.PriceSnapshot, error) {
	data, err := c.client.Get(ctx, c.prefix+symbol).Bytes()
	if err != nil {
		if err == redis.Nil {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get snapshot from redis: %w", err)
	}

	var snap domain.PriceSnapshot
	if err := json.Unmarshal(data, &snap); err != nil {
		return nil, fmt.Errorf("failed to unmarshal snapshot: %w", err)
	}
	return &snap, nil
}

// Set 写入符号的快照。
func (c *SnapshotRedisCache) Set(ctx context.Context, snap *domain.PriceSnapshot, ttl time.Duration) error {
	if snap == nil {
		return nil
	}
	data, err := json.Marshal(snap)
	if err != nil {
		return fmt.Errorf("failed to marshal snapshot: %w", err)
	}
	return c.client.Set(ctx, c.prefix+snap.Symbol, data, ttl).Err()
}
