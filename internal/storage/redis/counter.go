package redis

import (
	"context"
	"fmt"
	"time"
)

// CounterStore 基于 Redis 的共享计数器存储
//
// INCR 在 Redis 端是原子操作，多实例部署共享同一份计数，
// 两个并发请求不可能读到相同的自增结果。
// 计数器依赖 TTL 自动回收，不做显式删除。
type CounterStore struct {
	client *Client
}

// NewCounterStore 创建 Redis 计数器存储
func NewCounterStore(client *Client) *CounterStore {
	return &CounterStore{client: client}
}

// IncrementAndGet 对 key 在给定窗口内的计数加一并返回自增后的值
//
// 键名带上窗口起点，窗口切换后自然落到新键，旧键等待 TTL 过期
func (c *CounterStore) IncrementAndGet(ctx context.Context, key string, windowStart time.Time, ttl time.Duration) (int64, error) {
	redisKey := fmt.Sprintf("ratelimit:%s:%d", key, windowStart.Unix())

	pipe := c.client.rdb.TxPipeline()
	incr := pipe.Incr(ctx, redisKey)
	pipe.Expire(ctx, redisKey, ttl)
	if _, err := pipe.Exec(ctx); err != nil {
		return 0, fmt.Errorf("redis increment: %w", err)
	}

	return incr.Val(), nil
}
