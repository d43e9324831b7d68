package memory

import (
	"context"
	"sync"
	"time"
)

// counterEntry 单个窗口计数器
type counterEntry struct {
	windowStart time.Time
	count       int64
	expiresAt   time.Time
}

// CounterStore 进程内计数器存储
//
// 单实例部署时的 Redis 替代品。自增和读取在同一把锁内完成，
// 满足限流器要求的原子 increment-and-get 语义。
type CounterStore struct {
	mu       sync.Mutex
	counters map[string]*counterEntry
}

// NewCounterStore 创建进程内计数器存储
func NewCounterStore() *CounterStore {
	return &CounterStore{
		counters: make(map[string]*counterEntry),
	}
}

// IncrementAndGet 对 key 在给定窗口内的计数加一并返回自增后的值
//
// 窗口切换时计数器重置；过期条目顺带清理，不需要后台协程
func (c *CounterStore) IncrementAndGet(_ context.Context, key string, windowStart time.Time, ttl time.Duration) (int64, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	now := time.Now()
	entry, ok := c.counters[key]
	if !ok || !entry.windowStart.Equal(windowStart) {
		entry = &counterEntry{windowStart: windowStart}
		c.counters[key] = entry
	}
	entry.count++
	entry.expiresAt = now.Add(ttl)

	// 顺带回收少量过期条目，摊薄清理成本
	c.evictLocked(now, 8)

	return entry.count, nil
}

// evictLocked 最多检查 limit 个条目并删除其中已过期的
func (c *CounterStore) evictLocked(now time.Time, limit int) {
	checked := 0
	for key, entry := range c.counters {
		if checked >= limit {
			return
		}
		if now.After(entry.expiresAt) {
			delete(c.counters, key)
		}
		checked++
	}
}
