package ratelimit

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"todoapi/backend/internal/clock"
)

// CounterStore 共享计数器存储
//
// 自增和读取必须是同一个原子操作，否则两个并发请求可能都读到
// limit-1 而同时被放行。具体实现可以是 Redis INCR 或进程内计数器。
type CounterStore interface {
	// IncrementAndGet 对 key 在给定窗口内的计数加一并返回自增后的值。
	// ttl 用于存储层面的自动清理，计数器不需要显式删除。
	IncrementAndGet(ctx context.Context, key string, windowStart time.Time, ttl time.Duration) (int64, error)
}

// Decision 单次准入判定的结果
type Decision struct {
	Allowed    bool
	Remaining  int64         // 本窗口剩余配额，拒绝时为 0
	RetryAfter time.Duration // 拒绝时距下一个窗口开始的时间
}

// Limiter 固定窗口限流器
//
// 窗口不滑动：窗口边界处最坏可能出现 2 倍限额的突发，
// 这是换取实现简单性的已知取舍，不是缺陷。
type Limiter struct {
	store  CounterStore
	limit  int64
	period time.Duration
	clock  clock.Clock
	log    *zap.Logger
}

// NewLimiter 创建固定窗口限流器
func NewLimiter(store CounterStore, limit int, period time.Duration, clk clock.Clock, log *zap.Logger) *Limiter {
	return &Limiter{
		store:  store,
		limit:  int64(limit),
		period: period,
		clock:  clk,
		log:    log,
	}
}

// Admit 对给定身份键做一次准入判定
//
// identityKey 为主体 ID，未认证路由退化为客户端地址。
// 计数器存储不可达时返回错误，由调用方按 5xx 处理。
func (l *Limiter) Admit(ctx context.Context, identityKey string) (Decision, error) {
	now := l.clock.Now()
	windowStart := now.Truncate(l.period)

	// TTL 取两个窗口长度，保证跨窗口的旧计数器能被存储层回收
	count, err := l.store.IncrementAndGet(ctx, identityKey, windowStart, 2*l.period)
	if err != nil {
		return Decision{}, fmt.Errorf("counter store increment: %w", err)
	}

	if count > l.limit {
		retryAfter := windowStart.Add(l.period).Sub(now)
		l.log.Debug("rate limit exceeded",
			zap.String("identity_key", identityKey),
			zap.Int64("count", count),
			zap.Duration("retry_after", retryAfter),
		)
		return Decision{Allowed: false, RetryAfter: retryAfter}, nil
	}

	return Decision{Allowed: true, Remaining: l.limit - count}, nil
}

// Limit 返回配置的窗口限额
func (l *Limiter) Limit() int64 { return l.limit }
