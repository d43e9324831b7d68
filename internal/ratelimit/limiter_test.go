package ratelimit

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"todoapi/backend/internal/clock"
	"todoapi/backend/internal/storage/memory"
)

func TestLimiter_AllowsUpToLimit(t *testing.T) {
	clk := clock.NewMock(time.Date(2026, 1, 15, 12, 0, 0, 0, time.UTC))
	limiter := NewLimiter(memory.NewCounterStore(), 5, time.Second, clk, zap.NewNop())

	for i := 0; i < 5; i++ {
		decision, err := limiter.Admit(context.Background(), "user-1")
		require.NoError(t, err)
		assert.True(t, decision.Allowed)
		assert.Equal(t, int64(5-i-1), decision.Remaining)
	}

	// The sixth request in the same window is rejected.
	decision, err := limiter.Admit(context.Background(), "user-1")
	require.NoError(t, err)
	assert.False(t, decision.Allowed)
	assert.Equal(t, int64(0), decision.Remaining)
	assert.Greater(t, decision.RetryAfter, time.Duration(0))
	assert.LessOrEqual(t, decision.RetryAfter, time.Second)
}

func TestLimiter_WindowRollover(t *testing.T) {
	clk := clock.NewMock(time.Date(2026, 1, 15, 12, 0, 0, 0, time.UTC))
	limiter := NewLimiter(memory.NewCounterStore(), 2, time.Second, clk, zap.NewNop())

	for i := 0; i < 2; i++ {
		decision, err := limiter.Admit(context.Background(), "user-1")
		require.NoError(t, err)
		require.True(t, decision.Allowed)
	}

	decision, err := limiter.Admit(context.Background(), "user-1")
	require.NoError(t, err)
	require.False(t, decision.Allowed)

	// A fresh window grants a fresh quota.
	clk.Advance(time.Second)
	decision, err = limiter.Admit(context.Background(), "user-1")
	require.NoError(t, err)
	assert.True(t, decision.Allowed)
}

func TestLimiter_IndependentKeys(t *testing.T) {
	clk := clock.NewMock(time.Date(2026, 1, 15, 12, 0, 0, 0, time.UTC))
	limiter := NewLimiter(memory.NewCounterStore(), 1, time.Minute, clk, zap.NewNop())

	decision, err := limiter.Admit(context.Background(), "user-1")
	require.NoError(t, err)
	require.True(t, decision.Allowed)

	decision, err = limiter.Admit(context.Background(), "user-1")
	require.NoError(t, err)
	require.False(t, decision.Allowed)

	// A different identity has its own counter.
	decision, err = limiter.Admit(context.Background(), "user-2")
	require.NoError(t, err)
	assert.True(t, decision.Allowed)
}

func TestLimiter_ConcurrentAdmission(t *testing.T) {
	// 100 goroutines racing on the same key must produce exactly
	// limit admissions; increment-and-read is a single atomic step.
	clk := clock.NewMock(time.Date(2026, 1, 15, 12, 0, 0, 0, time.UTC))
	limiter := NewLimiter(memory.NewCounterStore(), 5, time.Minute, clk, zap.NewNop())

	var (
		wg      sync.WaitGroup
		mu      sync.Mutex
		allowed int
	)
	for i := 0; i < 100; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			decision, err := limiter.Admit(context.Background(), "user-1")
			if err == nil && decision.Allowed {
				mu.Lock()
				allowed++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, 5, allowed)
}
