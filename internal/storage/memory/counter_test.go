package memory

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCounterStore_IncrementAndGet(t *testing.T) {
	store := NewCounterStore()
	ctx := context.Background()
	window := time.Date(2026, 1, 15, 12, 0, 0, 0, time.UTC)

	for i := int64(1); i <= 5; i++ {
		count, err := store.IncrementAndGet(ctx, "user-1", window, time.Minute)
		require.NoError(t, err)
		assert.Equal(t, i, count)
	}

	// A different key counts independently
	count, err := store.IncrementAndGet(ctx, "user-2", window, time.Minute)
	require.NoError(t, err)
	assert.Equal(t, int64(1), count)
}

func TestCounterStore_WindowReset(t *testing.T) {
	store := NewCounterStore()
	ctx := context.Background()
	window := time.Date(2026, 1, 15, 12, 0, 0, 0, time.UTC)

	for i := 0; i < 3; i++ {
		_, err := store.IncrementAndGet(ctx, "user-1", window, time.Minute)
		require.NoError(t, err)
	}

	// A new window starts counting from scratch.
	count, err := store.IncrementAndGet(ctx, "user-1", window.Add(time.Minute), time.Minute)
	require.NoError(t, err)
	assert.Equal(t, int64(1), count)
}

func TestCounterStore_ConcurrentIncrements(t *testing.T) {
	store := NewCounterStore()
	ctx := context.Background()
	window := time.Date(2026, 1, 15, 12, 0, 0, 0, time.UTC)

	var wg sync.WaitGroup
	for i := 0; i < 100; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := store.IncrementAndGet(ctx, "user-1", window, time.Minute)
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	count, err := store.IncrementAndGet(ctx, "user-1", window, time.Minute)
	require.NoError(t, err)
	assert.Equal(t, int64(101), count)
}
