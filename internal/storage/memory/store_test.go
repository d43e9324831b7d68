package memory

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"todoapi/backend/internal/domain"
	"todoapi/backend/internal/storage"
)

func TestStore_UserLifecycle(t *testing.T) {
	store := NewStore()
	ctx := context.Background()

	user := &domain.User{
		ID:        "user-1",
		Email:     "test@example.com",
		RoleLevel: domain.RoleLevelUser,
		IsActive:  true,
		CreatedAt: time.Now(),
	}
	require.NoError(t, store.CreateUser(ctx, user))

	// Duplicate email is rejected
	dup := &domain.User{ID: "user-2", Email: "test@example.com"}
	assert.ErrorIs(t, store.CreateUser(ctx, dup), storage.ErrAlreadyExists)

	got, err := store.GetUserByEmail(ctx, "test@example.com")
	require.NoError(t, err)
	assert.Equal(t, "user-1", got.ID)

	role, err := store.FindUserRole(ctx, "user-1")
	require.NoError(t, err)
	assert.Equal(t, domain.RoleLevelUser, role)

	// Deactivated users no longer resolve to a role
	user.IsActive = false
	require.NoError(t, store.UpdateUser(ctx, user))
	_, err = store.FindUserRole(ctx, "user-1")
	assert.ErrorIs(t, err, storage.ErrNotFound)
}

func TestStore_RotateAPIKey(t *testing.T) {
	store := NewStore()
	ctx := context.Background()
	now := time.Date(2026, 1, 15, 12, 0, 0, 0, time.UTC)

	old := &domain.APIKey{
		ID:      "key-1",
		KeyHash: "hash-1",
		UserID:  "user-1",
	}
	require.NoError(t, store.CreateAPIKey(ctx, old))

	newKey := &domain.APIKey{
		ID:      "key-2",
		KeyHash: "hash-2",
		UserID:  "user-1",
	}
	require.NoError(t, store.RotateAPIKey(ctx, "key-1", now, newKey))

	// The old record is disabled and linked to its successor.
	rotated, err := store.GetAPIKeyByID(ctx, "key-1")
	require.NoError(t, err)
	assert.True(t, rotated.Disabled)
	require.NotNil(t, rotated.SupersededBy)
	assert.Equal(t, "key-2", *rotated.SupersededBy)
	require.NotNil(t, rotated.RotatedAt)
	assert.True(t, rotated.RotatedAt.Equal(now))

	// The new record is live and resolvable by hash.
	created, err := store.FindAPIKeyByHash(ctx, "hash-2")
	require.NoError(t, err)
	assert.Equal(t, "key-2", created.ID)
	assert.False(t, created.Disabled)
}

func TestStore_RotateAPIKey_WrongOwner(t *testing.T) {
	store := NewStore()
	ctx := context.Background()

	require.NoError(t, store.CreateAPIKey(ctx, &domain.APIKey{
		ID:      "key-1",
		KeyHash: "hash-1",
		UserID:  "user-1",
	}))

	err := store.RotateAPIKey(ctx, "key-1", time.Now(), &domain.APIKey{
		ID:      "key-2",
		KeyHash: "hash-2",
		UserID:  "user-2",
	})
	assert.ErrorIs(t, err, storage.ErrNotFound)

	// Nothing must be left behind from the failed rotation.
	original, err := store.GetAPIKeyByID(ctx, "key-1")
	require.NoError(t, err)
	assert.False(t, original.Disabled)
	_, err = store.FindAPIKeyByHash(ctx, "hash-2")
	assert.ErrorIs(t, err, storage.ErrNotFound)
}

func TestStore_RotateAPIKey_AlreadyDisabled(t *testing.T) {
	store := NewStore()
	ctx := context.Background()

	require.NoError(t, store.CreateAPIKey(ctx, &domain.APIKey{
		ID:      "key-1",
		KeyHash: "hash-1",
		UserID:  "user-1",
	}))
	require.NoError(t, store.DisableAPIKey(ctx, "key-1", "user-1"))

	err := store.RotateAPIKey(ctx, "key-1", time.Now(), &domain.APIKey{
		ID:      "key-2",
		KeyHash: "hash-2",
		UserID:  "user-1",
	})
	assert.ErrorIs(t, err, storage.ErrNotFound)
}

func TestStore_RotateAPIKey_ConcurrentSingleWinner(t *testing.T) {
	// Concurrent rotations of the same key: exactly one succeeds,
	// the rest observe the already-disabled record.
	store := NewStore()
	ctx := context.Background()

	require.NoError(t, store.CreateAPIKey(ctx, &domain.APIKey{
		ID:      "key-1",
		KeyHash: "hash-1",
		UserID:  "user-1",
	}))

	var (
		wg        sync.WaitGroup
		mu        sync.Mutex
		succeeded int
	)
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()
			err := store.RotateAPIKey(ctx, "key-1", time.Now(), &domain.APIKey{
				ID:      fmt.Sprintf("new-key-%d", n),
				KeyHash: fmt.Sprintf("new-hash-%d", n),
				UserID:  "user-1",
			})
			if err == nil {
				mu.Lock()
				succeeded++
				mu.Unlock()
			}
		}(i)
	}
	wg.Wait()

	assert.Equal(t, 1, succeeded)
}

func TestStore_UsageRoundTrip(t *testing.T) {
	store := NewStore()
	ctx := context.Background()
	now := time.Date(2026, 1, 15, 12, 0, 0, 0, time.UTC)

	events := []domain.UsageEvent{
		{Endpoint: "/todos", UserID: "user-1", OccurredAt: now.Add(-2 * time.Hour)},
		{Endpoint: "/todos", UserID: "user-1", OccurredAt: now.Add(-30 * time.Minute)},
		{Endpoint: "/todos", UserID: "user-2", OccurredAt: now},
	}
	require.NoError(t, store.AppendBatch(ctx, events))

	got, err := store.ListUsageByUser(ctx, "user-1", now.Add(-time.Hour))
	require.NoError(t, err)
	assert.Len(t, got, 1)
	assert.Equal(t, "/todos", got[0].Endpoint)
}
