package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"todoapi/backend/internal/auth"
	"todoapi/backend/internal/clock"
	"todoapi/backend/internal/config"
	"todoapi/backend/internal/domain"
	"todoapi/backend/internal/storage/memory"
)

func newAuthFixture(t *testing.T) (*AuthService, *memory.Store, *auth.TokenCodec, *clock.Mock) {
	t.Helper()

	store := memory.NewStore()
	clk := clock.NewMock(time.Date(2026, 1, 15, 12, 0, 0, 0, time.UTC))
	codec := auth.NewTokenCodec(config.JWTConfig{
		Secret:       "test-secret-at-least-32-characters!!",
		Issuer:       "todoapi-test",
		Audience:     "todoapi-clients",
		AccessExpiry: time.Hour,
	}, clk)

	hash, err := bcrypt.GenerateFromPassword([]byte("correct-password"), bcrypt.MinCost)
	require.NoError(t, err)
	require.NoError(t, store.CreateUser(context.Background(), &domain.User{
		ID:           "user-1",
		Email:        "test@example.com",
		PasswordHash: string(hash),
		RoleLevel:    domain.RoleLevelUser,
		IsActive:     true,
	}))

	return NewAuthService(store, codec, clk, zap.NewNop()), store, codec, clk
}

func TestAuthService_Login(t *testing.T) {
	svc, store, codec, clk := newAuthFixture(t)
	ctx := context.Background()

	token, user, err := svc.Login(ctx, "test@example.com", "correct-password")
	require.NoError(t, err)
	require.NotNil(t, user)
	assert.Equal(t, "user-1", user.ID)

	// The issued token carries subject and role level.
	claims, err := codec.Verify(token)
	require.NoError(t, err)
	assert.Equal(t, "user-1", claims.Subject)
	assert.Equal(t, domain.RoleLevelUser, claims.RoleLevel)

	// Last login time is persisted.
	stored, err := store.GetUserByID(ctx, "user-1")
	require.NoError(t, err)
	require.NotNil(t, stored.LastLoginAt)
	assert.True(t, stored.LastLoginAt.Equal(clk.Now()))
}

func TestAuthService_Login_WrongPassword(t *testing.T) {
	svc, _, _, _ := newAuthFixture(t)

	_, _, err := svc.Login(context.Background(), "test@example.com", "wrong-password")
	assert.ErrorIs(t, err, ErrInvalidCredentials)
}

func TestAuthService_Login_UnknownEmail(t *testing.T) {
	// Unknown users produce the same error as a wrong password.
	svc, _, _, _ := newAuthFixture(t)

	_, _, err := svc.Login(context.Background(), "nobody@example.com", "whatever")
	assert.ErrorIs(t, err, ErrInvalidCredentials)
}

func TestAuthService_Login_InactiveUser(t *testing.T) {
	svc, store, _, _ := newAuthFixture(t)
	ctx := context.Background()

	user, err := store.GetUserByID(ctx, "user-1")
	require.NoError(t, err)
	user.IsActive = false
	require.NoError(t, store.UpdateUser(ctx, user))

	_, _, err = svc.Login(ctx, "test@example.com", "correct-password")
	assert.ErrorIs(t, err, ErrUserInactive)
}
