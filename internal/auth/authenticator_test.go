package auth

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"todoapi/backend/internal/clock"
	"todoapi/backend/internal/domain"
)

func newAuthenticatorFixture(now time.Time) (*Authenticator, *TokenCodec, *fakeCredentialStore) {
	clk := clock.NewMock(now)
	codec := NewTokenCodec(testJWTConfig(), clk)

	store := &fakeCredentialStore{
		keys:  map[string]*domain.APIKey{},
		roles: map[string]int{"user-1": domain.RoleLevelUser},
	}
	resolver := NewAPIKeyResolver(store, clk, 24*time.Hour, zap.NewNop())

	return NewAuthenticator(codec, resolver, zap.NewNop()), codec, store
}

func TestAuthenticator_NoCredentialRequired(t *testing.T) {
	now := time.Date(2026, 1, 15, 12, 0, 0, 0, time.UTC)
	authn, _, _ := newAuthenticatorFixture(now)

	_, err := authn.Authenticate(context.Background(), domain.Credential{Kind: domain.CredentialNone}, true)
	assert.ErrorIs(t, err, ErrUnauthenticated)
}

func TestAuthenticator_NoCredentialOptional(t *testing.T) {
	// Routes that do not require auth proceed with an anonymous identity.
	now := time.Date(2026, 1, 15, 12, 0, 0, 0, time.UTC)
	authn, _, _ := newAuthenticatorFixture(now)

	identity, err := authn.Authenticate(context.Background(), domain.Credential{Kind: domain.CredentialNone}, false)
	require.NoError(t, err)

	assert.True(t, identity.IsAnonymous())
	assert.Equal(t, domain.RoleLevelAnonymous, identity.RoleLevel)
	assert.Equal(t, domain.AuthMethodAnonymous, identity.Method)
}

func TestAuthenticator_ValidBearerToken(t *testing.T) {
	now := time.Date(2026, 1, 15, 12, 0, 0, 0, time.UTC)
	authn, codec, _ := newAuthenticatorFixture(now)

	signed, err := codec.Sign("user-1", domain.RoleLevelAdmin)
	require.NoError(t, err)

	identity, err := authn.Authenticate(context.Background(), domain.Credential{
		Kind:  domain.CredentialBearer,
		Value: signed,
	}, true)
	require.NoError(t, err)

	assert.Equal(t, "user-1", identity.SubjectID)
	assert.Equal(t, domain.RoleLevelAdmin, identity.RoleLevel)
	assert.Equal(t, domain.AuthMethodToken, identity.Method)
}

func TestAuthenticator_TokenFailuresCollapse(t *testing.T) {
	// Every token failure mode looks identical to the caller so the
	// response cannot be used as a credential probing oracle.
	now := time.Date(2026, 1, 15, 12, 0, 0, 0, time.UTC)
	authn, _, _ := newAuthenticatorFixture(now)

	otherCfg := testJWTConfig()
	otherCfg.Secret = "another-secret-at-least-32-chars!!!!"
	forged, err := NewTokenCodec(otherCfg, clock.NewMock(now)).Sign("user-1", domain.RoleLevelSuper)
	require.NoError(t, err)

	for _, tokenValue := range []string{"garbage", forged} {
		_, err := authn.Authenticate(context.Background(), domain.Credential{
			Kind:  domain.CredentialBearer,
			Value: tokenValue,
		}, true)
		assert.ErrorIs(t, err, ErrUnauthenticated)
	}
}

func TestAuthenticator_APIKey(t *testing.T) {
	now := time.Date(2026, 1, 15, 12, 0, 0, 0, time.UTC)
	authn, _, store := newAuthenticatorFixture(now)

	store.keys[HashAPIKey(testRawKey)] = &domain.APIKey{
		ID:     "key-1",
		UserID: "user-1",
	}

	identity, err := authn.Authenticate(context.Background(), domain.Credential{
		Kind:  domain.CredentialAPIKey,
		Value: testRawKey,
	}, true)
	require.NoError(t, err)

	assert.Equal(t, "user-1", identity.SubjectID)
	assert.Equal(t, domain.AuthMethodAPIKey, identity.Method)
}

func TestAuthenticator_APIKeyFailureCollapses(t *testing.T) {
	now := time.Date(2026, 1, 15, 12, 0, 0, 0, time.UTC)
	authn, _, _ := newAuthenticatorFixture(now)

	_, err := authn.Authenticate(context.Background(), domain.Credential{
		Kind:  domain.CredentialAPIKey,
		Value: "unknown-key",
	}, true)
	assert.ErrorIs(t, err, ErrUnauthenticated)
}

func TestAuthenticator_StoreOutagePassesThrough(t *testing.T) {
	// An unavailable credential store is an infrastructure failure,
	// not an authentication failure, and must stay distinguishable.
	now := time.Date(2026, 1, 15, 12, 0, 0, 0, time.UTC)
	authn, _, store := newAuthenticatorFixture(now)
	store.err = errors.New("connection refused")

	_, err := authn.Authenticate(context.Background(), domain.Credential{
		Kind:  domain.CredentialAPIKey,
		Value: testRawKey,
	}, true)
	assert.ErrorIs(t, err, ErrStoreUnavailable)
}
