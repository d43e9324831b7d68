package auth

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"todoapi/backend/internal/clock"
	"todoapi/backend/internal/config"
)

func testJWTConfig() config.JWTConfig {
	return config.JWTConfig{
		Secret:       "test-secret-at-least-32-characters!!",
		Issuer:       "todoapi-test",
		Audience:     "todoapi-clients",
		AccessExpiry: 15 * time.Minute,
	}
}

func TestTokenCodec_SignAndVerify(t *testing.T) {
	clk := clock.NewMock(time.Date(2026, 1, 15, 12, 0, 0, 0, time.UTC))
	codec := NewTokenCodec(testJWTConfig(), clk)

	signed, err := codec.Sign("user-1", 2)
	require.NoError(t, err)
	require.NotEmpty(t, signed)

	claims, err := codec.Verify(signed)
	require.NoError(t, err)

	assert.Equal(t, "user-1", claims.Subject)
	assert.Equal(t, 2, claims.RoleLevel)
	assert.Equal(t, "todoapi-test", claims.Issuer)
}

func TestTokenCodec_Verify_ExpiredAtBoundary(t *testing.T) {
	// A token is already expired at exactly now == expires_at.
	clk := clock.NewMock(time.Date(2026, 1, 15, 12, 0, 0, 0, time.UTC))
	codec := NewTokenCodec(testJWTConfig(), clk)

	signed, err := codec.Sign("user-1", 1)
	require.NoError(t, err)

	// One second before expiry the token is still valid.
	clk.Advance(15*time.Minute - time.Second)
	_, err = codec.Verify(signed)
	assert.NoError(t, err)

	// At the exact expiry instant it must be rejected.
	clk.Advance(time.Second)
	_, err = codec.Verify(signed)
	assert.ErrorIs(t, err, ErrTokenExpired)
}

func TestTokenCodec_Verify_WrongSecret(t *testing.T) {
	clk := clock.NewMock(time.Date(2026, 1, 15, 12, 0, 0, 0, time.UTC))

	cfg1 := testJWTConfig()
	cfg2 := testJWTConfig()
	cfg2.Secret = "another-secret-at-least-32-chars!!!!"

	signed, err := NewTokenCodec(cfg1, clk).Sign("user-1", 1)
	require.NoError(t, err)

	_, err = NewTokenCodec(cfg2, clk).Verify(signed)
	assert.ErrorIs(t, err, ErrInvalidSignature)
}

func TestTokenCodec_Verify_IssuerMismatch(t *testing.T) {
	clk := clock.NewMock(time.Date(2026, 1, 15, 12, 0, 0, 0, time.UTC))

	signerCfg := testJWTConfig()
	signerCfg.Issuer = "someone-else"

	signed, err := NewTokenCodec(signerCfg, clk).Sign("user-1", 1)
	require.NoError(t, err)

	_, err = NewTokenCodec(testJWTConfig(), clk).Verify(signed)
	assert.ErrorIs(t, err, ErrIssuerMismatch)
}

func TestTokenCodec_Verify_AudienceMismatch(t *testing.T) {
	clk := clock.NewMock(time.Date(2026, 1, 15, 12, 0, 0, 0, time.UTC))

	signerCfg := testJWTConfig()
	signerCfg.Audience = "other-service"

	signed, err := NewTokenCodec(signerCfg, clk).Sign("user-1", 1)
	require.NoError(t, err)

	_, err = NewTokenCodec(testJWTConfig(), clk).Verify(signed)
	assert.ErrorIs(t, err, ErrAudienceMismatch)
}

func TestTokenCodec_Verify_Malformed(t *testing.T) {
	clk := clock.NewMock(time.Date(2026, 1, 15, 12, 0, 0, 0, time.UTC))
	codec := NewTokenCodec(testJWTConfig(), clk)

	_, err := codec.Verify("not-a-token")
	assert.ErrorIs(t, err, ErrInvalidToken)
}
