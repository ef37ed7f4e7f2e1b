package auth

import (
	"context"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTokenRoundTrip(t *testing.T) {
	m := NewTokenManager("secret", time.Hour, "drink-service")

	signed, issued, err := m.Issue("ann@example.com")
	require.NoError(t, err)
	require.NotEmpty(t, issued.ID)

	claims, err := m.Parse(signed)
	require.NoError(t, err)
	assert.Equal(t, "ann@example.com", claims.Email)
	assert.Equal(t, issued.ID, claims.ID)
	assert.Equal(t, time.Hour, m.TTL())
}

func TestTokenRejected(t *testing.T) {
	m := NewTokenManager("secret", time.Hour, "drink-service")
	signed, _, err := m.Issue("ann@example.com")
	require.NoError(t, err)

	t.Run("wrong secret", func(t *testing.T) {
		_, err := NewTokenManager("other", time.Hour, "drink-service").Parse(signed)
		assert.ErrorIs(t, err, ErrInvalidToken)
	})

	t.Run("wrong issuer", func(t *testing.T) {
		_, err := NewTokenManager("secret", time.Hour, "someone-else").Parse(signed)
		assert.ErrorIs(t, err, ErrInvalidToken)
	})

	t.Run("expired", func(t *testing.T) {
		late := NewTokenManager("secret", time.Hour, "drink-service")
		late.now = func() time.Time { return time.Now().Add(2 * time.Hour) }
		_, err := late.Parse(signed)
		assert.ErrorIs(t, err, ErrInvalidToken)
		assert.Contains(t, err.Error(), "expired")
	})

	t.Run("other algorithm", func(t *testing.T) {
		none, err := jwt.NewWithClaims(jwt.SigningMethodNone, &Claims{Email: "ann@example.com"}).
			SignedString(jwt.UnsafeAllowNoneSignatureType)
		require.NoError(t, err)
		_, err = m.Parse(none)
		assert.ErrorIs(t, err, ErrInvalidToken)
	})

	t.Run("garbage", func(t *testing.T) {
		_, err := m.Parse("not-a-token")
		assert.ErrorIs(t, err, ErrInvalidToken)
	})
}

func TestPassword(t *testing.T) {
	hash, err := HashPassword("Secr3t!")
	require.NoError(t, err)
	assert.NotEqual(t, "Secr3t!", hash)
	assert.True(t, CheckPassword(hash, "Secr3t!"))
	assert.False(t, CheckPassword(hash, "secr3t!"))
	assert.False(t, CheckPassword("not-a-hash", "Secr3t!"))
}

func TestMemorySessions(t *testing.T) {
	ctx := context.Background()
	s := NewMemorySessions()
	now := time.Now()
	s.now = func() time.Time { return now }

	_, err := s.Lookup(ctx, "jti")
	assert.ErrorIs(t, err, ErrSessionNotFound)

	require.NoError(t, s.Save(ctx, "jti", "ann@example.com", time.Minute))
	email, err := s.Lookup(ctx, "jti")
	require.NoError(t, err)
	assert.Equal(t, "ann@example.com", email)

	now = now.Add(time.Minute)
	_, err = s.Lookup(ctx, "jti")
	assert.ErrorIs(t, err, ErrSessionNotFound)

	require.NoError(t, s.Save(ctx, "jti2", "bob@example.com", time.Minute))
	require.NoError(t, s.Revoke(ctx, "jti2"))
	_, err = s.Lookup(ctx, "jti2")
	assert.ErrorIs(t, err, ErrSessionNotFound)
}
