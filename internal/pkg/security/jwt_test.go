package security

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSigner_RoundTrip(t *testing.T) {
	s := NewSigner("secret", "Parley")

	token, err := s.GenerateToken("u1", "u1@example.com", time.Minute)
	require.NoError(t, err)

	claims, err := s.ValidateToken(token)
	require.NoError(t, err)
	assert.Equal(t, "u1", claims.Subject())
	assert.Equal(t, "u1@example.com", claims.Email)
}

func TestSigner_Rejects(t *testing.T) {
	s := NewSigner("secret", "Parley")

	other, err := NewSigner("other", "Parley").GenerateToken("u1", "", time.Minute)
	require.NoError(t, err)
	_, err = s.ValidateToken(other)
	assert.ErrorIs(t, err, ErrTokenInvalid)

	foreign, err := NewSigner("secret", "Elsewhere").GenerateToken("u1", "", time.Minute)
	require.NoError(t, err)
	_, err = s.ValidateToken(foreign)
	assert.ErrorIs(t, err, ErrTokenInvalid)

	_, err = s.ValidateToken("not-a-token")
	assert.ErrorIs(t, err, ErrTokenInvalid)
}

func TestSigner_DefaultTTL(t *testing.T) {
	s := NewSigner("secret", "Parley")
	token, err := s.GenerateToken("u1", "", 0)
	require.NoError(t, err)

	claims, err := s.ValidateToken(token)
	require.NoError(t, err)
	assert.WithinDuration(t, time.Now().Add(JWTExpirationTime), claims.ExpiresAt.Time, time.Minute)
}

func TestSigner_RejectsExpired(t *testing.T) {
	claims := jwt.MapClaims{"user_id": "u1", "iss": "Parley", "exp": time.Now().Add(-time.Minute).Unix()}
	raw, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte("secret"))
	require.NoError(t, err)

	_, err = NewSigner("secret", "Parley").ValidateToken(raw)
	assert.ErrorIs(t, err, ErrTokenInvalid)
}

func TestSigner_AcceptsSubjectOnlyTokens(t *testing.T) {
	claims := jwt.MapClaims{"sub": "u9", "iss": "Parley", "exp": time.Now().Add(time.Minute).Unix()}
	raw, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte("secret"))
	require.NoError(t, err)

	got, err := NewSigner("secret", "Parley").ValidateToken(raw)
	require.NoError(t, err)
	assert.Equal(t, "u9", got.Subject())
}
