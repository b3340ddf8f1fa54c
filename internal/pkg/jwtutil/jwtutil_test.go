package jwtutil

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGenerateAndParse_Success(t *testing.T) {
	t.Parallel()

	tok, err := GenerateToken("super-secret", time.Hour, Claims{
		UserID:  "user-123",
		Email:   "alice@example.com",
		Role:    "admin",
		IsAdmin: true,
	})
	require.NoError(t, err)

	claims, err := ParseToken("super-secret", tok)
	require.NoError(t, err)
	assert.Equal(t, "user-123", claims.UserID)
	assert.Equal(t, "user-123", claims.Subject)
	assert.Equal(t, "alice@example.com", claims.Email)
	assert.True(t, claims.IsAdmin)
	assert.NotEmpty(t, claims.ID)
}

func TestParseToken_Expired(t *testing.T) {
	t.Parallel()

	tok, err := GenerateToken("secret", -time.Second, Claims{UserID: "u1"})
	require.NoError(t, err)

	_, err = ParseToken("secret", tok)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestParseToken_WrongSecret(t *testing.T) {
	t.Parallel()

	tok, err := GenerateToken("right-secret", time.Hour, Claims{UserID: "u2"})
	require.NoError(t, err)

	_, err = ParseToken("wrong-secret", tok)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestParseToken_Malformed(t *testing.T) {
	t.Parallel()

	_, err := ParseToken("k", "not.a.jwt")
	assert.ErrorIs(t, err, ErrInvalidToken)
}
