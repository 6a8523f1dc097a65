package auth_test

import (
	"testing"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gebeta-app/gebeta/pkg/auth"
)

func TestTokenRoundTrip(t *testing.T) {
	tok, err := auth.GenerateToken(7, "restaurant_owner")
	require.NoError(t, err)

	claims, err := auth.ValidateToken(tok)
	require.NoError(t, err)
	assert.Equal(t, uint(7), claims.UserID)
	assert.Equal(t, "restaurant_owner", claims.Role)
	assert.Equal(t, "7", claims.Subject)
}

func TestRejectsTamperedAndForeignTokens(t *testing.T) {
	tok, err := auth.GenerateToken(1, "user")
	require.NoError(t, err)

	_, err = auth.ValidateToken(tok + "x")
	assert.Error(t, err)

	foreign, err := jwt.NewWithClaims(jwt.SigningMethodHS256, auth.Claims{UserID: 1, Role: "admin"}).
		SignedString([]byte("some-other-secret"))
	require.NoError(t, err)
	_, err = auth.ValidateToken(foreign)
	assert.Error(t, err)
}

func TestPasswordHash(t *testing.T) {
	hash, err := auth.HashPassword("s3cret-pass")
	require.NoError(t, err)

	assert.True(t, auth.CheckPassword(hash, "s3cret-pass"))
	assert.False(t, auth.CheckPassword(hash, "wrong"))
}
