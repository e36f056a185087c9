package auth

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIssueAndVerify(t *testing.T) {
	tokens := NewTokens("test-secret", time.Hour)

	signed, expires, err := tokens.Issue("65a1f0c2e4b0a1b2c3d4e5f6", TypeAdmin)
	require.NoError(t, err)
	assert.WithinDuration(t, time.Now().Add(time.Hour), expires, 5*time.Second)

	claims, err := tokens.Verify(signed)
	require.NoError(t, err)
	assert.Equal(t, "65a1f0c2e4b0a1b2c3d4e5f6", claims.ID)
	assert.Equal(t, TypeAdmin, claims.Type)
}

func TestVerifyRejectsForeignSecret(t *testing.T) {
	signed, _, err := NewTokens("one", time.Hour).Issue("abc", TypeUser)
	require.NoError(t, err)

	_, err = NewTokens("two", time.Hour).Verify(signed)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestVerifyExpired(t *testing.T) {
	tokens := NewTokens("secret", time.Minute)
	tokens.now = func() time.Time { return time.Now().Add(-2 * time.Hour) }
	signed, _, err := tokens.Issue("abc", TypeUser)
	require.NoError(t, err)

	_, err = NewTokens("secret", time.Minute).Verify(signed)
	assert.ErrorIs(t, err, ErrExpiredToken)
}

func TestVerifyRejectsUnknownType(t *testing.T) {
	claims := Claims{ID: "abc", Type: "robot"}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte("secret"))
	require.NoError(t, err)

	_, err = NewTokens("secret", time.Hour).Verify(signed)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestIssueRejectsUnknownType(t *testing.T) {
	_, _, err := NewTokens("secret", time.Hour).Issue("abc", "robot")
	assert.Error(t, err)
}
