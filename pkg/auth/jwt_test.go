package auth

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nurlyy/guestbook/pkg/config"
)

func testManager() *JWTManager {
	return NewJWTManager(&config.JWTConfig{
		Secret:           "test-secret",
		AccessExpiresIn:  15 * time.Minute,
		RefreshExpiresIn: time.Hour,
		Issuer:           "guestbook-test",
	})
}

func TestGenerateAndVerify(t *testing.T) {
	m := testManager()

	token, exp, err := m.GenerateToken(7, "admin@example.com", "ROLE_ADMIN", AccessToken)
	require.NoError(t, err)
	assert.WithinDuration(t, time.Now().Add(15*time.Minute), exp, 5*time.Second)

	claims, err := m.VerifyToken(token)
	require.NoError(t, err)
	assert.Equal(t, int64(7), claims.UserID)
	assert.Equal(t, "admin@example.com", claims.Email)
	assert.Equal(t, "ROLE_ADMIN", claims.Role)
	assert.Equal(t, string(AccessToken), claims.Type)
	assert.Equal(t, "7", claims.Subject)
}

func TestVerifyRejectsForeignSignature(t *testing.T) {
	other := NewJWTManager(&config.JWTConfig{Secret: "other", AccessExpiresIn: time.Minute})
	token, _, err := other.GenerateToken(1, "a@b.com", "ROLE_USER", AccessToken)
	require.NoError(t, err)

	_, err = testManager().VerifyToken(token)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestVerifyRejectsExpired(t *testing.T) {
	m := testManager()
	m.now = func() time.Time { return time.Now().Add(-2 * time.Hour) }
	token, _, err := m.GenerateToken(1, "a@b.com", "ROLE_USER", AccessToken)
	require.NoError(t, err)

	m.now = time.Now
	_, err = m.VerifyToken(token)
	assert.ErrorIs(t, err, ErrExpiredToken)
}

func TestVerifyRejectsGarbage(t *testing.T) {
	_, err := testManager().VerifyToken("not-a-token")
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestRefreshTokens(t *testing.T) {
	m := testManager()
	access, refresh, err := m.GenerateTokenPair(3, "u@b.com", "ROLE_USER")
	require.NoError(t, err)

	_, _, err = m.RefreshTokens(access)
	assert.ErrorIs(t, err, ErrInvalidToken)

	newAccess, newRefresh, err := m.RefreshTokens(refresh)
	require.NoError(t, err)
	assert.NotEmpty(t, newAccess)
	assert.NotEmpty(t, newRefresh)
}
