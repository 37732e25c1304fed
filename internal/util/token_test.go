package util

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sdghub/backend/dao/model"
)

func testManager() *TokenManager {
	return NewTokenManager("access-secret", "refresh-secret", 15*time.Minute, 7*24*time.Hour)
}

func TestTokenRoundTrip(t *testing.T) {
	tm := testManager()
	msg := &JWTMessage{
		UserID: uuid.New(),
		Email:  "somchai@example.com",
		Role:   model.RoleApprover,
	}

	access, refresh, err := tm.CreateTokens(msg)
	require.NoError(t, err)
	require.NotEqual(t, access, refresh)

	got, remaining, err := tm.CheckAccessToken(access)
	require.NoError(t, err)
	assert.Equal(t, msg.UserID, got.UserID)
	assert.Equal(t, msg.Email, got.Email)
	assert.Equal(t, msg.Role, got.Role)
	assert.Greater(t, remaining, 14*time.Minute)

	got, err = tm.CheckRefreshToken(refresh)
	require.NoError(t, err)
	assert.Equal(t, msg.UserID, got.UserID)
}

func TestTokenFamiliesNotInterchangeable(t *testing.T) {
	tm := testManager()
	access, refresh, err := tm.CreateTokens(&JWTMessage{UserID: uuid.New(), Role: model.RoleUser})
	require.NoError(t, err)

	_, _, err = tm.CheckAccessToken(refresh)
	assert.ErrorIs(t, err, ErrTokenInvalid)

	_, err = tm.CheckRefreshToken(access)
	assert.ErrorIs(t, err, ErrRefreshInvalid)
}

func TestTokenExpiry(t *testing.T) {
	tm := NewTokenManager("a", "r", -time.Minute, -time.Minute)
	access, refresh, err := tm.CreateTokens(&JWTMessage{UserID: uuid.New(), Role: model.RoleUser})
	require.NoError(t, err)

	_, _, err = tm.CheckAccessToken(access)
	assert.ErrorIs(t, err, ErrTokenExpired)

	_, err = tm.CheckRefreshToken(refresh)
	assert.ErrorIs(t, err, ErrRefreshExpired)
}

func TestTokenGarbage(t *testing.T) {
	tm := testManager()
	_, _, err := tm.CheckAccessToken("not-a-jwt")
	assert.ErrorIs(t, err, ErrTokenInvalid)
}

func TestTokenWrongSecret(t *testing.T) {
	tm := testManager()
	other := NewTokenManager("different", "different", 15*time.Minute, time.Hour)

	access, _, err := other.CreateTokens(&JWTMessage{UserID: uuid.New(), Role: model.RoleAdmin})
	require.NoError(t, err)

	_, _, err = tm.CheckAccessToken(access)
	assert.ErrorIs(t, err, ErrTokenInvalid)
}
