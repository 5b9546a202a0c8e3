package application

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func signed(t *testing.T, claims jwt.MapClaims) string {
	t.Helper()
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte("k"))
	require.NoError(t, err)
	return token
}

func TestInspectToken(t *testing.T) {
	exp := time.Unix(1_900_000_000, 0)
	claims, err := InspectToken(signed(t, jwt.MapClaims{"UserID": "u1", "PlatformID": 5, "exp": exp.Unix()}))
	require.NoError(t, err)
	assert.Equal(t, "u1", claims.UserID)
	assert.Equal(t, 5, claims.PlatformID)
	require.NotNil(t, claims.ExpiresAt)
	assert.True(t, exp.Equal(*claims.ExpiresAt))
}

func TestInspectToken_Errors(t *testing.T) {
	_, err := InspectToken("")
	assert.Error(t, err)
	_, err = InspectToken("not-a-jwt")
	assert.Error(t, err)
}

func TestRemainingLifetime(t *testing.T) {
	now := time.Unix(1_800_000_000, 0)

	left, ok := remainingLifetime(signed(t, jwt.MapClaims{"exp": now.Add(time.Hour).Unix()}), now)
	require.True(t, ok)
	assert.Equal(t, time.Hour, left)

	_, ok = remainingLifetime(signed(t, jwt.MapClaims{"exp": now.Add(-time.Minute).Unix()}), now)
	assert.False(t, ok)

	_, ok = remainingLifetime(signed(t, jwt.MapClaims{"sub": "x"}), now)
	assert.False(t, ok)

	_, ok = remainingLifetime("opaque", now)
	assert.False(t, ok)
}
