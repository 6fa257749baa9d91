package utils

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAccessTokenClampedToAccountExpiry(t *testing.T) {
	notAfter := time.Now().UTC().Add(2 * time.Minute)
	tok, err := NewAccessToken("secret", 7, "alice", time.Hour, notAfter)
	require.NoError(t, err)
	assert.WithinDuration(t, notAfter, tok.Exp, time.Second)

	parsed, err := jwt.Parse(tok.Token, func(*jwt.Token) (interface{}, error) {
		return []byte("secret"), nil
	})
	require.NoError(t, err)
	claims := parsed.Claims.(jwt.MapClaims)
	assert.Equal(t, float64(7), claims["sub"])
	assert.Equal(t, "alice", claims["username"])
}

func TestAccessTokenShortTTLWins(t *testing.T) {
	notAfter := time.Now().UTC().Add(time.Hour)
	tok, err := NewAccessToken("secret", 7, "alice", 5*time.Minute, notAfter)
	require.NoError(t, err)
	assert.WithinDuration(t, time.Now().UTC().Add(5*time.Minute), tok.Exp, time.Second)
}

func TestRefreshTokenHashStable(t *testing.T) {
	r1, err := NewRefreshToken(time.Hour, time.Now().UTC().Add(time.Minute))
	require.NoError(t, err)
	r2, err := NewRefreshToken(time.Hour, time.Now().UTC().Add(time.Minute))
	require.NoError(t, err)

	assert.NotEqual(t, r1.Raw, r2.Raw)
	assert.Equal(t, HashRefreshRaw(r1.Raw), HashRefreshRaw(r1.Raw))
	assert.NotEqual(t, HashRefreshRaw(r1.Raw), HashRefreshRaw(r2.Raw))
	assert.Len(t, HashRefreshRaw(r1.Raw), 64)
}
