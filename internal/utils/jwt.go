// Package utils provides helper functions for password hashing and
// token creation.
package utils

import (
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// AccessToken is a signed HS256 JWT along with its expiry. Access
// tokens are short-lived and sent in the Authorization header.
type AccessToken struct {
	Token string
	Exp   time.Time
}

// RefreshToken is a long-lived opaque token used to obtain new
// access tokens. Only its SHA-256 hash is persisted.
type RefreshToken struct {
	Raw string
	Exp time.Time
}

// NewAccessToken builds and signs a JWT for a user. The notAfter
// bound caps the expiry: a session token must never outlive the
// ephemeral account it belongs to.
func NewAccessToken(secret string, userID uint64, username string, ttl time.Duration, notAfter time.Time) (AccessToken, error) {
	exp := time.Now().UTC().Add(ttl)
	if exp.After(notAfter) {
		exp = notAfter
	}
	claims := jwt.MapClaims{
		"sub":      userID,
		"username": username,
		"exp":      exp.Unix(),
		"iat":      time.Now().UTC().Unix(),
	}
	t := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := t.SignedString([]byte(secret))
	if err != nil {
		return AccessToken{}, err
	}
	return AccessToken{Token: signed, Exp: exp}, nil
}

// NewRefreshToken returns a cryptographically secure random token
// and its expiry, likewise capped to the account lifetime.
func NewRefreshToken(ttl time.Duration, notAfter time.Time) (RefreshToken, error) {
	raw, err := RandomHex(48)
	if err != nil {
		return RefreshToken{}, err
	}
	exp := time.Now().UTC().Add(ttl)
	if exp.After(notAfter) {
		exp = notAfter
	}
	return RefreshToken{Raw: raw, Exp: exp}, nil
}

// HashRefreshRaw returns the SHA-256 hash of a raw refresh token as
// a hex string.
func HashRefreshRaw(raw string) string {
	sum := sha256.Sum256([]byte(raw))
	return hex.EncodeToString(sum[:])
}

// RandomHex returns a hex-encoded string generated from n bytes of
// cryptographically secure random data.
func RandomHex(n int) (string, error) {
	buf := make([]byte, n)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	return hex.EncodeToString(buf), nil
}
