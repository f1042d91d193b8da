package auth

import (
	"encoding/base64"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// IsWellFormed reports whether token has exactly three dot-separated,
// non-empty, base64url-decodable segments.
func IsWellFormed(token string) bool {
	parts := strings.Split(token, ".")
	if len(parts) != 3 {
		return false
	}
	for _, part := range parts {
		part = strings.TrimRight(part, "=")
		if part == "" {
			return false
		}
		if _, err := base64.RawURLEncoding.DecodeString(part); err != nil {
			return false
		}
	}
	return true
}

// IsExpired reads the exp claim without verifying the signature. The server
// stays the authority; this only saves a round-trip with a dead token.
// Tokens without exp, or whose claims cannot be read, never expire locally.
func IsExpired(token string, now time.Time) bool {
	claims := jwt.MapClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(token, claims); err != nil {
		return false
	}
	exp, err := claims.GetExpirationTime()
	if err != nil || exp == nil {
		return false
	}
	return !now.Before(exp.Time)
}

// Usable combines the shape and expiry checks applied before a token is attached.
func Usable(token string, now time.Time) bool {
	return token != "" && IsWellFormed(token) && !IsExpired(token, now)
}
