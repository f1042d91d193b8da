package auth

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func signed(t *testing.T, claims jwt.MapClaims) string {
	t.Helper()
	tok, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte("test-secret"))
	require.NoError(t, err)
	return tok
}

func TestIsWellFormed(t *testing.T) {
	valid := signed(t, jwt.MapClaims{"sub": "u1"})

	tests := []struct {
		name  string
		token string
		want  bool
	}{
		{"signed jwt", valid, true},
		{"padded segments", "eyJhbGciOiJIUzI1NiJ9.eyJzdWIiOiIxIn0=.c2ln", true},
		{"empty", "", false},
		{"one dot", "abc.def", false},
		{"three dots", "a.b.c.d", false},
		{"empty segment", "abc..def", false},
		{"non base64url", "abc.d$f.ghi", false},
		{"standard base64 chars", "ab+c.def.ghi", false},
		{"plain word", "token", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, IsWellFormed(tt.token))
		})
	}
}

func TestIsExpired(t *testing.T) {
	now := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)

	past := signed(t, jwt.MapClaims{"exp": now.Add(-time.Minute).Unix()})
	future := signed(t, jwt.MapClaims{"exp": now.Add(time.Hour).Unix()})
	noExp := signed(t, jwt.MapClaims{"sub": "u1"})

	assert.True(t, IsExpired(past, now))
	assert.False(t, IsExpired(future, now))
	assert.False(t, IsExpired(noExp, now))
	assert.False(t, IsExpired("not-a-jwt", now))
}

func TestUsable(t *testing.T) {
	now := time.Now()
	assert.True(t, Usable(signed(t, jwt.MapClaims{"exp": now.Add(time.Hour).Unix()}), now))
	assert.False(t, Usable(signed(t, jwt.MapClaims{"exp": now.Add(-time.Hour).Unix()}), now))
	assert.False(t, Usable("a.b", now))
	assert.False(t, Usable("", now))
}
