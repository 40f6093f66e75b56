package jwt

import (
	"encoding/base64"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testSecret = []byte("test-secret")

func TestDecodeClaims_ValidToken(t *testing.T) {
	token, err := NewToken("42", "test@example.com", time.Hour, testSecret)
	require.NoError(t, err)

	claims := DecodeClaims(token)

	require.NotNil(t, claims)
	assert.Equal(t, "test@example.com", claims["email"])
	assert.Equal(t, "42", claims["uid"])
}

func TestDecodeClaims_Garbage(t *testing.T) {
	assert.Nil(t, DecodeClaims("not.a.token"))
	assert.Nil(t, DecodeClaims(""))
	assert.Nil(t, DecodeClaims("onlyonesegment"))
}

func TestIsExpired(t *testing.T) {
	restore := now
	defer func() { now = restore }()

	frozen := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	now = func() time.Time { return frozen }

	cases := []struct {
		name    string
		ttl     time.Duration
		skew    time.Duration
		expired bool
	}{
		{name: "fresh token", ttl: time.Hour, skew: DefaultSkew, expired: false},
		{name: "already expired", ttl: -time.Minute, skew: DefaultSkew, expired: true},
		{name: "inside skew window", ttl: 20 * time.Second, skew: DefaultSkew, expired: true},
		{name: "just outside skew window", ttl: 31 * time.Second, skew: DefaultSkew, expired: false},
		{name: "zero skew exact boundary", ttl: 0, skew: 0, expired: true},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			token, err := NewToken("1", "a@b.c", tc.ttl, testSecret)
			require.NoError(t, err)

			assert.Equal(t, tc.expired, IsExpired(token, tc.skew))
		})
	}
}

func TestIsExpired_UndecodableToken(t *testing.T) {
	// fail-open: an opaque credential is never treated as expired
	assert.False(t, IsExpired("garbage", DefaultSkew))
	assert.False(t, IsExpired("a.b.c", DefaultSkew))
}

func TestIsExpired_NoExpClaim(t *testing.T) {
	header := base64.RawURLEncoding.EncodeToString([]byte(`{"alg":"HS256","typ":"JWT"}`))
	payload := base64.RawURLEncoding.EncodeToString([]byte(`{"uid":"1"}`))
	token := header + "." + payload + "."

	assert.False(t, IsExpired(token, DefaultSkew))
}
