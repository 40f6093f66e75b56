package jwt

import (
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// DefaultSkew is the safety margin subtracted from a token's expiry so a
// refresh is triggered slightly before the backend starts rejecting it.
const DefaultSkew = 30 * time.Second

// clock hook for tests
var now = time.Now

// DecodeClaims extracts the claims of a bearer token without verifying the
// signature. The client never holds the signing key; it only needs the
// expiry. Returns nil on any decode or parse failure.
func DecodeClaims(token string) jwt.MapClaims {
	parsed, _, err := new(jwt.Parser).ParseUnverified(token, jwt.MapClaims{})
	if err != nil {
		return nil
	}

	claims, ok := parsed.Claims.(jwt.MapClaims)
	if !ok {
		return nil
	}

	return claims
}

// IsExpired reports whether the token expires within skew from now.
// Tokens without a decodable payload or without an exp claim are treated
// as non-expiring: an opaque credential is sent as-is and the backend
// stays the authority on rejecting it.
func IsExpired(token string, skew time.Duration) bool {
	claims := DecodeClaims(token)
	if claims == nil {
		return false
	}

	exp, ok := claims["exp"]
	if !ok {
		return false
	}

	expSeconds, ok := exp.(float64)
	if !ok {
		return false
	}

	return int64(expSeconds)-int64(skew.Seconds()) <= now().Unix()
}

// NewToken mints an HS256 token carrying uid, email and exp claims.
// Used by the stub backend and by tests that need tokens with a chosen
// expiry.
func NewToken(uid, email string, duration time.Duration, secret []byte) (string, error) {
	token := jwt.New(jwt.SigningMethodHS256)

	claims := token.Claims.(jwt.MapClaims)
	claims["uid"] = uid
	claims["email"] = email
	claims["iat"] = now().Unix()
	claims["exp"] = now().Add(duration).Unix()

	return token.SignedString(secret)
}
