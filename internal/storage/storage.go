package storage

import "errors"

var (
	ErrKeyNotFound = errors.New("key not found")
)

// Flat keys under which the credential pair is persisted. Other clients
// of the same backend use the same keys, so they stay stable.
const (
	KeyAccessToken  = "access_token"
	KeyRefreshToken = "refresh_token"
)

// Keystore is durable client-local storage for the token pair. Writes are
// best-effort: the in-memory store stays authoritative for the current
// process even when persistence fails.
type Keystore interface {
	Get(key string) (string, error)
	Set(key, value string) error
	Delete(key string) error
}
