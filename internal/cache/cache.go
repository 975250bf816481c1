// Package cache stores fetched page and document bodies so re-crawls of a
// funding portal do not re-download unchanged content.
package cache

import (
	"crypto/sha256"
	"encoding/hex"
	"time"
)

// Cache is the storage interface shared by the memory, disk and layered
// implementations.
type Cache interface {
	Get(key string) ([]byte, bool)
	Set(key string, value []byte, ttl time.Duration) error
	Delete(key string) error
	Clear() error
}

// Key derives the cache key for a fetched URL. The version segment lets a
// format change invalidate old entries without clearing the store.
func Key(url string) string {
	sum := sha256.Sum256([]byte(url))
	return "grantscout:v1:" + hex.EncodeToString(sum[:])
}
