package cache

import (
	"crypto/sha256"
	"encoding/hex"
)

// Cache defines the interface for the embedding cache. Entries never expire
// implicitly; invalidation only happens through an explicit provider-version
// bump, which changes the key.
type Cache interface {
	Get(key string) ([]byte, bool)
	Set(key string, value []byte) error
	Delete(key string) error
	Clear() error
}

// Key derives the cache key for one text unit. The provider version is part
// of the hashed content, so bumping the embedding model silently misses old
// entries instead of returning stale vectors.
func Key(providerVersion, normalizedText string) string {
	hash := sha256.Sum256([]byte(providerVersion + "\x00" + normalizedText))
	return "emb:v1:" + hex.EncodeToString(hash[:])
}
