package packlate

import (
	"crypto/sha256"
	"encoding/hex"
)

// HashText computes the SHA-256 hash of the exact source text. Whitespace is
// significant: pack strings are stored verbatim.
func HashText(text string) string {
	hash := sha256.Sum256([]byte(text))
	return hex.EncodeToString(hash[:])
}

// CacheKey generates a translation memory key from a text hash and the
// translation context it was produced under.
func CacheKey(hash, scope string) string {
	return hash + ":" + scope
}
