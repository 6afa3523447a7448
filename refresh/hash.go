package refresh

import (
	"crypto/sha1"
	"encoding/hex"
)

// HashLength is the number of hex characters in a token hash.
const HashLength = sha1.Size * 2

// Hash returns the hex SHA-1 digest of token. It is deterministic and never fails.
func Hash(token string) string {
	sum := sha1.Sum([]byte(token))
	return hex.EncodeToString(sum[:])
}

// ValidHash reports whether h has the shape produced by [Hash].
func ValidHash(h string) bool {
	if len(h) != HashLength {
		return false
	}
	for i := 0; i < len(h); i++ {
		c := h[i]
		if (c < '0' || c > '9') && (c < 'a' || c > 'f') {
			return false
		}
	}
	return true
}
