package helper

import (
	"crypto/sha256"
	"encoding/hex"
)

// Hash8 gives a short stable fingerprint for logging secrets (tokens, state)
// without ever writing the value itself.
func Hash8(s string) string {
	sum := sha256.Sum256([]byte(s))
	return hex.EncodeToString(sum[:8])
}
