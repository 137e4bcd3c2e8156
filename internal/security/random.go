package security

import (
	"crypto/rand"
	"encoding/base64"
)

// NewStateToken returns 256 bits of randomness for OAuth anti-forgery state.
func NewStateToken() (string, error) {
	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return base64.RawURLEncoding.EncodeToString(b), nil
}

// NewFamilyID returns a random identifier grouping a refresh-rotation chain.
func NewFamilyID() (string, error) {
	b := make([]byte, 16)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return base64.RawURLEncoding.EncodeToString(b), nil
}
