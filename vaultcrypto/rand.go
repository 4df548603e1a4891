package vaultcrypto

import (
	"crypto/rand"
	"io"
)

// RandBytes generates a slice of cryptographically secure
// random bytes of the specified length.
func RandBytes(length int) ([]byte, error) {
	b := make([]byte, length)
	if _, err := io.ReadFull(rand.Reader, b); err != nil {
		return nil, err
	}

	return b, nil
}

// NewNonce returns a fresh random nonce of [NonceSize] bytes.
//
// Callers must never reuse a nonce with the same key.
func NewNonce() ([]byte, error) {
	return RandBytes(NonceSize)
}

// NewSalt returns a fresh random KDF salt of [SaltSize] bytes.
func NewSalt() ([]byte, error) {
	return RandBytes(SaltSize)
}
