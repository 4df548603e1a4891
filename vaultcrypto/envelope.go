// Package vaultcrypto implements the cryptographic envelope of the vault:
// length-hiding authenticated encryption over individual fields, Argon2id
// key derivation, and password strength scoring.
package vaultcrypto

import (
	"crypto/cipher"
	"fmt"

	"github.com/passnote/passnote/vaulterrors"

	"golang.org/x/crypto/chacha20poly1305"
)

// Algorithm tags carried on the wire inside [EncryptedData].
//
// New encryptions use ChaCha20-Poly1305-IETF exclusively. The AES-GCM tag
// is reserved for forward compatibility; no writer produces it and decrypt
// rejects it.
const (
	AlgorithmChaCha20Poly1305 = "ChaCha20-Poly1305-IETF"
	AlgorithmAESGCM           = "AES-GCM"
)

const (
	// NonceSize is the nonce length in bytes for either algorithm tag.
	NonceSize = chacha20poly1305.NonceSize

	// SaltSize is the KDF salt length in bytes.
	SaltSize = 16

	// KeySize is the AEAD key length in bytes.
	KeySize = chacha20poly1305.KeySize
)

// EncryptedData is a single encrypted field: ciphertext, nonce, and the
// algorithm tag. Binary fields transport as standard base64 in JSON.
type EncryptedData struct {
	Ciphertext []byte `json:"ciphertext"`
	Nonce      []byte `json:"nonce"`
	Algorithm  string `json:"algorithm"`
}

// Equal reports whether two encrypted values are byte-identical.
func (ed EncryptedData) Equal(other EncryptedData) bool {
	if ed.Algorithm != other.Algorithm || len(ed.Ciphertext) != len(other.Ciphertext) || len(ed.Nonce) != len(other.Nonce) {
		return false
	}

	for i := range ed.Ciphertext {
		if ed.Ciphertext[i] != other.Ciphertext[i] {
			return false
		}
	}

	for i := range ed.Nonce {
		if ed.Nonce[i] != other.Nonce[i] {
			return false
		}
	}

	return true
}

// ChaChaPoly wraps a [cipher.AEAD] using ChaCha20-Poly1305 with the
// IETF 12-byte nonce.
type ChaChaPoly struct {
	aead cipher.AEAD
}

// NewChaChaPoly creates a new ChaCha20-Poly1305-IETF cipher using the
// provided 32-byte key.
func NewChaChaPoly(key []byte) (*ChaChaPoly, error) {
	aead, err := chacha20poly1305.New(key)
	if err != nil {
		return nil, fmt.Errorf("chacha20poly1305: %w", err)
	}

	return &ChaChaPoly{aead}, nil
}

// Seal encrypts the plaintext using the given nonce.
func (c *ChaChaPoly) Seal(nonce, plaintext []byte) []byte {
	return c.aead.Seal(nil, nonce, plaintext, nil)
}

// Open decrypts the ciphertext using the given nonce.
func (c *ChaChaPoly) Open(nonce, ciphertext []byte) ([]byte, error) {
	return c.aead.Open(nil, nonce, ciphertext, nil)
}

// Encrypt length-normalizes the plaintext, generates a fresh nonce, and
// seals it under the given key with ChaCha20-Poly1305-IETF.
//
// The key must be at least [KeySize] bytes; only the first [KeySize] bytes
// are used.
func Encrypt(plaintext, key []byte) (EncryptedData, error) {
	if len(key) < KeySize {
		return EncryptedData{}, fmt.Errorf("encrypt: key length %d, want at least %d", len(key), KeySize)
	}

	padded, err := Pad(plaintext)
	if err != nil {
		return EncryptedData{}, fmt.Errorf("encrypt: %w", err)
	}

	nonce, err := NewNonce()
	if err != nil {
		return EncryptedData{}, fmt.Errorf("encrypt: %w", err)
	}

	aead, err := NewChaChaPoly(key[:KeySize])
	if err != nil {
		return EncryptedData{}, fmt.Errorf("encrypt: %w", err)
	}

	return EncryptedData{
		Ciphertext: aead.Seal(nonce, padded),
		Nonce:      nonce,
		Algorithm:  AlgorithmChaCha20Poly1305,
	}, nil
}

// Decrypt opens the encrypted value under the given key and removes the
// length-normalization padding.
func Decrypt(ed EncryptedData, key []byte) ([]byte, error) {
	if ed.Algorithm != AlgorithmChaCha20Poly1305 {
		return nil, fmt.Errorf("decrypt: algorithm %q: %w", ed.Algorithm, vaulterrors.ErrUnsupportedAlgorithm)
	}

	if len(ed.Nonce) != NonceSize {
		return nil, fmt.Errorf("decrypt: nonce length %d: %w", len(ed.Nonce), vaulterrors.ErrInvalidNonceLength)
	}

	if len(key) < KeySize {
		return nil, fmt.Errorf("decrypt: key length %d: %w", len(key), vaulterrors.ErrDecryptFailed)
	}

	aead, err := NewChaChaPoly(key[:KeySize])
	if err != nil {
		return nil, fmt.Errorf("decrypt: %w", err)
	}

	padded, err := aead.Open(ed.Nonce, ed.Ciphertext)
	if err != nil {
		return nil, fmt.Errorf("decrypt: %w", vaulterrors.ErrDecryptFailed)
	}

	plaintext, err := Unpad(padded)
	if err != nil {
		return nil, fmt.Errorf("decrypt: %w", err)
	}

	return plaintext, nil
}

// Zero overwrites the given byte slice.
//
// Used for master key hygiene when a key is cleared.
func Zero(b []byte) {
	for i := range b {
		b[i] = 0
	}
}
