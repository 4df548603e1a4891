package vaultcrypto_test

import (
	"bytes"
	"errors"
	"slices"
	"testing"

	"github.com/passnote/passnote/vaultcrypto"
	"github.com/passnote/passnote/vaulterrors"
)

func testKey(tb testing.TB) []byte {
	tb.Helper()

	key, err := vaultcrypto.RandBytes(vaultcrypto.KeySize)
	if err != nil {
		tb.Fatalf("rand key: %v", err)
	}

	return key
}

func TestEncryptDecryptRoundTrip(t *testing.T) {
	key := testKey(t)

	plaintexts := [][]byte{
		nil,
		[]byte(""),
		[]byte("hello"),
		bytes.Repeat([]byte("a"), 4095),
	}

	for _, plaintext := range plaintexts {
		ed, err := vaultcrypto.Encrypt(plaintext, key)
		if err != nil {
			t.Fatalf("encrypt: unexpected error: %v", err)
		}

		if ed.Algorithm != vaultcrypto.AlgorithmChaCha20Poly1305 {
			t.Errorf("got algorithm %q, want %q", ed.Algorithm, vaultcrypto.AlgorithmChaCha20Poly1305)
		}

		if len(ed.Nonce) != vaultcrypto.NonceSize {
			t.Errorf("got nonce length %d, want %d", len(ed.Nonce), vaultcrypto.NonceSize)
		}

		got, err := vaultcrypto.Decrypt(ed, key)
		if err != nil {
			t.Fatalf("decrypt: unexpected error: %v", err)
		}

		if !bytes.Equal(got, plaintext) {
			t.Errorf("round trip mismatch for %d bytes", len(plaintext))
		}
	}
}

func TestCiphertextLengthHidesPlaintextLength(t *testing.T) {
	key := testKey(t)

	// 16-byte Poly1305 tag on top of the padded bucket.
	wantLengths := []int{64 + 16, 128 + 16, 256 + 16, 512 + 16, 1024 + 16, 2048 + 16, 4096 + 16}

	for _, size := range []int{0, 5, 63, 64, 200, 1000, 4095} {
		ed, err := vaultcrypto.Encrypt(make([]byte, size), key)
		if err != nil {
			t.Fatalf("encrypt %d bytes: %v", size, err)
		}

		if !slices.Contains(wantLengths, len(ed.Ciphertext)) {
			t.Errorf("ciphertext length %d for %d plaintext bytes is not bucket-aligned", len(ed.Ciphertext), size)
		}
	}
}

func TestDecryptRejectsUnsupportedAlgorithm(t *testing.T) {
	key := testKey(t)

	ed, err := vaultcrypto.Encrypt([]byte("secret"), key)
	if err != nil {
		t.Fatalf("encrypt: %v", err)
	}

	// AES-GCM is a reserved tag: structurally valid, but no writer
	// produces it and decrypt must refuse it.
	ed.Algorithm = vaultcrypto.AlgorithmAESGCM

	if _, err := vaultcrypto.Decrypt(ed, key); !errors.Is(err, vaulterrors.ErrUnsupportedAlgorithm) {
		t.Errorf("got %v, want ErrUnsupportedAlgorithm", err)
	}
}

func TestDecryptRejectsBadNonceLength(t *testing.T) {
	key := testKey(t)

	ed, err := vaultcrypto.Encrypt([]byte("secret"), key)
	if err != nil {
		t.Fatalf("encrypt: %v", err)
	}

	for _, n := range []int{0, 8, 11, 13, 24} {
		bad := ed
		bad.Nonce = make([]byte, n)

		if _, err := vaultcrypto.Decrypt(bad, key); !errors.Is(err, vaulterrors.ErrInvalidNonceLength) {
			t.Errorf("nonce length %d: got %v, want ErrInvalidNonceLength", n, err)
		}
	}
}

func TestDecryptWrongKey(t *testing.T) {
	ed, err := vaultcrypto.Encrypt([]byte("secret"), testKey(t))
	if err != nil {
		t.Fatalf("encrypt: %v", err)
	}

	if _, err := vaultcrypto.Decrypt(ed, testKey(t)); !errors.Is(err, vaulterrors.ErrDecryptFailed) {
		t.Errorf("got %v, want ErrDecryptFailed", err)
	}
}

func TestEncryptFreshNonces(t *testing.T) {
	key := testKey(t)

	a, err := vaultcrypto.Encrypt([]byte("x"), key)
	if err != nil {
		t.Fatalf("encrypt: %v", err)
	}

	b, err := vaultcrypto.Encrypt([]byte("x"), key)
	if err != nil {
		t.Fatalf("encrypt: %v", err)
	}

	if bytes.Equal(a.Nonce, b.Nonce) {
		t.Error("two encryptions reused a nonce")
	}
}
