package vaultcrypto_test

import (
	"bytes"
	"errors"
	"testing"

	"github.com/passnote/passnote/vaultcrypto"
	"github.com/passnote/passnote/vaulterrors"
)

func TestPadUnpadRoundTrip(t *testing.T) {
	sizes := []int{0, 1, 10, 63, 64, 100, 255, 256, 1000, 2047, 2048, 4000, 4095}

	for _, size := range sizes {
		plaintext := bytes.Repeat([]byte{0xab}, size)

		padded, err := vaultcrypto.Pad(plaintext)
		if err != nil {
			t.Fatalf("pad %d bytes: unexpected error: %v", size, err)
		}

		got, err := vaultcrypto.Unpad(padded)
		if err != nil {
			t.Fatalf("unpad %d bytes: unexpected error: %v", size, err)
		}

		if !bytes.Equal(got, plaintext) {
			t.Errorf("round trip mismatch for %d bytes", size)
		}
	}
}

func TestPadBucketSizes(t *testing.T) {
	tests := []struct {
		plaintextLen int
		wantBucket   int
	}{
		{0, 64},
		{63, 64},   // fits exactly with the delimiter
		{64, 128},  // delimiter overflows into the next bucket
		{127, 128},
		{128, 256},
		{255, 256},
		{511, 512},
		{1023, 1024},
		{2047, 2048},
		{4095, 4096},
	}

	for _, tt := range tests {
		padded, err := vaultcrypto.Pad(make([]byte, tt.plaintextLen))
		if err != nil {
			t.Fatalf("pad %d bytes: unexpected error: %v", tt.plaintextLen, err)
		}

		if len(padded) != tt.wantBucket {
			t.Errorf("pad %d bytes: got bucket %d, want %d", tt.plaintextLen, len(padded), tt.wantBucket)
		}
	}
}

func TestPadTooLarge(t *testing.T) {
	if _, err := vaultcrypto.Pad(make([]byte, 4096)); !errors.Is(err, vaulterrors.ErrPlaintextTooLargeForPadding) {
		t.Errorf("got %v, want ErrPlaintextTooLargeForPadding", err)
	}
}

func TestPadFillerNeverDelimiter(t *testing.T) {
	// a short plaintext maximizes the filler; repeat to make a stray
	// delimiter byte in the filler overwhelmingly likely to surface.
	for range 50 {
		padded, err := vaultcrypto.Pad([]byte("x"))
		if err != nil {
			t.Fatalf("pad: unexpected error: %v", err)
		}

		for i, b := range padded[2:] {
			if b == 0x80 {
				t.Fatalf("filler byte %d is the delimiter", i+2)
			}
		}
	}
}

func TestUnpadMissingDelimiter(t *testing.T) {
	if _, err := vaultcrypto.Unpad([]byte{1, 2, 3, 4}); !errors.Is(err, vaulterrors.ErrPaddingInvalid) {
		t.Errorf("got %v, want ErrPaddingInvalid", err)
	}
}

func TestUnpadTrailingPlaintextDelimiter(t *testing.T) {
	// a plaintext ending in 0x80 must survive: the scan finds the
	// appended delimiter, not the plaintext byte.
	plaintext := []byte{1, 2, 0x80}

	padded, err := vaultcrypto.Pad(plaintext)
	if err != nil {
		t.Fatalf("pad: unexpected error: %v", err)
	}

	got, err := vaultcrypto.Unpad(padded)
	if err != nil {
		t.Fatalf("unpad: unexpected error: %v", err)
	}

	if !bytes.Equal(got, plaintext) {
		t.Errorf("got %v, want %v", got, plaintext)
	}
}
