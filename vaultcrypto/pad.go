package vaultcrypto

import (
	"bytes"
	"fmt"

	"github.com/passnote/passnote/vaulterrors"
)

// paddingBuckets are the fixed plaintext sizes that length-normalization
// pads into. Ciphertext length only reveals the bucket, not the exact
// plaintext length.
var paddingBuckets = []int{64, 128, 256, 512, 1024, 2048, 4096}

// padDelimiter separates the plaintext from the random filler bytes.
// Filler bytes are drawn so that this value never appears among them.
const padDelimiter byte = 0x80

// MaxPlaintextSize is the largest plaintext that fits the biggest bucket,
// leaving room for the delimiter byte.
const MaxPlaintextSize = 4096 - 1

// Pad length-normalizes the plaintext into the smallest bucket that fits
// it plus the delimiter byte. The output is p || 0x80 || filler, where the
// filler never contains the delimiter byte.
func Pad(p []byte) ([]byte, error) {
	bucket := -1

	for _, b := range paddingBuckets {
		if b >= len(p)+1 {
			bucket = b
			break
		}
	}

	if bucket < 0 {
		return nil, fmt.Errorf("pad: %d bytes: %w", len(p), vaulterrors.ErrPlaintextTooLargeForPadding)
	}

	filler, err := cleanRandBytes(bucket - len(p) - 1)
	if err != nil {
		return nil, fmt.Errorf("pad: %w", err)
	}

	padded := make([]byte, 0, bucket)
	padded = append(padded, p...)
	padded = append(padded, padDelimiter)
	padded = append(padded, filler...)

	return padded, nil
}

// Unpad removes length-normalization padding by scanning from the end for
// the last delimiter byte. Everything before it is the plaintext.
func Unpad(p []byte) ([]byte, error) {
	i := bytes.LastIndexByte(p, padDelimiter)
	if i < 0 {
		return nil, fmt.Errorf("unpad: missing delimiter: %w", vaulterrors.ErrPaddingInvalid)
	}

	return p[:i], nil
}

// cleanRandBytes returns n random bytes none of which equals the padding
// delimiter.
//
// It over-draws 2n, then 4n, then 8n bytes, filtering out delimiter bytes.
// If all three rounds come up short, it falls back to a byte-at-a-time
// rejection loop, which terminates since a raw byte matches the delimiter
// with probability 1/256.
func cleanRandBytes(n int) ([]byte, error) {
	if n == 0 {
		return nil, nil
	}

	for _, factor := range []int{2, 4, 8} {
		raw, err := RandBytes(n * factor)
		if err != nil {
			return nil, err
		}

		clean := make([]byte, 0, n)

		for _, b := range raw {
			if b == padDelimiter {
				continue
			}

			clean = append(clean, b)

			if len(clean) == n {
				return clean, nil
			}
		}
	}

	clean := make([]byte, 0, n)
	for len(clean) < n {
		b, err := RandBytes(1)
		if err != nil {
			return nil, err
		}

		if b[0] == padDelimiter {
			continue
		}

		clean = append(clean, b[0])
	}

	return clean, nil
}
