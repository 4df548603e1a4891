package vaultcrypto

import (
	"bytes"
	"encoding/base64"
	"fmt"

	"github.com/passnote/passnote/vaulterrors"

	"golang.org/x/crypto/argon2"
)

// AlgorithmArgon2id is the only supported KDF algorithm tag.
const AlgorithmArgon2id = "argon2id"

// Argon2id defaults and validation bounds.
const (
	DefaultOpslimit  = 3
	DefaultMemlimit  = 64 * 1024 * 1024 // bytes
	DefaultKeyLength = 32

	MinOpslimit = 1
	MaxOpslimit = 10

	MinMemlimit = 8 * 1024 * 1024   // bytes
	MaxMemlimit = 512 * 1024 * 1024 // bytes

	MinKeyLength = 16
	MaxKeyLength = 64
)

// kdfParallelism is fixed so that identical configurations derive
// identical keys on every client regardless of core count.
const kdfParallelism = 1

// KDFParams holds the Argon2id parameters. Memlimit is in bytes on the
// wire and converted to KiB for the underlying implementation. The salt
// transports as standard base64.
type KDFParams struct {
	Salt      string `json:"salt"`
	KeyLength uint32 `json:"keyLength"`
	Opslimit  uint32 `json:"opslimit,omitempty"`
	Memlimit  uint64 `json:"memlimit,omitempty"`
}

// KDFConfig is an algorithm-tagged key derivation configuration.
type KDFConfig struct {
	Algorithm string    `json:"algorithm"`
	Params    KDFParams `json:"params"`
}

// NewKDFConfig returns an Argon2id configuration with a fresh random salt
// and default cost parameters.
func NewKDFConfig() (KDFConfig, error) {
	salt, err := NewSalt()
	if err != nil {
		return KDFConfig{}, fmt.Errorf("new kdf config: %w", err)
	}

	return KDFConfig{
		Algorithm: AlgorithmArgon2id,
		Params: KDFParams{
			Salt:      base64.StdEncoding.EncodeToString(salt),
			KeyLength: DefaultKeyLength,
			Opslimit:  DefaultOpslimit,
			Memlimit:  DefaultMemlimit,
		},
	}, nil
}

// withDefaults fills in zero-valued optional cost parameters.
func (c KDFConfig) withDefaults() KDFConfig {
	if c.Params.Opslimit == 0 {
		c.Params.Opslimit = DefaultOpslimit
	}

	if c.Params.Memlimit == 0 {
		c.Params.Memlimit = DefaultMemlimit
	}

	return c
}

// Validate checks the configuration against the supported algorithm and
// parameter bounds. The salt must decode to exactly [SaltSize] bytes.
func (c KDFConfig) Validate() error {
	if c.Algorithm != AlgorithmArgon2id {
		return fmt.Errorf("kdf config: algorithm %q: %w", c.Algorithm, vaulterrors.ErrUnsupportedAlgorithm)
	}

	p := c.withDefaults().Params

	if p.Opslimit < MinOpslimit || p.Opslimit > MaxOpslimit {
		return fmt.Errorf("kdf config: opslimit %d out of [%d,%d]: %w", p.Opslimit, MinOpslimit, MaxOpslimit, vaulterrors.ErrKDFValidation)
	}

	if p.Memlimit < MinMemlimit || p.Memlimit > MaxMemlimit {
		return fmt.Errorf("kdf config: memlimit %d out of [%d,%d]: %w", p.Memlimit, MinMemlimit, MaxMemlimit, vaulterrors.ErrKDFValidation)
	}

	if p.KeyLength < MinKeyLength || p.KeyLength > MaxKeyLength {
		return fmt.Errorf("kdf config: key length %d out of [%d,%d]: %w", p.KeyLength, MinKeyLength, MaxKeyLength, vaulterrors.ErrKDFValidation)
	}

	salt, err := base64.StdEncoding.DecodeString(p.Salt)
	if err != nil {
		return fmt.Errorf("kdf config: salt encoding: %w", vaulterrors.ErrKDFValidation)
	}

	if len(salt) != SaltSize {
		return fmt.Errorf("kdf config: salt length %d, want %d: %w", len(salt), SaltSize, vaulterrors.ErrKDFValidation)
	}

	return nil
}

// DeriveKey derives a key from the password using the validated
// configuration with Argon2id v1.3.
func DeriveKey(password []byte, cfg KDFConfig) ([]byte, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("derive key: %w", err)
	}

	p := cfg.withDefaults().Params

	salt, err := base64.StdEncoding.DecodeString(p.Salt)
	if err != nil {
		return nil, fmt.Errorf("derive key: salt encoding: %w", vaulterrors.ErrKDFValidation)
	}

	memKiB := uint32(p.Memlimit / 1024)

	return argon2.IDKey(password, salt, p.Opslimit, memKiB, kdfParallelism, p.KeyLength), nil
}

// Compatible reports whether two configurations derive identical keys for
// identical passwords: same algorithm, opslimit, memlimit, key length and
// salt. Any drift forces re-derivation.
func Compatible(a, b KDFConfig) bool {
	if a.Algorithm != b.Algorithm {
		return false
	}

	ap, bp := a.withDefaults().Params, b.withDefaults().Params

	if ap.Opslimit != bp.Opslimit || ap.Memlimit != bp.Memlimit || ap.KeyLength != bp.KeyLength {
		return false
	}

	asalt, err := base64.StdEncoding.DecodeString(ap.Salt)
	if err != nil {
		return false
	}

	bsalt, err := base64.StdEncoding.DecodeString(bp.Salt)
	if err != nil {
		return false
	}

	return bytes.Equal(asalt, bsalt)
}
