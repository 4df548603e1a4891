// Package randstring generates cryptographically secure random strings
// and policy-driven passwords.
package randstring

import (
	"crypto/rand"
	"errors"
	"math/big"
)

var (
	ErrInvalidLength = errors.New("length must not be negative")
	ErrEmptyAlphabet = errors.New("alphabet must not be empty")
)

const (
	lower           = "abcdefghijklmnopqrstuvwxyz"
	upper           = "ABCDEFGHIJKLMNOPQRSTUVWXYZ"
	symbols         = "~`!@#$%^&*()_-+={[}]|\\:;\"'<,>.?/"
	digits          = "0123456789"
	defaultAlphabet = digits + upper + lower + symbols
)

// PasswordPolicy sets the minimum composition of a generated password.
type PasswordPolicy struct {
	MinLowercase int // Minimum number of lowercase letters required.
	MinUppercase int // Minimum number of uppercase letters required.
	MinDigits    int // Minimum number of numeric digits required.
	MinSymbols   int // Minimum number of special symbols required.
	MinLength    int // Minimum total length of the password.
}

// DefaultPasswordPolicy is used when no explicit requirements are given.
var DefaultPasswordPolicy = PasswordPolicy{
	MinLowercase: 2,
	MinUppercase: 2,
	MinDigits:    2,
	MinSymbols:   2,
	MinLength:    16,
}

// New returns a securely generated random string of the given length.
func New(n int) (string, error) {
	return generateRandomString(n, defaultAlphabet)
}

// NewWithPolicy generates a random password that satisfies the given
// [PasswordPolicy].
func NewWithPolicy(p PasswordPolicy) (string, error) {
	res := ""

	policy := []struct {
		count   int
		charset string
	}{
		{p.MinLowercase, lower},
		{p.MinUppercase, upper},
		{p.MinDigits, digits},
		{p.MinSymbols, symbols},
	}

	for _, p := range policy {
		s, err := generateRandomString(p.count, p.charset)
		if err != nil {
			return "", err
		}

		res += s
	}

	if missing := p.MinLength - len(res); missing > 0 {
		extra, err := generateRandomString(missing, defaultAlphabet)
		if err != nil {
			return "", err
		}

		res += extra
	}

	bs := []byte(res)
	if err := shuffle(bs); err != nil {
		return "", err
	}

	return string(bs), nil
}

// generateRandomString returns a cryptographically secure random string
// using the given alphabet.
func generateRandomString(n int, alphabet string) (string, error) {
	if n < 0 {
		return "", ErrInvalidLength
	}

	if len(alphabet) == 0 {
		return "", ErrEmptyAlphabet
	}

	bs := make([]byte, n)

	for i := range bs {
		idx, err := rand.Int(rand.Reader, big.NewInt(int64(len(alphabet))))
		if err != nil {
			return "", err
		}

		bs[i] = alphabet[idx.Int64()]
	}

	return string(bs), nil
}

// shuffle performs an in-place Fisher-Yates shuffle using a secure
// random source.
func shuffle(bs []byte) error {
	for i := len(bs) - 1; i > 0; i-- {
		j, err := rand.Int(rand.Reader, big.NewInt(int64(i+1)))
		if err != nil {
			return err
		}

		bs[i], bs[j.Int64()] = bs[j.Int64()], bs[i]
	}

	return nil
}
