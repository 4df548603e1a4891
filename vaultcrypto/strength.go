package vaultcrypto

import (
	"github.com/nbutton23/zxcvbn-go"
)

// MinPasswordScore is the lowest zxcvbn score accepted for a new master
// password.
const MinPasswordScore = 2

// PasswordStrength is the result of scoring a candidate master password.
type PasswordStrength struct {
	Score       int      `json:"score"`
	Warning     []string `json:"warning"`
	Suggestions []string `json:"suggestions"`
	Acceptable  bool     `json:"isAcceptable"`
}

// CheckPasswordStrength scores the password on the zxcvbn 0..4 scale.
// Passwords scoring below [MinPasswordScore] are not acceptable.
func CheckPasswordStrength(password string) PasswordStrength {
	match := zxcvbn.PasswordStrength(password, nil)

	s := PasswordStrength{
		Score:       match.Score,
		Warning:     []string{},
		Suggestions: []string{},
		Acceptable:  match.Score >= MinPasswordScore,
	}

	if len(password) < 8 {
		s.Warning = append(s.Warning, "password is too short")
		s.Suggestions = append(s.Suggestions, "use at least 8 characters")
	}

	if match.Score < MinPasswordScore {
		s.Warning = append(s.Warning, "password is too easy to guess")
		s.Suggestions = append(s.Suggestions, "add more words or mix in digits and symbols")
	}

	return s
}
