// Package input provides interactive prompt helpers for the CLI.
package input

import (
	"bufio"
	"bytes"
	"errors"
	"fmt"
	"io"
	"strings"

	"golang.org/x/term"
)

var ErrPasswordMismatch = errors.New("passwords do not match")

// PromptRead prompts via w for input and reads it from r until a newline
// is entered.
func PromptRead(w io.Writer, r io.Reader, prompt string, a ...any) (string, error) {
	fmt.Fprintf(w, prompt, a...)

	reader := bufio.NewReader(r)

	line, err := reader.ReadString('\n')
	if err != nil {
		return "", fmt.Errorf("prompt read: %w", err)
	}

	return strings.TrimSpace(line), nil
}

// PromptReadSecure prompts the user via w for input and securely reads
// it from the given file descriptor.
func PromptReadSecure(w io.Writer, fd int, prompt string, a ...any) ([]byte, error) {
	fmt.Fprintf(w, prompt, a...)
	defer fmt.Fprintln(w)

	bs, err := term.ReadPassword(fd)
	if err != nil {
		return nil, fmt.Errorf("term read password: %w", err)
	}

	return bs, nil
}

// PromptPassword prompts the user to enter the current master password.
func PromptPassword(w io.Writer, fd int) ([]byte, error) {
	return PromptReadSecure(w, fd, "Master password: ")
}

// PromptNewPassword prompts for a new master password twice and verifies
// both entries match.
func PromptNewPassword(w io.Writer, fd int) ([]byte, error) {
	pass, err := PromptReadSecure(w, fd, "New master password: ")
	if err != nil {
		return nil, err
	}

	confirm, err := PromptReadSecure(w, fd, "Retype master password: ")
	if err != nil {
		return nil, err
	}

	if !bytes.Equal(pass, confirm) {
		return nil, ErrPasswordMismatch
	}

	return pass, nil
}
