// Package clierror funnels command errors into user-facing messages and
// a configurable exit handler.
package clierror

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/passnote/passnote/vaulterrors"
)

const DefaultErrorExitCode = 1

var (
	// errHandler is the function used to handle cli errors.
	errHandler = FatalErrHandler

	// errWriter is used to output cli error messages.
	errWriter io.Writer = os.Stderr
)

// SetErrorHandler overrides the default [FatalErrHandler] error handler.
func SetErrorHandler(f func(string, int)) {
	errHandler = f
}

// ResetErrorHandler restores the default error handler.
func ResetErrorHandler() {
	errHandler = FatalErrHandler
}

// SetErrWriter overrides the default error output writer [os.Stderr].
func SetErrWriter(w io.Writer) {
	errWriter = w
}

// FatalErrHandler prints the message provided and then exits with the
// given code.
func FatalErrHandler(msg string, code int) {
	printError(msg)

	//nolint:revive // Intentional exit after fatal error.
	os.Exit(code)
}

func PrintErrHandler(msg string, _ int) {
	printError(msg)
}

func printError(msg string) {
	if len(msg) == 0 {
		return
	}

	if !strings.HasSuffix(msg, "\n") {
		msg += "\n"
	}

	_, _ = fmt.Fprint(errWriter, msg)
}

// Check prints a user-friendly error message and invokes the configured
// error handler.
//
// When the [FatalErrHandler] is used, the program exits before this
// function returns.
func Check(err error) error {
	check(err, errHandler)
	return err
}

func check(err error, handleErr func(string, int)) {
	if err == nil {
		return
	}

	switch {
	case errors.Is(err, vaulterrors.ErrNotInitialized):
		handleErr("passnote: vault is not initialized\nUse the `init` command to create a new vault.", DefaultErrorExitCode)
	case errors.Is(err, vaulterrors.ErrInvalidCredentials):
		handleErr("passnote: invalid credentials\nPlease check your master password and try again.", DefaultErrorExitCode)
	case errors.Is(err, vaulterrors.ErrWeakPassword):
		handleErr("passnote: the master password is too weak\nUse a longer passphrase mixing words, digits and symbols.", DefaultErrorExitCode)
	case errors.Is(err, vaulterrors.ErrWebDAVNotConfigured):
		handleErr("passnote: webdav is not configured\nUse `webdav set` to configure the remote first.", DefaultErrorExitCode)
	default:
		msg := err.Error()
		if !strings.HasPrefix(msg, "passnote: ") {
			msg = "passnote: " + msg
		}

		handleErr(msg, DefaultErrorExitCode)
	}
}
