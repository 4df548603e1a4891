// Package clipboard copies secrets to the system clipboard using an
// external command, with `xsel` as the default.
package clipboard

import (
	"os/exec"
	"strings"
)

var defaultCopy = []string{"xsel", "-ib"}

// ConfigurationError indicates that the clipboard command is not
// available or misconfigured on the host system.
type ConfigurationError struct {
	Op  string
	Err error
}

func (ce *ConfigurationError) Error() string {
	return "clipboard: " + ce.Op + ": " + ce.Err.Error()
}

func (ce *ConfigurationError) Unwrap() error {
	return ce.Err
}

var clipboard = New()

// SetDefault replaces the global clipboard instance. Intended for custom
// configurations or testing.
func SetDefault(c *Clipboard) {
	if c == nil {
		panic("clipboard: cannot set default to nil")
	}

	clipboard = c
}

// Copy writes the given string to the system clipboard using the default
// command.
func Copy(s string) error {
	return clipboard.Copy(s)
}

type Clipboard struct {
	copyCmd []string
}

type Opt func(*Clipboard)

// WithCopyCmd overrides the command used for copying.
func WithCopyCmd(cmd []string) Opt {
	return func(c *Clipboard) {
		c.copyCmd = cmd
	}
}

// New returns a new [Clipboard] instance. By default it uses xsel.
func New(opts ...Opt) *Clipboard {
	c := &Clipboard{copyCmd: defaultCopy}

	for _, opt := range opts {
		opt(c)
	}

	return c
}

// Copy pipes the string into the configured copy command.
func (c *Clipboard) Copy(s string) error {
	if len(c.copyCmd) == 0 {
		return &ConfigurationError{Op: "copy", Err: exec.ErrNotFound}
	}

	cmd := exec.Command(c.copyCmd[0], c.copyCmd[1:]...) //nolint:gosec
	cmd.Stdin = strings.NewReader(s)

	if err := cmd.Run(); err != nil {
		return &ConfigurationError{Op: "copy", Err: err}
	}

	return nil
}
