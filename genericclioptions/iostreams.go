// Package genericclioptions provides the shared plumbing of the CLI
// commands: IO streams, and the Complete/Validate/Run options contract.
package genericclioptions

import (
	"bytes"
	"fmt"
	"io"
	"os"
)

// FdReader is an input stream that exposes its file descriptor, as
// required for secure terminal reads.
type FdReader interface {
	io.Reader
	Fd() uintptr
}

type IOStreams struct {
	In     FdReader
	Out    io.Writer
	ErrOut io.Writer

	Verbose bool
}

// NewDefaultIOStreams returns the default IOStreams using os.Stdin,
// os.Stdout and os.Stderr.
func NewDefaultIOStreams() *IOStreams {
	return &IOStreams{
		In:     os.Stdin,
		Out:    os.Stdout,
		ErrOut: os.Stderr,
	}
}

// NewTestIOStreams returns IOStreams backed by buffers for unit tests.
//
//nolint:revive
func NewTestIOStreams(in *TestFdReader) (iostreams *IOStreams, out *bytes.Buffer, errOut *bytes.Buffer) {
	out, errOut = &bytes.Buffer{}, &bytes.Buffer{}

	iostreams = &IOStreams{
		In:     in,
		Out:    out,
		ErrOut: errOut,
	}

	return iostreams, out, errOut
}

// Printf writes a general, unprefixed formatted message to the standard
// output stream.
func (s IOStreams) Printf(format string, args ...any) {
	fmt.Fprintf(s.Out, format, args...)
}

// Debugf writes formatted debug output to the error stream when Verbose
// is enabled.
func (s IOStreams) Debugf(format string, args ...any) {
	if s.Verbose {
		fmt.Fprintf(s.ErrOut, "DEBUG "+format, args...)
	}
}

// Infof writes a formatted message to the standard output stream.
func (s IOStreams) Infof(format string, args ...any) {
	fmt.Fprintf(s.Out, format, args...)
}

// Errorf writes a formatted message to the error stream.
func (s IOStreams) Errorf(format string, args ...any) {
	fmt.Fprintf(s.ErrOut, format, args...)
}

// TestFdReader is an in-memory [FdReader] for tests.
type TestFdReader struct {
	io.Reader
	fd uintptr
}

// NewTestFdReader wraps the reader with a fake file descriptor.
func NewTestFdReader(r io.Reader, fd uintptr) *TestFdReader {
	return &TestFdReader{Reader: r, fd: fd}
}

func (r *TestFdReader) Fd() uintptr { return r.fd }
