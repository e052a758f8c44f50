// Package output provides adapters for writing application output.
package output

import (
	"fmt"
	"io"
	"os"
)

// Writer writes stale branch candidates to the configured output
// destination. By default, it writes to stdout, keeping the
// machine-readable result separate from the structured logs on stderr.
type Writer struct {
	out io.Writer
}

// NewWriter creates a new Writer that writes to stdout.
func NewWriter() *Writer {
	return &Writer{out: os.Stdout}
}

// NewWriterWithOutput creates a new Writer with a custom output destination.
// This is useful for testing.
func NewWriterWithOutput(out io.Writer) *Writer {
	return &Writer{out: out}
}

// WriteCandidate writes one stale branch as a single
// space-separated "repository branch" line.
func (w *Writer) WriteCandidate(repository, branch string) error {
	_, err := fmt.Fprintf(w.out, "%s %s\n", repository, branch)
	return err
}
