// Package ark writes per-utterance feature matrices to an archive file and an
// index (script) file mapping each utterance id to its archive offset.
package ark

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"

	"github.com/samcharles93/nnetio/internal/kio"
)

var ErrClosed = errors.New("ark: writer is closed")

// Writer appends matrices to an archive. Each entry is "<uttID> " followed by
// a matrix in the archive's mode; the script line "<uttID> <ark>:<offset>"
// points at the matrix. A script line is only written once its archive entry
// has reached the underlying writer.
type Writer struct {
	arkPath string
	ark     *kio.Output
	scp     *kio.Output
	closers []io.Closer
	binary  bool
	closed  bool
}

// Create truncates or creates both files.
func Create(arkPath, scpPath string, binary bool) (*Writer, error) {
	af, err := os.Create(arkPath)
	if err != nil {
		return nil, fmt.Errorf("create archive: %w", err)
	}
	sf, err := os.Create(scpPath)
	if err != nil {
		_ = af.Close()
		return nil, fmt.Errorf("create script: %w", err)
	}
	w := NewWriter(af, sf, arkPath, binary)
	w.closers = []io.Closer{af, sf}
	return w, nil
}

// NewWriter writes the archive to ark and the script to scp. arkPath is the
// name recorded in script lines. Close flushes but does not close either.
func NewWriter(ark, scp io.Writer, arkPath string, binary bool) *Writer {
	return &Writer{
		arkPath: arkPath,
		ark:     kio.NewOutput(ark, binary),
		scp:     kio.NewOutput(scp, false),
		binary:  binary,
	}
}

// Write appends m under uttID and returns the archive offset of the matrix.
func (w *Writer) Write(m kio.Mat, uttID string) (int64, error) {
	if w.closed {
		return 0, ErrClosed
	}
	if uttID == "" {
		return 0, errors.New("ark: empty utterance id")
	}
	for i := 0; i < len(uttID); i++ {
		if uttID[i] == ' ' || uttID[i] == '\t' || uttID[i] == '\n' || uttID[i] == '\r' {
			return 0, fmt.Errorf("ark: utterance id %q contains whitespace", uttID)
		}
	}

	_ = w.ark.WriteToken(uttID)
	off := w.ark.Offset()
	_ = w.ark.WriteHeader()
	_ = w.ark.WriteMatrix(m)
	if err := w.ark.Flush(); err != nil {
		return 0, fmt.Errorf("ark: write %s: %w", uttID, err)
	}

	_ = w.scp.WriteToken(uttID)
	if err := w.scp.WriteString(w.arkPath + ":" + strconv.FormatInt(off, 10) + "\n"); err != nil {
		return 0, fmt.Errorf("ark: index %s: %w", uttID, err)
	}
	return off, nil
}

// Close flushes both streams and closes any files opened by Create. Calling
// Close again is a no-op.
func (w *Writer) Close() error {
	if w.closed {
		return nil
	}
	w.closed = true
	var errs []error
	if err := w.ark.Flush(); err != nil {
		errs = append(errs, err)
	}
	if err := w.scp.Flush(); err != nil {
		errs = append(errs, err)
	}
	for _, c := range w.closers {
		if err := c.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
