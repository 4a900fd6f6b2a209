// Package output provides the line-oriented output sink.
package output

import (
	"bufio"
	"io"
)

// LineWriter writes output rows, one per line.
type LineWriter struct {
	w     *bufio.Writer
	lines int
}

// NewLineWriter creates a new line writer.
func NewLineWriter(w io.Writer) *LineWriter {
	return &LineWriter{w: bufio.NewWriter(w)}
}

// WriteLine writes a single row followed by a newline.
func (lw *LineWriter) WriteLine(line string) error {
	if _, err := lw.w.WriteString(line); err != nil {
		return err
	}
	if err := lw.w.WriteByte('\n'); err != nil {
		return err
	}
	lw.lines++
	return nil
}

// Lines returns the number of rows written so far.
func (lw *LineWriter) Lines() int {
	return lw.lines
}

// Flush flushes any buffered data to the underlying writer.
func (lw *LineWriter) Flush() error {
	return lw.w.Flush()
}
