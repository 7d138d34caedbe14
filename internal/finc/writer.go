package finc

import (
	"bufio"
	"io"
)

// Writer emits documents as JSON Lines.
type Writer struct {
	w     *bufio.Writer
	count int
}

func NewWriter(w io.Writer) *Writer {
	return &Writer{w: bufio.NewWriter(w)}
}

func (w *Writer) Write(doc *Document) error {
	line, err := doc.MarshalJSON()
	if err != nil {
		return err
	}
	if _, err := w.w.Write(line); err != nil {
		return err
	}
	if err := w.w.WriteByte('\n'); err != nil {
		return err
	}
	w.count++
	return nil
}

// Count returns the number of documents written so far.
func (w *Writer) Count() int {
	return w.count
}

func (w *Writer) Flush() error {
	return w.w.Flush()
}
