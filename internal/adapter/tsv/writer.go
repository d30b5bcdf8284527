package tsv

import (
	"bufio"
	"io"
	"strings"
)

var escaper = strings.NewReplacer(`\`, `\\`, "\t", `\t`, "\n", `\n`)

// Writer writes rows as TSV. Lines end in \n unless UseCRLF is set.
type Writer struct {
	UseCRLF bool

	w *bufio.Writer
}

// NewWriter returns a Writer that writes to w.
func NewWriter(w io.Writer) *Writer {
	return &Writer{w: bufio.NewWriter(w)}
}

// Write writes one row. Rows are buffered until Flush.
func (w *Writer) Write(row []string) error {
	for i, f := range row {
		if i > 0 {
			if err := w.w.WriteByte('\t'); err != nil {
				return err
			}
		}
		if _, err := escaper.WriteString(w.w, f); err != nil {
			return err
		}
	}
	eol := "\n"
	if w.UseCRLF {
		eol = "\r\n"
	}
	_, err := w.w.WriteString(eol)
	return err
}

// Flush writes buffered rows to the underlying writer.
func (w *Writer) Flush() error {
	return w.w.Flush()
}
