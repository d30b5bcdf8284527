// Package tsv reads and writes GBIF-style tab separated files.
//
// GBIF downloads do not follow the quoting rules of encoding/csv: quotes
// are literal and the only escapes are \t, \n, and \\.
package tsv

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"strings"
)

// ErrFieldCount is returned when a row has a different number of fields
// than the first row.
var ErrFieldCount = errors.New("wrong number of fields")

// Reader reads rows from a TSV stream. Lines may end in \n or \r\n; blank
// lines are skipped.
type Reader struct {
	r      *bufio.Reader
	line   int
	fields int
}

// NewReader returns a Reader that reads from r.
func NewReader(r io.Reader) *Reader {
	return &Reader{r: bufio.NewReader(r)}
}

// Line returns the input line of the row most recently returned by Read.
func (r *Reader) Line() int { return r.line }

// Read returns the next row, or io.EOF when the input is exhausted.
func (r *Reader) Read() ([]string, error) {
	for {
		text, err := r.r.ReadString('\n')
		if text == "" && err != nil {
			return nil, err
		}
		r.line++
		text = strings.TrimSuffix(text, "\n")
		text = strings.TrimSuffix(text, "\r")
		if text == "" {
			if err != nil {
				return nil, err
			}
			continue
		}

		row := splitRow(text)
		if r.fields == 0 {
			r.fields = len(row)
		}
		if len(row) != r.fields {
			return row, fmt.Errorf("line %d: %w: got %d, want %d", r.line, ErrFieldCount, len(row), r.fields)
		}
		return row, nil
	}
}

// splitRow splits a line on tabs and resolves escapes. An unknown escape
// keeps its backslash.
func splitRow(line string) []string {
	var (
		row   []string
		field strings.Builder
	)
	for i := 0; i < len(line); i++ {
		c := line[i]
		switch {
		case c == '\t':
			row = append(row, field.String())
			field.Reset()
		case c == '\\' && i+1 < len(line):
			switch line[i+1] {
			case 't':
				field.WriteByte('\t')
				i++
			case 'n':
				field.WriteByte('\n')
				i++
			case '\\':
				field.WriteByte('\\')
				i++
			default:
				field.WriteByte(c)
			}
		default:
			field.WriteByte(c)
		}
	}
	return append(row, field.String())
}
