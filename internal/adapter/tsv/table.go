package tsv

import (
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/couchcryptid/occurrence-etl/internal/domain"
)

// ReadTable reads a TSV stream whose first row is the header. Empty fields
// become missing cells; every other field stays a string for the stages to
// coerce.
func ReadTable(r io.Reader) (*domain.Table, error) {
	tr := NewReader(r)
	header, err := tr.Read()
	if errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("read header: empty input")
	}
	if err != nil {
		return nil, fmt.Errorf("read header: %w", err)
	}

	var rows [][]any
	for {
		fields, err := tr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, err
		}
		row := make([]any, len(fields))
		for i, f := range fields {
			if f != "" {
				row[i] = f
			}
		}
		rows = append(rows, row)
	}
	return domain.NewTable(header, rows)
}

// WriteTable writes t with a header row.
func WriteTable(w io.Writer, t *domain.Table) error {
	tw := NewWriter(w)
	if err := tw.Write(t.Columns()); err != nil {
		return fmt.Errorf("write header: %w", err)
	}
	for i := 0; i < t.Len(); i++ {
		cells := t.Row(i)
		fields := make([]string, len(cells))
		for j, c := range cells {
			fields[j] = domain.CellString(c)
		}
		if err := tw.Write(fields); err != nil {
			return fmt.Errorf("write row %d: %w", i, err)
		}
	}
	return tw.Flush()
}

// ReadFile reads a TSV table from path.
func ReadFile(path string) (*domain.Table, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	t, err := ReadTable(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return t, nil
}

// WriteFile writes t to path, replacing any existing file.
func WriteFile(path string, t *domain.Table) (err error) {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := f.Close(); err == nil {
			err = cerr
		}
	}()
	return WriteTable(f, t)
}
