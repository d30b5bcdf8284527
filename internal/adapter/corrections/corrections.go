// Package corrections reads manual correction files: one row per corrected
// cell with id, column, and value headers.
package corrections

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/jszwec/csvutil"

	"github.com/couchcryptid/occurrence-etl/internal/adapter/tsv"
	"github.com/couchcryptid/occurrence-etl/internal/domain"
)

// Decode reads corrections from a header-first CSV stream. An input with
// only a header yields no corrections.
func Decode(r io.Reader) ([]domain.Correction, error) {
	cr := csv.NewReader(r)
	cr.TrimLeadingSpace = true
	return decode(cr)
}

// DecodeTSV reads corrections from a GBIF-style tab separated stream.
func DecodeTSV(r io.Reader) ([]domain.Correction, error) {
	return decode(tsv.NewReader(r))
}

func decode(r csvutil.Reader) ([]domain.Correction, error) {
	dec, err := csvutil.NewDecoder(r)
	if errors.Is(err, io.EOF) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read corrections header: %w", err)
	}
	if header := dec.Header(); !hasColumns(header, "id", "column", "value") {
		return nil, fmt.Errorf("corrections header %v: want id, column, value", header)
	}

	var out []domain.Correction
	if err := dec.Decode(&out); err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("decode corrections: %w", err)
	}
	for i, c := range out {
		if strings.TrimSpace(c.ID) == "" || strings.TrimSpace(c.Column) == "" {
			return nil, fmt.Errorf("correction %d: id and column are required", i+1)
		}
	}
	return out, nil
}

func hasColumns(header []string, want ...string) bool {
	seen := make(map[string]bool, len(header))
	for _, h := range header {
		seen[strings.TrimSpace(h)] = true
	}
	for _, w := range want {
		if !seen[w] {
			return false
		}
	}
	return true
}

// ReadFile reads a correction file, choosing TSV for .tsv and .txt
// extensions and CSV otherwise.
func ReadFile(path string) ([]domain.Correction, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	var out []domain.Correction
	switch strings.ToLower(filepath.Ext(path)) {
	case ".tsv", ".txt":
		out, err = DecodeTSV(f)
	default:
		out, err = Decode(f)
	}
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return out, nil
}
