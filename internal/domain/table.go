package domain

import (
	"encoding/json"
	"fmt"
	"math"
	"slices"
	"strconv"
	"strings"
)

// Record is a single occurrence keyed by column name, the shape used on the
// wire (Kafka JSON) and by the GBIF client.
type Record map[string]any

// Table is an order-preserving, in-memory occurrence table. A cell holds any
// scalar; nil marks a missing value.
type Table struct {
	columns []string
	index   map[string]int
	rows    [][]any
}

// Column is a column binding resolved against a table's schema.
type Column struct {
	Role  string // semantic role, e.g. "latitude"
	Name  string
	Index int
}

// NewTable builds a table. Every row must have one cell per column.
func NewTable(columns []string, rows [][]any) (*Table, error) {
	t := &Table{
		columns: slices.Clone(columns),
		index:   make(map[string]int, len(columns)),
	}
	for i, c := range t.columns {
		if _, dup := t.index[c]; dup {
			return nil, configErr("columns", "duplicate column %q", c)
		}
		t.index[c] = i
	}
	t.rows = make([][]any, len(rows))
	for i, r := range rows {
		if len(r) != len(columns) {
			return nil, configErr("rows", "row %d: got %d cells, want %d", i, len(r), len(columns))
		}
		t.rows[i] = slices.Clone(r)
	}
	return t, nil
}

// TableFromRecords builds a table from records. Columns are listed in
// first-seen order with keys of each record sorted, so the layout is stable.
func TableFromRecords(records []Record) *Table {
	t := &Table{index: make(map[string]int)}
	for _, rec := range records {
		keys := make([]string, 0, len(rec))
		for k := range rec {
			keys = append(keys, k)
		}
		slices.Sort(keys)
		for _, k := range keys {
			if _, ok := t.index[k]; !ok {
				t.index[k] = len(t.columns)
				t.columns = append(t.columns, k)
			}
		}
	}
	t.rows = make([][]any, len(records))
	for i, rec := range records {
		row := make([]any, len(t.columns))
		for k, v := range rec {
			row[t.index[k]] = v
		}
		t.rows[i] = row
	}
	return t
}

// Records converts each row into a Record. Missing cells are omitted.
func (t *Table) Records() []Record {
	out := make([]Record, len(t.rows))
	for i, row := range t.rows {
		rec := make(Record, len(t.columns))
		for j, c := range t.columns {
			if row[j] != nil {
				rec[c] = row[j]
			}
		}
		out[i] = rec
	}
	return out
}

// Columns returns a copy of the column names.
func (t *Table) Columns() []string { return slices.Clone(t.columns) }

// Len returns the number of rows.
func (t *Table) Len() int { return len(t.rows) }

// Has reports whether the table has the named column.
func (t *Table) Has(name string) bool {
	_, ok := t.index[name]
	return ok
}

// Resolve binds a semantic role to a named column.
func (t *Table) Resolve(role, name string) (Column, error) {
	if t == nil {
		return Column{}, configErr("table", "input is not a table")
	}
	if name == "" {
		return Column{}, configErr(role, "column name not given")
	}
	i, ok := t.index[name]
	if !ok {
		return Column{}, configErr(role, "column %q not found", name)
	}
	return Column{Role: role, Name: name, Index: i}, nil
}

// Value returns the cell at row i and column c.
func (t *Table) Value(i int, c Column) any { return t.rows[i][c.Index] }

// Row returns a copy of row i.
func (t *Table) Row(i int) []any { return slices.Clone(t.rows[i]) }

// SetValue overwrites the cell at row i and column c.
func (t *Table) SetValue(i int, c Column, v any) { t.rows[i][c.Index] = v }

// Clone returns a deep copy of the table's rows and schema.
func (t *Table) Clone() *Table {
	c := &Table{
		columns: slices.Clone(t.columns),
		index:   make(map[string]int, len(t.index)),
		rows:    make([][]any, len(t.rows)),
	}
	for k, v := range t.index {
		c.index[k] = v
	}
	for i, r := range t.rows {
		c.rows[i] = slices.Clone(r)
	}
	return c
}

// SetColumn writes values into the named column, appending the column when
// it does not exist yet.
func (t *Table) SetColumn(name string, values []any) error {
	if len(values) != len(t.rows) {
		return configErr(name, "got %d values for %d rows", len(values), len(t.rows))
	}
	i, ok := t.index[name]
	if !ok {
		i = len(t.columns)
		t.index[name] = i
		t.columns = append(t.columns, name)
		for r := range t.rows {
			t.rows[r] = append(t.rows[r], nil)
		}
	}
	for r, v := range values {
		t.rows[r][i] = v
	}
	return nil
}

// Select returns a new table holding the given rows in the given order.
func (t *Table) Select(rows []int) *Table {
	s := &Table{
		columns: slices.Clone(t.columns),
		index:   make(map[string]int, len(t.index)),
		rows:    make([][]any, len(rows)),
	}
	for k, v := range t.index {
		s.index[k] = v
	}
	for i, r := range rows {
		s.rows[i] = slices.Clone(t.rows[r])
	}
	return s
}

// Drop returns a new table without the given rows.
func (t *Table) Drop(rows []int) *Table {
	skip := make(map[int]bool, len(rows))
	for _, r := range rows {
		skip[r] = true
	}
	keep := make([]int, 0, len(t.rows))
	for i := range t.rows {
		if !skip[i] {
			keep = append(keep, i)
		}
	}
	return t.Select(keep)
}

// IsMissing reports whether v is a missing value: nil, NaN, a blank string,
// or the literal "NA".
func IsMissing(v any) bool {
	switch x := v.(type) {
	case nil:
		return true
	case float64:
		return math.IsNaN(x)
	case float32:
		return math.IsNaN(float64(x))
	case string:
		s := strings.TrimSpace(x)
		return s == "" || s == "NA"
	case json.Number:
		return strings.TrimSpace(string(x)) == ""
	}
	return false
}

// toFloat converts a cell to float64. The second result is false when the
// value is not numeric.
func toFloat(v any) (float64, bool) {
	switch x := v.(type) {
	case float64:
		return x, !math.IsNaN(x)
	case float32:
		return float64(x), !math.IsNaN(float64(x))
	case int:
		return float64(x), true
	case int64:
		return float64(x), true
	case int32:
		return float64(x), true
	case json.Number:
		f, err := x.Float64()
		return f, err == nil && !math.IsNaN(f)
	case string:
		f, err := strconv.ParseFloat(strings.TrimSpace(x), 64)
		return f, err == nil && !math.IsNaN(f)
	}
	return 0, false
}

// CellString renders a cell in its canonical text form. Missing cells
// render as the empty string.
func CellString(v any) string {
	if IsMissing(v) {
		return ""
	}
	switch x := v.(type) {
	case string:
		return x
	case float64:
		return strconv.FormatFloat(x, 'f', -1, 64)
	case float32:
		return strconv.FormatFloat(float64(x), 'f', -1, 32)
	case int:
		return strconv.Itoa(x)
	case int64:
		return strconv.FormatInt(x, 10)
	case int32:
		return strconv.FormatInt(int64(x), 10)
	case bool:
		if x {
			return "TRUE"
		}
		return "FALSE"
	case json.Number:
		return x.String()
	}
	return fmt.Sprint(v)
}

// canonicalKey renders a cell for exact-equality keys. Numeric cells and
// numeric strings share one form, so 101, 101.0, and "101" compare equal.
func canonicalKey(v any) string {
	if f, ok := toFloat(v); ok {
		return strconv.FormatFloat(f, 'f', -1, 64)
	}
	return CellString(v)
}
