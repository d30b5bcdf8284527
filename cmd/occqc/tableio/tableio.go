// Package tableio holds the input and output plumbing shared by the
// occqc commands.
package tableio

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/js-arias/command"

	"github.com/couchcryptid/occurrence-etl/internal/adapter/tsv"
	"github.com/couchcryptid/occurrence-etl/internal/domain"
)

// Flags are the -i/--input and -o/--output flags every table command takes.
type Flags struct {
	Input   string
	Output  string
	Verbose bool
}

// Register adds the flags to c.
func (f *Flags) Register(c *command.Command) {
	c.Flags().StringVar(&f.Input, "input", "", "")
	c.Flags().StringVar(&f.Input, "i", "", "")
	c.Flags().StringVar(&f.Output, "output", "", "")
	c.Flags().StringVar(&f.Output, "o", "", "")
	c.Flags().BoolVar(&f.Verbose, "verbose", false, "")
	c.Flags().BoolVar(&f.Verbose, "v", false, "")
}

// Read reads the input table, from the standard input when no file is set.
func (f *Flags) Read(c *command.Command) (*domain.Table, error) {
	if f.Input == "" {
		t, err := tsv.ReadTable(c.Stdin())
		if err != nil {
			return nil, fmt.Errorf("stdin: %w", err)
		}
		return t, nil
	}
	return tsv.ReadFile(f.Input)
}

// Write writes t to the output file, or to the standard output.
func (f *Flags) Write(c *command.Command, t *domain.Table) error {
	if f.Output == "" {
		return tsv.WriteTable(c.Stdout(), t)
	}
	return tsv.WriteFile(f.Output, t)
}

// Logger returns a text logger on the command's standard error. Stage
// summaries are logged only in verbose mode.
func (f *Flags) Logger(c *command.Command) *slog.Logger {
	level := slog.LevelWarn
	if f.Verbose {
		level = slog.LevelInfo
	}
	return NewLogger(c.Stderr(), level)
}

// NewLogger returns a text logger writing to w.
func NewLogger(w io.Writer, level slog.Level) *slog.Logger {
	if w == nil {
		w = os.Stderr
	}
	return slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: level}))
}

// Report prints one "name: rows" line to the standard error. Row numbers
// are printed one-based, as a spreadsheet shows them.
func Report(c *command.Command, name string, rows []int) {
	if len(rows) == 0 {
		fmt.Fprintf(c.Stderr(), "%s: none\n", name)
		return
	}
	nums := make([]string, len(rows))
	for i, r := range rows {
		nums[i] = fmt.Sprint(r + 1)
	}
	fmt.Fprintf(c.Stderr(), "%s: %d [%s]\n", name, len(rows), strings.Join(nums, " "))
}

// DateFlags bind one of the three date representations.
type DateFlags struct {
	Year   string
	Month  string
	Day    string
	Date   string
	Layout string
}

// Register adds --year, --month, --day, --date and --layout to c.
func (d *DateFlags) Register(c *command.Command) {
	c.Flags().StringVar(&d.Year, "year", "", "")
	c.Flags().StringVar(&d.Month, "month", "", "")
	c.Flags().StringVar(&d.Day, "day", "", "")
	c.Flags().StringVar(&d.Date, "date", "", "")
	c.Flags().StringVar(&d.Layout, "layout", "", "")
}

// Columns returns the bound date columns.
func (d *DateFlags) Columns() domain.DateColumns {
	return domain.DateColumns{Year: d.Year, Month: d.Month, Day: d.Day, Date: d.Date, Layout: d.Layout}
}
