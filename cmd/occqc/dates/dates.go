// Package dates implements a command to check occurrence dates.
package dates

import (
	"fmt"

	"github.com/js-arias/command"

	"github.com/couchcryptid/occurrence-etl/cmd/occqc/tableio"
	"github.com/couchcryptid/occurrence-etl/internal/domain"
)

var Command = &command.Command{
	Usage: `dates (--year <col> [--month <col> --day <col>] | --date <col> [--layout <layout>])
	[--min <year>] [--max <year>] [--drop]
	[-i|--input <file>] [-o|--output <file>]`,
	Short: "check occurrence dates",
	Long: `
Command dates checks that every row has a date and that its year lies in
the inclusive range given by --min and --max. The default range runs from
1900 to the current year.

A date is given as a year column alone, as year, month, and day columns,
or as a single date column parsed with --layout, a Go time layout that
defaults to dd/mm/yyyy (2/1/2006).

With --drop, rows with a missing or out-of-range date are removed.
	`,
	SetFlags: setFlags,
	Run:      run,
}

var files tableio.Flags
var cols tableio.DateFlags
var minYear int
var maxYear int
var dropFlag bool

func setFlags(c *command.Command) {
	files.Register(c)
	cols.Register(c)
	c.Flags().IntVar(&minYear, "min", 0, "")
	c.Flags().IntVar(&maxYear, "max", 0, "")
	c.Flags().BoolVar(&dropFlag, "drop", false, "")
}

func run(c *command.Command, args []string) error {
	t, err := files.Read(c)
	if err != nil {
		return err
	}
	report, err := domain.CheckDates(t, domain.TemporalOptions{
		Columns: cols.Columns(),
		Range:   domain.YearRange{Min: minYear, Max: maxYear},
		Verbose: files.Verbose,
		Logger:  files.Logger(c),
	})
	if err != nil {
		return err
	}

	tableio.Report(c, "missing", report.Missing)
	tableio.Report(c, fmt.Sprintf("outside %d-%d", report.Range.Min, report.Range.Max), report.OutOfRange)
	if dropFlag {
		bad := report.Invalid()
		t = t.Drop(bad)
		fmt.Fprintf(c.Stderr(), "dropped: %d\n", len(bad))
	}
	return files.Write(c, t)
}
