// Package dups implements a command to remove or flag duplicate
// occurrences.
package dups

import (
	"fmt"

	"github.com/js-arias/command"

	"github.com/couchcryptid/occurrence-etl/cmd/occqc/tableio"
	"github.com/couchcryptid/occurrence-etl/internal/domain"
)

var Command = &command.Command{
	Usage: `dups --unit <col> [--lat <col>] [--lon <col>] [--species <col>]
	(--year <col> [--month <col> --day <col>] | --date <col> | --date-col <col>)
	[--flag] [--flag-col <col>] [--digits <n>]
	[-i|--input <file>] [-o|--output <file>]`,
	Short: "remove or flag duplicate occurrences",
	Long: `
Command dups finds records that share a spatial unit, species, date, and
rounded coordinates.

Coordinates are rounded to --digits decimals, 4 by default; 0 rounds to
whole degrees and -1 compares the values as given. Rows with a missing key
field are never duplicates.

By default only the first record of each group is kept, in input order.
With --flag every record is kept and a boolean column, duplicate_flag unless
--flag-col is given, marks each member of a group.

Use --date-col for a column that already holds a resolved date. It cannot
be combined with --year or --date.
	`,
	SetFlags: setFlags,
	Run:      run,
}

var files tableio.Flags
var cols tableio.DateFlags
var opts domain.DuplicateOptions
var flagMode bool
var digits int

func setFlags(c *command.Command) {
	files.Register(c)
	cols.Register(c)
	c.Flags().StringVar(&opts.Latitude, "lat", "decimalLatitude", "")
	c.Flags().StringVar(&opts.Longitude, "lon", "decimalLongitude", "")
	c.Flags().StringVar(&opts.Species, "species", "species", "")
	c.Flags().StringVar(&opts.SpatialUnit, "unit", "", "")
	c.Flags().StringVar(&opts.DateColumn, "date-col", "", "")
	c.Flags().StringVar(&opts.FlagColumn, "flag-col", "", "")
	c.Flags().BoolVar(&flagMode, "flag", false, "")
	c.Flags().IntVar(&digits, "digits", domain.DefaultDigits, "")
}

func run(c *command.Command, args []string) error {
	if opts.SpatialUnit == "" {
		return c.UsageError("expecting --unit column")
	}
	switch digits {
	case 0:
		opts.Digits = domain.WholeDegrees
	case -1:
		opts.Digits = domain.NoRounding
	default:
		opts.Digits = digits
	}
	if flagMode {
		opts.Mode = domain.FlagDuplicates
	}
	opts.Dates = cols.Columns()
	opts.Verbose = files.Verbose
	opts.Logger = files.Logger(c)

	t, err := files.Read(c)
	if err != nil {
		return err
	}
	out, report, err := domain.DetectDuplicates(t, opts)
	if err != nil {
		return err
	}
	fmt.Fprintf(c.Stderr(), "groups: %d, flagged: %d, removed: %d\n", report.Groups, report.Flagged, report.Removed)
	tableio.Report(c, "ineligible", report.Ineligible)
	return files.Write(c, out)
}
