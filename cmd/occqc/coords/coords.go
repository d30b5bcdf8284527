// Package coords implements a command to check occurrence coordinates.
package coords

import (
	"fmt"

	"github.com/js-arias/command"

	"github.com/couchcryptid/occurrence-etl/cmd/occqc/tableio"
	"github.com/couchcryptid/occurrence-etl/internal/domain"
)

var Command = &command.Command{
	Usage: `coords [--lat <col>] [--lon <col>] [--coerce] [--drop]
	[-i|--input <file>] [-o|--output <file>]`,
	Short: "check coordinate columns",
	Long: `
Command coords checks that latitude and longitude are numeric and within
[-90, 90] and [-180, 180]. The findings are printed on the standard error
with one-based row numbers.

With --coerce, numeric strings are written back as numbers. With --drop,
rows with a non-numeric, out-of-range, or missing coordinate are removed.
	`,
	SetFlags: setFlags,
	Run:      run,
}

var files tableio.Flags
var opts domain.CoordinateOptions
var dropFlag bool

func setFlags(c *command.Command) {
	files.Register(c)
	c.Flags().StringVar(&opts.Latitude, "lat", "decimalLatitude", "")
	c.Flags().StringVar(&opts.Longitude, "lon", "decimalLongitude", "")
	c.Flags().BoolVar(&opts.Coerce, "coerce", false, "")
	c.Flags().BoolVar(&dropFlag, "drop", false, "")
}

func run(c *command.Command, args []string) error {
	opts.Verbose = files.Verbose
	opts.Logger = files.Logger(c)

	t, err := files.Read(c)
	if err != nil {
		return err
	}
	out, report, err := domain.CheckCoordinates(t, opts)
	if err != nil {
		return err
	}

	for _, axis := range []domain.AxisReport{report.Latitude, report.Longitude} {
		tableio.Report(c, axis.Column+" not numeric", axis.CoercionFailed)
		tableio.Report(c, axis.Column+" out of range", axis.OutOfRange)
		tableio.Report(c, axis.Column+" missing", axis.Missing)
	}
	if dropFlag {
		bad := report.Unusable()
		out = out.Drop(bad)
		fmt.Fprintf(c.Stderr(), "dropped: %d\n", len(bad))
	}
	return files.Write(c, out)
}
