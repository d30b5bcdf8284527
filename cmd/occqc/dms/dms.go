// Package dms implements a command to convert degree-minute-second
// coordinates into decimal degrees.
package dms

import (
	"fmt"

	"github.com/js-arias/command"

	"github.com/couchcryptid/occurrence-etl/cmd/occqc/tableio"
	"github.com/couchcryptid/occurrence-etl/internal/domain"
)

var Command = &command.Command{
	Usage: `dms [--mode symbolic|separate] --lat <col> --lon <col>
	[--lat-min <col> --lat-sec <col> --lon-min <col> --lon-sec <col>]
	[-i|--input <file>] [-o|--output <file>]`,
	Short: "convert DMS coordinates to decimal degrees",
	Long: `
Command dms reads an occurrence table and rewrites the latitude and
longitude columns as signed decimal degrees.

In symbolic mode (the default) each coordinate cell holds a string such as
45°15'30"N. In separate mode the --lat and --lon columns hold degrees and
the minute and second columns must be given too.

Rows that cannot be converted are listed on the standard error and their
coordinates are left missing.
	`,
	SetFlags: setFlags,
	Run:      run,
}

var files tableio.Flags
var mode string
var opts domain.NormalizeOptions

func setFlags(c *command.Command) {
	files.Register(c)
	c.Flags().StringVar(&mode, "mode", "symbolic", "")
	c.Flags().StringVar(&opts.Latitude, "lat", "decimalLatitude", "")
	c.Flags().StringVar(&opts.Longitude, "lon", "decimalLongitude", "")
	c.Flags().StringVar(&opts.LatMinutes, "lat-min", "", "")
	c.Flags().StringVar(&opts.LatSeconds, "lat-sec", "", "")
	c.Flags().StringVar(&opts.LonMinutes, "lon-min", "", "")
	c.Flags().StringVar(&opts.LonSeconds, "lon-sec", "", "")
}

func run(c *command.Command, args []string) error {
	m, err := domain.ParseDMSMode(mode)
	if err != nil {
		return c.UsageError(err.Error())
	}
	opts.Mode = m
	opts.Verbose = files.Verbose
	opts.Logger = files.Logger(c)

	t, err := files.Read(c)
	if err != nil {
		return err
	}
	out, report, err := domain.NormalizeDMS(t, opts)
	if err != nil {
		return err
	}
	for _, f := range report.Failures {
		fmt.Fprintf(c.Stderr(), "warning: %v\n", f)
	}
	return files.Write(c, out)
}
