// Package subset implements a command to keep the occurrences that fall
// within a polygon layer.
package subset

import (
	"fmt"

	"github.com/js-arias/command"

	"github.com/couchcryptid/occurrence-etl/cmd/occqc/tableio"
	"github.com/couchcryptid/occurrence-etl/internal/adapter/boundary"
	"github.com/couchcryptid/occurrence-etl/internal/domain"
	"github.com/couchcryptid/occurrence-etl/internal/geo"
)

var Command = &command.Command{
	Usage: `subset --boundary <file> [--crs <crs>] [--points-crs <crs>]
	[--where <attribute>=<value>] [--lat <col>] [--lon <col>]
	[-i|--input <file>] [-o|--output <file>]`,
	Short: "select occurrences within a boundary",
	Long: `
Command subset reads a polygon layer from a shapefile (.shp) or a GeoJSON
file (.geojson, .json) and keeps the rows whose point falls within it.
A point on the outer boundary counts as within; a point on a hole boundary
does not.

The layer CRS is read from the .prj file or the GeoJSON crs member; use
--crs when neither is present. Points are read in --points-crs, EPSG:4326
by default. When the two differ the layer is reprojected to the points'
CRS. Supported systems are EPSG:4326, EPSG:3857, and EPSG:3035.

Use --where to keep only the features with a given attribute value, for
example --where BASIN=Sava.
	`,
	SetFlags: setFlags,
	Run:      run,
}

var files tableio.Flags
var boundaryFile string
var boundaryCRS string
var pointsCRS string
var where string
var lat string
var lon string

func setFlags(c *command.Command) {
	files.Register(c)
	c.Flags().StringVar(&boundaryFile, "boundary", "", "")
	c.Flags().StringVar(&boundaryCRS, "crs", "", "")
	c.Flags().StringVar(&pointsCRS, "points-crs", "EPSG:4326", "")
	c.Flags().StringVar(&where, "where", "", "")
	c.Flags().StringVar(&lat, "lat", "decimalLatitude", "")
	c.Flags().StringVar(&lon, "lon", "decimalLongitude", "")
}

func run(c *command.Command, args []string) error {
	if boundaryFile == "" {
		return c.UsageError("expecting --boundary file")
	}
	crs, err := geo.ParseCRS(pointsCRS)
	if err != nil {
		return c.UsageError(err.Error())
	}
	layer, err := boundary.Layer(boundaryFile, boundaryCRS, where)
	if err != nil {
		return err
	}

	t, err := files.Read(c)
	if err != nil {
		return err
	}
	out, report, err := domain.SpatialSubset(t, layer, domain.SubsetOptions{
		Latitude:  lat,
		Longitude: lon,
		CRS:       crs,
		Verbose:   files.Verbose,
		Logger:    files.Logger(c),
	})
	if err != nil {
		return err
	}
	fmt.Fprintf(c.Stderr(), "retained: %d of %d\n", report.Retained, report.Total)
	tableio.Report(c, "no usable point", report.Skipped)
	return files.Write(c, out)
}
