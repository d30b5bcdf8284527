package domain

import (
	"errors"
	"log/slog"

	"github.com/paulmach/orb"

	"github.com/couchcryptid/occurrence-etl/internal/geo"
)

// SubsetOptions binds the point columns for SpatialSubset. CRS is the
// reference system of the point coordinates; zero means WGS84.
type SubsetOptions struct {
	Latitude  string
	Longitude string
	CRS       geo.CRS

	Verbose bool
	Logger  *slog.Logger
}

// SubsetReport counts the rows kept by SpatialSubset. Skipped rows had a
// missing or non-numeric coordinate and are never retained.
type SubsetReport struct {
	Total    int
	Retained int
	Skipped  []int
	Layer    string
	CRS      geo.CRS
}

// SpatialSubset returns the rows of t whose point falls within the layer.
// When the layer and the points use different reference systems the layer
// is reprojected once to the points' CRS; the points are never transformed.
func SpatialSubset(t *Table, layer *geo.Layer, opts SubsetOptions) (*Table, *SubsetReport, error) {
	if err := layer.Validate(); err != nil {
		if errors.Is(err, geo.ErrNotPolygonal) {
			return nil, nil, &TypeMismatchError{Want: "Polygon or MultiPolygon layer", Got: layer.GeometryType()}
		}
		return nil, nil, configErr("layer", "%v", err)
	}
	lat, err := t.Resolve("latitude", opts.Latitude)
	if err != nil {
		return nil, nil, err
	}
	lon, err := t.Resolve("longitude", opts.Longitude)
	if err != nil {
		return nil, nil, err
	}

	crs := opts.CRS
	if crs == 0 {
		crs = geo.WGS84
	}
	if !crs.Supported() {
		return nil, nil, configErr("crs", "%s: unsupported reference system", crs)
	}
	target, err := layer.Reproject(crs)
	if err != nil {
		return nil, nil, configErr("layer", "%v", err)
	}

	report := &SubsetReport{Total: t.Len(), Layer: layer.Name, CRS: crs}
	keep := make([]int, 0, t.Len())
	for i := 0; i < t.Len(); i++ {
		y, okY := toFloat(t.Value(i, lat))
		x, okX := toFloat(t.Value(i, lon))
		if !okY || !okX {
			report.Skipped = append(report.Skipped, i)
			continue
		}
		if target.Contains(orb.Point{x, y}) {
			keep = append(keep, i)
		}
	}
	report.Retained = len(keep)

	if opts.Verbose {
		logger(opts.Logger).Info("spatial subset",
			"layer", layer.Name,
			"crs", crs.String(),
			"retained", report.Retained,
			"total", report.Total,
			"skipped", len(report.Skipped),
		)
	}
	return t.Select(keep), report, nil
}
