package domain

import (
	"context"
	"log/slog"
)

// Columns written by EnrichWithPlaces.
const (
	PlaceNameColumn = "place_name"
	GeoSourceColumn = "geo_source"
)

// Values of the geo_source column.
const (
	GeoSourceForward  = "forward"
	GeoSourceReverse  = "reverse"
	GeoSourceOriginal = "original"
	GeoSourceFailed   = "failed"
)

// PlaceOptions binds the columns used for geocoding. Locality and Country
// are optional; without Locality rows lacking coordinates are left alone.
type PlaceOptions struct {
	Latitude  string
	Longitude string
	Locality  string
	Country   string
}

// EnrichWithPlaces returns a copy of t with place_name and geo_source
// columns. Rows with coordinates are reverse geocoded; rows without
// coordinates but with a locality are forward geocoded and get the found
// coordinates. A failed lookup marks the row "failed" and never aborts the
// call. A nil geocoder returns t unchanged.
func EnrichWithPlaces(ctx context.Context, t *Table, geocoder Geocoder, opts PlaceOptions, logger *slog.Logger) (*Table, error) {
	if geocoder == nil {
		return t, nil
	}
	lat, err := t.Resolve("latitude", opts.Latitude)
	if err != nil {
		return nil, err
	}
	lon, err := t.Resolve("longitude", opts.Longitude)
	if err != nil {
		return nil, err
	}
	var locality, country *Column
	if opts.Locality != "" {
		c, err := t.Resolve("locality", opts.Locality)
		if err != nil {
			return nil, err
		}
		locality = &c
	}
	if opts.Country != "" {
		c, err := t.Resolve("country", opts.Country)
		if err != nil {
			return nil, err
		}
		country = &c
	}

	out := t.Clone()
	places := make([]any, out.Len())
	sources := make([]any, out.Len())
	for i := 0; i < out.Len(); i++ {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		y, okY := toFloat(out.Value(i, lat))
		x, okX := toFloat(out.Value(i, lon))

		switch {
		case okY && okX:
			result, err := geocoder.ReverseGeocode(ctx, y, x)
			if err != nil {
				logger.Warn("reverse geocoding failed", "row", i, "lat", y, "lon", x, "error", err)
				sources[i] = GeoSourceFailed
				continue
			}
			if result.FormattedAddress == "" {
				sources[i] = GeoSourceOriginal
				continue
			}
			places[i] = result.PlaceName
			sources[i] = GeoSourceReverse

		case locality != nil && !IsMissing(out.Value(i, *locality)):
			name := CellString(out.Value(i, *locality))
			var cc string
			if country != nil {
				cc = CellString(out.Value(i, *country))
			}
			result, err := geocoder.ForwardGeocode(ctx, name, cc)
			if err != nil {
				logger.Warn("forward geocoding failed", "row", i, "locality", name, "country", cc, "error", err)
				sources[i] = GeoSourceFailed
				continue
			}
			if result.Lat == 0 && result.Lon == 0 {
				sources[i] = GeoSourceOriginal
				continue
			}
			out.SetValue(i, lat, result.Lat)
			out.SetValue(i, lon, result.Lon)
			places[i] = result.PlaceName
			sources[i] = GeoSourceForward

		default:
			sources[i] = GeoSourceOriginal
		}
	}
	if err := out.SetColumn(PlaceNameColumn, places); err != nil {
		return nil, err
	}
	if err := out.SetColumn(GeoSourceColumn, sources); err != nil {
		return nil, err
	}
	return out, nil
}
