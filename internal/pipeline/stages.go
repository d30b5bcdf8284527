package pipeline

import (
	"fmt"

	"github.com/couchcryptid/occurrence-etl/internal/config"
	"github.com/couchcryptid/occurrence-etl/internal/domain"
	"github.com/couchcryptid/occurrence-etl/internal/geo"
)

// Darwin Core fields used for forward geocoding.
const (
	LocalityColumn    = "locality"
	CountryCodeColumn = "countryCode"
)

// NewCleanerConfig maps service settings onto stage options. boundary and
// geocoder may be nil to disable the spatial subset and place enrichment.
// Duplicate detection runs only when a spatial unit column is configured,
// since the spatial unit is part of the duplicate key.
func NewCleanerConfig(cfg *config.Config, boundary *geo.Layer, geocoder domain.Geocoder) (CleanerConfig, error) {
	cols := cfg.Columns
	out := CleanerConfig{
		Coordinates: domain.CoordinateOptions{
			Latitude:  cols.Latitude,
			Longitude: cols.Longitude,
			Coerce:    true,
		},
		Columns: []string{cols.Latitude, cols.Longitude, cols.Species, cols.SpatialUnit,
			cols.Year, cols.Month, cols.Day, cols.Date},
	}

	if cfg.DMSMode == "symbolic" {
		out.DMS = &domain.NormalizeOptions{
			Mode:      domain.SymbolicDMS,
			Latitude:  cols.Latitude,
			Longitude: cols.Longitude,
		}
	}

	dates := domain.DateColumns{Year: cols.Year, Month: cols.Month, Day: cols.Day}
	if cols.Date != "" {
		dates = domain.DateColumns{Date: cols.Date}
	}
	if !dates.IsZero() {
		out.Dates = &domain.TemporalOptions{
			Columns: dates,
			Range:   domain.YearRange{Min: cfg.MinYear, Max: cfg.MaxYear},
		}
	}

	if boundary != nil {
		crs, err := geo.ParseCRS(cfg.PointsCRS)
		if err != nil {
			return CleanerConfig{}, fmt.Errorf("POINTS_CRS: %w", err)
		}
		out.Boundary = boundary
		out.Subset = domain.SubsetOptions{Latitude: cols.Latitude, Longitude: cols.Longitude, CRS: crs}
	}

	if cols.SpatialUnit != "" && cols.Species != "" && !dates.IsZero() {
		out.Duplicates = &domain.DuplicateOptions{
			Latitude:    cols.Latitude,
			Longitude:   cols.Longitude,
			SpatialUnit: cols.SpatialUnit,
			Species:     cols.Species,
			Dates:       dates,
			Digits:      duplicateDigits(cfg.CoordDigits),
			Mode:        domain.DeleteDuplicates,
		}
	}

	if geocoder != nil {
		out.Geocoder = geocoder
		out.Places = &domain.PlaceOptions{
			Latitude:  cols.Latitude,
			Longitude: cols.Longitude,
			Locality:  LocalityColumn,
			Country:   CountryCodeColumn,
		}
		out.Columns = append(out.Columns, LocalityColumn, CountryCodeColumn)
	}
	return out, nil
}

// duplicateDigits maps COORD_DIGITS onto the detector's precision: 0 rounds
// to whole degrees and -1 compares raw values.
func duplicateDigits(n int) int {
	switch n {
	case 0:
		return domain.WholeDegrees
	case -1:
		return domain.NoRounding
	}
	return n
}
