// Package boundary opens polygon layers from shapefiles or GeoJSON files,
// choosing the reader by file extension.
package boundary

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/couchcryptid/occurrence-etl/internal/adapter/geojson"
	"github.com/couchcryptid/occurrence-etl/internal/adapter/shapefile"
	"github.com/couchcryptid/occurrence-etl/internal/geo"
)

// Open reads the boundary file at path. crs overrides a missing .prj or
// GeoJSON crs member and may be empty.
func Open(path, crs string) (*geo.Collection, error) {
	var fallback geo.CRS
	if crs != "" {
		c, err := geo.ParseCRS(crs)
		if err != nil {
			return nil, fmt.Errorf("boundary crs: %w", err)
		}
		fallback = c
	}

	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".shp":
		return shapefile.Read(path, fallback)
	case ".geojson", ".json":
		return geojson.ReadFile(path, fallback)
	default:
		return nil, fmt.Errorf("boundary %q: unsupported file type %q", path, ext)
	}
}

// Layer opens path and merges its polygons. A non-empty where of the form
// attribute=value keeps only the matching features.
func Layer(path, crs, where string) (*geo.Layer, error) {
	c, err := Open(path, crs)
	if err != nil {
		return nil, err
	}
	if where == "" {
		return c.Layer()
	}
	attr, value, ok := strings.Cut(where, "=")
	if !ok || strings.TrimSpace(attr) == "" {
		return nil, fmt.Errorf("boundary filter %q: want attribute=value", where)
	}
	return c.LayerFor(strings.TrimSpace(attr), strings.TrimSpace(value))
}
