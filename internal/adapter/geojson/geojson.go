// Package geojson reads GeoJSON boundary files as layers.
package geojson

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/paulmach/orb/geojson"

	"github.com/couchcryptid/occurrence-etl/internal/geo"
)

// header holds the members needed before the geometry is decoded. The crs
// member was dropped from RFC 7946 but is still written by GDAL and QGIS.
type header struct {
	Type string `json:"type"`
	CRS  *struct {
		Type       string `json:"type"`
		Properties struct {
			Name string `json:"name"`
		} `json:"properties"`
	} `json:"crs"`
}

// Decode reads a FeatureCollection, Feature, or bare geometry. Without a
// crs member the collection is in fallback, or WGS84 when fallback is zero,
// as RFC 7946 prescribes.
func Decode(r io.Reader, name string, fallback geo.CRS) (*geo.Collection, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("read geojson: %w", err)
	}
	var h header
	if err := json.Unmarshal(data, &h); err != nil {
		return nil, fmt.Errorf("decode geojson: %w", err)
	}

	crs := fallback
	if crs == 0 {
		crs = geo.WGS84
	}
	if h.CRS != nil && h.CRS.Properties.Name != "" {
		if crs, err = geo.ParseCRS(h.CRS.Properties.Name); err != nil {
			return nil, fmt.Errorf("geojson crs member: %w", err)
		}
	}

	c := &geo.Collection{Name: name, CRS: crs}
	switch h.Type {
	case "FeatureCollection":
		fc, err := geojson.UnmarshalFeatureCollection(data)
		if err != nil {
			return nil, fmt.Errorf("decode feature collection: %w", err)
		}
		for _, f := range fc.Features {
			c.Features = append(c.Features, toFeature(f))
		}
	case "Feature":
		f, err := geojson.UnmarshalFeature(data)
		if err != nil {
			return nil, fmt.Errorf("decode feature: %w", err)
		}
		c.Features = append(c.Features, toFeature(f))
	default:
		g, err := geojson.UnmarshalGeometry(data)
		if err != nil {
			return nil, fmt.Errorf("decode geometry: %w", err)
		}
		c.Features = append(c.Features, geo.Feature{Geometry: g.Geometry()})
	}
	return c, nil
}

func toFeature(f *geojson.Feature) geo.Feature {
	attrs := make(map[string]string, len(f.Properties))
	for k, v := range f.Properties {
		if v != nil {
			attrs[k] = fmt.Sprint(v)
		}
	}
	return geo.Feature{Geometry: f.Geometry, Attributes: attrs}
}

// ReadFile decodes the GeoJSON file at path.
func ReadFile(path string, fallback geo.CRS) (*geo.Collection, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	name := strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	c, err := Decode(f, name, fallback)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return c, nil
}
