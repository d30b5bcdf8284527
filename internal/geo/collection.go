package geo

import (
	"fmt"
	"strings"

	"github.com/paulmach/orb"
)

// Feature is one geometry of a boundary file with its attribute values.
type Feature struct {
	Geometry   orb.Geometry
	Attributes map[string]string
}

// Collection holds the features read from one boundary file.
type Collection struct {
	Name     string
	CRS      CRS
	Features []Feature
}

// Layer merges every polygonal feature into a single layer. Non-polygonal
// features are ignored.
func (c *Collection) Layer() (*Layer, error) {
	return c.layer(c.Name, func(Feature) bool { return true })
}

// LayerFor merges the features whose attribute equals value, compared
// case-insensitively, e.g. LayerFor("BASIN", "Sava").
func (c *Collection) LayerFor(attribute, value string) (*Layer, error) {
	name := fmt.Sprintf("%s[%s=%s]", c.Name, attribute, value)
	return c.layer(name, func(f Feature) bool {
		v, ok := f.Attributes[attribute]
		return ok && strings.EqualFold(strings.TrimSpace(v), value)
	})
}

func (c *Collection) layer(name string, keep func(Feature) bool) (*Layer, error) {
	var parts []*Layer
	for _, f := range c.Features {
		if !keep(f) {
			continue
		}
		switch f.Geometry.(type) {
		case orb.Polygon, orb.MultiPolygon:
			parts = append(parts, &Layer{Name: name, Geometry: f.Geometry, CRS: c.CRS, Attributes: f.Attributes})
		}
	}
	switch len(parts) {
	case 0:
		return nil, fmt.Errorf("layer %q: %w (no polygon features)", name, ErrNotPolygonal)
	case 1:
		return parts[0], nil
	}
	return Merge(name, parts...)
}
