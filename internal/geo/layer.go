package geo

import (
	"errors"
	"fmt"
	"sync/atomic"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/planar"
	"github.com/paulmach/orb/project"
)

// ErrNotPolygonal is returned for layers whose geometry is not a polygon or
// multi-polygon.
var ErrNotPolygonal = errors.New("geometry is not a polygon or multi-polygon")

// Layer is a boundary polygon (possibly multi-part) tagged with its CRS,
// e.g. a sub-catchment or the Danube basin outline. Geometry must not be
// modified once the layer has been queried.
type Layer struct {
	Name       string
	Geometry   orb.Geometry
	CRS        CRS
	Attributes map[string]string

	bound atomic.Pointer[orb.Bound]
}

// Bound returns the bounding box of the layer geometry, computed on first use.
func (l *Layer) Bound() orb.Bound {
	if b := l.bound.Load(); b != nil {
		return *b
	}
	var b orb.Bound
	if l.Geometry != nil {
		b = l.Geometry.Bound()
	}
	l.bound.Store(&b)
	return b
}

// GeometryType returns the GeoJSON type name of the layer geometry.
func (l *Layer) GeometryType() string {
	if l == nil || l.Geometry == nil {
		return "nil"
	}
	return l.Geometry.GeoJSONType()
}

// Validate checks that the layer holds a polygonal geometry in a supported
// CRS.
func (l *Layer) Validate() error {
	switch l.GeometryType() {
	case "Polygon", "MultiPolygon":
	default:
		return fmt.Errorf("layer %q: %w (got %s)", l.nameOrEmpty(), ErrNotPolygonal, l.GeometryType())
	}
	if !l.CRS.Supported() {
		return fmt.Errorf("layer %q: %s: unsupported reference system", l.Name, l.CRS)
	}
	return nil
}

func (l *Layer) nameOrEmpty() string {
	if l == nil {
		return ""
	}
	return l.Name
}

// Reproject returns a copy of the layer with its vertices transformed to crs.
// The receiver is not modified.
func (l *Layer) Reproject(crs CRS) (*Layer, error) {
	if err := l.Validate(); err != nil {
		return nil, err
	}
	if l.CRS == crs {
		return l, nil
	}
	proj, err := Transform(l.CRS, crs)
	if err != nil {
		return nil, fmt.Errorf("reproject layer %q: %w", l.Name, err)
	}
	return &Layer{
		Name:       l.Name,
		Geometry:   project.Geometry(orb.Clone(l.Geometry), proj),
		CRS:        crs,
		Attributes: l.Attributes,
	}, nil
}

// Contains reports whether p, in the layer's CRS, falls within the layer.
// A point matching any part of a multi-polygon is within. Points on an
// outer ring edge are within; points on a hole edge are not.
func (l *Layer) Contains(p orb.Point) bool {
	switch g := l.Geometry.(type) {
	case orb.Polygon:
		return l.Bound().Contains(p) && planar.PolygonContains(g, p)
	case orb.MultiPolygon:
		return l.Bound().Contains(p) && planar.MultiPolygonContains(g, p)
	}
	return false
}

// Merge combines polygonal layers sharing a CRS into one multi-polygon layer.
func Merge(name string, layers ...*Layer) (*Layer, error) {
	if len(layers) == 0 {
		return nil, fmt.Errorf("merge %q: no layers", name)
	}
	var mp orb.MultiPolygon
	crs := layers[0].CRS
	for _, l := range layers {
		if err := l.Validate(); err != nil {
			return nil, err
		}
		if l.CRS != crs {
			return nil, fmt.Errorf("merge %q: mixed reference systems %s and %s", name, crs, l.CRS)
		}
		switch g := l.Geometry.(type) {
		case orb.Polygon:
			mp = append(mp, g)
		case orb.MultiPolygon:
			mp = append(mp, g...)
		}
	}
	return &Layer{Name: name, Geometry: mp, CRS: crs}, nil
}
