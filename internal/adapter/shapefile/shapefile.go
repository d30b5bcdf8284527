// Package shapefile reads ESRI shapefile polygons as boundary layers.
package shapefile

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	shp "github.com/jonas-p/go-shp"
	"github.com/paulmach/orb"
	"github.com/paulmach/orb/planar"

	"github.com/couchcryptid/occurrence-etl/internal/geo"
)

// authorityRe finds EPSG authority codes in a WKT string.
var authorityRe = regexp.MustCompile(`AUTHORITY\[\s*"EPSG"\s*,\s*"?(\d+)"?\s*\]`)

// Read loads every polygon of the shapefile at path with its DBF attributes.
// The CRS comes from the sidecar .prj file; fallback is used when there is
// none, and a zero fallback makes a missing .prj an error.
func Read(path string, fallback geo.CRS) (*geo.Collection, error) {
	crs, err := detectCRS(path, fallback)
	if err != nil {
		return nil, err
	}

	r, err := shp.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open shapefile %s: %w", path, err)
	}
	defer r.Close()

	fields := r.Fields()
	c := &geo.Collection{
		Name: strings.TrimSuffix(filepath.Base(path), filepath.Ext(path)),
		CRS:  crs,
	}
	for r.Next() {
		idx, shape := r.Shape()
		poly, ok := shape.(*shp.Polygon)
		if !ok {
			continue
		}
		attrs := make(map[string]string, len(fields))
		for i, f := range fields {
			attrs[f.String()] = cleanAttribute(r.ReadAttribute(idx, i))
		}
		c.Features = append(c.Features, geo.Feature{
			Geometry:   toGeometry(poly),
			Attributes: attrs,
		})
	}
	if err := r.Err(); err != nil {
		return nil, fmt.Errorf("read shapefile %s: %w", path, err)
	}
	return c, nil
}

// cleanAttribute strips the NUL and space padding of fixed-width DBF fields.
func cleanAttribute(v string) string {
	return strings.TrimSpace(strings.TrimRight(v, "\x00"))
}

// toGeometry splits the flat point list into rings. Clockwise rings are
// outer boundaries; counter-clockwise rings are holes of the outer ring
// that contains them.
func toGeometry(p *shp.Polygon) orb.Geometry {
	var mp orb.MultiPolygon
	var holes []orb.Ring
	for i := range p.Parts {
		start := int(p.Parts[i])
		end := len(p.Points)
		if i+1 < len(p.Parts) {
			end = int(p.Parts[i+1])
		}
		ring := make(orb.Ring, 0, end-start)
		for _, pt := range p.Points[start:end] {
			ring = append(ring, orb.Point{pt.X, pt.Y})
		}
		if len(ring) < 4 {
			continue
		}
		if ring.Orientation() == orb.CW {
			mp = append(mp, orb.Polygon{ring})
		} else {
			holes = append(holes, ring)
		}
	}
	for _, h := range holes {
		for i := range mp {
			if planar.RingContains(mp[i][0], h[0]) {
				mp[i] = append(mp[i], h)
				break
			}
		}
	}
	if len(mp) == 1 {
		return mp[0]
	}
	return mp
}

func detectCRS(path string, fallback geo.CRS) (geo.CRS, error) {
	prj := strings.TrimSuffix(path, filepath.Ext(path)) + ".prj"
	data, err := os.ReadFile(prj)
	if errors.Is(err, os.ErrNotExist) {
		if fallback == 0 {
			return 0, fmt.Errorf("%s: no .prj file and no reference system given", path)
		}
		return fallback, nil
	}
	if err != nil {
		return 0, fmt.Errorf("read %s: %w", prj, err)
	}
	return ParseWKT(string(data))
}

// ParseWKT identifies the CRS of a .prj WKT string, by the EPSG authority
// of the outermost definition when it has one and by well-known names
// otherwise. Authorities of nested GEOGCS or DATUM nodes are ignored.
func ParseWKT(wkt string) (geo.CRS, error) {
	if code, ok := outerAuthority(wkt); ok {
		if c, err := geo.ParseCRS(code); err == nil {
			return c, nil
		}
	}
	upper := strings.ToUpper(wkt)
	switch {
	case strings.Contains(upper, "LAMBERT_AZIMUTHAL_EQUAL_AREA") && strings.Contains(upper, "ETRS"):
		return geo.LAEAEurope, nil
	case strings.Contains(upper, "LAEA") && strings.Contains(upper, "ETRS"):
		return geo.LAEAEurope, nil
	case strings.Contains(upper, "PSEUDO-MERCATOR"),
		strings.Contains(upper, "MERCATOR_AUXILIARY_SPHERE"),
		strings.Contains(upper, "POPULAR VISUALISATION"):
		return geo.WebMercator, nil
	case strings.HasPrefix(strings.TrimSpace(upper), "GEOGCS") && strings.Contains(upper, "WGS"):
		return geo.WGS84, nil
	}
	return 0, fmt.Errorf("unrecognised reference system in .prj: %.60s", wkt)
}

// outerAuthority returns the EPSG code attached directly to the top-level
// WKT node, that is one found at bracket depth 1.
func outerAuthority(wkt string) (string, bool) {
	for _, m := range authorityRe.FindAllStringSubmatchIndex(wkt, -1) {
		if bracketDepth(wkt[:m[0]]) == 1 {
			return wkt[m[2]:m[3]], true
		}
	}
	return "", false
}

func bracketDepth(s string) int {
	depth := 0
	quoted := false
	for _, r := range s {
		switch {
		case r == '"':
			quoted = !quoted
		case quoted:
		case r == '[' || r == '(':
			depth++
		case r == ']' || r == ')':
			depth--
		}
	}
	return depth
}
