// Package geo holds boundary layers and the coordinate reference systems
// needed to test occurrence points against them.
package geo

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/project"
)

// CRS is a coordinate reference system identified by its EPSG code.
type CRS int

// Supported reference systems.
const (
	WGS84       CRS = 4326 // geographic lon/lat degrees
	WebMercator CRS = 3857 // spherical pseudo-Mercator, metres
	LAEAEurope  CRS = 3035 // ETRS89 Lambert azimuthal equal-area, metres
)

func (c CRS) String() string { return "EPSG:" + strconv.Itoa(int(c)) }

// Supported reports whether the CRS can be transformed.
func (c CRS) Supported() bool {
	switch c {
	case WGS84, WebMercator, LAEAEurope:
		return true
	}
	return false
}

// ParseCRS reads "EPSG:4326", "4326", "urn:ogc:def:crs:EPSG::3035",
// "WGS84", or "CRS84".
func ParseCRS(s string) (CRS, error) {
	v := strings.ToUpper(strings.TrimSpace(s))
	switch v {
	case "WGS84", "WGS 84", "CRS84", "URN:OGC:DEF:CRS:OGC:1.3:CRS84":
		return WGS84, nil
	}
	if i := strings.LastIndex(v, ":"); i >= 0 {
		v = v[i+1:]
	}
	code, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("crs %q: unknown reference system", s)
	}
	c := CRS(code)
	if c == 900913 || c == 3785 {
		c = WebMercator
	}
	if !c.Supported() {
		return 0, fmt.Errorf("crs %q: unsupported reference system", s)
	}
	return c, nil
}

func (c CRS) toWGS84() (orb.Projection, error) {
	switch c {
	case WGS84:
		return identity, nil
	case WebMercator:
		return project.Mercator.ToWGS84, nil
	case LAEAEurope:
		return laeaInverse, nil
	}
	return nil, fmt.Errorf("%s: unsupported reference system", c)
}

func (c CRS) fromWGS84() (orb.Projection, error) {
	switch c {
	case WGS84:
		return identity, nil
	case WebMercator:
		return project.WGS84.ToMercator, nil
	case LAEAEurope:
		return laeaForward, nil
	}
	return nil, fmt.Errorf("%s: unsupported reference system", c)
}

// Transform returns a projection from one CRS to another, composed through
// WGS84 when neither side is geographic.
func Transform(from, to CRS) (orb.Projection, error) {
	if from == to {
		return identity, nil
	}
	inv, err := from.toWGS84()
	if err != nil {
		return nil, err
	}
	fwd, err := to.fromWGS84()
	if err != nil {
		return nil, err
	}
	switch {
	case to == WGS84:
		return inv, nil
	case from == WGS84:
		return fwd, nil
	}
	return func(p orb.Point) orb.Point { return fwd(inv(p)) }, nil
}

func identity(p orb.Point) orb.Point { return p }
