package geo

// ETRS89 / LAEA Europe (EPSG:3035), ellipsoidal Lambert azimuthal equal-area
// on GRS80. Points are orb points: X = easting or longitude, Y = northing
// or latitude.

import (
	"math"

	"github.com/paulmach/orb"
)

const (
	laeaLat0Deg       = 52.0
	laeaLon0Deg       = 10.0
	laeaFalseEasting  = 4321000.0
	laeaFalseNorthing = 3210000.0

	grs80SemiMajor = 6378137.0
	grs80E2        = 0.006694380022900787 // eccentricity squared
)

var (
	laeaE     float64
	laeaQp    float64
	laeaRq    float64
	laeaD     float64
	laeaBeta0 float64
)

func init() {
	laeaE = math.Sqrt(grs80E2)
	phi0 := laeaLat0Deg * math.Pi / 180

	laeaQp = authalicQ(math.Pi / 2)
	laeaRq = grs80SemiMajor * math.Sqrt(laeaQp/2)
	laeaBeta0 = math.Asin(authalicQ(phi0) / laeaQp)

	sin0 := math.Sin(phi0)
	laeaD = grs80SemiMajor * (math.Cos(phi0) / math.Sqrt(1-grs80E2*sin0*sin0)) / (laeaRq * math.Cos(laeaBeta0))
}

func authalicQ(phi float64) float64 {
	s := math.Sin(phi)
	return (1 - grs80E2) * (s/(1-grs80E2*s*s) - (1/(2*laeaE))*math.Log((1-laeaE*s)/(1+laeaE*s)))
}

// laeaForward converts lon/lat degrees to LAEA Europe metres.
func laeaForward(p orb.Point) orb.Point {
	phi := p[1] * math.Pi / 180
	dLambda := (p[0] - laeaLon0Deg) * math.Pi / 180

	beta := math.Asin(authalicQ(phi) / laeaQp)
	sinB, cosB := math.Sincos(beta)
	sinB0, cosB0 := math.Sincos(laeaBeta0)

	b := laeaRq * math.Sqrt(2/(1+sinB0*sinB+cosB0*cosB*math.Cos(dLambda)))
	e := laeaFalseEasting + b*laeaD*cosB*math.Sin(dLambda)
	n := laeaFalseNorthing + (b/laeaD)*(cosB0*sinB-sinB0*cosB*math.Cos(dLambda))
	return orb.Point{e, n}
}

// laeaInverse converts LAEA Europe metres to lon/lat degrees.
func laeaInverse(p orb.Point) orb.Point {
	dx := p[0] - laeaFalseEasting
	dy := p[1] - laeaFalseNorthing

	rho := math.Hypot(dx/laeaD, laeaD*dy)
	if rho == 0 {
		return orb.Point{laeaLon0Deg, laeaLat0Deg}
	}
	c := 2 * math.Asin(rho/(2*laeaRq))
	sinC, cosC := math.Sincos(c)
	sinB0, cosB0 := math.Sincos(laeaBeta0)

	beta := math.Asin(cosC*sinB0 + laeaD*dy*sinC*cosB0/rho)
	lambda := math.Atan2(dx*sinC, laeaD*rho*cosB0*cosC-laeaD*laeaD*dy*sinB0*sinC)

	e2, e4, e6 := grs80E2, grs80E2*grs80E2, grs80E2*grs80E2*grs80E2
	phi := beta +
		(e2/3+31*e4/180+517*e6/5040)*math.Sin(2*beta) +
		(23*e4/360+251*e6/3780)*math.Sin(4*beta) +
		(761*e6/45360)*math.Sin(6*beta)

	return orb.Point{laeaLon0Deg + lambda*180/math.Pi, phi * 180 / math.Pi}
}
