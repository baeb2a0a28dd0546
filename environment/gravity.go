// Package environment models the external fields a body moves through:
// gravity (constant or spherical-harmonic), atmosphere (tabular density),
// and magnetic field (dipole).
package environment

import (
	"math"

	"github.com/golang/geo/r3"
)

// GravityModel returns the gravitational acceleration at a position,
// expressed in the same frame the position is given in (conventionally an
// inertial or planet-fixed frame, the caller's choice).
type GravityModel interface {
	Acceleration(position r3.Vector) r3.Vector
}

// ConstantGravity is a uniform gravitational field, useful for ground
// testbeds and sanity-check scenarios.
type ConstantGravity struct {
	Acceleration_ r3.Vector
}

// NewConstantGravity returns a ConstantGravity field.
func NewConstantGravity(a r3.Vector) ConstantGravity { return ConstantGravity{Acceleration_: a} }

// Acceleration implements GravityModel.
func (g ConstantGravity) Acceleration(position r3.Vector) r3.Vector { return g.Acceleration_ }

// PointMassGravity is the inverse-square field of a single point mass at
// the origin, parameterized by its gravitational parameter mu = G*M.
type PointMassGravity struct {
	Mu float64
}

// Acceleration implements GravityModel.
func (g PointMassGravity) Acceleration(position r3.Vector) r3.Vector {
	r := position.Norm()
	return position.Mul(-g.Mu / (r * r * r))
}

// SphericalHarmonicGravity models a central body's gravity field as a
// spherical harmonic expansion up to Degree/Order, evaluated in the
// body-fixed frame (the caller is responsible for rotating position into
// and acceleration out of that frame). Only the None, Full, and Vallado
// normalizations are implemented; FourPi, Schmidt, and SchmidtQuasi are
// rejected by NewSphericalHarmonicGravity (see the doc on Normalization).
type SphericalHarmonicGravity struct {
	Mu             float64
	ReferenceRadius float64
	Degree, Order  int
	Normalization  Normalization
	// C, S are indexed [degree][order], matching the coefficient table
	// format: C[n][m], S[n][m] for 0 <= m <= n <= Degree.
	C, S [][]float64

	legendre *legendreCache
}

// NewSphericalHarmonicGravity validates the coefficient tables' shape and
// returns a ready-to-evaluate model.
func NewSphericalHarmonicGravity(mu, refRadius float64, degree, order int, norm Normalization, c, s [][]float64) (*SphericalHarmonicGravity, error) {
	if norm != NormalizationNone && norm != NormalizationFull && norm != NormalizationVallado {
		return nil, shapeError("normalization is not implemented")
	}
	if len(c) != degree+1 || len(s) != degree+1 {
		return nil, errShapeMismatch("coefficient table degree")
	}
	for n := 0; n <= degree; n++ {
		if len(c[n]) != n+1 || len(s[n]) != n+1 {
			return nil, errShapeMismatch("coefficient table order")
		}
	}
	return &SphericalHarmonicGravity{
		Mu: mu, ReferenceRadius: refRadius, Degree: degree, Order: order,
		Normalization: norm, C: c, S: s,
		legendre: newLegendreCache(degree, norm),
	}, nil
}

// Acceleration implements GravityModel. position must be expressed in the
// gravitating body's body-fixed frame.
func (g *SphericalHarmonicGravity) Acceleration(position r3.Vector) r3.Vector {
	r := position.Norm()
	lat := math.Asin(position.Z / r)
	lon := math.Atan2(position.Y, position.X)

	p := g.legendre.evaluate(math.Sin(lat))

	var dUdr, dUdlat, dUdlon float64
	for n := 2; n <= g.Degree; n++ {
		ratio := math.Pow(g.ReferenceRadius/r, float64(n))
		for m := 0; m <= min(n, g.Order); m++ {
			clon := math.Cos(float64(m) * lon)
			slon := math.Sin(float64(m) * lon)
			cs := g.C[n][m]*clon + g.S[n][m]*slon
			dcs := -g.C[n][m]*float64(m)*slon + g.S[n][m]*float64(m)*clon

			pnm := p.value(n, m)
			pnmDeriv := p.derivative(n, m)

			dUdr += ratio * float64(n+1) * pnm * cs
			dUdlat += ratio * pnmDeriv * cs
			dUdlon += ratio * pnm * dcs
		}
	}
	dUdr = -g.Mu / (r * r) * (1 + dUdr)
	dUdlat = g.Mu / r * dUdlat
	dUdlon = g.Mu / r * dUdlon

	cosLat := math.Cos(lat)
	if math.Abs(cosLat) < 1e-10 {
		cosLat = 1e-10
	}

	ar := dUdr
	aLat := dUdlat / r
	aLon := dUdlon / (r * cosLat)

	sinLat, cosLon, sinLon := math.Sin(lat), math.Cos(lon), math.Sin(lon)
	return r3.Vector{
		X: ar*cosLat*cosLon - aLat*sinLat*cosLon - aLon*sinLon,
		Y: ar*cosLat*sinLon - aLat*sinLat*sinLon + aLon*cosLon,
		Z: ar*sinLat + aLat*cosLat,
	}
}

func min(a, b int) int {
	if a < b {
		return a
	}
	return b
}

type shapeError string

func (e shapeError) Error() string { return string(e) }
func errShapeMismatch(what string) error {
	return shapeError(what + " does not match declared degree/order")
}
