package environment

import (
	"math"

	"github.com/golang/geo/r3"

	"github.com/nadir-dynamics/nadir/rotation"
)

// KeplerianElements is the classical set of six orbital elements describing
// a two-body Keplerian orbit about a central body with gravitational
// parameter Mu.
type KeplerianElements struct {
	Mu float64 // central body gravitational parameter, km^3/s^2 (or consistent units)

	SemimajorAxis       float64 // km
	Eccentricity        float64 // dimensionless
	Inclination         float64 // rad
	RAAN                float64 // rad, right ascension of the ascending node
	ArgumentOfPeriapsis float64 // rad
	TrueAnomaly         float64 // rad
}

// semiparameter is the semi-latus rectum p = a(1-e^2).
func (k KeplerianElements) semiparameter() float64 {
	return k.SemimajorAxis * (1 - k.Eccentricity*k.Eccentricity)
}

// OrbitalElementsFromStateVector derives Keplerian elements from an
// inertial-frame position/velocity pair under gravitational parameter mu,
// following the standard rv2coe construction: specific angular momentum and
// eccentricity vectors, the ascending-node vector as the inertial Z axis
// crossed with the angular momentum, then inclination,
// RAAN, argument of periapsis, and true anomaly read off those vectors via
// their pairwise dot products.
func OrbitalElementsFromStateVector(mu float64, position, velocity r3.Vector) KeplerianElements {
	r := position
	v := velocity
	rm := r.Norm()
	vm := v.Norm()
	rdotv := r.Dot(v)

	h := r.Cross(v)
	hm := h.Norm()

	k := r3.Vector{Z: 1}
	n := k.Cross(h)
	nm := n.Norm()

	e := r.Mul(vm*vm - mu/rm).Sub(v.Mul(rdotv)).Mul(1 / mu)
	em := e.Norm()

	zeta := vm*vm/2 - mu/rm

	var a float64
	if math.Abs(em-1) > 1e-8 {
		a = -mu / (2 * zeta)
	} else {
		a = math.Inf(1)
	}

	inclination := math.Acos(clampUnit(h.Z / hm))

	raan := math.Acos(clampUnit(n.X / nm))
	if n.Y < 0 {
		raan = 2*math.Pi - raan
	}

	argp := math.Acos(clampUnit(n.Dot(e) / (nm * em)))
	if e.Z < 0 {
		argp = 2*math.Pi - argp
	}

	trueAnomaly := math.Acos(clampUnit(e.Dot(r) / (em * rm)))
	if rdotv < 0 {
		trueAnomaly = 2*math.Pi - trueAnomaly
	}

	return KeplerianElements{
		Mu:                  mu,
		SemimajorAxis:       a,
		Eccentricity:        em,
		Inclination:         inclination,
		RAAN:                raan,
		ArgumentOfPeriapsis: argp,
		TrueAnomaly:         trueAnomaly,
	}
}

// clampUnit clamps a cosine argument into [-1, 1] to absorb floating-point
// overshoot before calling math.Acos.
func clampUnit(x float64) float64 {
	if x > 1 {
		return 1
	}
	if x < -1 {
		return -1
	}
	return x
}

// StateVector converts Keplerian elements back to an inertial-frame
// position/velocity pair: the position and velocity are built in the
// perifocal (PQW) frame from the orbit equation, then rotated into the
// inertial frame by composing the argument of periapsis, inclination, and
// RAAN as a ZXZ Euler sequence (the three classical orbital rotations).
func (k KeplerianElements) StateVector() (position, velocity r3.Vector) {
	p := k.semiparameter()
	f := k.TrueAnomaly
	e := k.Eccentricity
	cf, sf := math.Cos(f), math.Sin(f)

	denom := 1 + e*cf
	rPQW := r3.Vector{X: p * cf / denom, Y: p * sf / denom}

	rootMuOverP := math.Sqrt(k.Mu / p)
	vPQW := r3.Vector{X: -rootMuOverP * sf, Y: rootMuOverP * (e + cf)}

	q := rotation.EulerAngles{
		Sequence: rotation.ZXZ,
		Theta1:   -k.ArgumentOfPeriapsis,
		Theta2:   -k.Inclination,
		Theta3:   -k.RAAN,
	}.Quaternion()

	return q.Transform(rPQW), q.Transform(vPQW)
}
