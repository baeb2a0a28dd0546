package rotation

import (
	"math"

	"github.com/golang/geo/r3"
)

// Cylindrical is a point in cylindrical coordinates: Radius is the
// distance from the z-axis, Azimuth is the right-hand rotation angle
// about +z from +x, and Height is the coordinate along z. Values are not
// wrapped into a canonical range, so a caller can detect a coordinate
// drifting rather than having it silently roll over.
type Cylindrical struct {
	Radius, Azimuth, Height float64
}

// Spherical is a point in spherical coordinates: Radius is the distance
// from the origin, Azimuth is the right-hand rotation angle about +z from
// +x, and Inclination is the angle from +z. Values are not wrapped into a
// canonical range, for the same reason as Cylindrical.
type Spherical struct {
	Radius, Azimuth, Inclination float64
}

// CylindricalFromCartesian converts a Cartesian vector to cylindrical coordinates.
func CylindricalFromCartesian(v r3.Vector) Cylindrical {
	return Cylindrical{
		Radius:  math.Hypot(v.X, v.Y),
		Azimuth: math.Atan2(v.Y, v.X),
		Height:  v.Z,
	}
}

// Cartesian converts a cylindrical coordinate back to a Cartesian vector.
func (c Cylindrical) Cartesian() r3.Vector {
	return r3.Vector{
		X: c.Radius * math.Cos(c.Azimuth),
		Y: c.Radius * math.Sin(c.Azimuth),
		Z: c.Height,
	}
}

// Spherical converts a cylindrical coordinate to spherical coordinates:
// r = sqrt(rho^2 + z^2), inclination = atan2(rho, z), azimuth unchanged.
func (c Cylindrical) Spherical() Spherical {
	radius := math.Hypot(c.Radius, c.Height)
	if radius == 0 {
		return Spherical{Azimuth: c.Azimuth}
	}
	return Spherical{
		Radius:      radius,
		Azimuth:     c.Azimuth,
		Inclination: math.Atan2(c.Radius, c.Height),
	}
}

// SphericalFromCartesian converts a Cartesian vector to spherical
// coordinates.
func SphericalFromCartesian(v r3.Vector) Spherical {
	radius := v.Norm()
	if radius == 0 {
		return Spherical{}
	}
	return Spherical{
		Radius:      radius,
		Azimuth:     math.Atan2(v.Y, v.X),
		Inclination: math.Acos(v.Z / radius),
	}
}

// Cartesian converts a spherical coordinate back to a Cartesian vector.
func (s Spherical) Cartesian() r3.Vector {
	sinIncl, cosIncl := math.Sincos(s.Inclination)
	sinAz, cosAz := math.Sincos(s.Azimuth)
	return r3.Vector{
		X: s.Radius * sinIncl * cosAz,
		Y: s.Radius * sinIncl * sinAz,
		Z: s.Radius * cosIncl,
	}
}

// Cylindrical converts a spherical coordinate to cylindrical coordinates:
// rho = r * sin(inclination), z = r * cos(inclination).
func (s Spherical) Cylindrical() Cylindrical {
	return Cylindrical{
		Radius:  s.Radius * math.Sin(s.Inclination),
		Azimuth: s.Azimuth,
		Height:  s.Radius * math.Cos(s.Inclination),
	}
}
