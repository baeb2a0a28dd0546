package environment

import "github.com/golang/geo/r3"

// MagneticFieldModel returns the magnetic flux density vector at a
// position, expressed in the same frame as the position (conventionally
// the gravitating body's body-fixed frame).
type MagneticFieldModel interface {
	Field(position r3.Vector) r3.Vector
}

// DipoleMagneticField is a first-order magnetic dipole approximation,
// adequate for attitude-control torque estimation without the cost of a
// full spherical harmonic expansion (IGRF-class models).
type DipoleMagneticField struct {
	// Moment is the dipole moment vector, expressed in the body-fixed
	// frame (for Earth, tilted from the rotation axis by the ~11 degree
	// magnetic dipole offset).
	Moment r3.Vector
}

// Field implements MagneticFieldModel using the standard dipole formula:
// B(r) = (mu0/4pi) * (3(m.r_hat)r_hat - m) / |r|^3, with the mu0/4pi
// constant folded into Moment's units (so Moment is expressed directly in
// units that make Field return Tesla given position in meters).
func (d DipoleMagneticField) Field(position r3.Vector) r3.Vector {
	r := position.Norm()
	if r == 0 {
		return r3.Vector{}
	}
	rHat := position.Mul(1 / r)
	term := rHat.Mul(3 * d.Moment.Dot(rHat)).Sub(d.Moment)
	return term.Mul(1 / (r * r * r))
}
