// Package massprops models a rigid body's mass, center of mass, and
// rotational inertia, and converts those into the spatial inertia operator
// the articulated body algorithm needs.
package massprops

import (
	"math"

	"github.com/golang/geo/r3"

	"github.com/nadir-dynamics/nadir/nadirerr"
	"github.com/nadir-dynamics/nadir/rotation"
	"github.com/nadir-dynamics/nadir/spatial"
)

// Inertia is a symmetric 3x3 rotational inertia tensor about some
// reference point, stored as its six independent entries.
type Inertia struct {
	Ixx, Iyy, Izz float64
	Ixy, Ixz, Iyz float64
}

// Matrix returns the inertia tensor as a rotation.Matrix3.
func (i Inertia) Matrix() rotation.Matrix3 {
	return rotation.Matrix3{
		{i.Ixx, -i.Ixy, -i.Ixz},
		{-i.Ixy, i.Iyy, -i.Iyz},
		{-i.Ixz, -i.Iyz, i.Izz},
	}
}

// InertiaFromMatrix builds an Inertia from a symmetric rotation.Matrix3
// (off-diagonal products of inertia are read with the sign convention
// I_xy = -m[0][1]).
func InertiaFromMatrix(m rotation.Matrix3) Inertia {
	return Inertia{
		Ixx: m[0][0], Iyy: m[1][1], Izz: m[2][2],
		Ixy: -m[0][1], Ixz: -m[0][2], Iyz: -m[1][2],
	}
}

// MassProperties is a rigid body's mass, center of mass (expressed in the
// body's own reference frame), and rotational inertia about that center
// of mass.
type MassProperties struct {
	Mass         float64
	CenterOfMass r3.Vector
	Inertia      Inertia
}

// New validates and constructs a MassProperties. Mass must be strictly
// positive and the inertia tensor must be symmetric positive-definite;
// both are checked because a degenerate mass distribution makes the
// articulated body recursion's matrix inversions meaningless rather than
// merely imprecise.
func New(mass float64, com r3.Vector, inertia Inertia) (MassProperties, error) {
	if mass <= 0 || math.IsNaN(mass) || math.IsInf(mass, 0) {
		return MassProperties{}, nadirerr.NewPhysicsInvariantError("massprops", "mass must be positive and finite")
	}
	if err := checkPositiveDefinite(inertia.Matrix()); err != nil {
		return MassProperties{}, err
	}
	return MassProperties{Mass: mass, CenterOfMass: com, Inertia: inertia}, nil
}

func checkPositiveDefinite(m rotation.Matrix3) error {
	// Sylvester's criterion on the leading principal minors.
	d1 := m[0][0]
	d2 := m[0][0]*m[1][1] - m[0][1]*m[1][0]
	det := m[0][0]*(m[1][1]*m[2][2]-m[1][2]*m[2][1]) -
		m[0][1]*(m[1][0]*m[2][2]-m[1][2]*m[2][0]) +
		m[0][2]*(m[1][0]*m[2][1]-m[1][1]*m[2][0])
	if d1 <= 0 || d2 <= 0 || det <= 0 {
		return nadirerr.NewPhysicsInvariantError("massprops", "inertia tensor must be symmetric positive-definite")
	}
	return nil
}

// Translate returns the mass properties re-expressed about a new reference
// point (expressed in the same body frame), applying the parallel axis
// theorem: Inertia about the new point = Inertia about CoM + m(|d|^2 I -
// d d^T), where d is the vector from the new point to the center of mass.
func (mp MassProperties) Translate(newReferencePoint r3.Vector) MassProperties {
	d := mp.CenterOfMass.Sub(newReferencePoint)
	dOuter := outer(d, d)
	d2 := d.Dot(d)
	var shift rotation.Matrix3
	for i := 0; i < 3; i++ {
		for j := 0; j < 3; j++ {
			kron := 0.0
			if i == j {
				kron = 1.0
			}
			shift[i][j] = mp.Mass * (d2*kron - dOuter[i][j])
		}
	}
	newMat := mp.Inertia.Matrix().Add(shift)
	return MassProperties{
		Mass:         mp.Mass,
		CenterOfMass: newReferencePoint.Add(d),
		Inertia:      InertiaFromMatrix(newMat),
	}
}

func outer(a, b r3.Vector) rotation.Matrix3 {
	return rotation.Matrix3{
		{a.X * b.X, a.X * b.Y, a.X * b.Z},
		{a.Y * b.X, a.Y * b.Y, a.Y * b.Z},
		{a.Z * b.X, a.Z * b.Y, a.Z * b.Z},
	}
}

// SpatialInertiaAbout returns the 6x6 spatial inertia operator expressed
// about referencePoint (same body frame axes), in the standard block form
//
//	[ Io           m*skew(c) ]
//	[ m*skew(c)^T  m*Identity ]
//
// where Io is the rotational inertia about referencePoint and c is the
// center of mass expressed relative to referencePoint.
func (mp MassProperties) SpatialInertiaAbout(referencePoint r3.Vector) spatial.Mat6 {
	about := mp.Translate(referencePoint)
	c := about.CenterOfMass.Sub(referencePoint)
	skewC := rotation.Skew(c).Scale(mp.Mass)
	var out spatial.Mat6
	io := about.Inertia.Matrix()
	for i := 0; i < 3; i++ {
		for j := 0; j < 3; j++ {
			out[i][j] = io[i][j]
			out[i][j+3] = skewC[i][j]
			out[i+3][j] = skewC[j][i]
		}
	}
	for i := 0; i < 3; i++ {
		out[i+3][i+3] = mp.Mass
	}
	return out
}
