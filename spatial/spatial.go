// Package spatial implements Featherstone-style spatial vector algebra:
// 6-component motion and force vectors, spatial transforms, and spatial
// inertia, all allocation-free in their vector forms so they can be used
// inside the per-step articulated body recursion.
package spatial

import (
	"github.com/golang/geo/r3"

	"github.com/nadir-dynamics/nadir/rotation"
)

// Vec6 is the common storage for a spatial motion or force vector: indices
// 0-2 are the angular/moment part, 3-5 are the linear/force part.
type Vec6 [6]float64

// MotionVector is a spatial velocity or acceleration: angular part first,
// linear part (of the frame's origin) second.
type MotionVector Vec6

// ForceVector is a spatial force or momentum: moment part first, linear
// force part second.
type ForceVector Vec6

// NewMotionVector builds a motion vector from its angular and linear parts.
func NewMotionVector(angular, linear r3.Vector) MotionVector {
	return MotionVector{angular.X, angular.Y, angular.Z, linear.X, linear.Y, linear.Z}
}

// NewForceVector builds a force vector from its moment and linear parts.
func NewForceVector(moment, force r3.Vector) ForceVector {
	return ForceVector{moment.X, moment.Y, moment.Z, force.X, force.Y, force.Z}
}

// Angular returns the angular (moment) part.
func (v MotionVector) Angular() r3.Vector { return r3.Vector{X: v[0], Y: v[1], Z: v[2]} }

// Linear returns the linear part.
func (v MotionVector) Linear() r3.Vector { return r3.Vector{X: v[3], Y: v[4], Z: v[5]} }

// Moment returns the moment (angular) part.
func (f ForceVector) Moment() r3.Vector { return r3.Vector{X: f[0], Y: f[1], Z: f[2]} }

// Force returns the linear force part.
func (f ForceVector) Force() r3.Vector { return r3.Vector{X: f[3], Y: f[4], Z: f[5]} }

// Add returns the component-wise sum.
func (v MotionVector) Add(o MotionVector) MotionVector {
	var out MotionVector
	for i := range v {
		out[i] = v[i] + o[i]
	}
	return out
}

// Sub returns the component-wise difference.
func (v MotionVector) Sub(o MotionVector) MotionVector {
	var out MotionVector
	for i := range v {
		out[i] = v[i] - o[i]
	}
	return out
}

// Scale returns v scaled by s.
func (v MotionVector) Scale(s float64) MotionVector {
	var out MotionVector
	for i := range v {
		out[i] = v[i] * s
	}
	return out
}

// Add returns the component-wise sum.
func (f ForceVector) Add(o ForceVector) ForceVector {
	var out ForceVector
	for i := range f {
		out[i] = f[i] + o[i]
	}
	return out
}

// Sub returns the component-wise difference.
func (f ForceVector) Sub(o ForceVector) ForceVector {
	var out ForceVector
	for i := range f {
		out[i] = f[i] - o[i]
	}
	return out
}

// Scale returns f scaled by s.
func (f ForceVector) Scale(s float64) ForceVector {
	var out ForceVector
	for i := range f {
		out[i] = f[i] * s
	}
	return out
}

// Dot is the spatial scalar product between a motion vector and a force
// vector: power = velocity . force.
func (v MotionVector) Dot(f ForceVector) float64 {
	var s float64
	for i := range v {
		s += v[i] * f[i]
	}
	return s
}

// CrossMotion computes the spatial motion cross product v x m, used for
// the velocity-dependent bias term (omega x (omega x r) style terms) of the
// ABA first pass.
func CrossMotion(v, m MotionVector) MotionVector {
	vAng, vLin := v.Angular(), v.Linear()
	mAng, mLin := m.Angular(), m.Linear()
	return NewMotionVector(
		vAng.Cross(mAng),
		vAng.Cross(mLin).Add(vLin.Cross(mAng)),
	)
}

// CrossForce computes the spatial force cross product v x* f = -(v x)^T f,
// used to propagate bias forces through a moving frame.
func CrossForce(v MotionVector, f ForceVector) ForceVector {
	vAng, vLin := v.Angular(), v.Linear()
	fMom, fLin := f.Moment(), f.Force()
	return NewForceVector(
		vAng.Cross(fMom).Add(vLin.Cross(fLin)),
		vAng.Cross(fLin),
	)
}

// Transform is a rigid spatial transform: a rotation and a translation
// locating a child frame's origin in the parent frame, expressed in the
// parent frame's axes.
type Transform struct {
	Rotation    rotation.Quaternion
	Translation r3.Vector
}

// IdentityTransform is the null spatial transform.
var IdentityTransform = Transform{Rotation: rotation.Identity}

// Inverse returns the inverse transform.
func (x Transform) Inverse() Transform {
	rInv := x.Rotation.Inverse()
	return Transform{Rotation: rInv, Translation: rInv.Transform(x.Translation.Mul(-1))}
}

// Compose returns the transform equivalent to applying other and then x
// (x after other) to motion and force vectors, so that
// x.Compose(other).ActOnMotion(v) == x.ActOnMotion(other.ActOnMotion(v)),
// matching rotation.Quaternion.Compose's receiver-applied-last order.
func (x Transform) Compose(other Transform) Transform {
	return Transform{
		Rotation:    other.Rotation.Compose(x.Rotation),
		Translation: other.Translation.Add(other.Rotation.Transform(x.Translation)),
	}
}

// rotationMatrix returns the parent-to-child rotation matrix E such that
// v_child = E * v_parent.
func (x Transform) rotationMatrix() rotation.Matrix3 {
	return x.Rotation.Inverse().Matrix()
}

// ActOnMotion carries a motion vector expressed in the parent frame into
// the child frame defined by x (Featherstone's Xm applied to a vector,
// without materializing the 6x6 matrix).
func (x Transform) ActOnMotion(v MotionVector) MotionVector {
	e := x.rotationMatrix()
	ang := e.MulVec(v.Angular())
	lin := e.MulVec(v.Linear().Sub(x.Translation.Cross(v.Angular())))
	return NewMotionVector(ang, lin)
}

// ActOnForce carries a force vector expressed in the parent frame into the
// child frame defined by x (Featherstone's Xf applied to a vector).
func (x Transform) ActOnForce(f ForceVector) ForceVector {
	e := x.rotationMatrix()
	mom := e.MulVec(f.Moment().Sub(x.Translation.Cross(f.Force())))
	force := e.MulVec(f.Force())
	return NewForceVector(mom, force)
}

// ActOnMotionInverse carries a motion vector expressed in the child frame
// back into the parent frame (the inverse of ActOnMotion, computed
// directly rather than via x.Inverse() to avoid reconstructing a
// Transform).
func (x Transform) ActOnMotionInverse(v MotionVector) MotionVector {
	e := x.rotationMatrix().Transpose()
	ang := e.MulVec(v.Angular())
	lin := e.MulVec(v.Linear()).Add(x.Translation.Cross(ang))
	return NewMotionVector(ang, lin)
}

// ActOnForceInverse carries a force vector expressed in the child frame
// back into the parent frame.
func (x Transform) ActOnForceInverse(f ForceVector) ForceVector {
	e := x.rotationMatrix().Transpose()
	force := e.MulVec(f.Force())
	mom := e.MulVec(f.Moment()).Add(x.Translation.Cross(force))
	return NewForceVector(mom, force)
}

// Matrix6 fills dst (must be 6x6) with the motion-transform matrix Xm such
// that Xm * v == x.ActOnMotion(v). Used only where a genuine 6x6 matrix is
// required (similarity-transforming an articulated-body inertia); the
// vector-only Act* methods above are preferred inside hot per-step code.
func (x Transform) Matrix6(dst *Mat6) {
	e := x.rotationMatrix()
	rx := rotation.Skew(x.Translation)
	erx := e.Mul(rx)
	for i := 0; i < 3; i++ {
		for j := 0; j < 3; j++ {
			dst[i][j] = e[i][j]
			dst[i][j+3] = 0
			dst[i+3][j] = -erx[i][j]
			dst[i+3][j+3] = e[i][j]
		}
	}
}

// Mat6 is a dense 6x6 matrix used for the articulated-body inertia
// similarity transform, where a genuine matrix product (rather than a
// vector action) is unavoidable.
type Mat6 [6][6]float64

// MulMat returns m*other.
func (m Mat6) MulMat(other Mat6) Mat6 {
	var out Mat6
	for i := 0; i < 6; i++ {
		for j := 0; j < 6; j++ {
			var s float64
			for k := 0; k < 6; k++ {
				s += m[i][k] * other[k][j]
			}
			out[i][j] = s
		}
	}
	return out
}

// Transpose returns m^T.
func (m Mat6) Transpose() Mat6 {
	var out Mat6
	for i := 0; i < 6; i++ {
		for j := 0; j < 6; j++ {
			out[j][i] = m[i][j]
		}
	}
	return out
}

// MulVec returns m*v as a force vector (used for IA * motion -> force).
func (m Mat6) MulVec(v MotionVector) ForceVector {
	var out ForceVector
	for i := 0; i < 6; i++ {
		var s float64
		for j := 0; j < 6; j++ {
			s += m[i][j] * v[j]
		}
		out[i] = s
	}
	return out
}

// Add returns m+other.
func (m Mat6) Add(other Mat6) Mat6 {
	var out Mat6
	for i := 0; i < 6; i++ {
		for j := 0; j < 6; j++ {
			out[i][j] = m[i][j] + other[i][j]
		}
	}
	return out
}

// Sub returns m-other.
func (m Mat6) Sub(other Mat6) Mat6 {
	var out Mat6
	for i := 0; i < 6; i++ {
		for j := 0; j < 6; j++ {
			out[i][j] = m[i][j] - other[i][j]
		}
	}
	return out
}

// Congruence returns x^T * m * x, the spatial-inertia similarity transform
// spec.md §4.1 names explicitly ("the similarity transform XᵀIX").
func Congruence(x Mat6, m Mat6) Mat6 {
	return x.Transpose().MulMat(m).MulMat(x)
}
