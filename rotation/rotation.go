// Package rotation provides the four rotation representations used across
// the engine (unit quaternion, axis-angle, Euler angles, rotation matrix)
// and the conversions between them. The active-rotation convention is used
// throughout: Transform(v) rotates the vector v itself, it does not
// re-express v in a rotated frame.
package rotation

import (
	"math"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/golang/geo/r3"
	"github.com/pkg/errors"
	"gonum.org/v1/gonum/num/quat"

	"github.com/nadir-dynamics/nadir/nadirerr"
)

// defaultEpsilon bounds the minimum magnitude accepted when normalizing a
// quaternion, and the pole radius below which Euler-angle extraction
// switches to its singular-case formula.
const defaultEpsilon = 1e-9

// Quaternion is a unit quaternion with (x, y, z, w) layout: the imaginary
// part first, the scalar part last.
type Quaternion struct {
	X, Y, Z, W float64
}

// Identity is the identity rotation.
var Identity = Quaternion{X: 0, Y: 0, Z: 0, W: 1}

// NewQuaternion constructs a unit quaternion from raw components,
// normalizing it. It fails with a PhysicsInvariantError if the magnitude
// is below epsilon, per spec.md's "construction fails if magnitude < ε".
func NewQuaternion(x, y, z, w float64) (Quaternion, error) {
	q := Quaternion{X: x, Y: y, Z: z, W: w}
	norm := q.norm()
	if norm < defaultEpsilon {
		return Quaternion{}, errors.Wrap(
			nadirerr.NewPhysicsInvariantError("quaternion", "degenerate quaternion: magnitude below epsilon"),
			"rotation.NewQuaternion",
		)
	}
	return q.Scale(1 / norm), nil
}

func (q Quaternion) norm() float64 {
	return math.Sqrt(q.X*q.X + q.Y*q.Y + q.Z*q.Z + q.W*q.W)
}

// Scale multiplies every component by s. Used internally for normalization;
// exported because renormalization after an accepted integration step needs
// it without reconstructing through NewQuaternion's fallible path.
func (q Quaternion) Scale(s float64) Quaternion {
	return Quaternion{X: q.X * s, Y: q.Y * s, Z: q.Z * s, W: q.W * s}
}

// Normalize returns q scaled to unit magnitude. If q is degenerate, Identity
// is returned.
func (q Quaternion) Normalize() Quaternion {
	n := q.norm()
	if n < defaultEpsilon {
		return Identity
	}
	return q.Scale(1 / n)
}

// ShortestRotation negates the whole quaternion when the scalar part is
// negative, so that the scalar part is preferred non-negative when
// composing rotations (spec.md §4.2).
func (q Quaternion) ShortestRotation() Quaternion {
	if q.W < 0 {
		return Quaternion{X: -q.X, Y: -q.Y, Z: -q.Z, W: -q.W}
	}
	return q
}

func (q Quaternion) toGonum() quat.Number {
	return quat.Number{Real: q.W, Imag: q.X, Jmag: q.Y, Kmag: q.Z}
}

func fromGonum(n quat.Number) Quaternion {
	return Quaternion{X: n.Imag, Y: n.Jmag, Z: n.Kmag, W: n.Real}
}

// Compose returns q * other (apply other first, then q), the Hamilton
// product. No sign correction is applied; call ShortestRotation explicitly
// if that convention is wanted (spec.md Design Notes: "no sign correction
// is applied unless the caller explicitly requests shortest rotation").
func (q Quaternion) Compose(other Quaternion) Quaternion {
	return fromGonum(quat.Mul(q.toGonum(), other.toGonum()))
}

// Inverse returns the conjugate, which is the inverse for a unit quaternion.
func (q Quaternion) Inverse() Quaternion {
	return Quaternion{X: -q.X, Y: -q.Y, Z: -q.Z, W: q.W}
}

// Transform applies an active rotation to v: the returned vector is v
// rotated by q, not v re-expressed in a rotated frame.
func (q Quaternion) Transform(v r3.Vector) r3.Vector {
	vq := quat.Number{Real: 0, Imag: v.X, Jmag: v.Y, Kmag: v.Z}
	qg := q.toGonum()
	res := quat.Mul(quat.Mul(qg, vq), quat.Conj(qg))
	return r3.Vector{X: res.Imag, Y: res.Jmag, Z: res.Kmag}
}

// Dot returns the 4-vector dot product, used to detect the shorter arc
// between two quaternions before interpolating.
func (q Quaternion) Dot(other Quaternion) float64 {
	return q.X*other.X + q.Y*other.Y + q.Z*other.Z + q.W*other.W
}

// Matrix3 is a row-major 3x3 rotation matrix.
type Matrix3 [3][3]float64

// Skew returns the skew-symmetric cross-product matrix of v, such that
// Skew(v).MulVec(w) == v.Cross(w).
func Skew(v r3.Vector) Matrix3 {
	return Matrix3{
		{0, -v.Z, v.Y},
		{v.Z, 0, -v.X},
		{-v.Y, v.X, 0},
	}
}

// MulVec returns m*v.
func (m Matrix3) MulVec(v r3.Vector) r3.Vector {
	return r3.Vector{
		X: m[0][0]*v.X + m[0][1]*v.Y + m[0][2]*v.Z,
		Y: m[1][0]*v.X + m[1][1]*v.Y + m[1][2]*v.Z,
		Z: m[2][0]*v.X + m[2][1]*v.Y + m[2][2]*v.Z,
	}
}

// Transpose returns m^T.
func (m Matrix3) Transpose() Matrix3 {
	var out Matrix3
	for i := 0; i < 3; i++ {
		for j := 0; j < 3; j++ {
			out[j][i] = m[i][j]
		}
	}
	return out
}

// Mul returns m*other.
func (m Matrix3) Mul(other Matrix3) Matrix3 {
	var out Matrix3
	for i := 0; i < 3; i++ {
		for j := 0; j < 3; j++ {
			var s float64
			for k := 0; k < 3; k++ {
				s += m[i][k] * other[k][j]
			}
			out[i][j] = s
		}
	}
	return out
}

// Add returns m+other.
func (m Matrix3) Add(other Matrix3) Matrix3 {
	var out Matrix3
	for i := 0; i < 3; i++ {
		for j := 0; j < 3; j++ {
			out[i][j] = m[i][j] + other[i][j]
		}
	}
	return out
}

// Scale returns m*s.
func (m Matrix3) Scale(s float64) Matrix3 {
	var out Matrix3
	for i := 0; i < 3; i++ {
		for j := 0; j < 3; j++ {
			out[i][j] = m[i][j] * s
		}
	}
	return out
}

// Matrix returns the rotation matrix equivalent to q (active convention:
// Matrix().MulVec(v) == q.Transform(v)).
func (q Quaternion) Matrix() Matrix3 {
	x, y, z, w := q.X, q.Y, q.Z, q.W
	return Matrix3{
		{1 - 2*(y*y+z*z), 2 * (x*y - z*w), 2 * (x*z + y*w)},
		{2 * (x*y + z*w), 1 - 2*(x*x+z*z), 2 * (y*z - x*w)},
		{2 * (x*z - y*w), 2 * (y*z + x*w), 1 - 2*(x*x+y*y)},
	}
}

// QuaternionFromMatrix converts a rotation matrix to a quaternion, choosing
// the non-negative-scalar branch (spec.md Design Notes: "the scalar's sign
// is chosen non-negative").
func QuaternionFromMatrix(m Matrix3) Quaternion {
	trace := m[0][0] + m[1][1] + m[2][2]
	var q Quaternion
	switch {
	case trace > 0:
		s := 0.5 / math.Sqrt(trace+1.0)
		q = Quaternion{
			W: 0.25 / s,
			X: (m[2][1] - m[1][2]) * s,
			Y: (m[0][2] - m[2][0]) * s,
			Z: (m[1][0] - m[0][1]) * s,
		}
	case m[0][0] > m[1][1] && m[0][0] > m[2][2]:
		s := 2.0 * math.Sqrt(1.0+m[0][0]-m[1][1]-m[2][2])
		q = Quaternion{
			W: (m[2][1] - m[1][2]) / s,
			X: 0.25 * s,
			Y: (m[0][1] + m[1][0]) / s,
			Z: (m[0][2] + m[2][0]) / s,
		}
	case m[1][1] > m[2][2]:
		s := 2.0 * math.Sqrt(1.0+m[1][1]-m[0][0]-m[2][2])
		q = Quaternion{
			W: (m[0][2] - m[2][0]) / s,
			X: (m[0][1] + m[1][0]) / s,
			Y: 0.25 * s,
			Z: (m[1][2] + m[2][1]) / s,
		}
	default:
		s := 2.0 * math.Sqrt(1.0+m[2][2]-m[0][0]-m[1][1])
		q = Quaternion{
			W: (m[1][0] - m[0][1]) / s,
			X: (m[0][2] + m[2][0]) / s,
			Y: (m[1][2] + m[2][1]) / s,
			Z: 0.25 * s,
		}
	}
	q = q.Normalize()
	if q.W < 0 {
		q = Quaternion{X: -q.X, Y: -q.Y, Z: -q.Z, W: -q.W}
	}
	return q
}

// AxisAngle is an axis-angle rotation representation: a unit axis and an
// angle of rotation about it, in radians.
type AxisAngle struct {
	X, Y, Z, Theta float64
}

// Quaternion converts an axis-angle rotation to a quaternion.
func (aa AxisAngle) Quaternion() Quaternion {
	axis := r3.Vector{X: aa.X, Y: aa.Y, Z: aa.Z}.Normalize()
	half := aa.Theta / 2
	s := math.Sin(half)
	return Quaternion{X: axis.X * s, Y: axis.Y * s, Z: axis.Z * s, W: math.Cos(half)}
}

// AxisAngle converts q to its axis-angle representation.
func (q Quaternion) AxisAngle() AxisAngle {
	q = q.Normalize()
	angle := 2 * math.Acos(clamp(q.W, -1, 1))
	s := math.Sqrt(1 - q.W*q.W)
	if s < defaultEpsilon {
		// Angle is ~0; axis is arbitrary, default to +Z as the teacher's
		// orientation-vector pole case does for a degenerate direction.
		return AxisAngle{X: 0, Y: 0, Z: 1, Theta: angle}
	}
	return AxisAngle{X: q.X / s, Y: q.Y / s, Z: q.Z / s, Theta: angle}
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

// EulerSequence names an Euler/Tait-Bryan axis rotation order.
type EulerSequence int

const (
	ZYX EulerSequence = iota
	XYZ
	ZXZ
	ZYZ
	XZX
	XYX
	YXY
	YZY
	YXZ
	XZY
)

func (seq EulerSequence) mgl() mgl64.RotationOrder {
	switch seq {
	case ZYX:
		return mgl64.ZYX
	case XYZ:
		return mgl64.XYZ
	case ZXZ:
		return mgl64.ZXZ
	case ZYZ:
		return mgl64.ZYZ
	case XZX:
		return mgl64.XZX
	case XYX:
		return mgl64.XYX
	case YXY:
		return mgl64.YXY
	case YZY:
		return mgl64.YZY
	case YXZ:
		return mgl64.YXZ
	case XZY:
		return mgl64.XZY
	default:
		return mgl64.ZYX
	}
}

// EulerAngles is a three-angle rotation in a selectable axis sequence.
type EulerAngles struct {
	Sequence           EulerSequence
	Theta1, Theta2, Theta3 float64
}

// Quaternion converts Euler angles in the given sequence to a quaternion.
func (e EulerAngles) Quaternion() Quaternion {
	q := mgl64.AnglesToQuat(e.Theta1, e.Theta2, e.Theta3, e.Sequence.mgl())
	return Quaternion{X: q.X(), Y: q.Y(), Z: q.Z(), W: q.W}
}

// Euler converts q to Euler angles in the requested sequence.
func (q Quaternion) Euler(seq EulerSequence) EulerAngles {
	mq := mgl64.Quat{W: q.W, V: mgl64.Vec3{q.X, q.Y, q.Z}}
	a1, a2, a3 := mq.Normalize().EulerAnglesWithOrder(seq.mgl())
	return EulerAngles{Sequence: seq, Theta1: a1, Theta2: a2, Theta3: a3}
}
