package joint

import (
	"github.com/golang/geo/r3"

	"github.com/nadir-dynamics/nadir/rotation"
	"github.com/nadir-dynamics/nadir/spatial"
)

// Revolute is a single-DOF rotational joint about a fixed axis expressed
// in the joint's own inner frame.
type Revolute struct {
	Axis r3.Vector
}

// NewRevolute returns a Revolute joint model rotating about axis, which
// need not be pre-normalized.
func NewRevolute(axis r3.Vector) *Revolute {
	return &Revolute{Axis: axis.Normalize()}
}

func (r *Revolute) NDOF() int          { return 1 }
func (r *Revolute) PositionSize() int  { return 1 }

func (r *Revolute) TransformFromPosition(pos []float64) spatial.Transform {
	aa := rotation.AxisAngle{X: r.Axis.X, Y: r.Axis.Y, Z: r.Axis.Z, Theta: pos[0]}
	return spatial.Transform{Rotation: aa.Quaternion()}
}

func (r *Revolute) VelocityFromState(vel []float64) spatial.MotionVector {
	return spatial.NewMotionVector(r.Axis.Mul(vel[0]), r3.Vector{})
}

func (r *Revolute) Subspace() []spatial.MotionVector {
	return []spatial.MotionVector{spatial.NewMotionVector(r.Axis, r3.Vector{})}
}

func (r *Revolute) Tau(p Parameters, pos, vel []float64) []float64 {
	return []float64{
		p.ConstantForce[0] - p.Damping[0]*vel[0] - p.SpringConstant[0]*(pos[0]-p.Equilibrium[0]),
	}
}

func (r *Revolute) PositionDerivative(pos, vel []float64, out []float64) {
	out[0] = vel[0]
}
