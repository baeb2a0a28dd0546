package joint

import (
	"github.com/golang/geo/r3"

	"github.com/nadir-dynamics/nadir/spatial"
)

// Prismatic is a single-DOF translational joint along a fixed axis
// expressed in the joint's own inner frame.
type Prismatic struct {
	Axis r3.Vector
}

// NewPrismatic returns a Prismatic joint model sliding along axis, which
// need not be pre-normalized.
func NewPrismatic(axis r3.Vector) *Prismatic {
	return &Prismatic{Axis: axis.Normalize()}
}

func (p *Prismatic) NDOF() int         { return 1 }
func (p *Prismatic) PositionSize() int { return 1 }

func (p *Prismatic) TransformFromPosition(pos []float64) spatial.Transform {
	return spatial.Transform{Translation: p.Axis.Mul(pos[0])}
}

func (p *Prismatic) VelocityFromState(vel []float64) spatial.MotionVector {
	return spatial.NewMotionVector(r3.Vector{}, p.Axis.Mul(vel[0]))
}

func (p *Prismatic) Subspace() []spatial.MotionVector {
	return []spatial.MotionVector{spatial.NewMotionVector(r3.Vector{}, p.Axis)}
}

func (p *Prismatic) Tau(params Parameters, pos, vel []float64) []float64 {
	return []float64{
		params.ConstantForce[0] - params.Damping[0]*vel[0] - params.SpringConstant[0]*(pos[0]-params.Equilibrium[0]),
	}
}

func (p *Prismatic) PositionDerivative(pos, vel []float64, out []float64) {
	out[0] = vel[0]
}
