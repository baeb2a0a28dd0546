package joint

import (
	"github.com/golang/geo/r3"

	"github.com/nadir-dynamics/nadir/rotation"
	"github.com/nadir-dynamics/nadir/spatial"
)

// Floating is the unconstrained 6-DOF joint used to attach a free-flying
// body (a spacecraft's own bus) to the tree base. Its generalized position
// is a 7-vector: a unit quaternion (x, y, z, w) followed by a translation;
// its generalized velocity is a body-frame spatial velocity (angular then
// linear).
type Floating struct{}

// NewFloating returns a Floating joint model.
func NewFloating() *Floating { return &Floating{} }

func (f *Floating) NDOF() int         { return 6 }
func (f *Floating) PositionSize() int { return 7 }

func (f *Floating) TransformFromPosition(pos []float64) spatial.Transform {
	q, err := rotation.NewQuaternion(pos[0], pos[1], pos[2], pos[3])
	if err != nil {
		q = rotation.Identity
	}
	return spatial.Transform{
		Rotation:    q,
		Translation: r3.Vector{X: pos[4], Y: pos[5], Z: pos[6]},
	}
}

func (f *Floating) VelocityFromState(vel []float64) spatial.MotionVector {
	return spatial.NewMotionVector(
		r3.Vector{X: vel[0], Y: vel[1], Z: vel[2]},
		r3.Vector{X: vel[3], Y: vel[4], Z: vel[5]},
	)
}

// Subspace is unused for Floating: its subspace is the full 6x6 identity,
// handled directly by the ABA driver rather than as six unit columns.
func (f *Floating) Subspace() []spatial.MotionVector { return nil }

// Tau applies the joint's spring/damper configuration per spatial
// component; a free-flying body is ordinarily configured with all-zero
// parameters so this reduces to zero external joint force.
func (f *Floating) Tau(p Parameters, pos, vel []float64) []float64 {
	out := make([]float64, 6)
	equilibriumPos := []float64{pos[4], pos[5], pos[6]}
	for i := 0; i < 6; i++ {
		eq := p.Equilibrium[i]
		state := vel[i]
		if i >= 3 {
			state = equilibriumPos[i-3]
		}
		out[i] = p.ConstantForce[i] - p.Damping[i]*vel[i] - p.SpringConstant[i]*(state-eq)
	}
	return out
}

// PositionDerivative applies quaternion kinematics (qdot = 1/2 q (0,omega),
// body-frame angular velocity) for the orientation part and rotates the
// body-frame linear velocity into the parent frame for the translation
// part.
func (f *Floating) PositionDerivative(pos, vel []float64, out []float64) {
	q, err := rotation.NewQuaternion(pos[0], pos[1], pos[2], pos[3])
	if err != nil {
		q = rotation.Identity
	}
	omega := rotation.Quaternion{X: vel[0], Y: vel[1], Z: vel[2], W: 0}
	qdot := q.Compose(omega).Scale(0.5)
	out[0], out[1], out[2], out[3] = qdot.X, qdot.Y, qdot.Z, qdot.W

	v := r3.Vector{X: vel[3], Y: vel[4], Z: vel[5]}
	posDot := q.Transform(v)
	out[4], out[5], out[6] = posDot.X, posDot.Y, posDot.Z
}
