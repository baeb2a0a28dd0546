// Package joint implements the joint models connecting bodies in a
// multibody tree (revolute, prismatic, floating) and the per-joint
// transform and articulated-body caches the three ABA passes read and
// write as they walk the tree.
package joint

import (
	"github.com/google/uuid"

	"github.com/nadir-dynamics/nadir/nadirerr"
	"github.com/nadir-dynamics/nadir/spatial"
)

// Model is the closed set of joint kinematics: how a joint's generalized
// position maps to a spatial transform, how its generalized velocity maps
// to a spatial velocity, and how user-configured spring/damper parameters
// map to a generalized force. Revolute, Prismatic, and Floating are the
// only implementations in this module; Model is an ordinary Go interface
// with only exported methods, so other packages can implement it too, and
// the ABA passes call it through dynamic dispatch.
type Model interface {
	// NDOF returns the number of generalized velocity coordinates.
	NDOF() int
	// PositionSize returns the number of generalized position
	// coordinates (equal to NDOF except for Floating, whose orientation
	// is stored as a 4-component quaternion).
	PositionSize() int
	// TransformFromPosition returns jof_from_jif: the spatial transform
	// from the joint's inner frame to its outer frame, as a function of
	// the current generalized position.
	TransformFromPosition(pos []float64) spatial.Transform
	// VelocityFromState returns vJ, the joint's own contribution to the
	// outer body's spatial velocity, as a function of the current
	// generalized velocity.
	VelocityFromState(vel []float64) spatial.MotionVector
	// Subspace returns the constant motion subspace vectors (columns of
	// S) in the joint's own axes; for Floating this is not used since S
	// is the full 6x6 identity.
	Subspace() []spatial.MotionVector
	// Tau returns the generalized force contributed by the joint's own
	// spring/damper parameters (not counting externally applied torque).
	Tau(p Parameters, pos, vel []float64) []float64
	// PositionDerivative writes d(pos)/dt into out given the current
	// position and generalized velocity (trivial for Revolute/Prismatic,
	// quaternion kinematics for Floating).
	PositionDerivative(pos, vel []float64, out []float64)
}

// Parameters holds the per-DOF spring/damper/constant-force configuration
// a joint carries in addition to whatever external actuator torque is
// applied during a step.
type Parameters struct {
	ConstantForce  []float64
	Damping        []float64
	Equilibrium    []float64
	SpringConstant []float64
}

// ZeroParameters returns Parameters with all-zero entries sized for ndof.
func ZeroParameters(ndof int) Parameters {
	return Parameters{
		ConstantForce:  make([]float64, ndof),
		Damping:        make([]float64, ndof),
		Equilibrium:    make([]float64, ndof),
		SpringConstant: make([]float64, ndof),
	}
}

// Transforms caches every spatial transform a joint needs, named after the
// frames they relate: jif/jof are the joint's inner/outer frames, ib/ob are
// the inner/outer body frames, and base is the tree root.
type Transforms struct {
	IBFromJIF spatial.Transform // fixed: inner body frame, expressed from the joint's inner frame
	JIFFromIB spatial.Transform // inverse of the above

	JOFFromOB spatial.Transform // fixed: joint outer frame, expressed from the outer body frame
	OBFromJOF spatial.Transform // inverse of the above

	JOFFromJIF spatial.Transform // updated every step: the joint's own motion
	JIFFromJOF spatial.Transform

	JOFFromIJJOF spatial.Transform // this joint's outer frame relative to its inner joint's outer frame
	IJJOFFromJOF spatial.Transform

	JOFFromBase spatial.Transform // accumulated top-down each step, for reporting
	BaseFromJOF spatial.Transform
	OBFromBase  spatial.Transform
	BaseFromOB  spatial.Transform
}

// ABACache holds the per-step working state of the three-pass articulated
// body algorithm. All slices are sized once at construction and reused in
// place every step; nothing here allocates during a simulation run.
type ABACache struct {
	IA spatial.Mat6 // articulated inertia, seen at the outer body
	PA spatial.ForceVector
	V  spatial.MotionVector // outer body spatial velocity
	VJ spatial.MotionVector // joint's own velocity contribution
	C  spatial.MotionVector // velocity product term: v x vJ

	U    []spatial.ForceVector // IA * S, one column per DOF
	D    [][]float64           // S^T U, ndof x ndof
	DInv [][]float64
	u    []float64 // tau - S^T * PA

	A   spatial.MotionVector // resulting outer body spatial acceleration
	Qdd []float64            // resulting joint accelerations
}

func newABACache(ndof int) ABACache {
	u := make([]spatial.ForceVector, ndof)
	d := make([][]float64, ndof)
	dInv := make([][]float64, ndof)
	for i := range d {
		d[i] = make([]float64, ndof)
		dInv[i] = make([]float64, ndof)
	}
	return ABACache{U: u, D: d, DInv: dInv, u: make([]float64, ndof), Qdd: make([]float64, ndof)}
}

// Joint ties a Model to the bodies and parent joint it connects, and owns
// its transform and ABA working caches.
type Joint struct {
	// ID is a stable identifier independent of a joint's slice index.
	ID    uuid.UUID
	Name  string
	Model Model

	InnerBodyIndex int
	OuterBodyIndex int
	// InnerJointIndex is nil for a joint whose inner body is the base.
	InnerJointIndex *int

	Parameters Parameters
	Transforms Transforms
	Cache      ABACache

	position []float64
	velocity []float64
}

// New constructs a Joint, validating that the supplied Parameters are sized
// for the model's DOF count.
func New(name string, model Model, innerBody, outerBody int, innerJoint *int, params Parameters) (*Joint, error) {
	ndof := model.NDOF()
	if len(params.ConstantForce) != ndof || len(params.Damping) != ndof ||
		len(params.Equilibrium) != ndof || len(params.SpringConstant) != ndof {
		return nil, nadirerr.NewTopologyError("joint", name+": parameters not sized for joint DOF")
	}
	return &Joint{
		ID:              uuid.New(),
		Name:            name,
		Model:           model,
		InnerBodyIndex:  innerBody,
		OuterBodyIndex:  outerBody,
		InnerJointIndex: innerJoint,
		Parameters:      params,
		Transforms: Transforms{
			IBFromJIF:  spatial.IdentityTransform,
			JIFFromIB:  spatial.IdentityTransform,
			JOFFromOB:  spatial.IdentityTransform,
			OBFromJOF:  spatial.IdentityTransform,
		},
		Cache:    newABACache(ndof),
		position: make([]float64, model.PositionSize()),
		velocity: make([]float64, ndof),
	}, nil
}

// NDOF returns the joint's degrees of freedom.
func (j *Joint) NDOF() int { return j.Model.NDOF() }

// SetFixedOffsets configures the joint's constant body-to-joint-frame
// offsets, set once when the system is assembled.
func (j *Joint) SetFixedOffsets(ibFromJIF, jofFromOB spatial.Transform) {
	j.Transforms.IBFromJIF = ibFromJIF
	j.Transforms.JIFFromIB = ibFromJIF.Inverse()
	j.Transforms.JOFFromOB = jofFromOB
	j.Transforms.OBFromJOF = jofFromOB.Inverse()
}

// Position returns the joint's generalized position vector.
func (j *Joint) Position() []float64 { return j.position }

// Velocity returns the joint's generalized velocity vector.
func (j *Joint) Velocity() []float64 { return j.velocity }

// StateSize returns the number of floats this joint occupies in the flat
// system state vector: position coordinates followed by velocity
// coordinates.
func (j *Joint) StateSize() int { return j.Model.PositionSize() + j.NDOF() }

// ReadState unpacks this joint's slice of the flat state vector into its
// position and velocity.
func (j *Joint) ReadState(s []float64) {
	n := j.Model.PositionSize()
	copy(j.position, s[:n])
	copy(j.velocity, s[n:n+j.NDOF()])
}

// WriteState packs this joint's position and velocity into the flat state
// vector.
func (j *Joint) WriteState(s []float64) {
	n := j.Model.PositionSize()
	copy(s[:n], j.position)
	copy(s[n:n+j.NDOF()], j.velocity)
}

// WriteStateDerivative writes d(position)/dt and the supplied joint
// accelerations qdd into the flat derivative vector, mirroring ReadState's
// layout.
func (j *Joint) WriteStateDerivative(qdd []float64, out []float64) {
	n := j.Model.PositionSize()
	j.Model.PositionDerivative(j.position, j.velocity, out[:n])
	copy(out[n:n+j.NDOF()], qdd)
}

// UpdateTransforms recomputes jof_from_jif (and its inverse) from the
// joint's current position, and vJ from its current velocity. It does not
// touch the tree-accumulated transforms (jof_from_ij_jof, jof_from_base):
// system.System.ReadState refreshes those, since they depend on the parent
// joint's already-refreshed transforms.
func (j *Joint) UpdateTransforms() {
	j.Transforms.JOFFromJIF = j.Model.TransformFromPosition(j.position)
	j.Transforms.JIFFromJOF = j.Transforms.JOFFromJIF.Inverse()
	j.Cache.VJ = j.Model.VelocityFromState(j.velocity)
}

// CalculateTau returns the joint's generalized force from its own
// spring/damper configuration (external actuator torque is added by the
// caller on top of this).
func (j *Joint) CalculateTau() []float64 {
	return j.Model.Tau(j.Parameters, j.position, j.velocity)
}
