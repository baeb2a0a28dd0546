package device

import (
	"github.com/golang/geo/r3"
	"github.com/google/uuid"

	"github.com/nadir-dynamics/nadir/spatial"
)

// ReactionWheel applies a torque about a fixed spin axis (expressed in the
// body frame), saturating at MaxTorque, and carries its own spin rate as
// integrable state: the commanded torque accelerates the wheel at
// torque/Inertia while the equal-and-opposite reaction torque is applied
// to the body.
type ReactionWheel struct {
	ID           uuid.UUID
	ActuatorName string
	Axis         r3.Vector
	MaxTorque    float64
	Inertia      float64

	velocity     float64 // rad/s, the wheel's own integrable state
	acceleration float64 // rad/s^2, cached by Apply for WriteStateDerivative
}

// NewReactionWheel returns a ReactionWheel actuator with the given spin
// axis, torque saturation limit, and wheel inertia about that axis.
func NewReactionWheel(name string, axis r3.Vector, maxTorque, inertia float64) *ReactionWheel {
	return &ReactionWheel{ID: uuid.New(), ActuatorName: name, Axis: axis.Normalize(), MaxTorque: maxTorque, Inertia: inertia}
}

func (w *ReactionWheel) Name() string { return w.ActuatorName }

// Velocity returns the wheel's current spin rate about Axis.
func (w *ReactionWheel) Velocity() float64 { return w.velocity }

// Momentum returns the wheel's current angular momentum about Axis,
// derived from its integrated velocity rather than integrated directly.
func (w *ReactionWheel) Momentum() float64 { return w.velocity * w.Inertia }

func (w *ReactionWheel) StateSize() int { return 1 }

func (w *ReactionWheel) ReadState(s []float64) { w.velocity = s[0] }

func (w *ReactionWheel) WriteState(s []float64) { s[0] = w.velocity }

func (w *ReactionWheel) WriteStateDerivative(out []float64) { out[0] = w.acceleration }

// Apply reads command[0] as the requested torque magnitude about Axis,
// spins the wheel up at torque/Inertia, and returns the equal-and-opposite
// reaction torque applied to the body.
func (w *ReactionWheel) Apply(t float64, command []float64, state BodyState) spatial.ForceVector {
	torque := clamp(command[0], -w.MaxTorque, w.MaxTorque)
	w.acceleration = torque / w.Inertia
	return spatial.NewForceVector(w.Axis.Mul(-torque), r3.Vector{})
}

// Thruster applies a pure force along a fixed direction (expressed in the
// body frame) located at a fixed position offset from the body origin,
// saturating at MaxForce. The resulting moment about the body origin is
// computed from the offset, since a thruster not mounted through the
// center of mass also induces a torque.
type Thruster struct {
	ID           uuid.UUID
	ActuatorName string
	Direction    r3.Vector
	Position     r3.Vector
	MaxForce     float64
}

// NewThruster returns a Thruster actuator.
func NewThruster(name string, direction, position r3.Vector, maxForce float64) *Thruster {
	return &Thruster{ID: uuid.New(), ActuatorName: name, Direction: direction.Normalize(), Position: position, MaxForce: maxForce}
}

func (th *Thruster) Name() string { return th.ActuatorName }

// StateSize is zero: a thruster has no internal dynamics of its own.
func (th *Thruster) StateSize() int { return 0 }

func (th *Thruster) ReadState(s []float64) {}

func (th *Thruster) WriteState(s []float64) {}

func (th *Thruster) WriteStateDerivative(out []float64) {}

// Apply reads command[0] as the commanded thrust magnitude (0 to MaxForce;
// negative commands are clamped to zero since a thruster cannot pull).
func (th *Thruster) Apply(t float64, command []float64, state BodyState) spatial.ForceVector {
	mag := clamp(command[0], 0, th.MaxForce)
	force := th.Direction.Mul(mag)
	moment := th.Position.Cross(force)
	return spatial.NewForceVector(moment, force)
}

// MagneticTorquer applies a torque by interacting a commanded magnetic
// dipole moment with the local field, tau = m x B.
type MagneticTorquer struct {
	ID           uuid.UUID
	ActuatorName string
	MaxMoment    float64
}

// NewMagneticTorquer returns a MagneticTorquer actuator.
func NewMagneticTorquer(name string, maxMoment float64) *MagneticTorquer {
	return &MagneticTorquer{ID: uuid.New(), ActuatorName: name, MaxMoment: maxMoment}
}

func (mt *MagneticTorquer) Name() string { return mt.ActuatorName }

// StateSize is zero: a magnetic torquer has no internal dynamics of its own.
func (mt *MagneticTorquer) StateSize() int { return 0 }

func (mt *MagneticTorquer) ReadState(s []float64) {}

func (mt *MagneticTorquer) WriteState(s []float64) {}

func (mt *MagneticTorquer) WriteStateDerivative(out []float64) {}

// Apply reads command[0:3] as the commanded dipole moment vector
// (component-wise clamped to MaxMoment) and computes the resulting torque
// against state.LocalMagneticField.
func (mt *MagneticTorquer) Apply(t float64, command []float64, state BodyState) spatial.ForceVector {
	m := r3.Vector{
		X: clamp(command[0], -mt.MaxMoment, mt.MaxMoment),
		Y: clamp(command[1], -mt.MaxMoment, mt.MaxMoment),
		Z: clamp(command[2], -mt.MaxMoment, mt.MaxMoment),
	}
	torque := m.Cross(state.LocalMagneticField)
	return spatial.NewForceVector(torque, r3.Vector{})
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
