// Package body models a single rigid body in the multibody tree: its mass
// properties, and the external spatial forces accumulated against it each
// step by actuators and environment models before the ABA recursion reads
// them.
package body

import (
	"github.com/golang/geo/r3"
	"github.com/google/uuid"

	"github.com/nadir-dynamics/nadir/massprops"
	"github.com/nadir-dynamics/nadir/spatial"
)

// Body is a single rigid body. Bodies are owned by System in a flat,
// index-addressed slice; a Body never holds a pointer to another Body or
// Joint, only the indices System uses to look them up.
type Body struct {
	// ID is a stable identifier independent of a body's slice index,
	// surviving reordering or serialization round-trips that the index
	// alone would not.
	ID         uuid.UUID
	Name       string
	Properties massprops.MassProperties

	// externalForce accumulates actuator and environment-model
	// contributions for the step currently in progress, expressed in the
	// body's own frame about its own origin. It is cleared at the start
	// of every derivative evaluation.
	externalForce spatial.ForceVector
}

// New constructs a Body with a fresh ID and zeroed external force.
func New(name string, props massprops.MassProperties) *Body {
	return &Body{ID: uuid.New(), Name: name, Properties: props}
}

// ResetExternalForce zeroes the force accumulator; called once per
// derivative evaluation before actuators and environment models apply
// their contributions.
func (b *Body) ResetExternalForce() {
	b.externalForce = spatial.ForceVector{}
}

// ApplyForce accumulates a spatial force (expressed in the body's own
// frame, about its own origin) onto the body's external force for the
// current step.
func (b *Body) ApplyForce(f spatial.ForceVector) {
	b.externalForce = b.externalForce.Add(f)
}

// ExternalForce returns the force accumulated so far this step.
func (b *Body) ExternalForce() spatial.ForceVector {
	return b.externalForce
}

// SpatialInertia returns the body's 6x6 spatial inertia operator about its
// own origin.
func (b *Body) SpatialInertia() spatial.Mat6 {
	return b.Properties.SpatialInertiaAbout(r3.Vector{})
}
