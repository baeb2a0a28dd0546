// Package system assembles bodies and joints into a multibody tree,
// validates its topology, and runs the three-pass articulated body
// algorithm that turns applied forces into joint accelerations. Ownership
// is flat and index-based throughout: System holds Bodies and Joints in
// slices and every cross-reference between them is an index, never a
// pointer, so the tree can never become cyclic by construction error alone
// — Validate still checks it explicitly since indices can be miswired.
package system

import (
	"fmt"
	"strings"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/pkg/errors"
	"go.uber.org/multierr"

	"github.com/nadir-dynamics/nadir/body"
	"github.com/nadir-dynamics/nadir/joint"
	"github.com/nadir-dynamics/nadir/logging"
	"github.com/nadir-dynamics/nadir/nadirerr"
	"github.com/nadir-dynamics/nadir/spatial"
)

// System is a multibody tree: a flat slice of bodies and the joints
// connecting them. Bodies[0] is always the base.
type System struct {
	Name   string
	logger *logging.Logger

	Bodies []*body.Body
	Joints []*joint.Joint

	stateOffsets []int // per-joint offset into the flat state vector, cached by Validate
	stateSize    int
}

// New constructs a System from an already-ordered body and joint list.
// Joints must be supplied in topological order: a joint's InnerJointIndex,
// if non-nil, must be strictly less than the joint's own index.
func New(name string, logger *logging.Logger, bodies []*body.Body, joints []*joint.Joint) (*System, error) {
	s := &System{Name: name, logger: logger.Sublogger(name), Bodies: bodies, Joints: joints}
	if err := s.Validate(); err != nil {
		return nil, err
	}
	s.computeStateOffsets()
	return s, nil
}

// Validate checks the structural invariants spec.md requires of a
// multibody tree: exactly one base body, every non-base body has exactly
// one inner joint, every joint references valid body indices, and joints
// are listed in topological (parent-before-child) order.
func (s *System) Validate() error {
	var errAll error
	if len(s.Bodies) == 0 {
		return nadirerr.NewTopologyError("system", "system has no bodies")
	}

	hasInnerJoint := make([]bool, len(s.Bodies))
	for idx, j := range s.Joints {
		if j.InnerBodyIndex < 0 || j.InnerBodyIndex >= len(s.Bodies) {
			multierr.AppendInto(&errAll, nadirerr.NewTopologyError("system",
				fmt.Sprintf("joint %q references out-of-range inner body %d", j.Name, j.InnerBodyIndex)))
			continue
		}
		if j.OuterBodyIndex < 0 || j.OuterBodyIndex >= len(s.Bodies) {
			multierr.AppendInto(&errAll, nadirerr.NewTopologyError("system",
				fmt.Sprintf("joint %q references out-of-range outer body %d", j.Name, j.OuterBodyIndex)))
			continue
		}
		if j.OuterBodyIndex == 0 {
			multierr.AppendInto(&errAll, nadirerr.NewTopologyError("system", "base body cannot be a joint's outer body"))
		}
		if hasInnerJoint[j.OuterBodyIndex] {
			multierr.AppendInto(&errAll, nadirerr.NewTopologyError("system",
				fmt.Sprintf("body %d has more than one inner joint", j.OuterBodyIndex)))
		}
		hasInnerJoint[j.OuterBodyIndex] = true

		if j.InnerJointIndex != nil && *j.InnerJointIndex >= idx {
			multierr.AppendInto(&errAll, nadirerr.NewTopologyError("system",
				fmt.Sprintf("joint %q is not in topological order relative to its parent", j.Name)))
		}
	}
	for i := 1; i < len(s.Bodies); i++ {
		if !hasInnerJoint[i] {
			multierr.AppendInto(&errAll, nadirerr.NewTopologyError("system",
				fmt.Sprintf("body %q (index %d) has no inner joint", s.Bodies[i].Name, i)))
		}
	}
	if errAll != nil {
		return errors.Wrap(errAll, "system.Validate")
	}
	return nil
}

func (s *System) computeStateOffsets() {
	s.stateOffsets = make([]int, len(s.Joints))
	offset := 0
	for i, j := range s.Joints {
		s.stateOffsets[i] = offset
		offset += j.StateSize()
	}
	s.stateSize = offset
}

// StateSize returns the total length of the flat system state vector.
func (s *System) StateSize() int { return s.stateSize }

// ReadState unpacks a flat state vector into every joint's position and
// velocity, then refreshes every joint's transforms, including the
// tree-accumulated ones (jof_from_ij_jof, jof_from_base, ob_from_base) ABA
// and the orchestrator depend on. Joints are visited in topological order,
// so a joint's parent has always had its accumulated transforms refreshed
// by the time the joint itself is processed.
func (s *System) ReadState(state []float64) {
	for i, j := range s.Joints {
		off := s.stateOffsets[i]
		j.ReadState(state[off : off+j.StateSize()])
		j.UpdateTransforms()
		s.updateAccumulatedTransforms(j)
	}
}

// updateAccumulatedTransforms composes j's own motion with its fixed
// body-to-joint-frame offsets and its parent's already-refreshed
// accumulated transforms, producing jof_from_ij_jof (consumed by the ABA
// inertia/bias-force/acceleration propagation) and jof_from_base (consumed
// by device reporting). For a joint with no parent, "ij_jof" is the base
// frame itself.
func (s *System) updateAccumulatedTransforms(j *joint.Joint) {
	// ibFromIJJOF carries a vector expressed in the inner joint's outer
	// frame into this joint's inner body frame: the two coincide bodily
	// (this joint's inner body is the inner joint's outer body) but may
	// differ by the inner joint's own fixed outer offset.
	ibFromIJJOF := spatial.IdentityTransform
	ijjofFromBase := spatial.IdentityTransform
	if j.InnerJointIndex != nil {
		parent := s.Joints[*j.InnerJointIndex]
		ibFromIJJOF = parent.Transforms.OBFromJOF
		ijjofFromBase = parent.Transforms.JOFFromBase
	}

	// jif_from_ijjof, then jof_from_ijjof: compose outward from ij_jof
	// through this joint's inner body frame, its inner frame, to its own
	// outer frame. x.Compose(other) applies other first, then x.
	jifFromIJJOF := j.Transforms.JIFFromIB.Compose(ibFromIJJOF)
	j.Transforms.JOFFromIJJOF = j.Transforms.JOFFromJIF.Compose(jifFromIJJOF)
	j.Transforms.IJJOFFromJOF = j.Transforms.JOFFromIJJOF.Inverse()

	j.Transforms.JOFFromBase = j.Transforms.JOFFromIJJOF.Compose(ijjofFromBase)
	j.Transforms.BaseFromJOF = j.Transforms.JOFFromBase.Inverse()
	j.Transforms.OBFromBase = j.Transforms.OBFromJOF.Compose(j.Transforms.JOFFromBase)
	j.Transforms.BaseFromOB = j.Transforms.OBFromBase.Inverse()
}

// WriteState packs every joint's current position and velocity into a flat
// state vector.
func (s *System) WriteState(state []float64) {
	for i, j := range s.Joints {
		off := s.stateOffsets[i]
		j.WriteState(state[off : off+j.StateSize()])
	}
}

// WriteStateDerivative packs the joint accelerations computed by the last
// Derivative call, together with each joint's position derivative, into a
// flat derivative vector shaped like the state vector.
func (s *System) WriteStateDerivative(out []float64) {
	for i, j := range s.Joints {
		off := s.stateOffsets[i]
		j.WriteStateDerivative(j.Cache.Qdd, out[off:off+j.StateSize()])
	}
}

// ResetExternalForces clears every body's external force accumulator; the
// orchestrator calls this once per derivative evaluation before applying
// device and environment forces.
func (s *System) ResetExternalForces() {
	for _, b := range s.Bodies {
		b.ResetExternalForce()
	}
}

// String renders a tabular summary of the tree's topology, in the style of
// a configuration debug report: one row per joint, its bodies, and its DOF
// count.
func (s *System) String() string {
	var sb strings.Builder
	t := table.NewWriter()
	t.SetOutputMirror(&sb)
	t.AppendHeader(table.Row{"Joint", "Inner Body", "Outer Body", "DOF"})
	for _, j := range s.Joints {
		t.AppendRow(table.Row{
			j.Name,
			s.Bodies[j.InnerBodyIndex].Name,
			s.Bodies[j.OuterBodyIndex].Name,
			j.NDOF(),
		})
	}
	t.Render()
	return sb.String()
}
