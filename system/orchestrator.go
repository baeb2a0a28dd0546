package system

import (
	"github.com/golang/geo/r3"
	"golang.org/x/exp/rand"

	"github.com/nadir-dynamics/nadir/device"
	"github.com/nadir-dynamics/nadir/environment"
	"github.com/nadir-dynamics/nadir/logging"
	"github.com/nadir-dynamics/nadir/ode"
	"github.com/nadir-dynamics/nadir/results"
	"github.com/nadir-dynamics/nadir/spatial"
)

// ActuatorCommand sources a command vector for one named actuator at a
// given simulation time; the orchestrator calls it once per derivative
// evaluation for every registered actuator.
type ActuatorCommand func(t float64, state device.BodyState) []float64

// actuatorBinding ties an actuator to the body it acts on and the command
// source driving it, along with that actuator's offset into the flat
// system state vector (past the end of the joint tree's own state).
type actuatorBinding struct {
	actuator    device.Actuator
	bodyIndex   int
	command     ActuatorCommand
	stateOffset int
}

// sensorBinding ties a sensor to the body it observes.
type sensorBinding struct {
	sensor    device.Sensor
	bodyIndex int
}

// Simulation is the top-level orchestrator (spec.md's System component):
// it owns a body/joint tree, the environment models acting on it, the
// devices attached to its bodies, and drives one Monte Carlo run's
// integration loop, wiring every derivative evaluation's forces and every
// accepted step's events and result writes.
type Simulation struct {
	logger *logging.Logger

	Tree    *System
	Gravity environment.GravityModel

	actuators []actuatorBinding
	sensors   []sensorBinding

	Events  *ode.Manager
	Results *results.Manager

	rng               *rand.Rand
	sensorsRegistered map[string]bool

	actuatorStateSize int // total flat-vector space occupied by actuator substates
}

// NewSimulation constructs a Simulation around an already-validated tree. It
// registers a save event that measures every attached sensor on every
// accepted step, so a caller only needs AddSensor to get that sensor's
// output streamed through Results.
func NewSimulation(logger *logging.Logger, tree *System, rng *rand.Rand) *Simulation {
	sim := &Simulation{
		logger:            logger.Sublogger("simulation"),
		Tree:              tree,
		Events:            ode.NewManager(),
		Results:           results.NewManager("."),
		rng:               rng,
		sensorsRegistered: make(map[string]bool),
	}
	sim.Events.Save = append(sim.Events.Save, &ode.SaveEvent{EveryStep: true, SaveFn: sim.writeSensorMeasurements})
	return sim
}

// writeSensorMeasurements measures every attached sensor against the body
// state at t and streams the result through Results, registering each
// sensor's output columns on its first measurement.
func (s *Simulation) writeSensorMeasurements(t float64, y []float64) error {
	for _, b := range s.sensors {
		state := s.bodyState(b.bodyIndex)
		values, columns := b.sensor.Measure(t, state, s.rng)
		name := b.sensor.Name()
		if !s.sensorsRegistered[name] {
			s.Results.Register(name, columns)
			s.sensorsRegistered[name] = true
		}
		if err := s.Results.Write(name, t, values); err != nil {
			return err
		}
	}
	return nil
}

// AddActuator registers an actuator acting on a body, driven by command,
// and reserves this actuator's slice of the flat system state vector
// immediately past the joint tree's own state and any actuator already
// registered.
func (s *Simulation) AddActuator(a device.Actuator, bodyIndex int, command ActuatorCommand) {
	offset := s.Tree.StateSize() + s.actuatorStateSize
	s.actuators = append(s.actuators, actuatorBinding{actuator: a, bodyIndex: bodyIndex, command: command, stateOffset: offset})
	s.actuatorStateSize += a.StateSize()
}

// AddSensor registers a sensor observing a body.
func (s *Simulation) AddSensor(sn device.Sensor, bodyIndex int) {
	s.sensors = append(s.sensors, sensorBinding{sensor: sn, bodyIndex: bodyIndex})
}

// StateSize implements ode.Model: the joint tree's own state plus every
// registered actuator's integrable substate (a reaction wheel's spin rate,
// for instance).
func (s *Simulation) StateSize() int { return s.Tree.StateSize() + s.actuatorStateSize }

// WriteState packs the joint tree's state and every actuator's current
// internal state into a flat state vector shaped like StateSize.
func (s *Simulation) WriteState(y []float64) {
	s.Tree.WriteState(y)
	for _, b := range s.actuators {
		n := b.actuator.StateSize()
		if n == 0 {
			continue
		}
		b.actuator.WriteState(y[b.stateOffset : b.stateOffset+n])
	}
}

// readActuatorState unpacks each registered actuator's slice of y into its
// own internal state, ahead of computing this derivative evaluation's
// forces (a torque-speed-curve actuator would need its own spin rate
// before Apply can compute its torque).
func (s *Simulation) readActuatorState(y []float64) {
	for _, b := range s.actuators {
		n := b.actuator.StateSize()
		if n == 0 {
			continue
		}
		b.actuator.ReadState(y[b.stateOffset : b.stateOffset+n])
	}
}

// writeActuatorStateDerivative packs every actuator's state derivative, as
// computed by its most recent Apply call, into its slice of dy.
func (s *Simulation) writeActuatorStateDerivative(dy []float64) {
	for _, b := range s.actuators {
		n := b.actuator.StateSize()
		if n == 0 {
			continue
		}
		b.actuator.WriteStateDerivative(dy[b.stateOffset : b.stateOffset+n])
	}
}

// bodyState derives the device-facing kinematic state of a body from the
// joint tree's accumulated transforms. Only bodies attached through a
// single floating root joint have a well-defined inertial position in
// this simplified reporting path; bodies deeper in an articulated chain
// report their transform relative to the tree base instead.
func (s *Simulation) bodyState(bodyIndex int) device.BodyState {
	for _, j := range s.Tree.Joints {
		if j.OuterBodyIndex != bodyIndex {
			continue
		}
		t := j.Transforms.JOFFromBase
		return device.BodyState{
			PositionInertial:    t.Translation,
			AttitudeBodyFromRef: t.Rotation,
			AngularVelocityBody: j.Cache.V.Angular(),
		}
	}
	return device.BodyState{}
}

// Derivative implements ode.Model: it refreshes joint transforms from the
// state vector, clears and reapplies every force contribution (actuators
// and gravity), runs the three-pass ABA recursion, and packs the result
// into dy.
func (s *Simulation) Derivative(t float64, y []float64, dy []float64) error {
	s.Tree.ReadState(y)
	s.readActuatorState(y)
	s.Tree.ResetExternalForces()

	for i, body := range s.Tree.Bodies {
		if i == 0 {
			continue // base carries no independent mass-properties force accumulation
		}
		state := s.bodyState(i)
		if s.Gravity != nil {
			g := s.Gravity.Acceleration(state.PositionInertial)
			force := g.Mul(body.Properties.Mass)
			bodyFrameForce := state.AttitudeBodyFromRef.Inverse().Transform(force)
			body.ApplyForce(forceVectorFromLinear(bodyFrameForce))
		}
	}

	for _, b := range s.actuators {
		state := s.bodyState(b.bodyIndex)
		cmd := b.command(t, state)
		f := b.actuator.Apply(t, cmd, state)
		s.Tree.Bodies[b.bodyIndex].ApplyForce(f)
	}

	if err := s.Tree.Derivative(zeroMotion()); err != nil {
		return err
	}
	s.Tree.WriteStateDerivative(dy)
	s.writeActuatorStateDerivative(dy)
	return nil
}

func forceVectorFromLinear(f r3.Vector) spatial.ForceVector {
	return spatial.NewForceVector(r3.Vector{}, f)
}

func zeroMotion() spatial.MotionVector {
	return spatial.MotionVector{}
}

// RunFixed integrates the simulation over [0, duration] with a fixed step,
// invoking the event manager after every accepted step.
func (s *Simulation) RunFixed(duration, dt float64, y []float64) error {
	if err := s.Events.RunPreSim(); err != nil {
		return err
	}
	err := ode.SolveFixed(s, 0, duration, dt, y, s.Events.OnStep)
	if postErr := s.Events.RunPostSim(); postErr != nil && err == nil {
		err = postErr
	}
	return err
}

// RunAdaptive integrates the simulation over [0, duration] with adaptive
// step control, invoking the event manager after every accepted step.
func (s *Simulation) RunAdaptive(tableau ode.ButcherTableau, control ode.StepControl, duration, dt, relTol, absTol float64, y []float64) error {
	if err := s.Events.RunPreSim(); err != nil {
		return err
	}
	err := ode.SolveAdaptive(s, tableau, control, 0, duration, dt, relTol, absTol, y, s.Events.OnStep)
	if postErr := s.Events.RunPostSim(); postErr != nil && err == nil {
		err = postErr
	}
	return err
}
