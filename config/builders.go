package config

import (
	"fmt"

	"github.com/golang/geo/r3"
	"golang.org/x/exp/rand"

	"github.com/nadir-dynamics/nadir/body"
	"github.com/nadir-dynamics/nadir/device"
	"github.com/nadir-dynamics/nadir/joint"
	"github.com/nadir-dynamics/nadir/logging"
	"github.com/nadir-dynamics/nadir/massprops"
	"github.com/nadir-dynamics/nadir/nadirerr"
	"github.com/nadir-dynamics/nadir/ode"
	"github.com/nadir-dynamics/nadir/system"
	"github.com/nadir-dynamics/nadir/uncertainty"
)

// NoiseConfig is the on-disk shape of a sensor noise specification.
type NoiseConfig struct {
	Kind      string  `mapstructure:"kind"` // "fixed", "normal", "uniform"
	Nominal   float64 `mapstructure:"nominal"`
	StdDev    float64 `mapstructure:"std_dev"`
	HalfWidth float64 `mapstructure:"half_width"`
}

// Build returns the uncertainty.Value this NoiseConfig describes.
func (n NoiseConfig) Build() (uncertainty.Value, error) {
	switch n.Kind {
	case "", "fixed":
		return uncertainty.Fixed(n.Nominal), nil
	case "normal":
		return uncertainty.Value{Nominal: n.Nominal, Dispersion: uncertainty.Normal{StdDev: n.StdDev}}, nil
	case "uniform":
		return uncertainty.Value{Nominal: n.Nominal, Dispersion: uncertainty.Uniform{HalfWidth: n.HalfWidth}}, nil
	default:
		return uncertainty.Value{}, nadirerr.NewTopologyError("config", fmt.Sprintf("unknown noise kind %q", n.Kind))
	}
}

// SensorConfig is the on-disk shape of one sensor attached to a body.
type SensorConfig struct {
	Name          string      `mapstructure:"name"`
	Type          string      `mapstructure:"type"` // "gps", "star_tracker", "rate_gyro", "magnetometer"
	Body          string      `mapstructure:"body"`
	Delay         float64     `mapstructure:"delay"`
	BufferDepth   int         `mapstructure:"buffer_depth"`
	Bias          [3]float64  `mapstructure:"bias"`
	Noise         NoiseConfig `mapstructure:"noise"`
	PositionNoise NoiseConfig `mapstructure:"position_noise"`
	VelocityNoise NoiseConfig `mapstructure:"velocity_noise"`
}

// Build constructs the device.Sensor this SensorConfig describes.
func (c SensorConfig) Build() (device.Sensor, error) {
	switch c.Type {
	case "gps":
		posNoise, err := c.PositionNoise.Build()
		if err != nil {
			return nil, err
		}
		velNoise, err := c.VelocityNoise.Build()
		if err != nil {
			return nil, err
		}
		depth := c.BufferDepth
		if depth <= 0 {
			depth = 1
		}
		return device.NewGPS(c.Name, c.Delay, posNoise, velNoise, depth), nil
	case "star_tracker":
		noise, err := c.Noise.Build()
		if err != nil {
			return nil, err
		}
		return device.NewStarTracker(c.Name, noise), nil
	case "rate_gyro":
		noise, err := c.Noise.Build()
		if err != nil {
			return nil, err
		}
		return device.NewRateGyro(c.Name, c.Bias, noise), nil
	case "magnetometer":
		noise, err := c.Noise.Build()
		if err != nil {
			return nil, err
		}
		return device.NewMagnetometer(c.Name, noise), nil
	default:
		return nil, nadirerr.NewTopologyError("config", fmt.Sprintf("sensor %q: unknown type %q", c.Name, c.Type))
	}
}

// ActuatorConfig is the on-disk shape of one actuator attached to a body.
type ActuatorConfig struct {
	Name      string     `mapstructure:"name"`
	Type      string     `mapstructure:"type"` // "reaction_wheel", "thruster", "magnetic_torquer"
	Body      string     `mapstructure:"body"`
	Axis      [3]float64 `mapstructure:"axis"`
	Direction [3]float64 `mapstructure:"direction"`
	Position  [3]float64 `mapstructure:"position"`
	MaxTorque float64    `mapstructure:"max_torque"`
	MaxForce  float64    `mapstructure:"max_force"`
	MaxMoment float64    `mapstructure:"max_moment"`
	Inertia   float64    `mapstructure:"inertia"`
	// Constant is the command vector applied on every derivative
	// evaluation; a scenario with no active control law still needs
	// something to drive each actuator.
	Constant []float64 `mapstructure:"constant"`
}

// Build constructs the device.Actuator this ActuatorConfig describes.
func (c ActuatorConfig) Build() (device.Actuator, error) {
	switch c.Type {
	case "reaction_wheel":
		return device.NewReactionWheel(c.Name, vec3(c.Axis), c.MaxTorque, c.Inertia), nil
	case "thruster":
		return device.NewThruster(c.Name, vec3(c.Direction), vec3(c.Position), c.MaxForce), nil
	case "magnetic_torquer":
		return device.NewMagneticTorquer(c.Name, c.MaxMoment), nil
	default:
		return nil, nadirerr.NewTopologyError("config", fmt.Sprintf("actuator %q: unknown type %q", c.Name, c.Type))
	}
}

// Build constructs the MassProperties and body.Body this BodyConfig
// describes.
func (b BodyConfig) Build() (*body.Body, error) {
	inertia := massprops.Inertia{Ixx: b.Ixx, Iyy: b.Iyy, Izz: b.Izz, Ixy: b.Ixy, Ixz: b.Ixz, Iyz: b.Iyz}
	props, err := massprops.New(b.Mass, vec3(b.CenterOfMass), inertia)
	if err != nil {
		return nil, nadirerr.NewTopologyError("config", fmt.Sprintf("body %q: %v", b.Name, err))
	}
	return body.New(b.Name, props), nil
}

// buildModel dispatches on Type to the closed joint.Model union.
func (j JointConfig) buildModel() (joint.Model, error) {
	axis := vec3(j.Axis)
	switch j.Type {
	case "revolute":
		return joint.NewRevolute(axis), nil
	case "prismatic":
		return joint.NewPrismatic(axis), nil
	case "floating":
		return joint.NewFloating(), nil
	default:
		return nil, nadirerr.NewTopologyError("config", fmt.Sprintf("joint %q: unknown type %q", j.Name, j.Type))
	}
}

// buildParameters returns the joint's spring/damper Parameters, sized for
// ndof, defaulting any unset slice to zeros.
func (j JointConfig) buildParameters(ndof int) joint.Parameters {
	p := joint.ZeroParameters(ndof)
	if len(j.ConstantForce) == ndof {
		p.ConstantForce = j.ConstantForce
	}
	if len(j.Damping) == ndof {
		p.Damping = j.Damping
	}
	if len(j.Equilibrium) == ndof {
		p.Equilibrium = j.Equilibrium
	}
	if len(j.SpringConstant) == ndof {
		p.SpringConstant = j.SpringConstant
	}
	return p
}

// Build constructs the joint.Joint this JointConfig describes, given the
// already-resolved inner/outer body indices and inner joint index.
func (j JointConfig) Build(innerBody, outerBody int, innerJoint *int) (*joint.Joint, error) {
	model, err := j.buildModel()
	if err != nil {
		return nil, err
	}
	params := j.buildParameters(model.NDOF())
	return joint.New(j.Name, model, innerBody, outerBody, innerJoint, params)
}

func vec3(v [3]float64) r3.Vector { return r3.Vector{X: v[0], Y: v[1], Z: v[2]} }

// Build assembles the body and joint list (ScenarioConfig.Bodies[0] is the
// system's base, matching System's convention) and constructs a validated
// *system.System. Joints must already be listed in ScenarioConfig.Joints in
// topological order, same as System.New requires.
func (c ScenarioConfig) Build(logger *logging.Logger) (*system.System, error) {
	if err := c.Validate(); err != nil {
		return nil, err
	}

	bodyIndex := make(map[string]int, len(c.Bodies))
	bodies := make([]*body.Body, 0, len(c.Bodies))
	for _, bc := range c.Bodies {
		b, err := bc.Build()
		if err != nil {
			return nil, err
		}
		bodyIndex[bc.Name] = len(bodies)
		bodies = append(bodies, b)
	}

	outerJointIndex := make(map[string]int, len(c.Joints)) // body name -> joint index that owns it as outer body
	joints := make([]*joint.Joint, 0, len(c.Joints))
	for idx, jc := range c.Joints {
		innerIdx, ok := bodyIndex[jc.InnerBody]
		if !ok {
			return nil, nadirerr.NewTopologyError("config", fmt.Sprintf("joint %q: unknown inner body %q", jc.Name, jc.InnerBody))
		}
		outerIdx, ok := bodyIndex[jc.OuterBody]
		if !ok {
			return nil, nadirerr.NewTopologyError("config", fmt.Sprintf("joint %q: unknown outer body %q", jc.Name, jc.OuterBody))
		}
		var innerJoint *int
		if parentJointIdx, ok := outerJointIndex[jc.InnerBody]; ok {
			pj := parentJointIdx
			innerJoint = &pj
		}
		j, err := jc.Build(innerIdx, outerIdx, innerJoint)
		if err != nil {
			return nil, err
		}
		outerJointIndex[jc.OuterBody] = idx
		joints = append(joints, j)
	}

	return system.New(c.Name, logger, bodies, joints)
}

// BuildSimulation constructs the *system.System this ScenarioConfig
// describes and a *system.Simulation around it, wiring every configured
// sensor and actuator onto the bodies they reference.
func (c ScenarioConfig) BuildSimulation(logger *logging.Logger, rng *rand.Rand) (*system.Simulation, error) {
	tree, err := c.Build(logger)
	if err != nil {
		return nil, err
	}

	bodyIndex := make(map[string]int, len(c.Bodies))
	for i, bc := range c.Bodies {
		bodyIndex[bc.Name] = i
	}

	sim := system.NewSimulation(logger, tree, rng)

	for _, sc := range c.Sensors {
		idx, ok := bodyIndex[sc.Body]
		if !ok {
			return nil, nadirerr.NewTopologyError("config", fmt.Sprintf("sensor %q: unknown body %q", sc.Name, sc.Body))
		}
		sn, err := sc.Build()
		if err != nil {
			return nil, err
		}
		sim.AddSensor(sn, idx)
	}

	for _, ac := range c.Actuators {
		idx, ok := bodyIndex[ac.Body]
		if !ok {
			return nil, nadirerr.NewTopologyError("config", fmt.Sprintf("actuator %q: unknown body %q", ac.Name, ac.Body))
		}
		a, err := ac.Build()
		if err != nil {
			return nil, err
		}
		constant := ac.Constant
		sim.AddActuator(a, idx, func(t float64, state device.BodyState) []float64 { return constant })
	}

	return sim, nil
}

// Build resolves the ButcherTableau and StepControl this IntegratorConfig
// describes, and reports whether the run should use adaptive stepping.
func (c IntegratorConfig) Build() (tableau ode.ButcherTableau, control ode.StepControl, adaptive bool, err error) {
	switch c.Method {
	case "", "rk4":
		tableau = ode.RK4
	case "dopri45":
		tableau = ode.DormandPrince45
	case "tsit5":
		tableau = ode.Tsitouras54
	case "verner6":
		tableau = ode.Verner6
	case "verner9":
		tableau = ode.Verner9
	default:
		return ode.ButcherTableau{}, nil, false, nadirerr.NewTopologyError("config", fmt.Sprintf("unknown integrator method %q", c.Method))
	}

	adaptive = c.Mode == "adaptive"
	if !adaptive {
		dt := c.DT
		if dt <= 0 {
			dt = 0.01
		}
		return tableau, ode.FixedStepControl{DT: dt}, false, nil
	}

	switch c.StepControl {
	case "", "basic":
		control = ode.BasicAdaptiveStepControl{RelTol: c.RelTol, AbsTol: c.AbsTol, MinDT: c.MinDT, MaxDT: c.MaxDT}
	case "pid":
		pid := ode.NewPIDStepControl(c.RelTol, c.AbsTol)
		pid.MinDT, pid.MaxDT = c.MinDT, c.MaxDT
		control = pid
	default:
		return ode.ButcherTableau{}, nil, false, nadirerr.NewTopologyError("config", fmt.Sprintf("unknown step control %q", c.StepControl))
	}
	return tableau, control, true, nil
}
