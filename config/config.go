// Package config decodes a scenario description (arbitrary nested
// map[string]interface{}, typically parsed from JSON) into the builder
// structs that construct a runnable system. Decoding is permissive about
// field naming (mapstructure's usual case-insensitive matching) and
// reports every decode failure through the engine's own error taxonomy
// rather than mapstructure's raw error type.
package config

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/mitchellh/mapstructure"

	"github.com/nadir-dynamics/nadir/nadirerr"
)

// JointConfig is the on-disk shape of one joint's configuration.
type JointConfig struct {
	Name       string    `mapstructure:"name"`
	Type       string    `mapstructure:"type"` // "revolute", "prismatic", "floating"
	Axis       [3]float64 `mapstructure:"axis"`
	InnerBody  string    `mapstructure:"inner_body"`
	OuterBody  string    `mapstructure:"outer_body"`
	ConstantForce  []float64 `mapstructure:"constant_force"`
	Damping        []float64 `mapstructure:"damping"`
	Equilibrium    []float64 `mapstructure:"equilibrium"`
	SpringConstant []float64 `mapstructure:"spring_constant"`
}

// BodyConfig is the on-disk shape of one body's mass properties.
type BodyConfig struct {
	Name         string     `mapstructure:"name"`
	Mass         float64    `mapstructure:"mass"`
	CenterOfMass [3]float64 `mapstructure:"center_of_mass"`
	Ixx          float64    `mapstructure:"ixx"`
	Iyy          float64    `mapstructure:"iyy"`
	Izz          float64    `mapstructure:"izz"`
	Ixy          float64    `mapstructure:"ixy"`
	Ixz          float64    `mapstructure:"ixz"`
	Iyz          float64    `mapstructure:"iyz"`
}

// IntegratorConfig selects and parameterizes the ODE solver.
type IntegratorConfig struct {
	Method  string  `mapstructure:"method"` // "rk4", "dopri45", "tsit5", "verner6", "verner9"
	Mode    string  `mapstructure:"mode"`   // "fixed", "adaptive"
	DT      float64 `mapstructure:"dt"`
	RelTol  float64 `mapstructure:"rel_tol"`
	AbsTol  float64 `mapstructure:"abs_tol"`
	MinDT   float64 `mapstructure:"min_dt"`
	MaxDT   float64 `mapstructure:"max_dt"`
	StepControl string `mapstructure:"step_control"` // "basic", "pid"
}

// ScenarioConfig is the top-level on-disk scenario description.
type ScenarioConfig struct {
	Name       string           `mapstructure:"name"`
	Duration   float64          `mapstructure:"duration"`
	Seed       uint64           `mapstructure:"seed"`
	Bodies     []BodyConfig     `mapstructure:"bodies"`
	Joints     []JointConfig    `mapstructure:"joints"`
	Sensors    []SensorConfig   `mapstructure:"sensors"`
	Actuators  []ActuatorConfig `mapstructure:"actuators"`
	Integrator IntegratorConfig `mapstructure:"integrator"`
	OutputDir  string           `mapstructure:"output_dir"`
}

// Decode reads raw (already JSON-unmarshaled into a generic map) into a
// ScenarioConfig.
func Decode(raw map[string]interface{}) (ScenarioConfig, error) {
	var cfg ScenarioConfig
	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		Result:           &cfg,
		WeaklyTypedInput: true,
		ErrorUnused:      false,
	})
	if err != nil {
		return ScenarioConfig{}, nadirerr.NewIOError("config", "constructing decoder", err)
	}
	if err := decoder.Decode(raw); err != nil {
		return ScenarioConfig{}, nadirerr.NewIOError("config", "decoding scenario", err)
	}
	return cfg, nil
}

// Load reads and decodes a JSON scenario document from r.
func Load(r io.Reader) (ScenarioConfig, error) {
	var raw map[string]interface{}
	if err := json.NewDecoder(r).Decode(&raw); err != nil {
		return ScenarioConfig{}, nadirerr.NewIOError("config", "parsing scenario JSON", err)
	}
	cfg, err := Decode(raw)
	if err != nil {
		return ScenarioConfig{}, err
	}
	if cfg.Name == "" {
		return ScenarioConfig{}, nadirerr.NewIOError("config", "scenario is missing a name", nil)
	}
	return cfg, nil
}

// Validate performs structural checks Decode's permissive mapping cannot:
// every joint, sensor, and actuator must reference a declared body.
func (c ScenarioConfig) Validate() error {
	names := make(map[string]bool, len(c.Bodies))
	for _, b := range c.Bodies {
		names[b.Name] = true
	}
	for _, j := range c.Joints {
		if !names[j.InnerBody] {
			return nadirerr.NewTopologyError("config", fmt.Sprintf("joint %q references undeclared body %q", j.Name, j.InnerBody))
		}
		if !names[j.OuterBody] {
			return nadirerr.NewTopologyError("config", fmt.Sprintf("joint %q references undeclared body %q", j.Name, j.OuterBody))
		}
	}
	for _, s := range c.Sensors {
		if !names[s.Body] {
			return nadirerr.NewTopologyError("config", fmt.Sprintf("sensor %q references undeclared body %q", s.Name, s.Body))
		}
	}
	for _, a := range c.Actuators {
		if !names[a.Body] {
			return nadirerr.NewTopologyError("config", fmt.Sprintf("actuator %q references undeclared body %q", a.Name, a.Body))
		}
	}
	return nil
}
