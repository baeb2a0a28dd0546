package device

import (
	"github.com/google/uuid"
	"golang.org/x/exp/rand"

	"github.com/nadir-dynamics/nadir/uncertainty"
)

// GPS measures the body's inertial position and velocity, with
// configurable measurement delay and per-axis noise.
type GPS struct {
	// ID is a stable identifier independent of SensorName, surviving a
	// rename across a scenario reload.
	ID            uuid.UUID
	SensorName    string
	Delay         float64
	PositionNoise uncertainty.Value
	VelocityNoise uncertainty.Value

	delayLine *DelayLine
}

// NewGPS returns a GPS sensor with the given delay-line capacity.
func NewGPS(name string, delay float64, positionNoise, velocityNoise uncertainty.Value, bufferDepth int) *GPS {
	return &GPS{ID: uuid.New(), SensorName: name, Delay: delay, PositionNoise: positionNoise, VelocityNoise: velocityNoise, delayLine: NewDelayLine(bufferDepth)}
}

func (g *GPS) Name() string { return g.SensorName }

func (g *GPS) Measure(t float64, state BodyState, rng *rand.Rand) ([]float64, []string) {
	g.delayLine.Push(t, state)
	s := g.delayLine.At(t, g.Delay)
	posNoise, _ := sampleNoise(g.PositionNoise, rng, 3)
	velNoise, _ := sampleNoise(g.VelocityNoise, rng, 3)
	return []float64{
			s.PositionInertial.X + posNoise[0], s.PositionInertial.Y + posNoise[1], s.PositionInertial.Z + posNoise[2],
			s.VelocityInertial.X + velNoise[0], s.VelocityInertial.Y + velNoise[1], s.VelocityInertial.Z + velNoise[2],
		}, []string{"pos_x", "pos_y", "pos_z", "vel_x", "vel_y", "vel_z"}
}

// StarTracker measures the body's attitude as a quaternion, with additive
// Gaussian noise on its vector part (an adequate approximation for the
// small angles a star tracker's noise actually produces, then
// renormalized).
type StarTracker struct {
	ID         uuid.UUID
	SensorName string
	Noise      uncertainty.Value
}

// NewStarTracker returns a StarTracker sensor.
func NewStarTracker(name string, noise uncertainty.Value) *StarTracker {
	return &StarTracker{ID: uuid.New(), SensorName: name, Noise: noise}
}

func (s *StarTracker) Name() string { return s.SensorName }

func (s *StarTracker) Measure(t float64, state BodyState, rng *rand.Rand) ([]float64, []string) {
	noise, _ := sampleNoise(s.Noise, rng, 3)
	q := state.AttitudeBodyFromRef
	noisy := q
	noisy.X += noise[0]
	noisy.Y += noise[1]
	noisy.Z += noise[2]
	noisy = noisy.Normalize()
	return []float64{noisy.X, noisy.Y, noisy.Z, noisy.W}, []string{"q_x", "q_y", "q_z", "q_w"}
}

// RateGyro measures body-frame angular velocity directly, with additive
// noise and a fixed bias.
type RateGyro struct {
	ID         uuid.UUID
	SensorName string
	Bias       [3]float64
	Noise      uncertainty.Value
}

// NewRateGyro returns a RateGyro sensor.
func NewRateGyro(name string, bias [3]float64, noise uncertainty.Value) *RateGyro {
	return &RateGyro{ID: uuid.New(), SensorName: name, Bias: bias, Noise: noise}
}

func (r *RateGyro) Name() string { return r.SensorName }

func (r *RateGyro) Measure(t float64, state BodyState, rng *rand.Rand) ([]float64, []string) {
	noise, _ := sampleNoise(r.Noise, rng, 3)
	return []float64{
		state.AngularVelocityBody.X + r.Bias[0] + noise[0],
		state.AngularVelocityBody.Y + r.Bias[1] + noise[1],
		state.AngularVelocityBody.Z + r.Bias[2] + noise[2],
	}, []string{"omega_x", "omega_y", "omega_z"}
}

// Magnetometer measures the local magnetic field vector (as computed by an
// environment.MagneticFieldModel and carried on BodyState), with additive
// noise.
type Magnetometer struct {
	ID         uuid.UUID
	SensorName string
	Noise      uncertainty.Value
}

// NewMagnetometer returns a Magnetometer sensor.
func NewMagnetometer(name string, noise uncertainty.Value) *Magnetometer {
	return &Magnetometer{ID: uuid.New(), SensorName: name, Noise: noise}
}

func (m *Magnetometer) Name() string { return m.SensorName }

func (m *Magnetometer) Measure(t float64, state BodyState, rng *rand.Rand) ([]float64, []string) {
	noise, _ := sampleNoise(m.Noise, rng, 3)
	f := state.LocalMagneticField
	return []float64{f.X + noise[0], f.Y + noise[1], f.Z + noise[2]}, []string{"b_x", "b_y", "b_z"}
}
