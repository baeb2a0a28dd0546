// Package device models the closed roster of sensors and actuators a
// spacecraft body can carry: GPS, star tracker, rate gyro, and
// magnetometer sensors; reaction wheel, thruster, and magnetic torquer
// actuators. Each device type is dispatched through its own concrete type
// rather than an open plugin registry, mirroring the joint package's
// closed tagged union.
package device

import (
	"github.com/golang/geo/r3"
	"golang.org/x/exp/rand"

	"github.com/nadir-dynamics/nadir/rotation"
	"github.com/nadir-dynamics/nadir/spatial"
	"github.com/nadir-dynamics/nadir/uncertainty"
)

// BodyState is the kinematic state a device reads from or applies force to,
// expressed about the body's own origin in the body's own frame unless
// otherwise noted.
type BodyState struct {
	PositionInertial    r3.Vector // body origin, expressed in the inertial/reference frame
	VelocityInertial    r3.Vector
	AttitudeBodyFromRef rotation.Quaternion // orientation of the body frame in the reference frame
	AngularVelocityBody r3.Vector
	LocalMagneticField  r3.Vector // environment field at the body's position, expressed in the body frame
}

// Sensor is the closed set of sensor behaviors: given the current body
// state and a time, produce a measurement. Sensors may introduce
// measurement delay (a ring buffer of past states) and per-sensor noise.
type Sensor interface {
	Name() string
	// Measure advances the sensor's internal delay line with the current
	// state and returns the (possibly delayed, possibly noisy)
	// measurement and its column names for result logging.
	Measure(t float64, state BodyState, rng *rand.Rand) (values []float64, columns []string)
}

// Actuator is the closed set of actuator behaviors: given a commanded
// input and the current body state, produce the spatial force/torque it
// applies to the body. An actuator may also carry its own integrable
// state (a reaction wheel's spin rate, say) packed into and out of the
// flat system state vector through the same StateSize/ReadState/
// WriteState/WriteStateDerivative hooks the joint family uses; an
// actuator with no internal dynamics reports a StateSize of zero.
type Actuator interface {
	Name() string
	Apply(t float64, command []float64, state BodyState) spatial.ForceVector

	StateSize() int
	ReadState(s []float64)
	WriteState(s []float64)
	// WriteStateDerivative writes this actuator's state derivative, as
	// computed by the most recent Apply call, into out.
	WriteStateDerivative(out []float64)
}

// DelayLine is a fixed-capacity ring buffer of past (time, state) samples,
// used by sensors that model non-zero measurement latency. Push never
// allocates once the buffer reaches capacity.
type DelayLine struct {
	capacity int
	times    []float64
	states   []BodyState
	head     int
	count    int
}

// NewDelayLine returns a DelayLine that can hold up to capacity samples.
func NewDelayLine(capacity int) *DelayLine {
	if capacity < 1 {
		capacity = 1
	}
	return &DelayLine{capacity: capacity, times: make([]float64, capacity), states: make([]BodyState, capacity)}
}

// Push records a new sample, evicting the oldest if the buffer is full.
func (d *DelayLine) Push(t float64, s BodyState) {
	d.times[d.head] = t
	d.states[d.head] = s
	d.head = (d.head + 1) % d.capacity
	if d.count < d.capacity {
		d.count++
	}
}

// At returns the most recent sample at or before t-delay, or the oldest
// available sample if none is old enough yet.
func (d *DelayLine) At(t, delay float64) BodyState {
	target := t - delay
	best := d.newestIndex()
	if best < 0 {
		return BodyState{}
	}
	bestTime := d.times[best]
	for i := 0; i < d.count; i++ {
		idx := (d.head - 1 - i + d.capacity*2) % d.capacity
		if d.times[idx] <= target {
			return d.states[idx]
		}
		bestTime = d.times[idx]
		best = idx
	}
	_ = bestTime
	return d.states[best]
}

func (d *DelayLine) newestIndex() int {
	if d.count == 0 {
		return -1
	}
	return (d.head - 1 + d.capacity) % d.capacity
}

// sampleNoise draws ndim independent samples from the same
// uncertainty.Value, one per vector component, used by the sensor
// implementations below.
func sampleNoise(v uncertainty.Value, rng *rand.Rand, ndim int) ([]float64, error) {
	out := make([]float64, ndim)
	for i := range out {
		s, err := v.Sample(rng)
		if err != nil {
			return nil, err
		}
		out[i] = s
	}
	return out, nil
}
