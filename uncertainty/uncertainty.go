// Package uncertainty implements the builder -> sample -> concrete-object
// pattern used to turn a scenario's uncertain parameters into a Monte Carlo
// run's concrete values: each UncertainValue carries a nominal value and an
// optional dispersion, and Sample draws a concrete value from a
// caller-supplied random source.
package uncertainty

import (
	"hash/fnv"

	"golang.org/x/exp/rand"
	"gonum.org/v1/gonum/stat/distuv"

	"github.com/nadir-dynamics/nadir/nadirerr"
)

// Dispersion is the closed set of supported uncertainty models.
type Dispersion interface {
	sample(nominal float64, rng *rand.Rand) float64
	validate() error
}

// None means the parameter has no uncertainty: Sample always returns the
// nominal value.
type None struct{}

func (None) sample(nominal float64, rng *rand.Rand) float64 { return nominal }
func (None) validate() error                                { return nil }

// Normal disperses the nominal value by a zero-mean Gaussian with the
// given standard deviation.
type Normal struct {
	StdDev float64
}

func (n Normal) sample(nominal float64, rng *rand.Rand) float64 {
	d := distuv.Normal{Mu: nominal, Sigma: n.StdDev, Src: rng}
	return d.Rand()
}

func (n Normal) validate() error {
	if n.StdDev < 0 {
		return nadirerr.NewSamplingError("uncertainty", "normal dispersion standard deviation must be non-negative")
	}
	return nil
}

// Uniform disperses the nominal value by adding a draw from
// Uniform(-HalfWidth, +HalfWidth).
type Uniform struct {
	HalfWidth float64
}

func (u Uniform) sample(nominal float64, rng *rand.Rand) float64 {
	d := distuv.Uniform{Min: nominal - u.HalfWidth, Max: nominal + u.HalfWidth, Src: rng}
	return d.Rand()
}

func (u Uniform) validate() error {
	if u.HalfWidth < 0 {
		return nadirerr.NewSamplingError("uncertainty", "uniform dispersion half-width must be non-negative")
	}
	return nil
}

// Value is an uncertain scalar parameter: a nominal value and how it may
// be dispersed across Monte Carlo runs.
type Value struct {
	Nominal    float64
	Dispersion Dispersion
}

// Fixed returns a Value with no dispersion.
func Fixed(nominal float64) Value {
	return Value{Nominal: nominal, Dispersion: None{}}
}

// Sample draws a concrete value for this run. rng must already be seeded
// per the caller's run/sensor seeding policy; Sample performs no seeding
// of its own.
func (v Value) Sample(rng *rand.Rand) (float64, error) {
	disp := v.Dispersion
	if disp == nil {
		disp = None{}
	}
	if err := disp.validate(); err != nil {
		return 0, err
	}
	return disp.sample(v.Nominal, rng), nil
}

// NewRunRNG returns a random source deterministically seeded from a parent
// seed and the run index, so that run N of a Monte Carlo sweep always
// produces the same samples regardless of how many runs preceded it.
func NewRunRNG(parentSeed uint64, runIndex int) *rand.Rand {
	return rand.New(rand.NewSource(mix(parentSeed, uint64(runIndex))))
}

// NewSensorRNG returns a sub-stream of a run's RNG for a single named
// sensor, salted by the sensor's name so that perturbing one sensor's
// noise never shifts the sequence seen by any other sensor or actuator in
// the same run.
func NewSensorRNG(runSeed uint64, sensorName string) *rand.Rand {
	h := fnv.New64a()
	_, _ = h.Write([]byte(sensorName))
	return rand.New(rand.NewSource(mix(runSeed, h.Sum64())))
}

// mix combines two 64-bit values into a single seed using the splitmix64
// finalizer, giving well-distributed seeds from small, related inputs
// (parent seed + sequential run index, or run seed + a name hash).
func mix(a, b uint64) uint64 {
	x := a ^ (b + 0x9e3779b97f4a7c15 + (a << 6) + (a >> 2))
	x = (x ^ (x >> 30)) * 0xbf58476d1ce4e5b9
	x = (x ^ (x >> 27)) * 0x94d049bb133111eb
	return x ^ (x >> 31)
}
