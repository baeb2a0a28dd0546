package device

import (
	"testing"

	"github.com/golang/geo/r3"
	"golang.org/x/exp/rand"
	"go.viam.com/test"

	"github.com/nadir-dynamics/nadir/ode"
	"github.com/nadir-dynamics/nadir/rotation"
	"github.com/nadir-dynamics/nadir/uncertainty"
)

func TestDelayLineReturnsZeroStateWhenEmpty(t *testing.T) {
	d := NewDelayLine(4)
	state := d.At(10, 1)
	test.That(t, state.PositionInertial.X, test.ShouldEqual, 0.0)
}

func TestDelayLineReturnsDelayedSample(t *testing.T) {
	d := NewDelayLine(8)
	for i := 0; i < 5; i++ {
		d.Push(float64(i), BodyState{PositionInertial: r3.Vector{X: float64(i)}})
	}
	// At t=4 with a delay of 2, the closest sample at or before t=2 is i=2.
	s := d.At(4, 2)
	test.That(t, s.PositionInertial.X, test.ShouldEqual, 2.0)
}

func TestDelayLineEvictsOldestPastCapacity(t *testing.T) {
	d := NewDelayLine(2)
	d.Push(0, BodyState{PositionInertial: r3.Vector{X: 0}})
	d.Push(1, BodyState{PositionInertial: r3.Vector{X: 1}})
	d.Push(2, BodyState{PositionInertial: r3.Vector{X: 2}})
	// Sample at time 0 should no longer be available; the oldest retained
	// sample (time 1) is the best match for a request far in the past.
	s := d.At(0.5, 10)
	test.That(t, s.PositionInertial.X, test.ShouldEqual, 1.0)
}

func TestGPSMeasureReturnsSixColumns(t *testing.T) {
	gps := NewGPS("gps0", 0, uncertainty.Fixed(0), uncertainty.Fixed(0), 4)
	state := BodyState{PositionInertial: r3.Vector{X: 1, Y: 2, Z: 3}, VelocityInertial: r3.Vector{X: 4, Y: 5, Z: 6}}
	rng := rand.New(rand.NewSource(1))
	values, columns := gps.Measure(0, state, rng)
	test.That(t, len(values), test.ShouldEqual, 6)
	test.That(t, len(columns), test.ShouldEqual, 6)
	test.That(t, values[0], test.ShouldEqual, 1.0)
}

func TestStarTrackerMeasureReturnsUnitQuaternion(t *testing.T) {
	st := NewStarTracker("st0", uncertainty.Fixed(0))
	state := BodyState{AttitudeBodyFromRef: rotation.Identity}
	rng := rand.New(rand.NewSource(1))
	values, _ := st.Measure(0, state, rng)
	normSq := values[0]*values[0] + values[1]*values[1] + values[2]*values[2] + values[3]*values[3]
	test.That(t, normSq > 0.99 && normSq < 1.01, test.ShouldBeTrue)
}

func TestRateGyroMeasureAppliesBias(t *testing.T) {
	gyro := NewRateGyro("gyro0", [3]float64{0.1, 0, 0}, uncertainty.Fixed(0))
	state := BodyState{AngularVelocityBody: r3.Vector{X: 1, Y: 0, Z: 0}}
	rng := rand.New(rand.NewSource(1))
	values, _ := gyro.Measure(0, state, rng)
	test.That(t, values[0], test.ShouldAlmostEqual, 1.1)
}

func TestMagnetometerMeasureReadsLocalField(t *testing.T) {
	mag := NewMagnetometer("mag0", uncertainty.Fixed(0))
	state := BodyState{LocalMagneticField: r3.Vector{X: 1, Y: 2, Z: 3}}
	rng := rand.New(rand.NewSource(1))
	values, _ := mag.Measure(0, state, rng)
	test.That(t, values[0], test.ShouldEqual, 1.0)
	test.That(t, values[2], test.ShouldEqual, 3.0)
}

func TestReactionWheelClampsToMaxTorque(t *testing.T) {
	w := NewReactionWheel("rw0", r3.Vector{X: 0, Y: 0, Z: 1}, 1.0, 0.01)
	f := w.Apply(0, []float64{5}, BodyState{})
	// Equal-and-opposite: the wheel spins up at +torque/inertia, the body
	// feels the reaction torque in the opposite sense.
	test.That(t, f.Moment().Z, test.ShouldEqual, -1.0)
}

func TestReactionWheelIntegratesSpinUpToTenRadPerSecond(t *testing.T) {
	w := NewReactionWheel("rw0", r3.Vector{X: 0, Y: 0, Z: 1}, 1.0, 0.01)
	state := make([]float64, w.StateSize())
	dy := make([]float64, w.StateSize())

	rk := ode.NewRungeKutta(ode.RK4, w.StateSize())
	const dt = 0.001
	t0 := 0.0
	for i := 0; i < 1000; i++ {
		w.ReadState(state)
		_, err := rk.Step(stateDerivativeModel{w: w, dy: dy}, t0, dt, state, state, 0, 0)
		test.That(t, err, test.ShouldBeNil)
		t0 += dt
	}
	w.ReadState(state)
	test.That(t, w.Velocity(), test.ShouldAlmostEqual, 10.0)
	test.That(t, w.Momentum(), test.ShouldAlmostEqual, 0.1)
}

// stateDerivativeModel adapts a ReactionWheel's Apply/WriteStateDerivative
// pair to ode.RungeKutta's Model interface for the spin-up test above.
type stateDerivativeModel struct {
	w  *ReactionWheel
	dy []float64
}

func (m stateDerivativeModel) StateSize() int { return m.w.StateSize() }

func (m stateDerivativeModel) Derivative(t float64, y []float64, dy []float64) error {
	m.w.ReadState(y)
	m.w.Apply(t, []float64{0.1}, BodyState{})
	m.w.WriteStateDerivative(dy)
	return nil
}

func TestThrusterClampsNegativeToZero(t *testing.T) {
	th := NewThruster("th0", r3.Vector{X: 1, Y: 0, Z: 0}, r3.Vector{}, 10)
	f := th.Apply(0, []float64{-5}, BodyState{})
	test.That(t, f.Force().X, test.ShouldEqual, 0.0)
}

func TestMagneticTorquerTorqueIsPerpendicular(t *testing.T) {
	mt := NewMagneticTorquer("mt0", 5)
	state := BodyState{LocalMagneticField: r3.Vector{X: 0, Y: 0, Z: 1}}
	f := mt.Apply(0, []float64{1, 0, 0}, state)
	// m=(1,0,0), B=(0,0,1): m x B = (0*1-0*0, 0*0-1*1, 0) = (0,-1,0)
	test.That(t, f.Moment().Y, test.ShouldEqual, -1.0)
}
