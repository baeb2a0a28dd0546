package system

import (
	"math"
	"os"
	"path/filepath"
	"testing"

	"github.com/golang/geo/r3"
	"golang.org/x/exp/rand"
	"go.viam.com/test"

	"github.com/nadir-dynamics/nadir/body"
	"github.com/nadir-dynamics/nadir/device"
	"github.com/nadir-dynamics/nadir/environment"
	"github.com/nadir-dynamics/nadir/joint"
	"github.com/nadir-dynamics/nadir/logging"
	"github.com/nadir-dynamics/nadir/massprops"
	"github.com/nadir-dynamics/nadir/results"
	"github.com/nadir-dynamics/nadir/rotation"
	"github.com/nadir-dynamics/nadir/spatial"
	"github.com/nadir-dynamics/nadir/uncertainty"
)

func TestSimulationWritesSensorMeasurementsOnEveryStep(t *testing.T) {
	sys, _ := buildSingleRevoluteSystem(t, 1.0)
	sim := NewSimulation(logging.NewTestLogger(t), sys, rand.New(rand.NewSource(1)))

	dir := t.TempDir()
	sim.Results = results.NewManager(dir)

	gyro := device.NewRateGyro("gyro0", [3]float64{0, 0, 0}, uncertainty.Fixed(0))
	sim.AddSensor(gyro, 1)

	state := make([]float64, sys.StateSize())
	sys.ReadState(state)

	test.That(t, sim.Events.OnStep(0, state), test.ShouldBeNil)
	test.That(t, sim.Events.OnStep(0.1, state), test.ShouldBeNil)
	test.That(t, sim.Results.Close(), test.ShouldBeNil)

	data, err := os.ReadFile(filepath.Join(dir, "gyro0.csv"))
	test.That(t, err, test.ShouldBeNil)
	test.That(t, len(data) > 0, test.ShouldBeTrue)
}

func TestSimulationAppliesActuatorForceDuringDerivative(t *testing.T) {
	sys, _ := buildSingleRevoluteSystem(t, 1.0)
	sim := NewSimulation(logging.NewTestLogger(t), sys, rand.New(rand.NewSource(1)))
	sim.Results = results.NewManager(t.TempDir())

	torqueAxis := r3.Vector{Z: 1}
	wheel := device.NewReactionWheel("wheel0", torqueAxis, 10, 0.01)
	sim.AddActuator(wheel, 1, func(t float64, state device.BodyState) []float64 {
		return []float64{3.0}
	})

	state := make([]float64, sim.StateSize())
	dy := make([]float64, sim.StateSize())
	err := sim.Derivative(0, state, dy)
	test.That(t, err, test.ShouldBeNil)
	test.That(t, dy[1] != 0, test.ShouldBeTrue)
}

// TestPureSpinConservesAngularVelocityAndAdvancesQuaternion is the
// free-flying-spacecraft scenario: a spherically symmetric body spinning
// about one axis with no external force should hold that angular velocity
// exactly (the gyroscopic cross term vanishes for isotropic inertia) while
// its attitude advances by a pure rotation about the spin axis.
func TestPureSpinConservesAngularVelocityAndAdvancesQuaternion(t *testing.T) {
	base := mustBody(t, "base", massprops.Inertia{Ixx: 1, Iyy: 1, Izz: 1})
	props, err := massprops.New(1, r3.Vector{}, massprops.Inertia{Ixx: 10, Iyy: 10, Izz: 10})
	test.That(t, err, test.ShouldBeNil)
	satellite := body.New("satellite", props)

	j0, err := joint.New("floating", joint.NewFloating(), 0, 1, nil, joint.ZeroParameters(6))
	test.That(t, err, test.ShouldBeNil)

	sys, err := New("pure-spin", logging.NewTestLogger(t), []*body.Body{base, satellite}, []*joint.Joint{j0})
	test.That(t, err, test.ShouldBeNil)

	sim := NewSimulation(logging.NewTestLogger(t), sys, rand.New(rand.NewSource(1)))
	sim.Results = results.NewManager(t.TempDir())

	y := make([]float64, sys.StateSize())
	y[3] = 1   // identity quaternion (qx, qy, qz, qw)
	y[9] = 0.1 // omega_z, rad/s

	test.That(t, sim.RunFixed(100, 0.1, y), test.ShouldBeNil)

	test.That(t, math.Abs(y[7]) < 1e-12, test.ShouldBeTrue)
	test.That(t, math.Abs(y[8]) < 1e-12, test.ShouldBeTrue)
	test.That(t, math.Abs(y[9]-0.1) < 1e-12, test.ShouldBeTrue)

	expected := rotation.AxisAngle{X: 0, Y: 0, Z: 1, Theta: 10}.Quaternion()
	test.That(t, math.Abs(y[0]-expected.X) < 1e-8, test.ShouldBeTrue)
	test.That(t, math.Abs(y[1]-expected.Y) < 1e-8, test.ShouldBeTrue)
	test.That(t, math.Abs(y[2]-expected.Z) < 1e-8, test.ShouldBeTrue)
	test.That(t, math.Abs(y[3]-expected.W) < 1e-8, test.ShouldBeTrue)
}

// TestFloatingJointABAMatchesNewtonEuler checks the ABA recursion against
// the closed-form free-body (Newton-Euler) acceleration for a single
// floating joint: a_lin = f/m, a_ang = I^-1(tau - omega x I*omega).
func TestFloatingJointABAMatchesNewtonEuler(t *testing.T) {
	base := mustBody(t, "base", massprops.Inertia{Ixx: 1, Iyy: 1, Izz: 1})
	props, err := massprops.New(5, r3.Vector{}, massprops.Inertia{Ixx: 2, Iyy: 3, Izz: 4})
	test.That(t, err, test.ShouldBeNil)
	satellite := body.New("satellite", props)

	j0, err := joint.New("floating", joint.NewFloating(), 0, 1, nil, joint.ZeroParameters(6))
	test.That(t, err, test.ShouldBeNil)

	sys, err := New("single-floating", logging.NewTestLogger(t), []*body.Body{base, satellite}, []*joint.Joint{j0})
	test.That(t, err, test.ShouldBeNil)

	y := make([]float64, sys.StateSize())
	y[3] = 1
	y[7], y[8], y[9] = 0.1, 0.2, 0.3
	sys.ReadState(y)

	tau := r3.Vector{X: 1, Y: 2, Z: 3}
	force := r3.Vector{X: 4, Y: 5, Z: 6}
	satellite.ApplyForce(spatial.NewForceVector(tau, force))

	test.That(t, sys.Derivative(spatial.MotionVector{}), test.ShouldBeNil)

	expectedLin := force.Mul(1.0 / 5.0)
	omega := r3.Vector{X: 0.1, Y: 0.2, Z: 0.3}
	iOmega := r3.Vector{X: 2 * omega.X, Y: 3 * omega.Y, Z: 4 * omega.Z}
	cross := omega.Cross(iOmega)
	expectedAng := r3.Vector{
		X: (tau.X - cross.X) / 2,
		Y: (tau.Y - cross.Y) / 3,
		Z: (tau.Z - cross.Z) / 4,
	}

	qdd := j0.Cache.Qdd
	test.That(t, math.Abs(qdd[0]-expectedAng.X) < 1e-9, test.ShouldBeTrue)
	test.That(t, math.Abs(qdd[1]-expectedAng.Y) < 1e-9, test.ShouldBeTrue)
	test.That(t, math.Abs(qdd[2]-expectedAng.Z) < 1e-9, test.ShouldBeTrue)
	test.That(t, math.Abs(qdd[3]-expectedLin.X) < 1e-9, test.ShouldBeTrue)
	test.That(t, math.Abs(qdd[4]-expectedLin.Y) < 1e-9, test.ShouldBeTrue)
	test.That(t, math.Abs(qdd[5]-expectedLin.Z) < 1e-9, test.ShouldBeTrue)
}

// totalEnergy sums kinetic (from each joint's current spatial velocity
// against its outer body's own, unarticulated spatial inertia) and
// gravitational potential energy (mass * g * height in the base frame)
// across every body in sys, given the flat state vector y. It refreshes
// transforms and the ABA's velocity pass as a side effect.
func totalEnergy(sys *System, y []float64, g float64) float64 {
	sys.ReadState(y)
	_ = sys.Derivative(spatial.MotionVector{})
	var energy float64
	for _, j := range sys.Joints {
		outer := sys.Bodies[j.OuterBodyIndex]
		inertia := outer.SpatialInertia()
		v := j.Cache.V
		ke := 0.5 * v.Dot(inertia.MulVec(v))
		height := j.Transforms.OBFromBase.Translation.Z
		pe := outer.Properties.Mass * g * height
		energy += ke + pe
	}
	return energy
}

// TestDoublePendulumConservesEnergy is the gravity-gradient-free double
// pendulum scenario: two revolute-jointed rods under constant gravity with
// zero damping should hold total mechanical energy nearly constant over a
// long RK4 integration.
func TestDoublePendulumConservesEnergy(t *testing.T) {
	base := mustBody(t, "base", massprops.Inertia{Ixx: 1, Iyy: 1, Izz: 1})
	com := r3.Vector{Z: -0.5}
	linkInertia := massprops.Inertia{Ixx: 0.0833, Iyy: 0.0833, Izz: 0.0833}
	props1, err := massprops.New(1, com, linkInertia)
	test.That(t, err, test.ShouldBeNil)
	props2, err := massprops.New(1, com, linkInertia)
	test.That(t, err, test.ShouldBeNil)
	link1 := body.New("link1", props1)
	link2 := body.New("link2", props2)

	axis := r3.Vector{Y: 1}
	j0, err := joint.New("hinge0", joint.NewRevolute(axis), 0, 1, nil, joint.ZeroParameters(1))
	test.That(t, err, test.ShouldBeNil)
	parentIdx := 0
	j1, err := joint.New("hinge1", joint.NewRevolute(axis), 1, 2, &parentIdx, joint.ZeroParameters(1))
	test.That(t, err, test.ShouldBeNil)

	sys, err := New("double-pendulum", logging.NewTestLogger(t), []*body.Body{base, link1, link2}, []*joint.Joint{j0, j1})
	test.That(t, err, test.ShouldBeNil)

	sim := NewSimulation(logging.NewTestLogger(t), sys, rand.New(rand.NewSource(1)))
	sim.Gravity = environment.NewConstantGravity(r3.Vector{Z: -9.8})
	sim.Results = results.NewManager(t.TempDir())

	y := make([]float64, sys.StateSize())
	y[0] = 1.0
	y[2] = 0.1

	initial := totalEnergy(sys, y, 9.8)

	test.That(t, sim.RunFixed(20, 0.01, y), test.ShouldBeNil)

	final := totalEnergy(sys, y, 9.8)
	drift := math.Abs(final-initial) / math.Abs(initial)
	test.That(t, drift < 0.001, test.ShouldBeTrue)
}
