package ode

import (
	"context"
	"math"
	"testing"

	"go.viam.com/test"
)

// exponentialDecay is dy/dt = -y, whose exact solution from y(0)=1 is
// y(t) = e^-t; used to check a fixed-step integrator converges to a known
// closed form.
type exponentialDecay struct{}

func (exponentialDecay) StateSize() int { return 1 }

func (exponentialDecay) Derivative(t float64, y, dy []float64) error {
	dy[0] = -y[0]
	return nil
}

func TestSolveFixedMatchesClosedForm(t *testing.T) {
	model := exponentialDecay{}
	y := []float64{1}
	err := SolveFixed(model, 0, 5, 0.001, y, nil)
	test.That(t, err, test.ShouldBeNil)
	test.That(t, math.Abs(y[0]-math.Exp(-5)) < 1e-6, test.ShouldBeTrue)
}

func TestSolveAdaptiveMatchesClosedForm(t *testing.T) {
	model := exponentialDecay{}
	y := []float64{1}
	control := NewPIDStepControl(1e-8, 1e-10)
	err := SolveAdaptive(model, DormandPrince45, control, 0, 5, 0.1, 1e-8, 1e-10, y, nil)
	test.That(t, err, test.ShouldBeNil)
	test.That(t, math.Abs(y[0]-math.Exp(-5)) < 1e-6, test.ShouldBeTrue)
}

// cancellableModel checks its context on every derivative evaluation and
// returns the context's error once it has been cancelled, mirroring the
// solver-cancellation pattern used to test the IK solver's responsiveness
// to context cancellation: a goroutine runs the solve, and the test
// asserts that the solve returns an error once cancelled.
type cancellableModel struct {
	ctx   context.Context
	calls int
}

func (m *cancellableModel) StateSize() int { return 1 }

func (m *cancellableModel) Derivative(t float64, y, dy []float64) error {
	m.calls++
	select {
	case <-m.ctx.Done():
		return m.ctx.Err()
	default:
	}
	dy[0] = -y[0]
	return nil
}

// lorenz is the classic chaotic three-variable system, used as the
// adaptive-stepping reference scenario: sigma=10, rho=28, beta=8/3.
type lorenz struct{}

func (lorenz) StateSize() int { return 3 }

func (lorenz) Derivative(t float64, y, dy []float64) error {
	const sigma, rho, beta = 10.0, 28.0, 8.0 / 3.0
	dy[0] = sigma * (y[1] - y[0])
	dy[1] = y[0]*(rho-y[2]) - y[1]
	dy[2] = y[0]*y[1] - beta*y[2]
	return nil
}

func TestSolveAdaptiveMatchesLorenzReferenceSolution(t *testing.T) {
	model := lorenz{}
	y := []float64{1, 0, 0}
	control := NewPIDStepControl(1e-9, 1e-6)
	err := SolveAdaptive(model, Tsitouras54, control, 0, 1, 0.01, 1e-9, 1e-6, y, nil)
	test.That(t, err, test.ShouldBeNil)

	expected := []float64{-9.40845, -9.09620, 28.58163}
	for i, want := range expected {
		test.That(t, math.Abs(y[i]-want) < 1e-4, test.ShouldBeTrue)
	}
}

func TestSolveFixedRespondsToCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	model := &cancellableModel{ctx: ctx}

	done := make(chan error, 1)
	go func() {
		y := []float64{1}
		done <- SolveFixed(model, 0, 1000, 0.01, y, nil)
	}()

	cancel()

	err := <-done
	test.That(t, err, test.ShouldNotBeNil)
}
