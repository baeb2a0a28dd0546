package ode

import (
	"math"

	"github.com/nadir-dynamics/nadir/nadirerr"
)

// Model is anything an ode.Solver can integrate: a flat state vector and a
// function from (t, y) to dy/dt. system.Simulation implements this.
type Model interface {
	StateSize() int
	Derivative(t float64, y []float64, dy []float64) error
}

// RungeKutta evaluates one step of a Butcher tableau against a Model,
// reusing preallocated stage buffers across every call so that Step itself
// never allocates (the Model's Derivative may).
type RungeKutta struct {
	Tableau ButcherTableau

	n      int
	stages [][]float64 // one derivative evaluation per stage
	ytmp   []float64
	yHigh  []float64
	yLow   []float64
}

// NewRungeKutta returns a RungeKutta stepper for the given tableau and
// state size.
func NewRungeKutta(tableau ButcherTableau, stateSize int) *RungeKutta {
	stages := make([][]float64, tableau.Stages())
	for i := range stages {
		stages[i] = make([]float64, stateSize)
	}
	return &RungeKutta{
		Tableau: tableau,
		n:       stateSize,
		stages:  stages,
		ytmp:    make([]float64, stateSize),
		yHigh:   make([]float64, stateSize),
		yLow:    make([]float64, stateSize),
	}
}

// Step advances y by dt starting at t, writing the result into yOut (which
// may alias y). If the tableau is embedded, it also returns a normalized
// RMS error estimate against relTol/absTol; otherwise the returned error
// estimate is always zero.
func (rk *RungeKutta) Step(model Model, t, dt float64, y []float64, yOut []float64, relTol, absTol float64) (float64, error) {
	tab := rk.Tableau
	for s := 0; s < tab.Stages(); s++ {
		copy(rk.ytmp, y)
		for j := 0; j < s; j++ {
			a := tab.A[s][j]
			if a == 0 {
				continue
			}
			for i := 0; i < rk.n; i++ {
				rk.ytmp[i] += dt * a * rk.stages[j][i]
			}
		}
		if err := model.Derivative(t+tab.C[s]*dt, rk.ytmp, rk.stages[s]); err != nil {
			return 0, err
		}
	}

	for i := 0; i < rk.n; i++ {
		var sum float64
		for s := 0; s < tab.Stages(); s++ {
			sum += tab.B[s] * rk.stages[s][i]
		}
		rk.yHigh[i] = y[i] + dt*sum
	}

	if !tab.Embedded() {
		copy(yOut, rk.yHigh)
		return 0, nil
	}

	for i := 0; i < rk.n; i++ {
		var sum float64
		for s := 0; s < tab.Stages(); s++ {
			sum += tab.BStar[s] * rk.stages[s][i]
		}
		rk.yLow[i] = y[i] + dt*sum
	}

	var sq float64
	for i := 0; i < rk.n; i++ {
		scale := absTol + relTol*math.Max(math.Abs(y[i]), math.Abs(rk.yHigh[i]))
		diff := (rk.yHigh[i] - rk.yLow[i]) / scale
		sq += diff * diff
	}
	errEst := math.Sqrt(sq / float64(rk.n))
	copy(yOut, rk.yHigh)
	return errEst, nil
}

// SolveFixed integrates model from t0 over [t0, t0+duration] using a
// constant step dt, calling onStep after every accepted step (used by the
// event manager to run periodic/continuous/save events). The final step is
// shrunk if it would overshoot the end time, mirroring the reference
// implementation's end-of-run dt adjustment.
func SolveFixed(model Model, t0, duration, dt float64, y []float64, onStep func(t float64, y []float64) error) error {
	if dt <= 0 {
		return nadirerr.NewNumericalError("ode", "fixed step size must be positive")
	}
	rk := NewRungeKutta(RK4, model.StateSize())
	tEnd := t0 + duration
	t := t0
	for t < tEnd-1e-12 {
		step := dt
		if t+step > tEnd {
			step = tEnd - t
		}
		if _, err := rk.Step(model, t, step, y, y, 0, 0); err != nil {
			return err
		}
		t += step
		if onStep != nil {
			if err := onStep(t, y); err != nil {
				return err
			}
		}
	}
	return nil
}

// SolveAdaptive integrates model from t0 over [t0, t0+duration], adjusting
// dt after every step via control. It rejects and retries a step whose
// normalized error exceeds 1.
func SolveAdaptive(model Model, tableau ButcherTableau, control StepControl, t0, duration, dt, relTol, absTol float64, y []float64, onStep func(t float64, y []float64) error) error {
	if !tableau.Embedded() {
		return nadirerr.NewNumericalError("ode", "adaptive stepping requires an embedded tableau")
	}
	rk := NewRungeKutta(tableau, model.StateSize())
	tEnd := t0 + duration
	t := t0
	yTrial := make([]float64, len(y))
	for t < tEnd-1e-12 {
		step := dt
		if t+step > tEnd {
			step = tEnd - t
		}
		errEst, err := rk.Step(model, t, step, y, yTrial, relTol, absTol)
		if err != nil {
			return err
		}
		next := control.Next(step, errEst, tableau.Order)
		if errEst > 1.0 {
			dt = next
			continue
		}
		copy(y, yTrial)
		t += step
		dt = next
		if onStep != nil {
			if err := onStep(t, y); err != nil {
				return err
			}
		}
	}
	return nil
}
