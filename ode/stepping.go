package ode

import "math"

// StepControl chooses the next time step given the previous step and, for
// adaptive strategies, an error estimate from an embedded pair.
type StepControl interface {
	// Next returns the step size to use for the following step. For a
	// fixed strategy it ignores its arguments; for an adaptive strategy
	// it uses the normalized error and the tableau order.
	Next(dt, normalizedError float64, order int) float64
}

// FixedStepControl always returns the same step size.
type FixedStepControl struct {
	DT float64
}

// Next implements StepControl.
func (f FixedStepControl) Next(dt, normalizedError float64, order int) float64 { return f.DT }

// BasicAdaptiveStepControl is the simple embedded-error step controller:
// dt_new = 0.9 * dt * (1/error)^(1/(order-1)).
type BasicAdaptiveStepControl struct {
	RelTol, AbsTol float64
	MinDT, MaxDT   float64 // zero means unbounded
}

// Next implements StepControl.
func (b BasicAdaptiveStepControl) Next(dt, normalizedError float64, order int) float64 {
	e := math.Max(normalizedError, 1e-14)
	next := 0.9 * dt * math.Pow(1.0/e, 1.0/float64(order-1))
	return clampDT(next, b.MinDT, b.MaxDT)
}

// PIDStepControl is the PID step size controller:
//
//	factor = e_n^kp * (e_n/e_{n-1})^kd * (e_{n-1}/e_{n-2})^ki
//
// clamped to [MinGrowth, MaxGrowth] before being applied to dt, and the
// resulting step clamped to [MinDT, MaxDT]. Default gains match the
// reference implementation: Kp=0.6, Ki=0.01, Kd=0.175, MinGrowth=0.1,
// MaxGrowth=5.0.
type PIDStepControl struct {
	RelTol, AbsTol       float64
	Kp, Ki, Kd           float64
	MinDT, MaxDT         float64
	MinGrowth, MaxGrowth float64

	errNow, errPrev, errPrevPrev float64
}

// NewPIDStepControl returns a PIDStepControl with the default gains and
// growth limits, and tolerances set to rel/abs.
func NewPIDStepControl(relTol, absTol float64) *PIDStepControl {
	return &PIDStepControl{
		RelTol: relTol, AbsTol: absTol,
		Kp: 0.6, Ki: 0.01, Kd: 0.175,
		MinGrowth: 0.1, MaxGrowth: 5.0,
		errNow: 1, errPrev: 1, errPrevPrev: 1,
	}
}

const pidEpsilon = 1e-14

// Next implements StepControl.
func (p *PIDStepControl) Next(dt, normalizedError float64, order int) float64 {
	p.errPrevPrev = p.errPrev
	p.errPrev = p.errNow
	p.errNow = normalizedError

	e0 := math.Max(p.errNow, pidEpsilon)
	e1 := math.Max(p.errPrev, pidEpsilon)
	e2 := math.Max(p.errPrevPrev, pidEpsilon)

	factor := math.Pow(e0, p.Kp) * math.Pow(e0/e1, p.Kd) * math.Pow(e1/e2, p.Ki)
	if p.MaxGrowth > 0 {
		factor = math.Min(factor, p.MaxGrowth)
	}
	if p.MinGrowth > 0 {
		factor = math.Max(factor, p.MinGrowth)
	}
	return clampDT(dt*factor, p.MinDT, p.MaxDT)
}

func clampDT(dt, min, max float64) float64 {
	if min > 0 && dt < min {
		dt = min
	}
	if max > 0 && dt > max {
		dt = max
	}
	return dt
}
