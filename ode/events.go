package ode

import (
	"math"

	"github.com/nadir-dynamics/nadir/nadirerr"
)

const periodicTieTolerance = 1e-12

// PeriodicEvent fires at a fixed cadence; Action is called with the
// simulation time and state every time Period has elapsed since the
// previous firing.
type PeriodicEvent struct {
	Period   float64
	nextTime float64
	Action   func(t float64, y []float64) error
}

// NewPeriodicEvent returns a PeriodicEvent scheduled to first fire at
// startTime.
func NewPeriodicEvent(period, startTime float64, action func(t float64, y []float64) error) *PeriodicEvent {
	return &PeriodicEvent{Period: period, nextTime: startTime, Action: action}
}

// ContinuousEvent watches a scalar condition function for a sign change
// and, when one is found, bisects to locate the root within Tolerance
// before invoking Action.
type ContinuousEvent struct {
	Condition func(t float64, y []float64) float64
	Action    func(t float64, y []float64) error
	Tolerance float64

	lastValue float64
	lastTime  float64
	firstPass bool
}

// NewContinuousEvent returns a ContinuousEvent with the given root
// tolerance.
func NewContinuousEvent(condition func(t float64, y []float64) float64, action func(t float64, y []float64) error, tolerance float64) *ContinuousEvent {
	return &ContinuousEvent{Condition: condition, Action: action, Tolerance: tolerance, firstPass: true}
}

// SaveEvent streams simulation state to a sink, invoking InitFn once
// (lazily, on first use) before any Save call.
type SaveEvent struct {
	EveryStep bool
	Period    float64 // used when EveryStep is false and Period > 0

	initDone bool
	InitFn   func() error
	SaveFn   func(t float64, y []float64) error

	nextTime float64
}

// PreSimEvent runs once before integration begins.
type PreSimEvent func() error

// PostSimEvent runs once after integration ends, even if integration
// returned an error, so result writers can still flush partial output.
type PostSimEvent func() error

// Manager owns every event registered against a simulation run and decides,
// at each accepted integration step, which of them must fire.
type Manager struct {
	Periodic   []*PeriodicEvent
	Continuous []*ContinuousEvent
	Save       []*SaveEvent
	PreSim     []PreSimEvent
	PostSim    []PostSimEvent
}

// NewManager returns an empty event manager.
func NewManager() *Manager { return &Manager{} }

// RunPreSim runs every registered pre-simulation hook in registration
// order, stopping at the first error.
func (m *Manager) RunPreSim() error {
	for _, f := range m.PreSim {
		if err := f(); err != nil {
			return nadirerr.NewUserHookError("ode.events", "pre-simulation hook failed", err)
		}
	}
	return nil
}

// RunPostSim runs every registered post-simulation hook, collecting (not
// stopping on) individual failures so result writers still get a chance to
// flush; it returns the first error encountered, if any.
func (m *Manager) RunPostSim() error {
	var first error
	for _, f := range m.PostSim {
		if err := f(); err != nil && first == nil {
			first = nadirerr.NewUserHookError("ode.events", "post-simulation hook failed", err)
		}
	}
	return first
}

// nextPeriodicIndex finds the periodic event with the earliest nextTime,
// breaking ties by registration order (the original ordering contract:
// two periodic events due within periodicTieTolerance of each other fire
// in the order they were registered).
func (m *Manager) nextPeriodicIndex() (int, float64, bool) {
	best := -1
	var bestTime float64
	for i, p := range m.Periodic {
		if best == -1 || p.nextTime < bestTime-periodicTieTolerance {
			best = i
			bestTime = p.nextTime
		}
	}
	if best == -1 {
		return -1, 0, false
	}
	return best, bestTime, true
}

// OnStep is called after every accepted integration step with the time and
// state reached. It drives periodic events whose time has come, checks
// continuous event conditions for a sign change, and streams state to
// every save event configured to fire on every step.
func (m *Manager) OnStep(t float64, y []float64) error {
	for {
		idx, due, ok := m.nextPeriodicIndex()
		if !ok || due > t+periodicTieTolerance {
			break
		}
		p := m.Periodic[idx]
		if err := p.Action(t, y); err != nil {
			return nadirerr.NewUserHookError("ode.events", "periodic event action failed", err)
		}
		p.nextTime += p.Period
	}

	for _, c := range m.Continuous {
		value := c.Condition(t, y)
		if c.firstPass {
			c.lastValue, c.lastTime, c.firstPass = value, t, false
			continue
		}
		if sameSign(c.lastValue, value) {
			c.lastValue, c.lastTime = value, t
			continue
		}
		// Sign change detected between lastTime and t; bisect on the
		// condition function to locate the root within Tolerance. The
		// state passed to Condition during bisection is y at the end of
		// the bracketing step, not a re-integrated state at the bisected
		// time — acceptable given how small a single accepted step is
		// relative to the dynamics' timescale, but not an exact root of
		// the true trajectory.
		root, _, err := bisect(c, c.lastTime, t, c.lastValue, value, y)
		if err != nil {
			return err
		}
		if err := c.Action(root, y); err != nil {
			return nadirerr.NewUserHookError("ode.events", "continuous event action failed", err)
		}
		c.lastValue, c.lastTime = value, t
	}

	for _, s := range m.Save {
		switch {
		case s.EveryStep:
			if err := m.fireSave(s, t, y); err != nil {
				return err
			}
		case s.Period > 0:
			for s.nextTime <= t+periodicTieTolerance {
				if err := m.fireSave(s, t, y); err != nil {
					return err
				}
				s.nextTime += s.Period
			}
		}
	}
	return nil
}

func (m *Manager) fireSave(s *SaveEvent, t float64, y []float64) error {
	if !s.initDone {
		if s.InitFn != nil {
			if err := s.InitFn(); err != nil {
				return nadirerr.NewIOError("ode.events", "save event init failed", err)
			}
		}
		s.initDone = true
	}
	if err := s.SaveFn(t, y); err != nil {
		return nadirerr.NewIOError("ode.events", "save event write failed", err)
	}
	return nil
}

func sameSign(a, b float64) bool {
	return (a >= 0) == (b >= 0)
}

// bisect locates a root of c.Condition within [lo, hi] using bisection,
// since the condition is not generally differentiable.
func bisect(c *ContinuousEvent, lo, hi, loVal, hiVal float64, y []float64) (float64, float64, error) {
	const maxIter = 100
	for i := 0; i < maxIter; i++ {
		if hi-lo < c.Tolerance {
			break
		}
		mid := (lo + hi) / 2
		midVal := c.Condition(mid, y)
		if sameSign(loVal, midVal) {
			lo, loVal = mid, midVal
		} else {
			hi, hiVal = mid, midVal
		}
	}
	if math.IsNaN(loVal) || math.IsNaN(hiVal) {
		return 0, 0, nadirerr.NewNumericalError("ode.events", "continuous event condition returned NaN during bisection")
	}
	root := (lo + hi) / 2
	return root, c.Condition(root, y), nil
}
