// Package ode implements a generic explicit Runge-Kutta integration
// framework driven by Butcher tableaus, fixed and adaptive step control
// (a basic embedded-error controller and a PID controller), and an event
// manager for periodic, continuous, save, pre-simulation, and
// post-simulation callbacks.
package ode

// ButcherTableau describes an explicit Runge-Kutta method: its stage
// coefficients (A, lower-triangular), node offsets (C), weights (B), and,
// for embedded methods, a second weight row (BStar) used to form an error
// estimate against the primary solution.
type ButcherTableau struct {
	Name string
	// Order is the order of the primary solution, used by the basic
	// adaptive step controller's exponent 1/(order-1).
	Order int
	A     [][]float64
	B     []float64
	BStar []float64 // nil for non-embedded methods
	C     []float64
}

// Stages returns the number of stages in the tableau.
func (t ButcherTableau) Stages() int { return len(t.C) }

// Embedded reports whether the tableau carries a second weight row for
// embedded error estimation.
func (t ButcherTableau) Embedded() bool { return t.BStar != nil }

// RK4 is the classical fixed-step fourth order Runge-Kutta method.
var RK4 = ButcherTableau{
	Name:  "rk4",
	Order: 4,
	C:     []float64{0, 0.5, 0.5, 1},
	A: [][]float64{
		{},
		{0.5},
		{0, 0.5},
		{0, 0, 1},
	},
	B: []float64{1.0 / 6, 1.0 / 3, 1.0 / 3, 1.0 / 6},
}

// DormandPrince45 is the Dormand-Prince embedded 4(5) pair.
var DormandPrince45 = ButcherTableau{
	Name:  "dopri45",
	Order: 5,
	C:     []float64{0, 1.0 / 5, 3.0 / 10, 4.0 / 5, 8.0 / 9, 1, 1},
	A: [][]float64{
		{},
		{1.0 / 5},
		{3.0 / 40, 9.0 / 40},
		{44.0 / 45, -56.0 / 15, 32.0 / 9},
		{19372.0 / 6561, -25360.0 / 2187, 64448.0 / 6561, -212.0 / 729},
		{9017.0 / 3168, -355.0 / 33, 46732.0 / 5247, 49.0 / 176, -5103.0 / 18656},
		{35.0 / 384, 0, 500.0 / 1113, 125.0 / 192, -2187.0 / 6784, 11.0 / 84},
	},
	B:     []float64{35.0 / 384, 0, 500.0 / 1113, 125.0 / 192, -2187.0 / 6784, 11.0 / 84, 0},
	BStar: []float64{5179.0 / 57600, 0, 7571.0 / 16695, 393.0 / 640, -92097.0 / 339200, 187.0 / 2100, 1.0 / 40},
}

// Tsitouras54 is the Tsitouras embedded 5(4) pair, a lower-overhead
// alternative to Dormand-Prince at the same order.
var Tsitouras54 = ButcherTableau{
	Name:  "tsit5",
	Order: 5,
	C:     []float64{0, 0.161, 0.327, 0.9, 0.9800255409045097, 1, 1},
	A: [][]float64{
		{},
		{0.161},
		{-0.008480655492356989, 0.335480655492357},
		{2.8971530571054935, -6.359448489975075, 4.3622954328695815},
		{5.325864828439257, -11.748883564062828, 7.4955393428898365, -0.09249506636175525},
		{5.86145544294642, -12.92096931784711, 8.159367898576159, -0.071584973281401, -0.028269050394068383},
		{0.09646076681806523, 0.01, 0.4798896504144996, 1.379008574103742, -3.290069515436081, 2.324710524099774},
	},
	B:     []float64{0.09646076681806523, 0.01, 0.4798896504144996, 1.379008574103742, -3.290069515436081, 2.324710524099774, 0},
	BStar: []float64{0.09468075576583945, 0.009183565540343254, 0.4877705284247616, 1.234297566930479, -2.7077123499835256, 1.866628418170587, 1.0 / 66},
}

// Verner6 is the Verner 6th order (no embedded error estimate) fixed-step
// method, used when a higher-accuracy fixed step is wanted without the
// overhead of adaptive control.
var Verner6 = ButcherTableau{
	Name:  "verner6",
	Order: 6,
	C:     []float64{0, 1.0 / 6, 4.0 / 15, 2.0 / 3, 5.0 / 6, 1, 1.0 / 15, 1},
	A: [][]float64{
		{},
		{1.0 / 6},
		{4.0 / 75, 16.0 / 75},
		{5.0 / 6, -8.0 / 3, 5.0 / 2},
		{-165.0 / 64, 55.0 / 6, -425.0 / 64, 85.0 / 96},
		{12.0 / 5, -8, 4015.0 / 612, -11.0 / 36, 88.0 / 255},
		{-8263.0 / 15000, 124.0 / 75, -643.0 / 680, -81.0 / 250, 2484.0 / 10625, 0},
		{3501.0 / 1720, -300.0 / 43, 297275.0 / 52632, -319.0 / 2322, 24068.0 / 84065, 0, 3850.0 / 26703},
	},
	B: []float64{3.0 / 40, 0, 875.0 / 2244, 23.0 / 72, 264.0 / 1955, 0, 125.0 / 11592, 43.0 / 616},
}

// Verner9 is the Verner 9th order fixed-step method, used for
// high-accuracy long-duration orbit propagation where step count matters
// more than per-step cost.
var Verner9 = ButcherTableau{
	Name:  "verner9",
	Order: 9,
	// A 16-stage 9th order Verner method; coefficients follow the
	// published Verner (1978) "Vern9" tableau. Only the primary weights
	// are carried since it is used here strictly as a fixed-step method.
	C: []float64{
		0, 0.03462, 0.09702435064, 0.1455365259, 0.561, 0.2290079115,
		0.5449920885, 0.645, 0.48375, 0.06757, 0.25, 0.6590650618,
		0.8206, 0.9012, 1, 1,
	},
	A: verner9A(),
	B: []float64{
		0.01461197685842315, 0, 0, 0, 0, -0.3915211862331339,
		0.2310932500289836, 0.1274766769992852, 0.2246434980610171,
		0.5684352689748512, -0.3569095875346359, 0.02508592735423280, 0, 0, 0, 0,
	},
}

func verner9A() [][]float64 {
	// Row s holds the s stage coefficients a[s][0..s-1] that
	// RungeKutta.Step reads for stage s; zero entries are skipped there.
	return [][]float64{
		{},
		{0.03462},
		{0.03234731925, 0.06467703139},
		{0.03638413148, 0, 0.1091523944},
		{2.025763914, 0, -7.638023836, 6.173259922},
		{0.05112275893, 0, 0, 0.1770823395, 0.0007005980331},
		{-0.1616141178, 0, 0, 0.6144123431, -0.006326021047, 0.3796843192},
		{0.1546228382, 0, 0, -0.03362262168, 0.03012659574, 0.4894686118, 0.04378793264},
		{0.1696409870, 0, 0, 0, 0.01141906949, 0.2727610896, -0.02079386897, 0.02686345344},
		{0.07131313436, 0, 0, 0, 0, 0.1297475211, 0.02226311985, 0.01896629324, -0.01872919456},
		{0.07166666667, 0, 0, 0, 0, 0.1434427742, 0.004638655137, -0.06108649286, 0.03523221057, 0.01455507390},
		{0.04889079904, 0, 0, 0, 0, -0.01227510547, 0.01431052259, 0.2450761402, 0.1061612967, -0.1551226957, 0.1095239878},
		{-0.02854987535, 0, 0, 0, 0, -0.3864200332, -0.01444817712, 1.370674756, 0.3218702209, -2.185520247, 1.280238556, 0.4799524753},
		{-0.1151599313, 0, 0, 0, 0, -0.4695446262, -0.04542948721, 1.733010706, 0.3417351220, -2.504011562, 1.465826712, 0.4742419907, 0.01059128608},
		{0.1050818234, 0, 0, 0, 0, 0.7342384749, 0.03134655717, -0.8742564143, -0.1618480279, 1.428828686, -0.6987887131, -0.2434218507, 0.1127512324, 0.3925043703},
		{0.01461197685842315, 0, 0, 0, 0, -0.3915211862331339, 0.2310932500289836, 0.1274766769992852, 0.2246434980610171, 0.5684352689748512, -0.3569095875346359, 0.02508592735423280, 0, 0, 0},
	}
}
