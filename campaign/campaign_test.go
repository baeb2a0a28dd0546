package campaign

import (
	"errors"
	"fmt"
	"sync"
	"testing"

	"github.com/golang/geo/r3"
	"golang.org/x/exp/rand"
	"go.viam.com/test"

	"github.com/nadir-dynamics/nadir/body"
	"github.com/nadir-dynamics/nadir/joint"
	"github.com/nadir-dynamics/nadir/logging"
	"github.com/nadir-dynamics/nadir/massprops"
	"github.com/nadir-dynamics/nadir/results"
	"github.com/nadir-dynamics/nadir/system"
	"github.com/nadir-dynamics/nadir/uncertainty"
)

func TestRunExecutesEveryRun(t *testing.T) {
	var mu sync.Mutex
	seen := make(map[int]bool)

	cfg := Config{
		Runs:     5,
		BaseSeed: 42,
		ResultDir: func(i int) string {
			return fmt.Sprintf("run-%d", i)
		},
	}
	err := Run(cfg, func(runIndex int, rng *rand.Rand, resultDir string) error {
		mu.Lock()
		defer mu.Unlock()
		seen[runIndex] = true
		return nil
	})
	test.That(t, err, test.ShouldBeNil)
	test.That(t, len(seen), test.ShouldEqual, 5)
}

func TestRunDerivesDistinctDeterministicSeedsPerRun(t *testing.T) {
	var mu sync.Mutex
	draws := make(map[int]uint64)

	cfg := Config{Runs: 3, BaseSeed: 7}
	run := func() {
		err := Run(cfg, func(runIndex int, rng *rand.Rand, resultDir string) error {
			mu.Lock()
			draws[runIndex] = rng.Uint64()
			mu.Unlock()
			return nil
		})
		test.That(t, err, test.ShouldBeNil)
	}
	run()
	first := make(map[int]uint64, len(draws))
	for k, v := range draws {
		first[k] = v
	}
	draws = make(map[int]uint64)
	run()

	test.That(t, first[0] == first[1], test.ShouldBeFalse)
	test.That(t, first[0], test.ShouldEqual, draws[0])
}

func TestRunPropagatesFirstError(t *testing.T) {
	cfg := Config{Runs: 4, BaseSeed: 1}
	err := Run(cfg, func(runIndex int, rng *rand.Rand, resultDir string) error {
		if runIndex == 2 {
			return errors.New("boom")
		}
		return nil
	})
	test.That(t, err, test.ShouldNotBeNil)
}

func TestRunRejectsZeroRuns(t *testing.T) {
	err := Run(Config{Runs: 0}, func(int, *rand.Rand, string) error { return nil })
	test.That(t, err, test.ShouldNotBeNil)
}

// spinUpFinalState runs a single free-spin floating-joint scenario with a
// Monte Carlo dispersed initial spin rate and returns the final state
// vector, used to compare trajectories across campaign runs.
func spinUpFinalState(t *testing.T, rng *rand.Rand) []float64 {
	t.Helper()
	props, err := massprops.New(1, r3.Vector{}, massprops.Inertia{Ixx: 10, Iyy: 10, Izz: 10})
	test.That(t, err, test.ShouldBeNil)
	base, err := massprops.New(1, r3.Vector{}, massprops.Inertia{Ixx: 1, Iyy: 1, Izz: 1})
	test.That(t, err, test.ShouldBeNil)

	j0, err := joint.New("floating", joint.NewFloating(), 0, 1, nil, joint.ZeroParameters(6))
	test.That(t, err, test.ShouldBeNil)

	sys, err := system.New("spin-up", logging.NewTestLogger(t),
		[]*body.Body{body.New("base", base), body.New("satellite", props)},
		[]*joint.Joint{j0})
	test.That(t, err, test.ShouldBeNil)

	sim := system.NewSimulation(logging.NewTestLogger(t), sys, rng)
	sim.Results = results.NewManager(t.TempDir())

	omegaZ, err := uncertainty.Value{Nominal: 0.1, Dispersion: uncertainty.Normal{StdDev: 0.01}}.Sample(rng)
	test.That(t, err, test.ShouldBeNil)

	y := make([]float64, sys.StateSize())
	y[3] = 1 // identity quaternion
	y[9] = omegaZ

	test.That(t, sim.RunFixed(10, 0.1, y), test.ShouldBeNil)
	return y
}

// TestCampaignRunsAreDeterministicPerSeedAndDivergeAcrossSeeds is the
// Monte Carlo determinism scenario: two campaigns launched with the same
// base seed must produce bit-identical trajectories for every run index,
// while incrementing the base seed must only perturb the state components
// the sampled parameter actually reaches (the spin axis itself), leaving
// every other state component exactly as it was since no other force acts
// on a free-spinning body.
func TestCampaignRunsAreDeterministicPerSeedAndDivergeAcrossSeeds(t *testing.T) {
	runCampaign := func(baseSeed uint64) [][]float64 {
		var mu sync.Mutex
		trajectories := make([][]float64, 3)
		cfg := Config{Runs: 3, BaseSeed: baseSeed}
		err := Run(cfg, func(runIndex int, rng *rand.Rand, resultDir string) error {
			y := spinUpFinalState(t, rng)
			mu.Lock()
			trajectories[runIndex] = y
			mu.Unlock()
			return nil
		})
		test.That(t, err, test.ShouldBeNil)
		return trajectories
	}

	first := runCampaign(99)
	second := runCampaign(99)
	for i := range first {
		for c := range first[i] {
			test.That(t, first[i][c], test.ShouldEqual, second[i][c])
		}
	}

	third := runCampaign(100)
	// untouchedByNoise are the state components a free-spinning body with
	// no external force never couples into, regardless of the sampled
	// spin rate: the off-axis angular velocity and the translational
	// state all stay exactly zero.
	untouchedByNoise := []int{4, 5, 6, 7, 8, 10, 11, 12}
	for i := range first {
		// omega_z (index 9) carries the sampled dispersion directly, so a
		// different seed must diverge there.
		test.That(t, first[i][9] == third[i][9], test.ShouldBeFalse)
		for _, c := range untouchedByNoise {
			test.That(t, first[i][c], test.ShouldEqual, third[i][c])
		}
	}
}
