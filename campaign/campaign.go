// Package campaign runs a batch of independent Monte Carlo simulation runs
// concurrently, one goroutine per run, each with its own System, *rand.Rand,
// and result directory. No state is shared across goroutines within a
// campaign; the only coordination is waiting for every run to finish.
package campaign

import (
	"fmt"

	"golang.org/x/exp/rand"
	"golang.org/x/sync/errgroup"

	"github.com/nadir-dynamics/nadir/nadirerr"
	"github.com/nadir-dynamics/nadir/uncertainty"
)

// RunFunc builds and executes a single Monte Carlo run given its run index,
// a seeded RNG, and the directory its results should be written to.
type RunFunc func(runIndex int, rng *rand.Rand, resultDir string) error

// Config parameterizes a campaign: how many runs to execute, the base
// (parent) seed every run's RNG is derived from, a limit on how many runs
// may execute concurrently (0 means unlimited), and a function producing
// each run's result directory from its index.
type Config struct {
	Runs        int
	BaseSeed    uint64
	Concurrency int
	ResultDir   func(runIndex int) string
}

// Run executes Runs independent simulations concurrently. Each run's RNG is
// derived deterministically from BaseSeed via uncertainty.NewRunRNG, so a
// campaign's per-run results are reproducible regardless of goroutine
// scheduling order. A failing run does not stop the others: every run is
// executed, and once all have finished the first error any run returned is
// reported; every run's own result directory is unaffected by another
// run's failure since no state is shared between them.
func Run(cfg Config, fn RunFunc) error {
	if cfg.Runs <= 0 {
		return nadirerr.NewTopologyError("campaign", "campaign must schedule at least one run")
	}
	var g errgroup.Group
	if cfg.Concurrency > 0 {
		g.SetLimit(cfg.Concurrency)
	}
	for i := 0; i < cfg.Runs; i++ {
		runIndex := i
		g.Go(func() error {
			rng := uncertainty.NewRunRNG(cfg.BaseSeed, runIndex)
			dir := ""
			if cfg.ResultDir != nil {
				dir = cfg.ResultDir(runIndex)
			}
			if err := fn(runIndex, rng, dir); err != nil {
				return nadirerr.NewUserHookError("campaign", fmt.Sprintf("run %d failed", runIndex), err)
			}
			return nil
		})
	}
	return g.Wait()
}
