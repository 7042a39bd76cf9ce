package analysis

import (
	"fmt"
	"math"

	"github.com/san-kum/casim/internal/sim"
)

// Divergence estimates the exponential rate at which two episodes that
// differ only by perturbation in the initial attitude separate. Both
// episodes share the seed, so turbulence and jitter are identical. A
// negative value means the closed loop forgets the perturbation.
//
// Ticks after either episode crashes, and ticks where the separation is
// exactly zero, are skipped.
func Divergence(cfg sim.Config, perturbation float64) (float64, error) {
	if !(perturbation > 0) {
		return 0, fmt.Errorf("perturbation must be > 0, got %v", perturbation)
	}

	base, err := sim.Run(cfg)
	if err != nil {
		return 0, err
	}
	shifted := cfg
	shifted.Init.Attitude += perturbation
	other, err := sim.Run(shifted)
	if err != nil {
		return 0, err
	}

	n := min(len(base.Trace), len(other.Trace))
	sumRate := 0.0
	count := 0
	for k := 1; k < n; k++ {
		sep := math.Abs(other.Trace[k].Attitude - base.Trace[k].Attitude)
		if sep == 0 || math.IsNaN(sep) || math.IsInf(sep, 0) {
			continue
		}
		sumRate += math.Log(sep/perturbation) / (float64(k) * cfg.Dt)
		count++
	}

	if count == 0 {
		return 0, nil
	}
	return sumRate / float64(count), nil
}
