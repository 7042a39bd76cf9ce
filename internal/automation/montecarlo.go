package automation

import (
	"context"
	"fmt"
	"math/rand/v2"

	"github.com/san-kum/casim/internal/logger"
	"github.com/san-kum/casim/internal/metrics"
	"github.com/san-kum/casim/internal/sim"
)

// MonteCarloConfig perturbs the initial vehicle attitude uniformly in
// [-Perturbation, Perturbation] around Base.Init.Attitude.
type MonteCarloConfig struct {
	Base         sim.Config
	Recovery     metrics.Recovery
	Perturbation float64
	NumTrials    int
	Seed         int64
}

type MonteCarloResult struct {
	TrialID      int
	Seed         int64
	InitAttitude float64
	Status       sim.Status
	Summary      metrics.Summary
}

// RunMonteCarlo executes trials sequentially; each trial gets its own
// episode seed so the lattice and turbulence vary with the perturbation.
func RunMonteCarlo(ctx context.Context, cfg *MonteCarloConfig, log logger.Logger) ([]MonteCarloResult, error) {
	if cfg.NumTrials < 1 {
		return nil, fmt.Errorf("monte carlo: trials must be >= 1, got %d", cfg.NumTrials)
	}
	if cfg.Perturbation < 0 {
		return nil, fmt.Errorf("monte carlo: perturbation must be >= 0, got %v", cfg.Perturbation)
	}
	if log == nil {
		log = logger.Discard()
	}

	rng := rand.New(rand.NewPCG(uint64(cfg.Seed), 0x6d63))
	results := make([]MonteCarloResult, 0, cfg.NumTrials)

	for trial := 0; trial < cfg.NumTrials; trial++ {
		if err := ctx.Err(); err != nil {
			return results, err
		}

		ep := cfg.Base
		ep.Seed = cfg.Seed + int64(trial)
		ep.Init.Attitude = cfg.Base.Init.Attitude + (rng.Float64()-0.5)*2*cfg.Perturbation

		res, err := sim.Run(ep)
		if err != nil {
			return results, &sim.EpisodeError{Seed: ep.Seed, Wrapped: err}
		}

		results = append(results, MonteCarloResult{
			TrialID:      trial,
			Seed:         ep.Seed,
			InitAttitude: ep.Init.Attitude,
			Status:       res.Status,
			Summary:      metrics.Summarize(res, ep.Reference, cfg.Recovery),
		})

		if (trial+1)%10 == 0 {
			log.Infof("Monte Carlo: %d/%d trials complete", trial+1, cfg.NumTrials)
		}
	}

	return results, nil
}

// MonteCarloStats counts trials that completed and trials that crashed.
func MonteCarloStats(results []MonteCarloResult) (completed int, crashed int) {
	for _, r := range results {
		if r.Status == sim.StatusCrashed {
			crashed++
		} else {
			completed++
		}
	}
	return
}
