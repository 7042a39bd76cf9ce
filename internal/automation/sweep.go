package automation

import (
	"context"
	"fmt"
	"sync"

	"github.com/san-kum/casim/internal/experiment"
	"github.com/san-kum/casim/internal/logger"
	"github.com/san-kum/casim/internal/metrics"
	"github.com/san-kum/casim/internal/sim"
)

const progressEvery = 25

// Sweep runs a Plan on top of a base episode configuration.
type Sweep struct {
	Plan     Plan
	Base     sim.Config
	Recovery metrics.Recovery
	Registry *experiment.Registry
	Log      logger.Logger

	// OnRow, if set, receives every finished row in completion order.
	OnRow func(metrics.Row)
}

// Run executes every episode of the plan and returns the raw rows in plan
// order (controller, grid, turbulence, failure, seed). The context is
// checked before each episode is handed to a worker.
func (s *Sweep) Run(ctx context.Context) ([]metrics.Row, error) {
	if s.Registry == nil {
		s.Registry = experiment.NewRegistry()
	}
	if s.Log == nil {
		s.Log = logger.Discard()
	}
	if err := s.Plan.Validate(s.Registry); err != nil {
		return nil, err
	}
	if err := s.Recovery.Validate(); err != nil {
		return nil, err
	}

	base := s.Base
	base.Horizon = s.Plan.Horizon

	var exps []*experiment.Experiment
	for _, cell := range s.Plan.Cells() {
		for _, seed := range sim.Seeds(s.Plan.SeedOffset, s.Plan.Seeds) {
			exp, err := experiment.New(s.Registry, base, cell, seed, nil)
			if err != nil {
				return nil, err
			}
			exps = append(exps, exp)
		}
	}

	type result struct {
		idx int
		row metrics.Row
		err error
	}

	jobs := make(chan int)
	results := make(chan result, len(exps))

	workers := s.Plan.Workers
	if workers < 1 {
		workers = 1
	}
	if workers > len(exps) {
		workers = len(exps)
	}

	var wg sync.WaitGroup
	wg.Add(workers)
	for w := 0; w < workers; w++ {
		go func() {
			defer wg.Done()
			for idx := range jobs {
				exp := exps[idx]
				res, err := exp.Run(ctx)
				if err != nil {
					results <- result{idx: idx, err: fmt.Errorf("%s: %w", exp.Factors, &sim.EpisodeError{Seed: exp.Seed, Wrapped: err})}
					continue
				}
				results <- result{idx: idx, row: exp.Row(res, s.Recovery)}
			}
		}()
	}

	go func() {
		defer close(jobs)
		for i := range exps {
			if ctx.Err() != nil {
				return
			}
			jobs <- i
		}
	}()

	go func() {
		wg.Wait()
		close(results)
	}()

	total := len(exps)
	rows := make([]metrics.Row, total)
	done := 0
	var firstErr error
	for res := range results {
		if res.err != nil {
			if firstErr == nil {
				firstErr = res.err
			}
			continue
		}
		rows[res.idx] = res.row
		done++
		if s.OnRow != nil {
			s.OnRow(res.row)
		}
		if done%progressEvery == 0 || done == total {
			s.Log.Infof("%d/%d runs...", done, total)
		}
	}

	if firstErr != nil {
		return nil, firstErr
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return rows, nil
}
