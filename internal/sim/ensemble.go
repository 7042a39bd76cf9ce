package sim

import (
	"context"
	"sync"
)

// Ensemble runs one configuration over several seeds concurrently.
type Ensemble struct {
	cfg     Config
	seeds   []int64
	workers int
}

func NewEnsemble(cfg Config, seeds []int64, workers int) *Ensemble {
	if workers < 1 {
		workers = 1
	}
	return &Ensemble{cfg: cfg, seeds: seeds, workers: workers}
}

// Run returns results in seed order. The context is checked before each
// episode starts; episodes in flight run to completion.
func (e *Ensemble) Run(ctx context.Context) ([]*Result, error) {
	if err := e.cfg.Validate(); err != nil {
		return nil, err
	}

	results := make([]*Result, len(e.seeds))
	errs := make([]error, len(e.seeds))

	jobs := make(chan int)
	var wg sync.WaitGroup
	for w := 0; w < e.workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for idx := range jobs {
				cfgCopy := e.cfg
				cfgCopy.Seed = e.seeds[idx]
				res, err := Run(cfgCopy)
				if err != nil {
					errs[idx] = &EpisodeError{Seed: cfgCopy.Seed, Wrapped: err}
					continue
				}
				results[idx] = res
			}
		}()
	}

	var ctxErr error
	for i := range e.seeds {
		if ctxErr = ctx.Err(); ctxErr != nil {
			break
		}
		jobs <- i
	}
	close(jobs)
	wg.Wait()

	if ctxErr != nil {
		return nil, ctxErr
	}
	for _, err := range errs {
		if err != nil {
			return nil, err
		}
	}
	return results, nil
}
