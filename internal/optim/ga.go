package optim

import (
	"context"
	"fmt"
	"math"
	"math/rand/v2"
	"sort"
	"sync"

	"github.com/san-kum/casim/internal/control"
	"github.com/san-kum/casim/internal/metrics"
	"github.com/san-kum/casim/internal/sim"
)

const gaStream uint64 = 0x6761

type Bounds struct {
	Min control.Gains `yaml:"min" json:"min"`
	Max control.Gains `yaml:"max" json:"max"`
}

func DefaultBounds() Bounds {
	return Bounds{
		Min: control.Gains{Kp: 0.01, Ki: 0.001, Kd: 0.001},
		Max: control.Gains{Kp: 10, Ki: 2, Kd: 5},
	}
}

func (b Bounds) Validate() error {
	lo, hi := b.Min.Slice(), b.Max.Slice()
	for i := range lo {
		if !(lo[i] > 0) || !(hi[i] > lo[i]) || math.IsInf(hi[i], 0) {
			return fmt.Errorf("gain bounds must satisfy 0 < min < max, got [%v, %v]", lo[i], hi[i])
		}
	}
	return nil
}

type GAConfig struct {
	PopulationSize int     `yaml:"population_size" json:"population_size"`
	Generations    int     `yaml:"generations" json:"generations"`
	Elite          int     `yaml:"elite" json:"elite"`
	Tournament     int     `yaml:"tournament" json:"tournament"`
	CrossoverRate  float64 `yaml:"crossover_rate" json:"crossover_rate"`
	MutationRate   float64 `yaml:"mutation_rate" json:"mutation_rate"`
	MutationScale  float64 `yaml:"mutation_scale" json:"mutation_scale"`
	Bounds         Bounds  `yaml:"bounds" json:"bounds"`
	EvalSeeds      int     `yaml:"eval_seeds" json:"eval_seeds"`
	Workers        int     `yaml:"workers" json:"workers"`
	Patience       int     `yaml:"patience" json:"patience"`
	Tolerance      float64 `yaml:"tolerance" json:"tolerance"`
	Seed           int64   `yaml:"seed" json:"seed"`
}

func DefaultGAConfig() GAConfig {
	return GAConfig{
		PopulationSize: 20,
		Generations:    15,
		Elite:          2,
		Tournament:     3,
		CrossoverRate:  0.8,
		MutationRate:   0.3,
		MutationScale:  0.2,
		Bounds:         DefaultBounds(),
		EvalSeeds:      3,
		Workers:        4,
		Patience:       5,
		Tolerance:      1e-4,
		Seed:           1,
	}
}

func (c GAConfig) Validate() error {
	switch {
	case c.PopulationSize < 2:
		return fmt.Errorf("population size must be >= 2, got %d", c.PopulationSize)
	case c.Generations < 1:
		return fmt.Errorf("generations must be >= 1, got %d", c.Generations)
	case c.Elite < 0 || c.Elite >= c.PopulationSize:
		return fmt.Errorf("elite count must be in [0, population size), got %d", c.Elite)
	case c.Tournament < 1:
		return fmt.Errorf("tournament size must be >= 1, got %d", c.Tournament)
	case c.CrossoverRate < 0 || c.CrossoverRate > 1:
		return fmt.Errorf("crossover rate must be in [0, 1], got %v", c.CrossoverRate)
	case c.MutationRate < 0 || c.MutationRate > 1:
		return fmt.Errorf("mutation rate must be in [0, 1], got %v", c.MutationRate)
	case c.MutationScale < 0 || math.IsNaN(c.MutationScale):
		return fmt.Errorf("mutation scale must be >= 0, got %v", c.MutationScale)
	case c.EvalSeeds < 1:
		return fmt.Errorf("eval seeds must be >= 1, got %d", c.EvalSeeds)
	case c.Patience < 0:
		return fmt.Errorf("patience must be >= 0, got %d", c.Patience)
	case c.Tolerance < 0:
		return fmt.Errorf("tolerance must be >= 0, got %v", c.Tolerance)
	}
	return c.Bounds.Validate()
}

// Individual is one candidate gain vector with its cached evaluation.
type Individual struct {
	Gains     control.Gains     `json:"gains"`
	Fitness   float64           `json:"fitness"`
	Summaries []metrics.Summary `json:"summaries,omitempty"`

	evaluated bool
}

type GenerationStats struct {
	Generation int           `json:"generation"`
	Best       float64       `json:"best"`
	Mean       float64       `json:"mean"`
	Worst      float64       `json:"worst"`
	BestGains  control.Gains `json:"best_gains"`
}

type TuneResult struct {
	Best        Individual        `json:"best"`
	History     []GenerationStats `json:"history"`
	Generations int               `json:"generations"`
	Converged   bool              `json:"converged"`
}

// GA tunes controller gains against an Objective. All random draws happen
// on the calling goroutine, so a fixed Seed reproduces the search for any
// worker count.
type GA struct {
	cfg   GAConfig
	obj   Objective
	rng   *rand.Rand
	seeds []int64

	// OnGeneration, if set, is called after each generation is ranked.
	OnGeneration func(GenerationStats)
}

func NewGA(cfg GAConfig, obj Objective) (*GA, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if err := obj.Validate(); err != nil {
		return nil, err
	}
	if cfg.Workers <= 0 {
		cfg.Workers = 1
	}
	return &GA{
		cfg:   cfg,
		obj:   obj,
		rng:   rand.New(rand.NewPCG(uint64(cfg.Seed), gaStream)),
		seeds: sim.Seeds(cfg.Seed, cfg.EvalSeeds),
	}, nil
}

// EvalSeeds returns the episode seeds every candidate is scored on.
func (ga *GA) EvalSeeds() []int64 {
	out := make([]int64, len(ga.seeds))
	copy(out, ga.seeds)
	return out
}

// Run evolves the population. The context is checked between generations;
// on cancellation the result so far is returned with the context error.
func (ga *GA) Run(ctx context.Context) (*TuneResult, error) {
	pop := ga.initialPopulation()
	result := &TuneResult{History: make([]GenerationStats, 0, ga.cfg.Generations)}
	var ranked []Individual

	for gen := 0; gen < ga.cfg.Generations; gen++ {
		if err := ctx.Err(); err != nil {
			return ga.finish(result, ranked), fmt.Errorf("generation %d: %w", gen, err)
		}

		if err := ga.evaluate(ctx, pop); err != nil {
			if ctxErr := ctx.Err(); ctxErr != nil {
				return ga.finish(result, ranked), fmt.Errorf("generation %d: %w", gen, ctxErr)
			}
			return nil, err
		}
		sort.SliceStable(pop, func(i, j int) bool { return pop[i].Fitness < pop[j].Fitness })
		ranked = pop

		stats := summarize(pop, gen)
		result.History = append(result.History, stats)
		result.Generations = gen + 1
		if ga.OnGeneration != nil {
			ga.OnGeneration(stats)
		}

		if ga.converged(result.History) {
			result.Converged = true
			break
		}
		if gen < ga.cfg.Generations-1 {
			pop = ga.nextGeneration(pop)
		}
	}

	return ga.finish(result, ranked), nil
}

// finish reports the best of the last fully ranked generation.
func (ga *GA) finish(result *TuneResult, ranked []Individual) *TuneResult {
	if len(ranked) > 0 {
		result.Best = ranked[0]
	}
	return result
}

func (ga *GA) converged(history []GenerationStats) bool {
	p := ga.cfg.Patience
	if p == 0 || len(history) <= p {
		return false
	}
	last := len(history) - 1
	return history[last-p].Best-history[last].Best < ga.cfg.Tolerance
}

func summarize(pop []Individual, gen int) GenerationStats {
	sum := 0.0
	for _, ind := range pop {
		sum += ind.Fitness
	}
	return GenerationStats{
		Generation: gen,
		Best:       pop[0].Fitness,
		Mean:       sum / float64(len(pop)),
		Worst:      pop[len(pop)-1].Fitness,
		BestGains:  pop[0].Gains,
	}
}

func (ga *GA) initialPopulation() []Individual {
	lo, hi := ga.cfg.Bounds.Min.Slice(), ga.cfg.Bounds.Max.Slice()
	pop := make([]Individual, ga.cfg.PopulationSize)
	for i := range pop {
		g := make([]float64, len(lo))
		for k := range g {
			// Log-uniform so small gains are sampled as often as large ones.
			g[k] = math.Exp(math.Log(lo[k]) + ga.rng.Float64()*(math.Log(hi[k])-math.Log(lo[k])))
		}
		pop[i] = Individual{Gains: control.GainsFromSlice(g)}
	}
	return pop
}

func (ga *GA) evaluate(ctx context.Context, pop []Individual) error {
	type job struct {
		idx   int
		gains control.Gains
	}
	type result struct {
		idx       int
		fitness   float64
		summaries []metrics.Summary
		err       error
	}

	pending := make([]int, 0, len(pop))
	for i := range pop {
		if !pop[i].evaluated {
			pending = append(pending, i)
		}
	}
	if len(pending) == 0 {
		return nil
	}

	jobs := make(chan job)
	results := make(chan result, len(pending))

	workerCount := ga.cfg.Workers
	if workerCount > len(pending) {
		workerCount = len(pending)
	}

	var wg sync.WaitGroup
	wg.Add(workerCount)
	for w := 0; w < workerCount; w++ {
		go func() {
			defer wg.Done()
			for j := range jobs {
				if ctx.Err() != nil {
					continue
				}
				fitness, summaries, err := ga.obj.Evaluate(j.gains, ga.seeds)
				results <- result{idx: j.idx, fitness: fitness, summaries: summaries, err: err}
			}
		}()
	}

	for _, i := range pending {
		jobs <- job{idx: i, gains: pop[i].Gains}
	}
	close(jobs)

	wg.Wait()
	close(results)

	if err := ctx.Err(); err != nil {
		return err
	}
	var firstErr error
	for res := range results {
		if res.err != nil {
			if firstErr == nil {
				firstErr = fmt.Errorf("evaluate %s: %w", pop[res.idx].Gains, res.err)
			}
			continue
		}
		pop[res.idx].Fitness = res.fitness
		pop[res.idx].Summaries = res.summaries
		pop[res.idx].evaluated = true
	}
	return firstErr
}

func (ga *GA) nextGeneration(ranked []Individual) []Individual {
	next := make([]Individual, 0, len(ranked))
	next = append(next, ranked[:ga.cfg.Elite]...)

	for len(next) < len(ranked) {
		a := ga.tournament(ranked)
		b := ga.tournament(ranked)

		child := a.Gains.Slice()
		if ga.rng.Float64() < ga.cfg.CrossoverRate {
			other := b.Gains.Slice()
			for k := range child {
				lambda := ga.rng.Float64()
				child[k] = lambda*child[k] + (1-lambda)*other[k]
			}
		}
		ga.mutate(child)
		next = append(next, Individual{Gains: control.GainsFromSlice(child)})
	}
	return next
}

// tournament draws Tournament individuals uniformly with replacement and
// returns the fittest.
func (ga *GA) tournament(ranked []Individual) Individual {
	best := ranked[ga.rng.IntN(len(ranked))]
	for i := 1; i < ga.cfg.Tournament; i++ {
		c := ranked[ga.rng.IntN(len(ranked))]
		if c.Fitness < best.Fitness {
			best = c
		}
	}
	return best
}

func (ga *GA) mutate(g []float64) {
	lo, hi := ga.cfg.Bounds.Min.Slice(), ga.cfg.Bounds.Max.Slice()
	for k := range g {
		if ga.rng.Float64() < ga.cfg.MutationRate {
			g[k] *= math.Exp(ga.rng.NormFloat64() * ga.cfg.MutationScale)
		}
		g[k] = math.Max(lo[k], math.Min(hi[k], g[k]))
	}
}
