package optim

import (
	"fmt"
	"math"

	"github.com/san-kum/casim/internal/control"
	"github.com/san-kum/casim/internal/metrics"
	"github.com/san-kum/casim/internal/sim"
)

// Weights combine the episode metrics into a scalar fitness (lower is
// better).
type Weights struct {
	Effort   float64 `yaml:"effort" json:"effort"`
	Recovery float64 `yaml:"recovery" json:"recovery"`
	Crash    float64 `yaml:"crash" json:"crash"`
}

func DefaultWeights() Weights {
	return Weights{Effort: 0.01, Recovery: 1.0, Crash: 10.0}
}

// Objective scores a gain vector by running the Base episode under it.
type Objective struct {
	Base     sim.Config       `yaml:"episode" json:"episode"`
	Recovery metrics.Recovery `yaml:"recovery" json:"recovery"`
	Weights  Weights          `yaml:"weights" json:"weights"`
}

func DefaultObjective() Objective {
	return Objective{
		Base:     sim.DefaultConfig(),
		Recovery: metrics.DefaultRecovery(),
		Weights:  DefaultWeights(),
	}
}

// Validate checks everything but the base gains, which every evaluation
// replaces.
func (o Objective) Validate() error {
	if o.Base.Controller.Kind == control.KindNone {
		return fmt.Errorf("objective: controller %q has no gains to tune", o.Base.Controller.Kind)
	}
	base := o.Base
	base.Controller.Gains = control.Gains{Kp: 1, Ki: 1, Kd: 1}
	if err := base.Validate(); err != nil {
		return fmt.Errorf("objective: %w", err)
	}
	if err := o.Recovery.Validate(); err != nil {
		return fmt.Errorf("objective: %w", err)
	}
	for name, w := range map[string]float64{"effort": o.Weights.Effort, "recovery": o.Weights.Recovery, "crash": o.Weights.Crash} {
		if w < 0 || math.IsNaN(w) || math.IsInf(w, 0) {
			return fmt.Errorf("objective: %s weight must be a finite value >= 0, got %v", name, w)
		}
	}
	return nil
}

// Score maps one episode summary to its fitness contribution.
func (o Objective) Score(s metrics.Summary) float64 {
	horizon := float64(o.Base.Horizon)
	if horizon == 0 {
		horizon = 1
	}
	ttr := 1.0
	if s.Recovered() {
		ttr = float64(s.TimeToRecover) / horizon
	}
	f := s.Overshoot + o.Weights.Effort*s.ControlEffort/horizon + o.Weights.Recovery*ttr
	if s.Crash {
		f += o.Weights.Crash
	}
	return f
}

// Evaluate runs one episode per seed and returns the mean fitness. Crashes
// are penalised, never returned; configuration errors are.
func (o Objective) Evaluate(g control.Gains, seeds []int64) (float64, []metrics.Summary, error) {
	if len(seeds) == 0 {
		return 0, nil, fmt.Errorf("objective: no evaluation seeds")
	}
	summaries := make([]metrics.Summary, 0, len(seeds))
	total := 0.0
	for _, seed := range seeds {
		cfg := o.Base
		cfg.Controller.Gains = g
		cfg.Seed = seed

		res, err := sim.Run(cfg)
		if err != nil {
			return 0, nil, &sim.EpisodeError{Seed: seed, Wrapped: err}
		}
		s := metrics.Summarize(res, cfg.Reference, o.Recovery)
		summaries = append(summaries, s)
		total += o.Score(s)
	}

	fitness := total / float64(len(seeds))
	if math.IsNaN(fitness) {
		fitness = math.Inf(1)
	}
	return fitness, summaries, nil
}
