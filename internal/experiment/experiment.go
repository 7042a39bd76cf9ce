package experiment

import (
	"context"
	"fmt"

	"github.com/san-kum/casim/internal/metrics"
	"github.com/san-kum/casim/internal/sim"
)

// Factors names one cell of the factorial design.
type Factors struct {
	Controller string `yaml:"controller" json:"controller"`
	Grid       string `yaml:"grid" json:"grid"`
	Turbulence string `yaml:"turbulence" json:"turbulence"`
	Failure    string `yaml:"failure" json:"failure"`
}

func (f Factors) String() string {
	return fmt.Sprintf("%s/%s/%s/%s", f.Controller, f.Grid, f.Turbulence, f.Failure)
}

// Experiment is one seeded episode of a factor combination.
type Experiment struct {
	Factors Factors
	Seed    int64
	cfg     sim.Config
}

// New overlays the factor levels onto base. Gains in params override the
// controller defaults.
func New(reg *Registry, base sim.Config, f Factors, seed int64, params map[string]float64) (*Experiment, error) {
	cfg := base
	var err error

	if cfg.Controller, err = reg.GetController(f.Controller, params); err != nil {
		return nil, err
	}
	if cfg.Grid, err = reg.GetGrid(f.Grid); err != nil {
		return nil, err
	}
	if cfg.Turbulence, err = reg.GetTurbulence(f.Turbulence); err != nil {
		return nil, err
	}
	if cfg.Failure, err = reg.GetFailure(f.Failure, seed); err != nil {
		return nil, err
	}
	cfg.Seed = seed

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("experiment %s: %w", f, err)
	}
	return &Experiment{Factors: f, Seed: seed, cfg: cfg}, nil
}

func (e *Experiment) Config() sim.Config { return e.cfg }

func (e *Experiment) Run(ctx context.Context) (*sim.Result, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return sim.Run(e.cfg)
}

// Row scores a finished run as one raw sweep row.
func (e *Experiment) Row(res *sim.Result, rec metrics.Recovery) metrics.Row {
	return metrics.Row{
		Controller: e.Factors.Controller,
		Grid:       e.Factors.Grid,
		Turbulence: e.Factors.Turbulence,
		Failure:    e.Factors.Failure,
		Seed:       e.Seed,
		Summary:    metrics.Summarize(res, e.cfg.Reference, rec),
	}
}
