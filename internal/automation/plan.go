package automation

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/san-kum/casim/internal/experiment"
)

// Plan is a full factorial sweep: every combination of the factor levels,
// each run for Seeds consecutive seeds starting at SeedOffset.
type Plan struct {
	Name        string   `yaml:"name"`
	Description string   `yaml:"description,omitempty"`
	Controllers []string `yaml:"controllers"`
	Grids       []string `yaml:"grids"`
	Turbulence  []string `yaml:"turbulence"`
	Failures    []string `yaml:"failures"`
	Seeds       int      `yaml:"seeds"`
	SeedOffset  int64    `yaml:"seed_offset"`
	Horizon     int      `yaml:"horizon"`
	Workers     int      `yaml:"workers"`
}

func DefaultPlan() Plan {
	return Plan{
		Name:        "robustness",
		Controllers: []string{"pid", "lqr", "mpc"},
		Grids:       []string{"30x30", "40x40"},
		Turbulence:  []string{"low", "high"},
		Failures:    []string{"none", "sensor_bias", "actuator_sat"},
		Seeds:       5,
		Horizon:     600,
		Workers:     4,
	}
}

// LoadPlan loads a sweep plan from a YAML file, filling unset fields from
// DefaultPlan.
func LoadPlan(path string) (*Plan, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	plan := DefaultPlan()
	if err := yaml.Unmarshal(data, &plan); err != nil {
		return nil, fmt.Errorf("parse plan %s: %w", path, err)
	}
	return &plan, nil
}

func (p Plan) Validate(reg *experiment.Registry) error {
	if p.Seeds < 1 {
		return fmt.Errorf("plan %s: seeds must be >= 1, got %d", p.Name, p.Seeds)
	}
	if p.Horizon < 0 {
		return fmt.Errorf("plan %s: horizon must be >= 0, got %d", p.Name, p.Horizon)
	}
	levels := map[string][]string{
		"controllers": p.Controllers,
		"grids":       p.Grids,
		"turbulence":  p.Turbulence,
		"failures":    p.Failures,
	}
	for name, l := range levels {
		if len(l) == 0 {
			return fmt.Errorf("plan %s: no %s levels", p.Name, name)
		}
	}
	for _, c := range p.Controllers {
		if _, err := reg.GetController(c, nil); err != nil {
			return fmt.Errorf("plan %s: %w", p.Name, err)
		}
	}
	for _, g := range p.Grids {
		if _, err := reg.GetGrid(g); err != nil {
			return fmt.Errorf("plan %s: %w", p.Name, err)
		}
	}
	for _, tb := range p.Turbulence {
		if _, err := reg.GetTurbulence(tb); err != nil {
			return fmt.Errorf("plan %s: %w", p.Name, err)
		}
	}
	for _, f := range p.Failures {
		if _, err := reg.GetFailure(f, 0); err != nil {
			return fmt.Errorf("plan %s: %w", p.Name, err)
		}
	}
	return nil
}

// Cells lists the factor combinations in sweep order.
func (p Plan) Cells() []experiment.Factors {
	out := make([]experiment.Factors, 0, len(p.Controllers)*len(p.Grids)*len(p.Turbulence)*len(p.Failures))
	for _, c := range p.Controllers {
		for _, g := range p.Grids {
			for _, tb := range p.Turbulence {
				for _, f := range p.Failures {
					out = append(out, experiment.Factors{Controller: c, Grid: g, Turbulence: tb, Failure: f})
				}
			}
		}
	}
	return out
}

// Total is the number of episodes the plan runs.
func (p Plan) Total() int {
	return len(p.Controllers) * len(p.Grids) * len(p.Turbulence) * len(p.Failures) * p.Seeds
}
