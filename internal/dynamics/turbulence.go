package dynamics

import (
	"fmt"
	"math"
	"math/rand/v2"
)

// Block scales turbulence intensity over the tick range [Start, End).
type Block struct {
	Start int     `yaml:"start" json:"start"`
	End   int     `yaml:"end" json:"end"`
	Scale float64 `yaml:"scale" json:"scale"`
}

// Schedule maps a tick to an intensity multiplier. The first block that
// contains the tick wins; otherwise Base applies. A Base of zero silences
// the process outside the blocks.
type Schedule struct {
	Base   float64 `yaml:"base" json:"base"`
	Blocks []Block `yaml:"blocks,omitempty" json:"blocks,omitempty"`
}

func (s Schedule) Intensity(tick int) float64 {
	for _, b := range s.Blocks {
		if tick >= b.Start && tick < b.End {
			return b.Scale
		}
	}
	return s.Base
}

func (s Schedule) Validate() error {
	if s.Base < 0 || math.IsNaN(s.Base) {
		return fmt.Errorf("schedule base must be >= 0, got %v", s.Base)
	}
	for i, b := range s.Blocks {
		if b.End < b.Start {
			return fmt.Errorf("schedule block %d: end %d before start %d", i, b.End, b.Start)
		}
		if b.Scale < 0 || math.IsNaN(b.Scale) {
			return fmt.Errorf("schedule block %d: scale must be >= 0, got %v", i, b.Scale)
		}
	}
	return nil
}

type TurbulenceConfig struct {
	Theta    float64   `yaml:"theta" json:"theta"`
	Mu       float64   `yaml:"mu" json:"mu"`
	Sigma    float64   `yaml:"sigma" json:"sigma"`
	Schedule *Schedule `yaml:"schedule,omitempty" json:"schedule,omitempty"`
}

func DefaultTurbulence() TurbulenceConfig {
	return TurbulenceConfig{Theta: 0.5, Mu: 0, Sigma: 0}
}

func (c TurbulenceConfig) Validate() error {
	if !(c.Theta > 0) || math.IsInf(c.Theta, 0) {
		return fmt.Errorf("turbulence theta must be positive, got %v", c.Theta)
	}
	if c.Sigma < 0 || math.IsNaN(c.Sigma) || math.IsInf(c.Sigma, 0) {
		return fmt.Errorf("turbulence sigma must be >= 0, got %v", c.Sigma)
	}
	if math.IsNaN(c.Mu) || math.IsInf(c.Mu, 0) {
		return fmt.Errorf("turbulence mu must be finite, got %v", c.Mu)
	}
	if c.Schedule == nil {
		return nil
	}
	return c.Schedule.Validate()
}

// Intensity is the schedule's multiplier at tick, or 1 without a schedule.
func (c TurbulenceConfig) Intensity(tick int) float64 {
	if c.Schedule == nil {
		return 1
	}
	return c.Schedule.Intensity(tick)
}

// Turbulence is an Ornstein-Uhlenbeck process integrated with
// Euler-Maruyama. It owns its random stream.
type Turbulence struct {
	cfg  TurbulenceConfig
	rng  *rand.Rand
	x    float64
	tick int
}

func NewTurbulence(cfg TurbulenceConfig, rng *rand.Rand) (*Turbulence, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if rng == nil {
		return nil, fmt.Errorf("turbulence requires a random source")
	}
	return &Turbulence{cfg: cfg, rng: rng, x: cfg.Mu}, nil
}

// Next advances the process by dt and returns the new value.
func (t *Turbulence) Next(dt float64) float64 {
	sigma := t.cfg.Sigma * t.cfg.Intensity(t.tick)
	t.x += t.cfg.Theta*(t.cfg.Mu-t.x)*dt + sigma*math.Sqrt(dt)*t.rng.NormFloat64()
	t.tick++
	return t.x
}

func (t *Turbulence) Value() float64 { return t.x }
