package dynamics

import (
	"fmt"
	"math"
)

type ActuatorConfig struct {
	Tau       float64 `yaml:"tau" json:"tau"`
	RateLimit float64 `yaml:"rate_limit" json:"rate_limit"`
	Min       float64 `yaml:"min" json:"min"`
	Max       float64 `yaml:"max" json:"max"`
}

func DefaultActuator() ActuatorConfig {
	return ActuatorConfig{
		Tau:       2.0,
		RateLimit: 0.5,
		Min:       -2.0,
		Max:       2.0,
	}
}

// Validate checks the actuator against the tick length. Tau below dt would
// make the lag overshoot its own command.
func (c ActuatorConfig) Validate(dt float64) error {
	if !(dt > 0) {
		return fmt.Errorf("dt must be positive, got %v", dt)
	}
	if math.IsNaN(c.Tau) || c.Tau < dt {
		return fmt.Errorf("actuator tau must be >= dt (%v), got %v", dt, c.Tau)
	}
	if !(c.RateLimit > 0) {
		return fmt.Errorf("actuator rate limit must be positive, got %v", c.RateLimit)
	}
	if !(c.Min < c.Max) {
		return fmt.Errorf("actuator saturation must satisfy min < max, got [%v, %v]", c.Min, c.Max)
	}
	return nil
}

// Scaled shrinks the saturation band toward zero by factor in (0, 1].
func (c ActuatorConfig) Scaled(factor float64) ActuatorConfig {
	c.Min *= factor
	c.Max *= factor
	return c
}

// Actuator is a first-order lag followed by a rate limit and saturation.
type Actuator struct {
	cfg     ActuatorConfig
	applied float64
}

func NewActuator(cfg ActuatorConfig, dt float64) (*Actuator, error) {
	if err := cfg.Validate(dt); err != nil {
		return nil, err
	}
	a := &Actuator{cfg: cfg}
	a.Reset()
	return a, nil
}

// Apply advances the actuator one tick toward cmd and returns the applied
// input. The result always lies in [Min, Max] and differs from the previous
// applied value by at most RateLimit.
func (a *Actuator) Apply(cmd, dt float64) float64 {
	target := a.applied + (cmd-a.applied)*dt/a.cfg.Tau

	delta := target - a.applied
	if delta > a.cfg.RateLimit {
		delta = a.cfg.RateLimit
	} else if delta < -a.cfg.RateLimit {
		delta = -a.cfg.RateLimit
	}

	a.applied = clamp(a.applied+delta, a.cfg.Min, a.cfg.Max)
	return a.applied
}

func (a *Actuator) Applied() float64 { return a.applied }

func (a *Actuator) Reset() {
	a.applied = clamp(0, a.cfg.Min, a.cfg.Max)
}

func clamp(x, lo, hi float64) float64 {
	return math.Max(lo, math.Min(hi, x))
}
