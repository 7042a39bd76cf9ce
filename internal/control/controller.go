package control

import (
	"fmt"
	"math"
	"strings"
)

// Controller maps a measured tracking error to a command, once per tick.
type Controller interface {
	Update(err, dt float64) float64
	Reset()
	// Suppress switches the failure window on or off. While suppressed
	// Update returns exactly zero.
	Suppress(active bool)
	Params() map[string]float64
}

type Kind string

const (
	KindPID  Kind = "pid"
	KindLQR  Kind = "lqr"
	KindMPC  Kind = "mpc"
	KindNone Kind = "none"
)

func ParseKind(s string) (Kind, error) {
	switch k := Kind(strings.ToLower(strings.TrimSpace(s))); k {
	case KindPID, KindLQR, KindMPC, KindNone:
		return k, nil
	}
	return "", fmt.Errorf("unknown controller: %s", s)
}

func Kinds() []Kind {
	return []Kind{KindPID, KindLQR, KindMPC, KindNone}
}

// Gains is the tunable vector. LQR reads it as the state and input weights
// (Kp, Ki on error and integral, Kd on input); MPC as tracking weight,
// observer gain and move penalty.
type Gains struct {
	Kp float64 `yaml:"kp" json:"kp"`
	Ki float64 `yaml:"ki" json:"ki"`
	Kd float64 `yaml:"kd" json:"kd"`
}

func (g Gains) Slice() []float64 { return []float64{g.Kp, g.Ki, g.Kd} }

func GainsFromSlice(v []float64) Gains {
	return Gains{Kp: v[0], Ki: v[1], Kd: v[2]}
}

func (g Gains) String() string {
	return fmt.Sprintf("Kp=%.4f Ki=%.4f Kd=%.4f", g.Kp, g.Ki, g.Kd)
}

const (
	DefaultIntegralLimit = 5.0
	DefaultHorizon       = 10
)

type Config struct {
	Kind          Kind    `yaml:"kind" json:"kind"`
	Gains         Gains   `yaml:"gains" json:"gains"`
	IntegralLimit float64 `yaml:"integral_limit" json:"integral_limit"`
	Horizon       int     `yaml:"horizon,omitempty" json:"horizon,omitempty"`
}

func DefaultConfig() Config {
	return Config{
		Kind:          KindPID,
		Gains:         Gains{Kp: 1.0, Ki: 0.1, Kd: 0.05},
		IntegralLimit: DefaultIntegralLimit,
		Horizon:       DefaultHorizon,
	}
}

func (c Config) Validate() error {
	if _, err := ParseKind(string(c.Kind)); err != nil {
		return err
	}
	if c.Kind == KindNone {
		return nil
	}
	for name, v := range map[string]float64{"kp": c.Gains.Kp, "ki": c.Gains.Ki, "kd": c.Gains.Kd} {
		if !(v > 0) || math.IsInf(v, 0) {
			return fmt.Errorf("gain %s must be a finite value > 0, got %v", name, v)
		}
	}
	if !(c.IntegralLimit > 0) {
		return fmt.Errorf("integral limit must be positive, got %v", c.IntegralLimit)
	}
	if c.Kind == KindMPC && c.Horizon < 1 {
		return fmt.Errorf("mpc horizon must be >= 1, got %d", c.Horizon)
	}
	return nil
}

// Plant is the nominal per-tick error model e' = Pole*e - Gain*u used by the
// model-based controllers. Dt is the tick length the model was sampled at.
type Plant struct {
	Pole float64
	Gain float64
	Dt   float64
}

func (p Plant) Validate() error {
	if math.IsNaN(p.Pole) || p.Pole < 0 || p.Pole > 1 {
		return fmt.Errorf("plant pole must be in [0, 1], got %v", p.Pole)
	}
	if !(p.Gain > 0) {
		return fmt.Errorf("plant gain must be positive, got %v", p.Gain)
	}
	if !(p.Dt > 0) {
		return fmt.Errorf("plant dt must be positive, got %v", p.Dt)
	}
	return nil
}

// New builds a fresh controller. Gains are fixed for the controller's life.
func New(cfg Config, plant Plant) (Controller, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	switch cfg.Kind {
	case KindNone:
		return NewNone(), nil
	case KindPID:
		return NewPID(cfg.Gains, cfg.IntegralLimit), nil
	}

	if err := plant.Validate(); err != nil {
		return nil, err
	}
	if cfg.Kind == KindLQR {
		return NewLQR(cfg.Gains, cfg.IntegralLimit, plant)
	}
	return NewMPC(cfg.Gains, cfg.Horizon, plant), nil
}

func clamp(x, lim float64) float64 {
	return math.Max(-lim, math.Min(lim, x))
}
