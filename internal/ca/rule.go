package ca

import (
	"fmt"
	"math"
)

// Rule holds the coupling coefficients of the lattice update. Each cell's
// next value is a convex combination of its current value, its neighbourhood
// mean and a field-specific forcing term.
type Rule struct {
	Diffusion           float64 `yaml:"diffusion" json:"diffusion"`
	ControlCoupling     float64 `yaml:"control_coupling" json:"control_coupling"`
	StabilitySetpoint   float64 `yaml:"stability_setpoint" json:"stability_setpoint"`
	StabilityRecovery   float64 `yaml:"stability_recovery" json:"stability_recovery"`
	AttitudeSensitivity float64 `yaml:"attitude_sensitivity" json:"attitude_sensitivity"`
	TurbulenceDecay     float64 `yaml:"turbulence_decay" json:"turbulence_decay"`
	SpeedTrim           float64 `yaml:"speed_trim" json:"speed_trim"`
	SpeedDamping        float64 `yaml:"speed_damping" json:"speed_damping"`
	SpeedStabilityGain  float64 `yaml:"speed_stability_gain" json:"speed_stability_gain"`
}

func DefaultRule() Rule {
	return Rule{
		Diffusion:           0.1,
		ControlCoupling:     0.25,
		StabilitySetpoint:   0.8,
		StabilityRecovery:   0.05,
		AttitudeSensitivity: 0.5,
		TurbulenceDecay:     0.1,
		SpeedTrim:           1.0,
		SpeedDamping:        0.05,
		SpeedStabilityGain:  0.5,
	}
}

func (r Rule) Validate() error {
	weights := map[string]float64{
		"diffusion":            r.Diffusion,
		"control_coupling":     r.ControlCoupling,
		"stability_recovery":   r.StabilityRecovery,
		"speed_damping":        r.SpeedDamping,
		"attitude_sensitivity": r.AttitudeSensitivity,
		"turbulence_decay":     r.TurbulenceDecay,
	}
	for name, w := range weights {
		if w < 0 || math.IsNaN(w) || math.IsInf(w, 0) {
			return fmt.Errorf("rule %s must be a finite value >= 0, got %v", name, w)
		}
	}
	if r.Diffusion+r.ControlCoupling > 1 {
		return fmt.Errorf("rule diffusion+control_coupling must be <= 1, got %v", r.Diffusion+r.ControlCoupling)
	}
	if r.Diffusion+r.StabilityRecovery > 1 {
		return fmt.Errorf("rule diffusion+stability_recovery must be <= 1, got %v", r.Diffusion+r.StabilityRecovery)
	}
	if r.Diffusion+r.SpeedDamping > 1 {
		return fmt.Errorf("rule diffusion+speed_damping must be <= 1, got %v", r.Diffusion+r.SpeedDamping)
	}
	if r.StabilitySetpoint < 0 || r.StabilitySetpoint > 1 {
		return fmt.Errorf("rule stability_setpoint must be in [0, 1], got %v", r.StabilitySetpoint)
	}
	return nil
}

// Input is what the closed loop injects into the vehicle cell for one tick.
type Input struct {
	Applied     float64
	Disturbance float64
	Reference   float64
}

// Step advances the lattice by one synchronous tick. It is deterministic in
// (g, in) and never allocates.
func (r Rule) Step(g *Grid, in Input) {
	rows, cols := g.shape.Rows, g.shape.Cols
	d := r.Diffusion
	k := r.ControlCoupling
	rec := r.StabilityRecovery
	damp := r.SpeedDamping

	for i := 0; i < rows; i++ {
		for j := 0; j < cols; j++ {
			var sa, ss, sv float64
			cnt := 0
			for di := -1; di <= 1; di++ {
				ni := i + di
				if ni < 0 || ni >= rows {
					continue
				}
				for dj := -1; dj <= 1; dj++ {
					nj := j + dj
					if (di == 0 && dj == 0) || nj < 0 || nj >= cols {
						continue
					}
					n := ni*cols + nj
					sa += g.a[n]
					ss += g.s[n]
					sv += g.v[n]
					cnt++
				}
			}
			c := float64(cnt)
			la, ls, lv := sa/c, ss/c, sv/c

			idx := i*cols + j
			a, s, v := g.a[idx], g.s[idx], g.v[idx]

			target := r.StabilitySetpoint
			if idx == g.vehicle {
				g.na[idx] = (1-d-k)*a + d*la + k*(in.Applied+in.Disturbance)
				target -= r.AttitudeSensitivity*math.Abs(in.Reference-a) + r.TurbulenceDecay*math.Abs(in.Disturbance)
			} else {
				g.na[idx] = (1-d)*a + d*la
			}
			g.ns[idx] = clamp01((1-d-rec)*s + d*ls + rec*target)
			g.nv[idx] = (1-d-damp)*v + d*lv + damp*(r.SpeedTrim+r.SpeedStabilityGain*(s-0.5))
		}
	}

	g.swap()
}

// Limits are the fixed crash thresholds.
type Limits struct {
	Attitude       float64 `yaml:"attitude" json:"attitude"`
	StabilityFloor float64 `yaml:"stability_floor" json:"stability_floor"`
}

func DefaultLimits() Limits {
	return Limits{Attitude: 3.0, StabilityFloor: 0.18}
}

func (l Limits) Validate() error {
	if !(l.Attitude > 0) || math.IsInf(l.Attitude, 0) {
		return fmt.Errorf("attitude limit must be a finite value > 0, got %v", l.Attitude)
	}
	if l.StabilityFloor < 0 || l.StabilityFloor >= 1 {
		return fmt.Errorf("stability floor must be in [0, 1), got %v", l.StabilityFloor)
	}
	return nil
}

// Crashed is the crash predicate: vehicle attitude beyond the limit, vehicle
// stability below the floor, or any non-finite field anywhere in the lattice.
func (l Limits) Crashed(g *Grid) bool {
	veh := g.Vehicle()
	if !veh.IsFinite() {
		return true
	}
	if math.Abs(veh.A) > l.Attitude || veh.S < l.StabilityFloor {
		return true
	}
	return !g.IsFinite()
}
