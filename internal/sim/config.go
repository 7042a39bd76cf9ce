package sim

import (
	"errors"
	"fmt"
	"math"

	"github.com/san-kum/casim/internal/ca"
	"github.com/san-kum/casim/internal/control"
	"github.com/san-kum/casim/internal/dynamics"
)

// Failure describes the degraded modes of an episode. The controller is
// suppressed on ticks in [Start, End); Start == End disables the window.
// SensorBias and SaturationScale apply for the whole episode.
type Failure struct {
	Start           int     `yaml:"start" json:"start"`
	End             int     `yaml:"end" json:"end"`
	SensorBias      float64 `yaml:"sensor_bias" json:"sensor_bias"`
	SaturationScale float64 `yaml:"saturation_scale" json:"saturation_scale"`
}

func (f Failure) Contains(tick int) bool {
	return tick >= f.Start && tick < f.End
}

func (f Failure) Validate() error {
	if f.Start < 0 {
		return fmt.Errorf("window start must be >= 0, got %d", f.Start)
	}
	if f.End < f.Start {
		return fmt.Errorf("window end %d before start %d", f.End, f.Start)
	}
	if math.IsNaN(f.SensorBias) || math.IsInf(f.SensorBias, 0) {
		return fmt.Errorf("sensor bias must be finite, got %v", f.SensorBias)
	}
	if !(f.SaturationScale > 0 && f.SaturationScale <= 1) {
		return fmt.Errorf("saturation scale must be in (0, 1], got %v", f.SaturationScale)
	}
	return nil
}

// Reference is a step profile: Base before Onset, Base+Step from Onset on.
type Reference struct {
	Base  float64 `yaml:"base" json:"base"`
	Step  float64 `yaml:"step" json:"step"`
	Onset int     `yaml:"onset" json:"onset"`
}

func (r Reference) At(tick int) float64 {
	if tick < r.Onset {
		return r.Base
	}
	return r.Base + r.Step
}

func (r Reference) Validate() error {
	if math.IsNaN(r.Base) || math.IsInf(r.Base, 0) || math.IsNaN(r.Step) || math.IsInf(r.Step, 0) {
		return errors.New("reference base and step must be finite")
	}
	if r.Onset < 0 {
		return fmt.Errorf("reference onset must be >= 0, got %d", r.Onset)
	}
	return nil
}

type Config struct {
	Controller control.Config            `yaml:"controller" json:"controller"`
	Grid       ca.Shape                  `yaml:"grid" json:"grid"`
	Rule       ca.Rule                   `yaml:"rule" json:"rule"`
	Init       ca.Init                   `yaml:"init" json:"init"`
	Limits     ca.Limits                 `yaml:"limits" json:"limits"`
	Actuator   dynamics.ActuatorConfig   `yaml:"actuator" json:"actuator"`
	Turbulence dynamics.TurbulenceConfig `yaml:"turbulence" json:"turbulence"`
	Failure    Failure                   `yaml:"failure" json:"failure"`
	Reference  Reference                 `yaml:"reference" json:"reference"`
	Horizon    int                       `yaml:"horizon" json:"horizon"`
	Dt         float64                   `yaml:"dt" json:"dt"`
	Seed       int64                     `yaml:"seed" json:"seed"`
}

func DefaultConfig() Config {
	return Config{
		Controller: control.DefaultConfig(),
		Grid:       ca.Shape{Rows: 30, Cols: 30},
		Rule:       ca.DefaultRule(),
		Init:       ca.DefaultInit(),
		Limits:     ca.DefaultLimits(),
		Actuator:   dynamics.DefaultActuator(),
		Turbulence: dynamics.DefaultTurbulence(),
		Failure:    Failure{SaturationScale: 1},
		Reference:  Reference{Base: 0, Step: 0.3, Onset: 35},
		Horizon:    600,
		Dt:         1.0,
		Seed:       1,
	}
}

// Plant returns the nominal vehicle-cell model the model-based controllers
// are designed against.
func (c Config) Plant() control.Plant {
	return control.Plant{
		Pole: 1 - c.Rule.ControlCoupling,
		Gain: c.Rule.ControlCoupling,
		Dt:   c.Dt,
	}
}

// EffectiveActuator is the actuator after the failure profile's saturation
// scale is applied.
func (c Config) EffectiveActuator() dynamics.ActuatorConfig {
	return c.Actuator.Scaled(c.Failure.SaturationScale)
}

// Validate fails fast on the first bad field and never clamps.
func (c Config) Validate() error {
	if !(c.Dt > 0) || math.IsInf(c.Dt, 0) {
		return configErr("dt", fmt.Errorf("must be a finite value > 0, got %v", c.Dt))
	}
	if c.Horizon < 0 {
		return configErr("horizon", fmt.Errorf("must be >= 0, got %d", c.Horizon))
	}
	checks := []struct {
		field string
		err   error
	}{
		{"grid", c.Grid.Validate()},
		{"rule", c.Rule.Validate()},
		{"init", c.Init.Validate()},
		{"limits", c.Limits.Validate()},
		{"failure", c.Failure.Validate()},
		{"reference", c.Reference.Validate()},
		{"turbulence", c.Turbulence.Validate()},
		{"controller", c.Controller.Validate()},
	}
	for _, chk := range checks {
		if chk.err != nil {
			return configErr(chk.field, chk.err)
		}
	}
	if err := c.Actuator.Validate(c.Dt); err != nil {
		return configErr("actuator", err)
	}
	return configErr("actuator", c.EffectiveActuator().Validate(c.Dt))
}
