package experiment

import (
	"fmt"
	"sort"

	"github.com/san-kum/casim/internal/ca"
	"github.com/san-kum/casim/internal/control"
	"github.com/san-kum/casim/internal/dynamics"
	"github.com/san-kum/casim/internal/sim"
)

const sensorBiasMagnitude = 0.04

// Registry maps factor level names to episode configuration fragments.
type Registry struct {
	controllers map[string]func(map[string]float64) control.Config
	turbulence  map[string]func() dynamics.TurbulenceConfig
	failures    map[string]func(seed int64) sim.Failure
}

func NewRegistry() *Registry {
	r := &Registry{
		controllers: make(map[string]func(map[string]float64) control.Config),
		turbulence:  make(map[string]func() dynamics.TurbulenceConfig),
		failures:    make(map[string]func(int64) sim.Failure),
	}

	for _, kind := range []control.Kind{control.KindPID, control.KindLQR, control.KindMPC} {
		r.controllers[string(kind)] = func(params map[string]float64) control.Config {
			cfg := control.DefaultConfig()
			cfg.Kind = kind
			if v, ok := params["kp"]; ok {
				cfg.Gains.Kp = v
			}
			if v, ok := params["ki"]; ok {
				cfg.Gains.Ki = v
			}
			if v, ok := params["kd"]; ok {
				cfg.Gains.Kd = v
			}
			return cfg
		}
	}
	r.controllers["none"] = func(map[string]float64) control.Config {
		return control.Config{Kind: control.KindNone}
	}

	r.turbulence["none"] = func() dynamics.TurbulenceConfig { return dynamics.DefaultTurbulence() }
	r.turbulence["low"] = func() dynamics.TurbulenceConfig {
		return dynamics.TurbulenceConfig{Theta: 0.5, Sigma: 0.02}
	}
	r.turbulence["high"] = func() dynamics.TurbulenceConfig {
		return dynamics.TurbulenceConfig{Theta: 0.8, Sigma: 0.06}
	}
	// Calm start, a gust front between ticks 60 and 120, then a light tail.
	r.turbulence["block"] = func() dynamics.TurbulenceConfig {
		return dynamics.TurbulenceConfig{
			Theta: 0.5,
			Sigma: 0.5,
			Schedule: &dynamics.Schedule{
				Base: 0.1,
				Blocks: []dynamics.Block{
					{Start: 0, End: 60, Scale: 0},
					{Start: 60, End: 120, Scale: 0.4},
				},
			},
		}
	}

	r.failures["none"] = func(int64) sim.Failure { return sim.Failure{SaturationScale: 1} }
	r.failures["outage"] = func(int64) sim.Failure {
		return sim.Failure{Start: 70, End: 90, SaturationScale: 1}
	}
	r.failures["sensor_bias"] = func(seed int64) sim.Failure {
		bias := sensorBiasMagnitude
		if seed%2 != 0 {
			bias = -bias
		}
		return sim.Failure{SensorBias: bias, SaturationScale: 1}
	}
	r.failures["actuator_sat"] = func(int64) sim.Failure {
		return sim.Failure{SaturationScale: 0.75}
	}

	return r
}

func (r *Registry) GetController(name string, params map[string]float64) (control.Config, error) {
	fn, ok := r.controllers[name]
	if !ok {
		return control.Config{}, fmt.Errorf("unknown controller: %s", name)
	}
	return fn(params), nil
}

func (r *Registry) GetTurbulence(name string) (dynamics.TurbulenceConfig, error) {
	fn, ok := r.turbulence[name]
	if !ok {
		return dynamics.TurbulenceConfig{}, fmt.Errorf("unknown turbulence level: %s", name)
	}
	return fn(), nil
}

func (r *Registry) GetFailure(name string, seed int64) (sim.Failure, error) {
	fn, ok := r.failures[name]
	if !ok {
		return sim.Failure{}, fmt.Errorf("unknown failure mode: %s", name)
	}
	return fn(seed), nil
}

// GetGrid accepts any "ROWSxCOLS" label.
func (r *Registry) GetGrid(name string) (ca.Shape, error) {
	return ca.ParseShape(name)
}

func (r *Registry) ListControllers() []string { return sortedKeys(r.controllers) }
func (r *Registry) ListTurbulence() []string  { return sortedKeys(r.turbulence) }
func (r *Registry) ListFailures() []string    { return sortedKeys(r.failures) }

func sortedKeys[V any](m map[string]V) []string {
	names := make([]string, 0, len(m))
	for name := range m {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
