package sim

import (
	"github.com/san-kum/casim/internal/ca"
	"github.com/san-kum/casim/internal/control"
	"github.com/san-kum/casim/internal/dynamics"
)

// Episode is a single closed-loop run. It is not safe for concurrent use;
// batches build one Episode per goroutine.
type Episode struct {
	cfg        Config
	grid       *ca.Grid
	controller control.Controller
	actuator   *dynamics.Actuator
	turbulence *dynamics.Turbulence
	observers  []Observer

	status Status
	result *Result
}

// NewEpisode validates cfg and builds every component of the loop. Any
// failure is a *ConfigError.
func NewEpisode(cfg Config) (*Episode, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	grid, err := ca.New(cfg.Grid, cfg.Init, newStream(cfg.Seed, streamLattice))
	if err != nil {
		return nil, configErr("grid", err)
	}
	ctrl, err := control.New(cfg.Controller, cfg.Plant())
	if err != nil {
		return nil, configErr("controller", err)
	}
	act, err := dynamics.NewActuator(cfg.EffectiveActuator(), cfg.Dt)
	if err != nil {
		return nil, configErr("actuator", err)
	}
	turb, err := dynamics.NewTurbulence(cfg.Turbulence, newStream(cfg.Seed, streamTurbulence))
	if err != nil {
		return nil, configErr("turbulence", err)
	}

	return &Episode{
		cfg:        cfg,
		grid:       grid,
		controller: ctrl,
		actuator:   act,
		turbulence: turb,
		status:     StatusInit,
	}, nil
}

func (e *Episode) AddObserver(o Observer) { e.observers = append(e.observers, o) }

func (e *Episode) Status() Status { return e.status }

func (e *Episode) Grid() *ca.Grid { return e.grid }

// Run ticks the loop until the horizon or a crash. A second call returns the
// first result unchanged.
func (e *Episode) Run() *Result {
	if e.result != nil {
		return e.result
	}
	e.status = StatusRunning

	cfg := e.cfg
	dt := cfg.Dt
	res := &Result{
		Seed:      cfg.Seed,
		Trace:     make(Trace, 0, cfg.Horizon),
		CrashTick: -1,
	}

	for t := 0; t < cfg.Horizon; t++ {
		ref := cfg.Reference.At(t)
		measured := ref - e.grid.Vehicle().A + cfg.Failure.SensorBias

		suppressed := cfg.Failure.Contains(t)
		e.controller.Suppress(suppressed)
		cmd := e.controller.Update(measured, dt)
		applied := e.actuator.Apply(cmd, dt)
		dist := e.turbulence.Next(dt)

		cfg.Rule.Step(e.grid, ca.Input{Applied: applied, Disturbance: dist, Reference: ref})

		veh := e.grid.Vehicle()
		rec := Record{
			Tick:        t,
			Time:        float64(t) * dt,
			Reference:   ref,
			Error:       measured,
			Command:     cmd,
			Applied:     applied,
			Disturbance: dist,
			Attitude:    veh.A,
			Stability:   veh.S,
			Speed:       veh.V,
			Suppressed:  suppressed,
		}
		res.Trace = append(res.Trace, rec)
		for _, o := range e.observers {
			o.OnTick(rec)
		}

		if cfg.Limits.Crashed(e.grid) {
			e.status = StatusCrashed
			res.CrashTick = t
			break
		}
	}

	if e.status == StatusRunning {
		e.status = StatusCompleted
	}
	res.Status = e.status
	e.result = res
	return res
}

// Run builds and runs one episode.
func Run(cfg Config) (*Result, error) {
	ep, err := NewEpisode(cfg)
	if err != nil {
		return nil, err
	}
	return ep.Run(), nil
}
