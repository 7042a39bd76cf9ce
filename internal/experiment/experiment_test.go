package experiment

import (
	"context"
	"errors"
	"reflect"
	"testing"

	"github.com/san-kum/casim/internal/control"
	"github.com/san-kum/casim/internal/metrics"
	"github.com/san-kum/casim/internal/sim"
)

func TestRegistryLists(t *testing.T) {
	r := NewRegistry()
	if got, want := r.ListControllers(), []string{"lqr", "mpc", "none", "pid"}; !reflect.DeepEqual(got, want) {
		t.Errorf("controllers = %v, want %v", got, want)
	}
	if got, want := r.ListFailures(), []string{"actuator_sat", "none", "outage", "sensor_bias"}; !reflect.DeepEqual(got, want) {
		t.Errorf("failures = %v, want %v", got, want)
	}
	for _, name := range r.ListTurbulence() {
		tc, err := r.GetTurbulence(name)
		if err != nil {
			t.Fatalf("turbulence %s: %v", name, err)
		}
		if err := tc.Validate(); err != nil {
			t.Errorf("turbulence %s invalid: %v", name, err)
		}
	}
}

func TestRegistryUnknown(t *testing.T) {
	r := NewRegistry()
	if _, err := r.GetController("bangbang", nil); err == nil {
		t.Error("expected unknown controller error")
	}
	if _, err := r.GetTurbulence("hurricane"); err == nil {
		t.Error("expected unknown turbulence error")
	}
	if _, err := r.GetFailure("meltdown", 1); err == nil {
		t.Error("expected unknown failure error")
	}
	if _, err := r.GetGrid("big"); err == nil {
		t.Error("expected bad grid error")
	}
}

func TestControllerParamsOverride(t *testing.T) {
	cfg, err := NewRegistry().GetController("mpc", map[string]float64{"kp": 3, "kd": 0.2})
	if err != nil {
		t.Fatalf("GetController: %v", err)
	}
	if cfg.Kind != control.KindMPC {
		t.Errorf("kind = %v, want mpc", cfg.Kind)
	}
	want := control.Gains{Kp: 3, Ki: control.DefaultConfig().Gains.Ki, Kd: 0.2}
	if cfg.Gains != want {
		t.Errorf("gains = %v, want %v", cfg.Gains, want)
	}
}

func TestSensorBiasSignFollowsSeed(t *testing.T) {
	r := NewRegistry()
	even, _ := r.GetFailure("sensor_bias", 2)
	odd, _ := r.GetFailure("sensor_bias", 3)
	if even.SensorBias != sensorBiasMagnitude || odd.SensorBias != -sensorBiasMagnitude {
		t.Errorf("bias signs: even %v odd %v", even.SensorBias, odd.SensorBias)
	}
}

func TestExperimentRun(t *testing.T) {
	base := sim.DefaultConfig()
	base.Horizon = 80
	f := Factors{Controller: "pid", Grid: "9x9", Turbulence: "low", Failure: "actuator_sat"}

	exp, err := New(NewRegistry(), base, f, 4, nil)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	cfg := exp.Config()
	if cfg.Grid.Rows != 9 || cfg.Failure.SaturationScale != 0.75 || cfg.Seed != 4 {
		t.Errorf("factors not applied: %+v", cfg)
	}

	res, err := exp.Run(context.Background())
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	row := exp.Row(res, metrics.DefaultRecovery())
	if row.Key() != f.String() || row.Seed != 4 || row.Summary.Ticks != len(res.Trace) {
		t.Errorf("unexpected row %+v", row)
	}
}

func TestExperimentRejectsBadFactors(t *testing.T) {
	_, err := New(NewRegistry(), sim.DefaultConfig(), Factors{Controller: "pid", Grid: "2x2", Turbulence: "low", Failure: "none"}, 1, nil)
	if err == nil {
		t.Error("expected error for undersized grid")
	}

	base := sim.DefaultConfig()
	base.Dt = 0
	_, err = New(NewRegistry(), base, Factors{Controller: "pid", Grid: "9x9", Turbulence: "low", Failure: "none"}, 1, nil)
	if !errors.Is(err, sim.ErrInvalidConfig) {
		t.Errorf("expected ErrInvalidConfig, got %v", err)
	}
}

func TestExperimentRunCanceled(t *testing.T) {
	exp, err := New(NewRegistry(), sim.DefaultConfig(), Factors{Controller: "lqr", Grid: "5x5", Turbulence: "none", Failure: "none"}, 1, nil)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := exp.Run(ctx); !errors.Is(err, context.Canceled) {
		t.Errorf("expected context.Canceled, got %v", err)
	}
}
