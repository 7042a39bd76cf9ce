package dynamics

import (
	"math"
	"testing"
)

func TestActuatorBoundsAndRate(t *testing.T) {
	cfg := DefaultActuator()
	act, err := NewActuator(cfg, 1.0)
	if err != nil {
		t.Fatalf("new actuator: %v", err)
	}

	cmds := []float64{100, 100, -100, 3, -50, 0, 1e6, -1e6, 0.1}
	prev := act.Applied()
	for i := 0; i < 200; i++ {
		u := act.Apply(cmds[i%len(cmds)], 1.0)
		if u < cfg.Min || u > cfg.Max {
			t.Fatalf("tick %d: applied %v outside [%v, %v]", i, u, cfg.Min, cfg.Max)
		}
		if math.Abs(u-prev) > cfg.RateLimit+1e-12 {
			t.Fatalf("tick %d: change %v exceeds rate limit %v", i, u-prev, cfg.RateLimit)
		}
		prev = u
	}
}

func TestActuatorLagConverges(t *testing.T) {
	act, err := NewActuator(ActuatorConfig{Tau: 2, RateLimit: 10, Min: -5, Max: 5}, 1.0)
	if err != nil {
		t.Fatalf("new actuator: %v", err)
	}

	if got := act.Apply(1.0, 1.0); math.Abs(got-0.5) > 1e-12 {
		t.Errorf("first lag step = %v, want 0.5", got)
	}
	for i := 0; i < 60; i++ {
		act.Apply(1.0, 1.0)
	}
	if got := act.Applied(); math.Abs(got-1.0) > 1e-9 {
		t.Errorf("lag should settle at command, got %v", got)
	}
}

func TestActuatorInitialClamp(t *testing.T) {
	act, err := NewActuator(ActuatorConfig{Tau: 1, RateLimit: 1, Min: 0.5, Max: 1}, 1.0)
	if err != nil {
		t.Fatalf("new actuator: %v", err)
	}
	if act.Applied() != 0.5 {
		t.Errorf("initial applied = %v, want 0.5", act.Applied())
	}
}

func TestActuatorValidate(t *testing.T) {
	tests := []struct {
		name string
		cfg  ActuatorConfig
		dt   float64
	}{
		{"tau below dt", ActuatorConfig{Tau: 0.5, RateLimit: 1, Min: -1, Max: 1}, 1.0},
		{"zero rate", ActuatorConfig{Tau: 2, RateLimit: 0, Min: -1, Max: 1}, 1.0},
		{"inverted band", ActuatorConfig{Tau: 2, RateLimit: 1, Min: 1, Max: -1}, 1.0},
		{"empty band", ActuatorConfig{Tau: 2, RateLimit: 1, Min: 1, Max: 1}, 1.0},
		{"zero dt", DefaultActuator(), 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := NewActuator(tt.cfg, tt.dt); err == nil {
				t.Error("expected error, got nil")
			}
		})
	}
}

func TestActuatorScaled(t *testing.T) {
	cfg := DefaultActuator().Scaled(0.25)
	if cfg.Min != -0.5 || cfg.Max != 0.5 {
		t.Errorf("scaled band = [%v, %v], want [-0.5, 0.5]", cfg.Min, cfg.Max)
	}
	act, err := NewActuator(cfg, 1.0)
	if err != nil {
		t.Fatalf("new actuator: %v", err)
	}
	for i := 0; i < 20; i++ {
		act.Apply(10, 1.0)
	}
	if act.Applied() != 0.5 {
		t.Errorf("expected saturation at 0.5, got %v", act.Applied())
	}
}
