package ca

import (
	"math"
	"testing"
)

func flatGrid(t *testing.T, shape Shape) *Grid {
	t.Helper()
	rule := DefaultRule()
	init := Init{
		Stability: rule.StabilitySetpoint,
		Speed:     rule.SpeedTrim + rule.SpeedStabilityGain*(rule.StabilitySetpoint-0.5),
	}
	g, err := New(shape, init, nil)
	if err != nil {
		t.Fatalf("new failed: %v", err)
	}
	return g
}

func TestStepEquilibrium(t *testing.T) {
	g := flatGrid(t, Shape{5, 5})
	before := g.Vehicle()
	rule := DefaultRule()

	for i := 0; i < 50; i++ {
		rule.Step(g, Input{})
	}

	after := g.Vehicle()
	if math.Abs(after.A-before.A) > 1e-12 ||
		math.Abs(after.S-before.S) > 1e-12 ||
		math.Abs(after.V-before.V) > 1e-12 {
		t.Errorf("flat lattice drifted: before %+v after %+v", before, after)
	}
}

func TestStepInjectsAtVehicleOnly(t *testing.T) {
	g := flatGrid(t, Shape{5, 5})
	rule := DefaultRule()

	rule.Step(g, Input{Applied: 1.0})

	if got := g.Vehicle().A; math.Abs(got-rule.ControlCoupling) > 1e-12 {
		t.Errorf("expected vehicle attitude %v, got %v", rule.ControlCoupling, got)
	}
	for i := 0; i < 5; i++ {
		for j := 0; j < 5; j++ {
			if i == 2 && j == 2 {
				continue
			}
			if a := g.At(i, j).A; a != 0 {
				t.Errorf("cell (%d,%d) attitude should still be 0, got %v", i, j, a)
			}
		}
	}

	rule.Step(g, Input{})
	if a := g.At(1, 1).A; a <= 0 {
		t.Errorf("expected attitude to diffuse into neighbour, got %v", a)
	}
	if a := g.At(0, 0).A; a != 0 {
		t.Errorf("corner should be out of reach after two ticks, got %v", a)
	}
}

func TestStepBoundaryNeighbourhood(t *testing.T) {
	g := flatGrid(t, Shape{4, 4})
	rule := DefaultRule()
	// Corner (0,0) has three in-bounds neighbours: (0,1), (1,0), (1,1).
	g.a[1] = 0.3

	rule.Step(g, Input{})

	want := rule.Diffusion * 0.3 / 3
	if got := g.At(0, 0).A; math.Abs(got-want) > 1e-12 {
		t.Errorf("corner attitude = %v, want %v", got, want)
	}
}

func TestStepStabilityDropsWithError(t *testing.T) {
	g := flatGrid(t, Shape{5, 5})
	rule := DefaultRule()

	rule.Step(g, Input{Reference: 1.0})

	if s := g.Vehicle().S; s >= rule.StabilitySetpoint {
		t.Errorf("vehicle stability should drop under tracking error, got %v", s)
	}
	if s := g.At(0, 0).S; math.Abs(s-rule.StabilitySetpoint) > 1e-12 {
		t.Errorf("non-vehicle stability should hold setpoint, got %v", s)
	}
}

func TestRuleValidate(t *testing.T) {
	if err := DefaultRule().Validate(); err != nil {
		t.Fatalf("default rule invalid: %v", err)
	}

	tests := []struct {
		name   string
		mutate func(*Rule)
	}{
		{"negative diffusion", func(r *Rule) { r.Diffusion = -0.1 }},
		{"non convex attitude", func(r *Rule) { r.Diffusion = 0.6; r.ControlCoupling = 0.5 }},
		{"non convex stability", func(r *Rule) { r.Diffusion = 0.9; r.ControlCoupling = 0; r.StabilityRecovery = 0.2 }},
		{"setpoint above one", func(r *Rule) { r.StabilitySetpoint = 1.2 }},
		{"nan coupling", func(r *Rule) { r.ControlCoupling = math.NaN() }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := DefaultRule()
			tt.mutate(&r)
			if err := r.Validate(); err == nil {
				t.Error("expected error, got nil")
			}
		})
	}
}

func TestCrashed(t *testing.T) {
	limits := DefaultLimits()

	tests := []struct {
		name    string
		mutate  func(g *Grid)
		crashed bool
	}{
		{"nominal", func(g *Grid) {}, false},
		{"attitude over limit", func(g *Grid) { g.a[g.vehicle] = 3.5 }, true},
		{"negative attitude over limit", func(g *Grid) { g.a[g.vehicle] = -3.5 }, true},
		{"stability below floor", func(g *Grid) { g.s[g.vehicle] = 0.1 }, true},
		{"nan vehicle", func(g *Grid) { g.v[g.vehicle] = math.NaN() }, true},
		{"inf elsewhere", func(g *Grid) { g.a[0] = math.Inf(1) }, true},
		{"large attitude off vehicle", func(g *Grid) { g.a[0] = 10 }, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			g := flatGrid(t, Shape{5, 5})
			tt.mutate(g)
			if got := limits.Crashed(g); got != tt.crashed {
				t.Errorf("Crashed() = %v, want %v", got, tt.crashed)
			}
		})
	}
}
