package control

import (
	"math"
	"testing"
)

func TestPIDFirstUpdateHasNoDerivative(t *testing.T) {
	p := NewPID(Gains{Kp: 2, Ki: 0.5, Kd: 10}, 5)
	got := p.Update(0.4, 1.0)
	want := 2*0.4 + 0.5*0.4
	if math.Abs(got-want) > 1e-12 {
		t.Errorf("first update = %v, want %v", got, want)
	}
}

func TestPIDTerms(t *testing.T) {
	p := NewPID(Gains{Kp: 1, Ki: 0.1, Kd: 0.5}, 5)
	p.Update(0.2, 0.5)
	got := p.Update(0.3, 0.5)

	integral := 0.2*0.5 + 0.3*0.5
	derivative := (0.3 - 0.2) / 0.5
	want := 1*0.3 + 0.1*integral + 0.5*derivative
	if math.Abs(got-want) > 1e-12 {
		t.Errorf("update = %v, want %v", got, want)
	}
}

func TestPIDAntiWindup(t *testing.T) {
	p := NewPID(Gains{Kp: 1, Ki: 1, Kd: 0.01}, 2)
	for i := 0; i < 100; i++ {
		p.Update(1.0, 1.0)
	}
	if p.Integral() != 2 {
		t.Errorf("integral = %v, want clamped at 2", p.Integral())
	}
	for i := 0; i < 100; i++ {
		p.Update(-1.0, 1.0)
	}
	if p.Integral() != -2 {
		t.Errorf("integral = %v, want clamped at -2", p.Integral())
	}
}

func TestPIDSuppressFreezesIntegral(t *testing.T) {
	p := NewPID(Gains{Kp: 1, Ki: 0.1, Kd: 0.5}, 5)
	p.Update(0.5, 1.0)
	p.Update(0.5, 1.0)
	frozen := p.Integral()

	p.Suppress(true)
	for i := 0; i < 20; i++ {
		p.Update(0.8, 1.0)
	}
	if p.Integral() != frozen {
		t.Errorf("integral moved while suppressed: %v -> %v", frozen, p.Integral())
	}

	p.Suppress(false)
	got := p.Update(0.8, 1.0)
	want := 1*0.8 + 0.1*(frozen+0.8)
	if math.Abs(got-want) > 1e-12 {
		t.Errorf("first update after window = %v, want %v (no derivative kick)", got, want)
	}
}

func TestPIDReset(t *testing.T) {
	p := NewPID(Gains{Kp: 1, Ki: 1, Kd: 1}, 5)
	p.Update(1, 1)
	p.Update(2, 1)
	p.Suppress(true)
	p.Reset()

	if p.Integral() != 0 {
		t.Errorf("integral after reset = %v", p.Integral())
	}
	if got := p.Update(1, 1); got != 2 {
		t.Errorf("update after reset = %v, want 2", got)
	}
}
