package control

import (
	"math"
	"testing"
)

func TestMPCOffsetFree(t *testing.T) {
	m := NewMPC(Gains{Kp: 1, Ki: 0.1, Kd: 0.05}, 10, testPlant)
	e := 0.3
	for i := 0; i < 300; i++ {
		u := m.Update(e, 1)
		e = testPlant.Pole*e + 0.05 - testPlant.Gain*u
	}
	if math.Abs(e) > 1e-9 {
		t.Errorf("steady-state error = %v, want ~0", e)
	}
	if math.Abs(m.Offset()-0.05) > 1e-6 {
		t.Errorf("offset estimate = %v, want 0.05", m.Offset())
	}
}

func TestMPCCommandSign(t *testing.T) {
	m := NewMPC(Gains{Kp: 1, Ki: 0.1, Kd: 0.05}, 10, testPlant)
	if u := m.Update(0.3, 1); u <= 0 {
		t.Errorf("positive error should give positive command, got %v", u)
	}
	m.Reset()
	if u := m.Update(-0.3, 1); u >= 0 {
		t.Errorf("negative error should give negative command, got %v", u)
	}
}

func TestMPCMovePenaltySlowsFirstMove(t *testing.T) {
	soft := NewMPC(Gains{Kp: 1, Ki: 0.1, Kd: 0.01}, 10, testPlant)
	stiff := NewMPC(Gains{Kp: 1, Ki: 0.1, Kd: 10}, 10, testPlant)
	if s, h := soft.Update(0.3, 1), stiff.Update(0.3, 1); h >= s {
		t.Errorf("heavier move penalty should give a smaller first move: soft=%v stiff=%v", s, h)
	}
}
