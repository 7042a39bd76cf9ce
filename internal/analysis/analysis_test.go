package analysis

import (
	"math"
	"strings"
	"testing"

	"github.com/san-kum/casim/internal/sim"
)

func TestPowerSpectrumSine(t *testing.T) {
	const n, period = 256, 16
	data := make([]float64, n)
	for i := range data {
		data[i] = 3 + math.Sin(2*math.Pi*float64(i)/period)
	}

	ps := PowerSpectrum(data)
	if len(ps) != n/2+1 {
		t.Fatalf("len = %d, want %d", len(ps), n/2+1)
	}
	if ps[0] > 1e-9 {
		t.Errorf("mean not removed: DC power %v", ps[0])
	}
	peak := n / period
	// A unit sine over n samples puts n/4 power in its bin.
	if math.Abs(ps[peak]-n/4.0) > 1e-6 {
		t.Errorf("peak power = %v, want %v", ps[peak], n/4.0)
	}
}

func TestDominantPeriod(t *testing.T) {
	tests := []struct {
		name   string
		period float64
		dt     float64
		n      int
	}{
		{"power of two", 16, 1, 256},
		{"odd length", 10, 1, 300},
		{"scaled time", 20, 0.5, 400},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			data := make([]float64, tt.n)
			for i := range data {
				data[i] = math.Cos(2 * math.Pi * float64(i) / tt.period)
			}
			got, ok := DominantPeriod(data, tt.dt)
			if !ok {
				t.Fatal("no period found")
			}
			want := tt.period * tt.dt
			if math.Abs(got-want) > 1e-9 {
				t.Errorf("period = %v, want %v", got, want)
			}
		})
	}
}

func TestDominantPeriodFlat(t *testing.T) {
	if _, ok := DominantPeriod([]float64{2, 2, 2, 2, 2, 2}, 1); ok {
		t.Error("flat series should have no period")
	}
	if _, ok := DominantPeriod([]float64{1}, 1); ok {
		t.Error("single sample should have no period")
	}
	if PowerSpectrum(nil) != nil {
		t.Error("empty series should give nil spectrum")
	}
}

func TestReferenceCrossings(t *testing.T) {
	trace := sim.Trace{
		{Tick: 0, Reference: 0.3, Attitude: 0},
		{Tick: 1, Reference: 0.3, Attitude: 0.35},
		{Tick: 2, Reference: 0.3, Attitude: 0.25},
		{Tick: 3, Reference: 0.3, Attitude: 0.3},
		{Tick: 4, Reference: 0.3, Attitude: 0.31},
	}
	got := ReferenceCrossings(trace)
	if len(got) != 2 || got[0] != 1 || got[1] != 3 {
		t.Errorf("crossings = %v, want [1 3]", got)
	}
}

func TestPhasePortrait(t *testing.T) {
	trace := sim.Trace{
		{Tick: 0, Attitude: 0},
		{Tick: 1, Attitude: 0.5},
		{Tick: 2, Attitude: 0.75},
		{Tick: 3, Attitude: math.NaN()},
	}
	p := NewPhasePortrait(trace, 0.5)
	if len(p.Points) != 2 {
		t.Fatalf("points = %d, want 2", len(p.Points))
	}
	if p.Points[0] != (Point{X: 0.5, Y: 1}) || p.Points[1] != (Point{X: 0.75, Y: 0.5}) {
		t.Errorf("unexpected points %v", p.Points)
	}

	art := p.ASCII(20, 5)
	lines := strings.Split(strings.TrimSuffix(art, "\n"), "\n")
	if len(lines) != 5 || strings.Count(art, "•") != 2 {
		t.Errorf("unexpected canvas:\n%s", art)
	}
	if (&PhasePortrait2D{}).ASCII(20, 5) != "" {
		t.Error("empty portrait should render nothing")
	}
}

func TestDivergence(t *testing.T) {
	cfg := sim.DefaultConfig()
	cfg.Grid.Rows, cfg.Grid.Cols = 9, 9
	cfg.Horizon = 120

	a, err := Divergence(cfg, 1e-3)
	if err != nil {
		t.Fatalf("Divergence: %v", err)
	}
	if math.IsNaN(a) || math.IsInf(a, 0) {
		t.Errorf("divergence not finite: %v", a)
	}
	b, err := Divergence(cfg, 1e-3)
	if err != nil {
		t.Fatal(err)
	}
	if a != b {
		t.Errorf("divergence not reproducible: %v vs %v", a, b)
	}

	if _, err := Divergence(cfg, 0); err == nil {
		t.Error("expected error for zero perturbation")
	}
}
