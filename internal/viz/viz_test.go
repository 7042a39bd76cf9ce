package viz

import (
	"context"
	"errors"
	"math"
	"math/rand/v2"
	"strings"
	"testing"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/san-kum/casim/internal/ca"
	"github.com/san-kum/casim/internal/control"
	"github.com/san-kum/casim/internal/optim"
	"github.com/san-kum/casim/internal/sim"
)

func TestTuneModelUpdate(t *testing.T) {
	canceled := false
	var m tea.Model = NewTuneModel("pid", 3, func() { canceled = true })

	for i, best := range []float64{10, 8, 7.5} {
		m, _ = m.Update(GenerationMsg{Generation: i, Best: best, Mean: best + 1, BestGains: control.Gains{Kp: 1}})
	}
	tm := m.(TuneModel)
	if got := len(tm.History()); got != 3 {
		t.Fatalf("history = %d, want 3", got)
	}
	if !strings.Contains(tm.View(), "3/3") {
		t.Errorf("view missing progress:\n%s", tm.View())
	}

	m, cmd := m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("q")})
	if !canceled {
		t.Error("quitting a running search should cancel it")
	}
	if cmd != nil {
		t.Error("view should wait for the search to return before quitting")
	}

	m, cmd = m.Update(DoneMsg{Result: &optim.TuneResult{Converged: true}})
	if cmd == nil {
		t.Fatal("done should quit")
	}
	if _, ok := cmd().(tea.QuitMsg); !ok {
		t.Error("expected quit message")
	}
	if !m.(TuneModel).Done() || !strings.Contains(m.View(), "converged") {
		t.Errorf("final view:\n%s", m.View())
	}
}

func TestTuneModelError(t *testing.T) {
	var m tea.Model = NewTuneModel("lqr", 5, nil)
	m, _ = m.Update(DoneMsg{Err: context.Canceled})
	tm := m.(TuneModel)
	if !errors.Is(tm.Err(), context.Canceled) || !strings.Contains(tm.View(), "stopped") {
		t.Errorf("unexpected state: %v\n%s", tm.Err(), tm.View())
	}
}

func TestLattice(t *testing.T) {
	g, err := ca.New(ca.Shape{Rows: 3, Cols: 5}, ca.DefaultInit(), rand.New(rand.NewPCG(1, 1)))
	if err != nil {
		t.Fatal(err)
	}
	out := Lattice(g, 3)
	lines := strings.Split(strings.TrimSuffix(out, "\n"), "\n")
	if len(lines) != 3 {
		t.Fatalf("rows = %d, want 3", len(lines))
	}
	for _, l := range lines {
		if n := len([]rune(l)); n != 5 {
			t.Errorf("row %q has %d cells", l, n)
		}
	}
	if []rune(lines[1])[2] != '◆' {
		t.Errorf("vehicle not marked at the centre:\n%s", out)
	}
}

func TestSparkline(t *testing.T) {
	if got := len([]rune(stripANSI(Sparkline([]float64{5, 4, 3, 2, 1, 0}, 4)))); got != 4 {
		t.Errorf("sparkline width = %d, want 4", got)
	}
	if got := Sparkline(nil, 3); got != "───" {
		t.Errorf("empty sparkline = %q", got)
	}
}

func stripANSI(s string) string {
	var sb strings.Builder
	skip := false
	for _, r := range s {
		switch {
		case r == 0x1b:
			skip = true
		case skip && r == 'm':
			skip = false
		case !skip:
			sb.WriteRune(r)
		}
	}
	return sb.String()
}

func TestTraceSVG(t *testing.T) {
	trace := sim.Trace{
		{Tick: 0, Reference: 0, Attitude: 0},
		{Tick: 1, Reference: 0.3, Attitude: 0.1},
		{Tick: 2, Reference: 0.3, Attitude: math.NaN()},
		{Tick: 3, Reference: 0.3, Attitude: 0.3},
	}
	svg := TraceSVG(trace, 300, 100)
	if !strings.HasPrefix(svg, "<?xml") || !strings.HasSuffix(svg, "</svg>") {
		t.Fatalf("not an svg document:\n%s", svg)
	}
	if got := strings.Count(svg, "<path"); got != 2 {
		t.Errorf("paths = %d, want 2", got)
	}
	// The NaN sample splits the attitude line into two subpaths.
	if got := strings.Count(svg, " M"); got != 3 {
		t.Errorf("subpaths = %d, want 3", got)
	}
	if strings.Contains(svg, "NaN") {
		t.Error("NaN leaked into the document")
	}
	if TraceSVG(trace[:1], 300, 100) != "" {
		t.Error("single sample should render nothing")
	}
}
