package automation

import (
	"context"
	"math"
	"os"
	"path/filepath"
	"reflect"
	"testing"

	"github.com/san-kum/casim/internal/metrics"
	"github.com/san-kum/casim/internal/sim"
)

func tinyPlan() Plan {
	return Plan{
		Name:        "tiny",
		Controllers: []string{"pid", "mpc"},
		Grids:       []string{"5x5"},
		Turbulence:  []string{"low"},
		Failures:    []string{"none", "outage"},
		Seeds:       2,
		Horizon:     100,
		Workers:     3,
	}
}

func TestPlanCellsAndTotal(t *testing.T) {
	p := tinyPlan()
	if got := len(p.Cells()); got != 4 {
		t.Errorf("cells = %d, want 4", got)
	}
	if p.Total() != 8 {
		t.Errorf("total = %d, want 8", p.Total())
	}
	if first := p.Cells()[0].String(); first != "pid/5x5/low/none" {
		t.Errorf("first cell = %s", first)
	}
}

func TestLoadPlan(t *testing.T) {
	path := filepath.Join(t.TempDir(), "plan.yaml")
	data := []byte("name: quick\ncontrollers: [lqr]\nseeds: 3\n")
	if err := os.WriteFile(path, data, 0644); err != nil {
		t.Fatal(err)
	}

	p, err := LoadPlan(path)
	if err != nil {
		t.Fatalf("LoadPlan: %v", err)
	}
	if p.Name != "quick" || p.Seeds != 3 || !reflect.DeepEqual(p.Controllers, []string{"lqr"}) {
		t.Errorf("unexpected plan %+v", p)
	}
	if !reflect.DeepEqual(p.Grids, DefaultPlan().Grids) {
		t.Errorf("grids should default, got %v", p.Grids)
	}
}

func TestSweepRowsInPlanOrder(t *testing.T) {
	seen := 0
	s := &Sweep{
		Plan:     tinyPlan(),
		Base:     sim.DefaultConfig(),
		Recovery: metrics.DefaultRecovery(),
		OnRow:    func(metrics.Row) { seen++ },
	}

	rows, err := s.Run(context.Background())
	if err != nil {
		t.Fatalf("sweep: %v", err)
	}
	if len(rows) != 8 || seen != 8 {
		t.Fatalf("expected 8 rows and callbacks, got %d and %d", len(rows), seen)
	}
	if rows[0].Key() != "pid/5x5/low/none" || rows[0].Seed != 0 || rows[1].Seed != 1 {
		t.Errorf("rows out of plan order: %+v %+v", rows[0], rows[1])
	}
	for _, r := range rows {
		if r.Summary.Ticks == 0 {
			t.Errorf("%s seed %d: empty trace", r.Key(), r.Seed)
		}
	}

	again, err := s.Run(context.Background())
	if err != nil {
		t.Fatalf("second sweep: %v", err)
	}
	if !reflect.DeepEqual(rows, again) {
		t.Error("sweep is not reproducible")
	}
}

func TestSweepRejectsUnknownLevel(t *testing.T) {
	p := tinyPlan()
	p.Failures = []string{"gremlins"}
	s := &Sweep{Plan: p, Base: sim.DefaultConfig(), Recovery: metrics.DefaultRecovery()}
	if _, err := s.Run(context.Background()); err == nil {
		t.Error("expected error for unknown failure level")
	}
}

func TestSweepCanceled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	s := &Sweep{Plan: tinyPlan(), Base: sim.DefaultConfig(), Recovery: metrics.DefaultRecovery()}
	if _, err := s.Run(ctx); err == nil {
		t.Error("expected context error")
	}
}

func row(key [4]string, seed int64, over float64, ttr int, crash bool, effort float64) metrics.Row {
	return metrics.Row{
		Controller: key[0], Grid: key[1], Turbulence: key[2], Failure: key[3], Seed: seed,
		Summary: metrics.Summary{Overshoot: over, TimeToRecover: ttr, Crash: crash, ControlEffort: effort},
	}
}

func TestGroupRows(t *testing.T) {
	a := [4]string{"pid", "30x30", "low", "none"}
	b := [4]string{"lqr", "30x30", "low", "none"}
	rows := []metrics.Row{
		row(a, 0, 0.1, 10, false, 2),
		row(a, 1, 0.3, 0, false, 4),
		row(a, 2, 0.2, metrics.NotRecovered, true, 6),
		row(b, 0, 0.5, 20, false, 1),
	}

	groups := GroupRows(rows)
	if len(groups) != 2 {
		t.Fatalf("expected 2 groups, got %d", len(groups))
	}
	if groups[0].Controller != "lqr" {
		t.Errorf("groups not sorted by key: %s first", groups[0].Key())
	}

	g := groups[1]
	if g.N != 3 {
		t.Errorf("n = %d, want 3", g.N)
	}
	if math.Abs(g.OvershootMean-0.2) > 1e-12 || math.Abs(g.OvershootStd-0.1) > 1e-12 {
		t.Errorf("overshoot mean/std = %v/%v, want 0.2/0.1", g.OvershootMean, g.OvershootStd)
	}
	if math.Abs(g.CrashMean-1.0/3) > 1e-12 {
		t.Errorf("crash mean = %v", g.CrashMean)
	}
	if g.RecoveryCount != 2 || math.Abs(g.RecoveryRate-2.0/3) > 1e-12 {
		t.Errorf("recovery count/rate = %d/%v", g.RecoveryCount, g.RecoveryRate)
	}
	if g.TTRMean != 5 {
		t.Errorf("ttr mean over recovered rows = %v, want 5", g.TTRMean)
	}
	if g.TTRConditionalMean != 10 {
		t.Errorf("conditional ttr mean = %v, want 10", g.TTRConditionalMean)
	}

	single := groups[0]
	if !math.IsNaN(single.OvershootStd) {
		t.Errorf("single-row std should be NaN, got %v", single.OvershootStd)
	}
	if s := single.Strings(); len(s) != len(GroupHeader()) || s[6] != "" {
		t.Errorf("unexpected group strings %v", s)
	}
}

func TestQC(t *testing.T) {
	a := [4]string{"pid", "5x5", "low", "none"}
	rows := []metrics.Row{row(a, 0, 0, 1, false, 1), row(a, 1, 0, 1, false, 1)}

	if rep := QC(rows, 2, nil); !rep.OK() || rep.Err() != nil {
		t.Errorf("expected pass, got %+v", rep)
	}

	rep := QC(rows, 3, nil)
	if rep.OK() || rep.Short["pid/5x5/low/none"] != 2 {
		t.Errorf("expected short group, got %+v", rep)
	}
	if rep.Err() == nil {
		t.Error("expected error from failing report")
	}

	p := tinyPlan()
	rep = QC(rows, 1, &p)
	if len(rep.Missing) != 3 {
		t.Errorf("expected 3 missing cells, got %v", rep.Missing)
	}
}

func TestRunMonteCarlo(t *testing.T) {
	base := sim.DefaultConfig()
	base.Grid.Rows, base.Grid.Cols = 5, 5
	base.Horizon = 60

	results, err := RunMonteCarlo(context.Background(), &MonteCarloConfig{
		Base:         base,
		Recovery:     metrics.DefaultRecovery(),
		Perturbation: 0.5,
		NumTrials:    20,
		Seed:         9,
	}, nil)
	if err != nil {
		t.Fatalf("RunMonteCarlo: %v", err)
	}
	if len(results) != 20 {
		t.Fatalf("expected 20 results, got %d", len(results))
	}
	completed, crashed := MonteCarloStats(results)
	if completed+crashed != 20 {
		t.Errorf("stats do not add up: %d + %d", completed, crashed)
	}
	for _, r := range results {
		if math.Abs(r.InitAttitude-base.Init.Attitude) > 0.5 {
			t.Errorf("trial %d: perturbation %v out of range", r.TrialID, r.InitAttitude)
		}
		if r.Seed != 9+int64(r.TrialID) {
			t.Errorf("trial %d: seed %d", r.TrialID, r.Seed)
		}
	}
}
