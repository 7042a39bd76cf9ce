package sim

import (
	"context"
	"math"
	"reflect"
	"testing"
)

func shortConfig() Config {
	cfg := DefaultConfig()
	cfg.Grid.Rows, cfg.Grid.Cols = 9, 9
	cfg.Horizon = 150
	cfg.Reference.Onset = 10
	return cfg
}

func TestRunDeterministic(t *testing.T) {
	cfg := shortConfig()
	cfg.Turbulence.Sigma = 0.05

	r1, err := Run(cfg)
	if err != nil {
		t.Fatalf("run failed: %v", err)
	}
	r2, err := Run(cfg)
	if err != nil {
		t.Fatalf("run failed: %v", err)
	}
	if !reflect.DeepEqual(r1, r2) {
		t.Error("identical configs produced different results")
	}

	cfg.Seed++
	r3, _ := Run(cfg)
	if reflect.DeepEqual(r1.Trace, r3.Trace) {
		t.Error("different seeds produced identical traces")
	}
}

func TestRunZeroHorizon(t *testing.T) {
	cfg := shortConfig()
	cfg.Horizon = 0

	res, err := Run(cfg)
	if err != nil {
		t.Fatalf("run failed: %v", err)
	}
	if len(res.Trace) != 0 {
		t.Errorf("expected empty trace, got %d records", len(res.Trace))
	}
	if res.Status != StatusCompleted || res.CrashTick != -1 {
		t.Errorf("expected COMPLETED with no crash tick, got %v %d", res.Status, res.CrashTick)
	}
}

func TestRunCompletesFullHorizon(t *testing.T) {
	res, err := Run(shortConfig())
	if err != nil {
		t.Fatalf("run failed: %v", err)
	}
	if res.Status != StatusCompleted {
		t.Fatalf("expected COMPLETED, got %v", res.Status)
	}
	if len(res.Trace) != 150 {
		t.Errorf("expected 150 records, got %d", len(res.Trace))
	}
	for i, rec := range res.Trace {
		if rec.Tick != i {
			t.Fatalf("record %d has tick %d", i, rec.Tick)
		}
	}
}

func TestCrashIsTerminal(t *testing.T) {
	cfg := shortConfig()
	cfg.Limits.Attitude = 0.5 * cfg.Reference.Step

	res, err := Run(cfg)
	if err != nil {
		t.Fatalf("run failed: %v", err)
	}
	if res.Status != StatusCrashed {
		t.Fatalf("expected CRASHED, got %v", res.Status)
	}
	if len(res.Trace) != res.CrashTick+1 {
		t.Errorf("crash tick %d should be the last record, trace has %d", res.CrashTick, len(res.Trace))
	}
	if len(res.Trace) >= cfg.Horizon {
		t.Errorf("crashed episode should be shorter than the horizon")
	}
	last := res.Trace[len(res.Trace)-1]
	if math.Abs(last.Attitude) <= cfg.Limits.Attitude {
		t.Errorf("last attitude %v should exceed limit %v", last.Attitude, cfg.Limits.Attitude)
	}
	for _, rec := range res.Trace[:len(res.Trace)-1] {
		if math.Abs(rec.Attitude) > cfg.Limits.Attitude {
			t.Fatalf("tick %d exceeded the limit before the recorded crash", rec.Tick)
		}
	}
}

func TestFullFailureWindowAppliesNothing(t *testing.T) {
	cfg := shortConfig()
	cfg.Failure.Start, cfg.Failure.End = 0, cfg.Horizon

	res, err := Run(cfg)
	if err != nil {
		t.Fatalf("run failed: %v", err)
	}
	for _, rec := range res.Trace {
		if !rec.Suppressed || rec.Command != 0 || rec.Applied != 0 {
			t.Fatalf("tick %d: suppressed=%v command=%v applied=%v", rec.Tick, rec.Suppressed, rec.Command, rec.Applied)
		}
	}
}

func TestSensorBiasShiftsMeasuredError(t *testing.T) {
	cfg := shortConfig()
	cfg.Reference.Onset = 0
	cfg.Failure.SensorBias = 0.04

	res, err := Run(cfg)
	if err != nil {
		t.Fatalf("run failed: %v", err)
	}
	want := cfg.Reference.Step - cfg.Init.Attitude + 0.04
	if got := res.Trace[0].Error; math.Abs(got-want) > 1e-12 {
		t.Errorf("first measured error = %v, want %v", got, want)
	}
}

func TestSaturationScaleLimitsApplied(t *testing.T) {
	cfg := shortConfig()
	cfg.Reference.Step = 3
	cfg.Limits.Attitude = 10
	cfg.Failure.SaturationScale = 0.25

	res, err := Run(cfg)
	if err != nil {
		t.Fatalf("run failed: %v", err)
	}
	bound := cfg.Actuator.Max * 0.25
	for _, rec := range res.Trace {
		if math.Abs(rec.Applied) > bound+1e-12 {
			t.Fatalf("tick %d: applied %v beyond scaled bound %v", rec.Tick, rec.Applied, bound)
		}
	}
}

func TestEpisodeObserverAndRunOnce(t *testing.T) {
	ep, err := NewEpisode(shortConfig())
	if err != nil {
		t.Fatalf("new episode: %v", err)
	}
	if ep.Status() != StatusInit {
		t.Errorf("expected INIT, got %v", ep.Status())
	}

	var ticks int
	ep.AddObserver(ObserverFunc(func(Record) { ticks++ }))

	first := ep.Run()
	if ticks != len(first.Trace) {
		t.Errorf("observer saw %d ticks, trace has %d", ticks, len(first.Trace))
	}
	if second := ep.Run(); second != first {
		t.Error("second Run should return the first result")
	}
	if ticks != len(first.Trace) {
		t.Error("second Run should not tick again")
	}
}

func TestEnsembleMatchesSingleRuns(t *testing.T) {
	cfg := shortConfig()
	cfg.Turbulence.Sigma = 0.05
	seeds := Seeds(100, 4)

	results, err := NewEnsemble(cfg, seeds, 3).Run(context.Background())
	if err != nil {
		t.Fatalf("ensemble failed: %v", err)
	}
	for i, seed := range seeds {
		c := cfg
		c.Seed = seed
		want, _ := Run(c)
		if !reflect.DeepEqual(results[i], want) {
			t.Errorf("seed %d: ensemble result differs from single run", seed)
		}
	}
}

func TestEnsembleCanceled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := NewEnsemble(shortConfig(), Seeds(1, 8), 2).Run(ctx); err == nil {
		t.Error("expected context error")
	}
}

func TestStatusText(t *testing.T) {
	for _, s := range []Status{StatusInit, StatusRunning, StatusCompleted, StatusCrashed} {
		b, _ := s.MarshalText()
		var back Status
		if err := back.UnmarshalText(b); err != nil || back != s {
			t.Errorf("status %v did not survive text encoding", s)
		}
	}
}
