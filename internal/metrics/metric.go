package metrics

import (
	"fmt"
	"math"

	"github.com/san-kum/casim/internal/sim"
)

// NotRecovered is the time-to-recover of an episode that never settled.
const NotRecovered = -1

type Metric interface {
	Name() string
	Observe(rec sim.Record)
	Value() float64
	Reset()
}

// Recovery defines "settled": |r - a| within Tolerance*|Step| for Hold
// consecutive ticks.
type Recovery struct {
	Tolerance float64 `yaml:"tolerance" json:"tolerance"`
	Hold      int     `yaml:"hold" json:"hold"`
}

func DefaultRecovery() Recovery {
	return Recovery{Tolerance: 0.05, Hold: 10}
}

func (r Recovery) Validate() error {
	if !(r.Tolerance > 0) || math.IsInf(r.Tolerance, 0) {
		return fmt.Errorf("recovery tolerance must be a finite value > 0, got %v", r.Tolerance)
	}
	if r.Hold < 1 {
		return fmt.Errorf("recovery hold must be >= 1, got %d", r.Hold)
	}
	return nil
}

type Summary struct {
	Overshoot         float64 `json:"overshoot"`
	TimeToRecover     int     `json:"time_to_recover"`
	StabilityVariance float64 `json:"stability_variance"`
	ControlEffort     float64 `json:"control_effort"`
	Crash             bool    `json:"crash"`
	Ticks             int     `json:"ticks"`
}

func (s Summary) Recovered() bool { return s.TimeToRecover != NotRecovered }

// Summarize folds a finished episode through the standard metrics. It never
// fails; an empty trace gives zero scores and NotRecovered.
func Summarize(res *sim.Result, ref sim.Reference, rec Recovery) Summary {
	over := NewOvershoot(ref.Onset)
	ttr := NewTimeToRecover(ref, rec)
	stab := NewStabilityVariance()
	effort := NewControlEffort()

	all := []Metric{over, ttr, stab, effort}
	for _, r := range res.Trace {
		for _, m := range all {
			m.Observe(r)
		}
	}

	return Summary{
		Overshoot:         over.Value(),
		TimeToRecover:     ttr.Ticks(),
		StabilityVariance: stab.Value(),
		ControlEffort:     effort.Value(),
		Crash:             res.Crashed(),
		Ticks:             len(res.Trace),
	}
}
