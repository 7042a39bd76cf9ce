package automation

import (
	"fmt"
	"math"
	"sort"
	"strconv"

	"gonum.org/v1/gonum/stat"

	"github.com/san-kum/casim/internal/metrics"
)

// Group aggregates the rows of one factor combination. Stds are sample
// standard deviations (NaN for a single row).
type Group struct {
	Controller string `json:"controller"`
	Grid       string `json:"grid"`
	Turbulence string `json:"turbulence"`
	Failure    string `json:"failure"`

	N                  int     `json:"n"`
	OvershootMean      float64 `json:"overshoot_mean"`
	OvershootStd       float64 `json:"overshoot_std"`
	TTRMean            float64 `json:"time_to_recover_mean"`
	TTRStd             float64 `json:"time_to_recover_std"`
	CrashMean          float64 `json:"crash_mean"`
	CrashStd           float64 `json:"crash_std"`
	ControlEffortMean  float64 `json:"control_effort_mean"`
	ControlEffortStd   float64 `json:"control_effort_std"`
	RecoveryCount      int     `json:"recovery_count"`
	RecoveryRate       float64 `json:"recovery_rate"`
	TTRConditionalMean float64 `json:"ttr_conditional_mean"`
}

func (g Group) Key() string {
	return fmt.Sprintf("%s/%s/%s/%s", g.Controller, g.Grid, g.Turbulence, g.Failure)
}

var groupHeader = []string{
	"controller", "grid", "turbulence", "failure", "n",
	"overshoot_mean", "overshoot_std",
	"time_to_recover_mean", "time_to_recover_std",
	"crash_mean", "crash_std",
	"control_effort_mean", "control_effort_std",
	"recovery_count", "recovery_rate", "ttr_conditional_mean",
}

func GroupHeader() []string {
	out := make([]string, len(groupHeader))
	copy(out, groupHeader)
	return out
}

func (g Group) Strings() []string {
	f := func(v float64) string {
		if math.IsNaN(v) {
			return ""
		}
		return strconv.FormatFloat(v, 'g', -1, 64)
	}
	return []string{
		g.Controller, g.Grid, g.Turbulence, g.Failure, strconv.Itoa(g.N),
		f(g.OvershootMean), f(g.OvershootStd),
		f(g.TTRMean), f(g.TTRStd),
		f(g.CrashMean), f(g.CrashStd),
		f(g.ControlEffortMean), f(g.ControlEffortStd),
		strconv.Itoa(g.RecoveryCount), f(g.RecoveryRate), f(g.TTRConditionalMean),
	}
}

// GroupRows aggregates rows by factor combination, sorted by key. The TTR
// mean and std are over recovered rows only, so the sentinel never skews
// them; TTRConditionalMean counts only strictly positive recovery times.
func GroupRows(rows []metrics.Row) []Group {
	byKey := make(map[string][]metrics.Row)
	for _, r := range rows {
		byKey[r.Key()] = append(byKey[r.Key()], r)
	}

	keys := make([]string, 0, len(byKey))
	for k := range byKey {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	groups := make([]Group, 0, len(keys))
	for _, k := range keys {
		groups = append(groups, aggregate(byKey[k]))
	}
	return groups
}

func aggregate(rows []metrics.Row) Group {
	n := len(rows)
	over := make([]float64, n)
	crash := make([]float64, n)
	effort := make([]float64, n)
	var ttr, positive []float64

	for i, r := range rows {
		over[i] = r.Summary.Overshoot
		effort[i] = r.Summary.ControlEffort
		if r.Summary.Crash {
			crash[i] = 1
		}
		if r.Summary.Recovered() {
			ttr = append(ttr, float64(r.Summary.TimeToRecover))
			if r.Summary.TimeToRecover > 0 {
				positive = append(positive, float64(r.Summary.TimeToRecover))
			}
		}
	}

	g := Group{
		Controller:    rows[0].Controller,
		Grid:          rows[0].Grid,
		Turbulence:    rows[0].Turbulence,
		Failure:       rows[0].Failure,
		N:             n,
		RecoveryCount: len(ttr),
		RecoveryRate:  float64(len(ttr)) / float64(n),
	}
	g.OvershootMean, g.OvershootStd = meanStd(over)
	g.CrashMean, g.CrashStd = meanStd(crash)
	g.ControlEffortMean, g.ControlEffortStd = meanStd(effort)
	g.TTRMean, g.TTRStd = meanStd(ttr)
	g.TTRConditionalMean = math.NaN()
	if len(positive) > 0 {
		g.TTRConditionalMean = stat.Mean(positive, nil)
	}
	return g
}

func meanStd(x []float64) (float64, float64) {
	switch len(x) {
	case 0:
		return math.NaN(), math.NaN()
	case 1:
		return x[0], math.NaN()
	}
	return stat.MeanStdDev(x, nil)
}
