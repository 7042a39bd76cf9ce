package metrics

import (
	"fmt"
	"strconv"
)

var header = []string{
	"controller", "grid", "turbulence", "failure", "seed",
	"overshoot", "time_to_recover", "crash", "control_effort",
}

// Header returns the raw sweep CSV columns in their fixed order.
func Header() []string {
	out := make([]string, len(header))
	copy(out, header)
	return out
}

// Row is one episode of a factorial sweep.
type Row struct {
	Controller string  `json:"controller"`
	Grid       string  `json:"grid"`
	Turbulence string  `json:"turbulence"`
	Failure    string  `json:"failure"`
	Seed       int64   `json:"seed"`
	Summary    Summary `json:"summary"`
}

// Key identifies the factor group of the row.
func (r Row) Key() string {
	return fmt.Sprintf("%s/%s/%s/%s", r.Controller, r.Grid, r.Turbulence, r.Failure)
}

func (r Row) Strings() []string {
	crash := "0"
	if r.Summary.Crash {
		crash = "1"
	}
	return []string{
		r.Controller,
		r.Grid,
		r.Turbulence,
		r.Failure,
		strconv.FormatInt(r.Seed, 10),
		strconv.FormatFloat(r.Summary.Overshoot, 'g', -1, 64),
		strconv.Itoa(r.Summary.TimeToRecover),
		crash,
		strconv.FormatFloat(r.Summary.ControlEffort, 'g', -1, 64),
	}
}

// ParseRow is the inverse of Row.Strings. Columns not in the raw CSV are
// left zero.
func ParseRow(rec []string) (Row, error) {
	if len(rec) != len(header) {
		return Row{}, fmt.Errorf("sweep row: want %d columns, got %d", len(header), len(rec))
	}
	seed, err := strconv.ParseInt(rec[4], 10, 64)
	if err != nil {
		return Row{}, fmt.Errorf("sweep row seed: %w", err)
	}
	over, err := strconv.ParseFloat(rec[5], 64)
	if err != nil {
		return Row{}, fmt.Errorf("sweep row overshoot: %w", err)
	}
	ttr, err := strconv.Atoi(rec[6])
	if err != nil {
		return Row{}, fmt.Errorf("sweep row time_to_recover: %w", err)
	}
	effort, err := strconv.ParseFloat(rec[8], 64)
	if err != nil {
		return Row{}, fmt.Errorf("sweep row control_effort: %w", err)
	}
	return Row{
		Controller: rec[0],
		Grid:       rec[1],
		Turbulence: rec[2],
		Failure:    rec[3],
		Seed:       seed,
		Summary: Summary{
			Overshoot:     over,
			TimeToRecover: ttr,
			Crash:         rec[7] == "1",
			ControlEffort: effort,
		},
	}, nil
}
