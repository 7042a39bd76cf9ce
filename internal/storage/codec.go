package storage

import (
	"encoding/csv"
	"fmt"
	"io"
	"math"
	"strconv"

	"github.com/san-kum/casim/internal/metrics"
	"github.com/san-kum/casim/internal/optim"
	"github.com/san-kum/casim/internal/sim"
)

var traceHeader = []string{
	"tick", "time", "reference", "error", "command", "applied",
	"disturbance", "attitude", "stability", "speed", "suppressed",
}

func formatFloat(v float64) string { return strconv.FormatFloat(v, 'g', -1, 64) }

func recordStrings(r sim.Record) []string {
	sup := "0"
	if r.Suppressed {
		sup = "1"
	}
	return []string{
		strconv.Itoa(r.Tick),
		formatFloat(r.Time),
		formatFloat(r.Reference),
		formatFloat(r.Error),
		formatFloat(r.Command),
		formatFloat(r.Applied),
		formatFloat(r.Disturbance),
		formatFloat(r.Attitude),
		formatFloat(r.Stability),
		formatFloat(r.Speed),
		sup,
	}
}

func parseRecord(rec []string) (sim.Record, error) {
	if len(rec) != len(traceHeader) {
		return sim.Record{}, fmt.Errorf("trace row: want %d columns, got %d", len(traceHeader), len(rec))
	}
	tick, err := strconv.Atoi(rec[0])
	if err != nil {
		return sim.Record{}, fmt.Errorf("trace tick: %w", err)
	}
	vals := make([]float64, 9)
	for i := range vals {
		v, err := strconv.ParseFloat(rec[i+1], 64)
		if err != nil {
			return sim.Record{}, fmt.Errorf("trace %s: %w", traceHeader[i+1], err)
		}
		vals[i] = v
	}
	return sim.Record{
		Tick:        tick,
		Time:        vals[0],
		Reference:   vals[1],
		Error:       vals[2],
		Command:     vals[3],
		Applied:     vals[4],
		Disturbance: vals[5],
		Attitude:    vals[6],
		Stability:   vals[7],
		Speed:       vals[8],
		Suppressed:  rec[10] == "1",
	}, nil
}

// WriteTraceCSV writes a trace with a header row.
func WriteTraceCSV(w io.Writer, trace sim.Trace) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(traceHeader); err != nil {
		return err
	}
	for _, r := range trace {
		if err := cw.Write(recordStrings(r)); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

func ReadTraceCSV(r io.Reader) (sim.Trace, error) {
	records, err := csv.NewReader(r).ReadAll()
	if err != nil {
		return nil, err
	}
	if len(records) < 2 {
		return sim.Trace{}, nil
	}
	trace := make(sim.Trace, 0, len(records)-1)
	for _, rec := range records[1:] {
		r, err := parseRecord(rec)
		if err != nil {
			return nil, err
		}
		trace = append(trace, r)
	}
	return trace, nil
}

// WriteRowsCSV writes raw sweep rows under metrics.Header.
func WriteRowsCSV(w io.Writer, rows []metrics.Row) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(metrics.Header()); err != nil {
		return err
	}
	for _, r := range rows {
		if err := cw.Write(r.Strings()); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

func ReadRowsCSV(r io.Reader) ([]metrics.Row, error) {
	records, err := csv.NewReader(r).ReadAll()
	if err != nil {
		return nil, err
	}
	if len(records) < 2 {
		return []metrics.Row{}, nil
	}
	rows := make([]metrics.Row, 0, len(records)-1)
	for _, rec := range records[1:] {
		row, err := metrics.ParseRow(rec)
		if err != nil {
			return nil, err
		}
		rows = append(rows, row)
	}
	return rows, nil
}

// jsonSafe clamps infinite fitness values, which encoding/json rejects.
func jsonSafe(res *optim.TuneResult) *optim.TuneResult {
	out := *res
	out.Best.Fitness = finite(out.Best.Fitness)
	out.History = make([]optim.GenerationStats, len(res.History))
	for i, g := range res.History {
		g.Best, g.Mean, g.Worst = finite(g.Best), finite(g.Mean), finite(g.Worst)
		out.History[i] = g
	}
	return &out
}

func finite(v float64) float64 {
	switch {
	case math.IsInf(v, 1), math.IsNaN(v):
		return math.MaxFloat64
	case math.IsInf(v, -1):
		return -math.MaxFloat64
	}
	return v
}
