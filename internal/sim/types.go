package sim

import "fmt"

type Status int

const (
	StatusInit Status = iota
	StatusRunning
	StatusCompleted
	StatusCrashed
)

var statusNames = [...]string{"INIT", "RUNNING", "COMPLETED", "CRASHED"}

func (s Status) String() string {
	if s < 0 || int(s) >= len(statusNames) {
		return fmt.Sprintf("Status(%d)", int(s))
	}
	return statusNames[s]
}

func (s Status) MarshalText() ([]byte, error) { return []byte(s.String()), nil }

func (s *Status) UnmarshalText(b []byte) error {
	for i, n := range statusNames {
		if n == string(b) {
			*s = Status(i)
			return nil
		}
	}
	return fmt.Errorf("unknown status %q", b)
}

// Record is one tick of an episode. Attitude, Stability and Speed are the
// vehicle cell after the tick's lattice update.
type Record struct {
	Tick        int     `json:"tick"`
	Time        float64 `json:"time"`
	Reference   float64 `json:"reference"`
	Error       float64 `json:"error"`
	Command     float64 `json:"command"`
	Applied     float64 `json:"applied"`
	Disturbance float64 `json:"disturbance"`
	Attitude    float64 `json:"attitude"`
	Stability   float64 `json:"stability"`
	Speed       float64 `json:"speed"`
	Suppressed  bool    `json:"suppressed"`
}

type Trace []Record

func (tr Trace) column(f func(Record) float64) []float64 {
	out := make([]float64, len(tr))
	for i, r := range tr {
		out[i] = f(r)
	}
	return out
}

func (tr Trace) Attitudes() []float64 {
	return tr.column(func(r Record) float64 { return r.Attitude })
}

func (tr Trace) References() []float64 {
	return tr.column(func(r Record) float64 { return r.Reference })
}

func (tr Trace) Applied() []float64 {
	return tr.column(func(r Record) float64 { return r.Applied })
}

func (tr Trace) Stabilities() []float64 {
	return tr.column(func(r Record) float64 { return r.Stability })
}

func (tr Trace) Disturbances() []float64 {
	return tr.column(func(r Record) float64 { return r.Disturbance })
}

// Result is the outcome of one episode. CrashTick is -1 unless Status is
// StatusCrashed.
type Result struct {
	Seed      int64
	Trace     Trace
	Status    Status
	CrashTick int
}

func (r *Result) Crashed() bool { return r.Status == StatusCrashed }

// Observer is notified after every recorded tick.
type Observer interface {
	OnTick(rec Record)
}

type ObserverFunc func(rec Record)

func (f ObserverFunc) OnTick(rec Record) { f(rec) }
