package metrics

import (
	"math"

	"github.com/san-kum/casim/internal/sim"
)

// Overshoot is the largest excursion past the reference after onset,
// relative to |r|. With a zero reference it is the largest absolute error.
type Overshoot struct {
	onset int
	max   float64
}

func NewOvershoot(onset int) *Overshoot {
	return &Overshoot{onset: onset}
}

func (o *Overshoot) Name() string { return "overshoot" }

func (o *Overshoot) Observe(rec sim.Record) {
	if rec.Tick < o.onset {
		return
	}
	r, a := rec.Reference, rec.Attitude
	var v float64
	if r == 0 {
		v = math.Abs(a - r)
	} else {
		v = (a - r) * math.Copysign(1, r) / math.Abs(r)
	}
	if v > o.max {
		o.max = v
	}
}

func (o *Overshoot) Value() float64 { return o.max }

func (o *Overshoot) Reset() { o.max = 0 }

// TimeToRecover counts ticks from onset until the tracking error enters the
// tolerance band and stays there for Hold ticks.
type TimeToRecover struct {
	onset int
	band  float64
	hold  int

	start  int
	run    int
	result int
}

func NewTimeToRecover(ref sim.Reference, rec Recovery) *TimeToRecover {
	scale := math.Abs(ref.Step)
	if scale == 0 {
		scale = 1
	}
	t := &TimeToRecover{
		onset: ref.Onset,
		band:  rec.Tolerance * scale,
		hold:  rec.Hold,
	}
	t.Reset()
	return t
}

func (t *TimeToRecover) Name() string { return "time_to_recover" }

func (t *TimeToRecover) Observe(rec sim.Record) {
	if rec.Tick < t.onset || t.result != NotRecovered {
		return
	}
	if math.Abs(rec.Reference-rec.Attitude) > t.band {
		t.run = 0
		return
	}
	if t.run == 0 {
		t.start = rec.Tick
	}
	t.run++
	if t.run >= t.hold {
		t.result = t.start - t.onset
	}
}

// Ticks returns the recovery time or NotRecovered.
func (t *TimeToRecover) Ticks() int { return t.result }

func (t *TimeToRecover) Value() float64 { return float64(t.result) }

func (t *TimeToRecover) Reset() {
	t.start = 0
	t.run = 0
	t.result = NotRecovered
}
