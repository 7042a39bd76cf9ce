package metrics

import (
	"github.com/san-kum/casim/internal/sim"
	"gonum.org/v1/gonum/stat"
)

// StabilityVariance is the population variance of the vehicle stability.
type StabilityVariance struct {
	name    string
	samples []float64
}

func NewStabilityVariance() *StabilityVariance {
	return &StabilityVariance{
		name: "stability_variance",
	}
}

func (s *StabilityVariance) Name() string {
	return s.name
}

func (s *StabilityVariance) Observe(rec sim.Record) {
	s.samples = append(s.samples, rec.Stability)
}

func (s *StabilityVariance) Value() float64 {
	if len(s.samples) == 0 {
		return 0
	}
	return stat.PopVariance(s.samples, nil)
}

func (s *StabilityVariance) Reset() {
	s.samples = s.samples[:0]
}
