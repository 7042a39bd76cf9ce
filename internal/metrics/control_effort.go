package metrics

import "github.com/san-kum/casim/internal/sim"

// ControlEffort is the sum of squared applied inputs.
type ControlEffort struct {
	name string
	sum  float64
}

func NewControlEffort() *ControlEffort {
	return &ControlEffort{
		name: "control_effort",
	}
}

func (c *ControlEffort) Name() string {
	return c.name
}

func (c *ControlEffort) Observe(rec sim.Record) {
	c.sum += rec.Applied * rec.Applied
}

func (c *ControlEffort) Value() float64 {
	return c.sum
}

func (c *ControlEffort) Reset() {
	c.sum = 0
}
