package metrics

import (
	"math"

	"github.com/san-kum/setpoint/internal/bench"
	"github.com/san-kum/setpoint/internal/control"
)

// ControlEffort is the mean absolute motor power over a run. It also keeps
// the share of that effort spent by each decision kind and the peak power.
type ControlEffort struct {
	total  float64
	byKind map[control.Kind]float64
	peak   float64
	cycles int
}

func NewControlEffort() *ControlEffort {
	return &ControlEffort{byKind: make(map[control.Kind]float64)}
}

func (c *ControlEffort) Name() string { return "control_effort" }

func (c *ControlEffort) Observe(s bench.Sample) {
	p := math.Abs(s.Power)
	c.total += p
	c.byKind[s.Kind] += p
	c.peak = math.Max(c.peak, p)
	c.cycles++
}

func (c *ControlEffort) Value() float64 {
	if c.cycles == 0 {
		return 0
	}
	return c.total / float64(c.cycles)
}

// Share is the fraction of the run's effort spent under decision kind k.
func (c *ControlEffort) Share(k control.Kind) float64 {
	if c.total == 0 {
		return 0
	}
	return c.byKind[k] / c.total
}

func (c *ControlEffort) Peak() float64 { return c.peak }

func (c *ControlEffort) Reset() {
	c.total = 0
	c.peak = 0
	c.cycles = 0
	clear(c.byKind)
}
