package metrics

import (
	"math"

	"github.com/san-kum/setpoint/internal/bench"
)

// SettleTime is the time of the first cycle after which the reading never
// leaves tolerance of the target again. A run that ends outside tolerance
// scores its last cycle time; one that never left scores 0.
type SettleTime struct {
	tolerance float64
	settledAt float64
	lastTime  float64
	inside    bool
}

func NewSettleTime(tolerance float64) *SettleTime {
	return &SettleTime{tolerance: tolerance, inside: true}
}

func (s *SettleTime) Name() string { return "settle_time" }

func (s *SettleTime) Observe(x bench.Sample) {
	s.lastTime = x.Time
	in := !x.SensorFault && math.Abs(x.Target-x.Reading) <= s.tolerance
	if in && !s.inside {
		s.settledAt = x.Time
	}
	s.inside = in
}

func (s *SettleTime) Value() float64 {
	if !s.inside {
		return s.lastTime
	}
	return s.settledAt
}

func (s *SettleTime) Reset() {
	s.settledAt = 0
	s.lastTime = 0
	s.inside = true
}
