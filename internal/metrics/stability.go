package metrics

import (
	"math"

	"github.com/san-kum/setpoint/internal/bench"
)

// Stability is the fraction of calibrated cycles whose distance to the
// target stays within threshold.
type Stability struct {
	name      string
	threshold float64
	inside    int
	samples   int
}

func NewStability(threshold float64) *Stability {
	return &Stability{
		name:      "stability",
		threshold: threshold,
	}
}

func (s *Stability) Name() string {
	return s.name
}

func (s *Stability) Observe(x bench.Sample) {
	if !x.Calibrated || x.SensorFault {
		return
	}
	s.samples++
	if math.Abs(x.Target-x.Reading) <= s.threshold {
		s.inside++
	}
}

func (s *Stability) Value() float64 {
	if s.samples == 0 {
		return 0
	}
	return float64(s.inside) / float64(s.samples)
}

func (s *Stability) Reset() {
	s.inside = 0
	s.samples = 0
}
