package metrics

import (
	"math"

	"github.com/san-kum/setpoint/internal/bench"
	"github.com/san-kum/setpoint/internal/control"
)

// TrackingError is the RMS distance between the reference and the reading
// over the cycles the closed loop was responsible for.
type TrackingError struct {
	sumSq   float64
	samples int
}

func NewTrackingError() *TrackingError { return &TrackingError{} }

func (e *TrackingError) Name() string { return "tracking_rms" }

func (e *TrackingError) Observe(s bench.Sample) {
	if s.Kind != control.MachineControl && s.Kind != control.Coast {
		return
	}
	if s.SensorFault {
		return
	}
	err := s.Error()
	e.sumSq += err * err
	e.samples++
}

func (e *TrackingError) Value() float64 {
	if e.samples == 0 {
		return 0
	}
	return math.Sqrt(e.sumSq / float64(e.samples))
}

func (e *TrackingError) Reset() {
	e.sumSq = 0
	e.samples = 0
}

// MachineShare is the fraction of cycles spent under closed-loop control.
type MachineShare struct {
	machine int
	samples int
}

func NewMachineShare() *MachineShare { return &MachineShare{} }

func (m *MachineShare) Name() string { return "machine_share" }

func (m *MachineShare) Observe(s bench.Sample) {
	m.samples++
	if s.Kind == control.MachineControl {
		m.machine++
	}
}

func (m *MachineShare) Value() float64 {
	if m.samples == 0 {
		return 0
	}
	return float64(m.machine) / float64(m.samples)
}

func (m *MachineShare) Reset() {
	m.machine = 0
	m.samples = 0
}
