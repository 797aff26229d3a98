package bench

import (
	"fmt"

	"github.com/san-kum/setpoint/internal/calibration"
	"github.com/san-kum/setpoint/internal/control"
)

// Sample is one control cycle as seen from outside the mechanism.
type Sample struct {
	Time        float64
	Truth       float64
	Reading     float64
	Target      float64
	Reference   float64
	Human       float64
	Power       float64
	Kind        control.Kind
	State       control.State
	Calibrated  bool
	SensorFault bool
}

// Error is the tracking error the closed loop works on.
func (s Sample) Error() float64 { return s.Reference - s.Reading }

type Metric interface {
	Name() string
	Observe(s Sample)
	Value() float64
	Reset()
}

type Observer interface {
	OnCycle(s Sample)
}

type ObserverFunc func(s Sample)

func (f ObserverFunc) OnCycle(s Sample) { f(s) }

type Result struct {
	Samples     []Sample
	Metrics     map[string]float64
	Cycles      int
	Transitions int
	Calibration calibration.Transition
	Errors      []error
}

// Series extracts one field of every sample, e.g. for plotting.
func (r *Result) Series(field func(Sample) float64) []float64 {
	out := make([]float64, len(r.Samples))
	for i, s := range r.Samples {
		out[i] = field(s)
	}
	return out
}

// CycleError locates a failure within a run.
type CycleError struct {
	Time  float64
	Cycle int
	Err   error
}

func (e *CycleError) Error() string {
	return fmt.Sprintf("cycle %d (t=%.3f): %v", e.Cycle, e.Time, e.Err)
}

func (e *CycleError) Unwrap() error { return e.Err }
