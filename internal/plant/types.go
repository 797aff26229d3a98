package plant

import "math"

// State is [position, velocity] for every plant in this package.
type State []float64

func (s State) Clone() State {
	c := make(State, len(s))
	copy(c, s)
	return c
}

func (s State) IsValid() bool {
	for _, v := range s {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return false
		}
	}
	return true
}

func (s State) Position() float64 { return s[0] }
func (s State) Velocity() float64 { return s[1] }

// Control holds the motor power, u[0] in [-1, 1].
type Control []float64

type System interface {
	Derive(x State, u Control, t float64) State
	StateDim() int
	ControlDim() int
}

type Integrator interface {
	Step(sys System, x State, u Control, t, dt float64) State
}

// Configurable exposes tunable physical parameters by name.
type Configurable interface {
	GetParams() map[string]float64
	SetParam(name string, value float64) error
}
