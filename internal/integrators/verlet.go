package integrators

import "github.com/san-kum/setpoint/internal/plant"

// Verlet is velocity Verlet over a [position, velocity] state. The power is
// held constant across the step, as a motor controller would.
type Verlet struct {
	scratch plant.State
}

func NewVerlet() *Verlet {
	return &Verlet{}
}

func (v *Verlet) Step(sys plant.System, x plant.State, u plant.Control, t, dt float64) plant.State {
	if len(v.scratch) != len(x) {
		v.scratch = make(plant.State, len(x))
	}

	acc := sys.Derive(x, u, t)[1]
	next := make(plant.State, len(x))
	next[0] = x[0] + x[1]*dt + 0.5*acc*dt*dt

	// velocity-dependent damping: predict with the old velocity
	v.scratch[0] = next[0]
	v.scratch[1] = x[1] + acc*dt
	accNext := sys.Derive(v.scratch, u, t+dt)[1]

	next[1] = x[1] + 0.5*(acc+accNext)*dt
	return next
}
