package integrators

import "github.com/san-kum/setpoint/internal/plant"

// Euler is explicit forward Euler. Cheap, and good enough at a 20 ms cycle
// for a well-damped mechanism.
type Euler struct{}

func NewEuler() *Euler {
	return &Euler{}
}

func (e *Euler) Step(sys plant.System, x plant.State, u plant.Control, t, dt float64) plant.State {
	dx := sys.Derive(x, u, t)
	next := make(plant.State, len(x))
	for i := range x {
		next[i] = x[i] + dt*dx[i]
	}
	return next
}
