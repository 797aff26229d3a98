package integrators

import "github.com/san-kum/setpoint/internal/plant"

type RK4 struct {
	k       [4]plant.State
	scratch plant.State
}

func NewRK4() *RK4 {
	return &RK4{}
}

func (r *RK4) ensureScratch(n int) {
	if len(r.scratch) == n {
		return
	}
	for i := range r.k {
		r.k[i] = make(plant.State, n)
	}
	r.scratch = make(plant.State, n)
}

// stage evaluates the derivative at x + h*k into dst.
func (r *RK4) stage(dst plant.State, sys plant.System, x, k plant.State, u plant.Control, t, h float64) {
	for i := range x {
		r.scratch[i] = x[i] + h*k[i]
	}
	copy(dst, sys.Derive(r.scratch, u, t))
}

func (r *RK4) Step(sys plant.System, x plant.State, u plant.Control, t, dt float64) plant.State {
	n := len(x)
	r.ensureScratch(n)

	copy(r.k[0], sys.Derive(x, u, t))
	r.stage(r.k[1], sys, x, r.k[0], u, t+dt/2, dt/2)
	r.stage(r.k[2], sys, x, r.k[1], u, t+dt/2, dt/2)
	r.stage(r.k[3], sys, x, r.k[2], u, t+dt, dt)

	next := make(plant.State, n)
	for i := 0; i < n; i++ {
		next[i] = x[i] + dt/6*(r.k[0][i]+2*r.k[1][i]+2*r.k[2][i]+r.k[3][i])
	}
	return next
}
