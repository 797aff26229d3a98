package integrators

import (
	"errors"
	"sort"

	pkgerrors "github.com/pkg/errors"

	"github.com/san-kum/setpoint/internal/plant"
)

var ErrUnknownIntegrator = errors.New("integrators: unknown integrator")

var registry = map[string]func() plant.Integrator{
	"euler":  func() plant.Integrator { return NewEuler() },
	"rk4":    func() plant.Integrator { return NewRK4() },
	"verlet": func() plant.Integrator { return NewVerlet() },
}

// New returns a fresh integrator by name. Integrators carry scratch space,
// so each plant needs its own.
func New(name string) (plant.Integrator, error) {
	fn, ok := registry[name]
	if !ok {
		return nil, pkgerrors.Wrapf(ErrUnknownIntegrator, "%q", name)
	}
	return fn(), nil
}

func Names() []string {
	names := make([]string, 0, len(registry))
	for name := range registry {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
