package bench

import (
	"sort"

	pkgerrors "github.com/pkg/errors"
	"github.com/sirupsen/logrus"

	"github.com/san-kum/setpoint/internal/clock"
	"github.com/san-kum/setpoint/internal/config"
	"github.com/san-kum/setpoint/internal/control"
	"github.com/san-kum/setpoint/internal/integrators"
	"github.com/san-kum/setpoint/internal/mechanism"
	"github.com/san-kum/setpoint/internal/plant"
	"github.com/san-kum/setpoint/internal/profile"
	"github.com/san-kum/setpoint/internal/setpoint"
	"github.com/san-kum/setpoint/internal/units"
)

// Runner is the unit-free face of setpoint.Command.
type Runner interface {
	Name() string
	Execute(t float64) control.Decision
	Last() setpoint.Cycle
	CalibrateHere() bool
	End()
}

// Rig is one mechanism wired to its command.
type Rig struct {
	Mechanism mechanism.Mechanism
	Command   Runner
	Arbiter   *control.Arbiter
	Profile   *profile.Profile
}

type commandFactory func(arb *control.Arbiter, opts []setpoint.Option) Runner

type builder func(p mechanism.Params, integ plant.Integrator, clk clock.Clock) (mechanism.Mechanism, commandFactory, error)

var builders = map[string]builder{
	mechanism.KindArm: func(p mechanism.Params, integ plant.Integrator, clk clock.Clock) (mechanism.Mechanism, commandFactory, error) {
		a, err := mechanism.NewArm(p, integ, clk)
		if err != nil {
			return nil, nil, err
		}
		return a, func(arb *control.Arbiter, opts []setpoint.Option) Runner {
			return setpoint.NewCommand[units.Radians](mechanism.KindArm, a, arb, opts...)
		}, nil
	},
	mechanism.KindElevator: func(p mechanism.Params, integ plant.Integrator, clk clock.Clock) (mechanism.Mechanism, commandFactory, error) {
		e, err := mechanism.NewElevator(p, integ, clk)
		if err != nil {
			return nil, nil, err
		}
		return e, func(arb *control.Arbiter, opts []setpoint.Option) Runner {
			return setpoint.NewCommand[units.Meters](mechanism.KindElevator, e, arb, opts...)
		}, nil
	},
	mechanism.KindScorer: func(p mechanism.Params, integ plant.Integrator, clk clock.Clock) (mechanism.Mechanism, commandFactory, error) {
		s, err := mechanism.NewScorer(p, integ, clk)
		if err != nil {
			return nil, nil, err
		}
		return s, func(arb *control.Arbiter, opts []setpoint.Option) Runner {
			return setpoint.NewCommand[units.RadiansPerSecond](mechanism.KindScorer, s, arb, opts...)
		}, nil
	},
}

func Mechanisms() []string {
	names := make([]string, 0, len(builders))
	for name := range builders {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// NewRig builds the mechanism, arbiter, optional profile and command
// described by cfg.
func NewRig(cfg *config.Config, clk clock.Clock, human setpoint.HumanInput, log *logrus.Entry) (*Rig, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	build, ok := builders[cfg.Mechanism]
	if !ok {
		return nil, pkgerrors.Wrapf(mechanism.ErrUnknownKind, "%q", cfg.Mechanism)
	}
	integ, err := integrators.New(cfg.Integrator)
	if err != nil {
		return nil, err
	}
	mech, newCommand, err := build(cfg.Plant, integ, clk)
	if err != nil {
		return nil, pkgerrors.WithMessage(err, cfg.Mechanism)
	}
	arb, err := control.NewArbiter(cfg.Arbiter, cfg.NewPID())
	if err != nil {
		return nil, err
	}

	if log == nil {
		log = logrus.NewEntry(logrus.StandardLogger())
	}
	opts := []setpoint.Option{
		setpoint.WithValidator(cfg.Validator()),
		setpoint.WithLogger(log),
	}
	if human != nil {
		opts = append(opts, setpoint.WithHumanInput(human))
	}

	rig := &Rig{Mechanism: mech, Arbiter: arb}
	if cfg.Profile.Enabled {
		rig.Profile, err = profile.New(cfg.Mechanism, cfg.Profile.Constraints, mech.Reading(), clk)
		if err != nil {
			return nil, err
		}
		opts = append(opts, setpoint.WithProfile(rig.Profile))
	}
	rig.Command = newCommand(arb, opts)
	return rig, nil
}
