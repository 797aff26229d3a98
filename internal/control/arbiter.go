package control

import (
	"fmt"
	"math"

	pkgerrors "github.com/pkg/errors"
)

// Kind is the action class chosen for one cycle.
type Kind int

const (
	Coast Kind = iota + 1
	HumanControl
	MachineControl
	UncalibratedFallback
)

func (k Kind) String() string {
	switch k {
	case Coast:
		return "Coast"
	case HumanControl:
		return "HumanControl"
	case MachineControl:
		return "MachineControl"
	case UncalibratedFallback:
		return "UncalibratedFallback"
	default:
		return fmt.Sprintf("Kind(%d)", int(k))
	}
}

// State is the arbiter's state after its most recent decision.
type State int

const (
	Uncalibrated State = iota
	Coasting
	HumanControlled
	MachineControlled
)

func (s State) String() string {
	switch s {
	case Uncalibrated:
		return "Uncalibrated"
	case Coasting:
		return "Coasting"
	case HumanControlled:
		return "HumanControlled"
	case MachineControlled:
		return "MachineControlled"
	default:
		return fmt.Sprintf("State(%d)", int(s))
	}
}

func stateFor(k Kind) State {
	switch k {
	case HumanControl:
		return HumanControlled
	case MachineControl:
		return MachineControlled
	case Coast:
		return Coasting
	default:
		return Uncalibrated
	}
}

// Decision is the per-cycle output: what class of action and the motor
// power in [-1, 1].
type Decision struct {
	Kind  Kind
	Power float64
}

func (d Decision) String() string {
	return fmt.Sprintf("%s(%.3f)", d.Kind, d.Power)
}

// Fallback selects what an uncalibrated mechanism does.
type Fallback string

const (
	FallbackCoast        Fallback = "coast"
	FallbackClampedHuman Fallback = "clamped_human"
)

// ArbiterConfig holds the arbitration knobs. Human thresholds are in
// joystick units, Tolerance in the mechanism's unit, powers in [0, 1].
type ArbiterConfig struct {
	AssertThreshold  float64  `yaml:"assert_threshold" json:"assert_threshold"`
	ReleaseThreshold float64  `yaml:"release_threshold" json:"release_threshold"`
	MinHumanPower    float64  `yaml:"min_human_power" json:"min_human_power"`
	MaxHumanPower    float64  `yaml:"max_human_power" json:"max_human_power"`
	MaxMachinePower  float64  `yaml:"max_machine_power" json:"max_machine_power"`
	Tolerance        float64  `yaml:"tolerance" json:"tolerance"`
	Fallback         Fallback `yaml:"fallback" json:"fallback"`
	SafePower        float64  `yaml:"safe_power" json:"safe_power"`
}

func DefaultArbiterConfig() ArbiterConfig {
	return ArbiterConfig{
		AssertThreshold:  0.15,
		ReleaseThreshold: 0.08,
		MinHumanPower:    0.05,
		MaxHumanPower:    1.0,
		MaxMachinePower:  0.8,
		Tolerance:        0.01,
		Fallback:         FallbackClampedHuman,
		SafePower:        0.2,
	}
}

func (c ArbiterConfig) Validate() error {
	switch {
	case c.ReleaseThreshold <= 0 || c.AssertThreshold <= 0:
		return pkgerrors.Wrapf(ErrInvalidArbiterConfig, "thresholds must be positive (assert %v, release %v)", c.AssertThreshold, c.ReleaseThreshold)
	case c.ReleaseThreshold > c.AssertThreshold:
		return pkgerrors.Wrapf(ErrInvalidArbiterConfig, "release threshold %v above assert threshold %v", c.ReleaseThreshold, c.AssertThreshold)
	case c.MinHumanPower < 0 || c.MaxHumanPower > 1 || c.MinHumanPower > c.MaxHumanPower:
		return pkgerrors.Wrapf(ErrInvalidArbiterConfig, "human power bounds [%v, %v]", c.MinHumanPower, c.MaxHumanPower)
	case c.MaxMachinePower <= 0 || c.MaxMachinePower > 1:
		return pkgerrors.Wrapf(ErrInvalidArbiterConfig, "machine power bound %v", c.MaxMachinePower)
	case c.Tolerance <= 0:
		return pkgerrors.Wrapf(ErrInvalidArbiterConfig, "tolerance %v", c.Tolerance)
	case c.Fallback != FallbackCoast && c.Fallback != FallbackClampedHuman:
		return pkgerrors.Wrapf(ErrInvalidArbiterConfig, "unknown fallback %q", c.Fallback)
	case c.SafePower < 0 || c.SafePower > 1:
		return pkgerrors.Wrapf(ErrInvalidArbiterConfig, "safe power %v", c.SafePower)
	}
	return nil
}

// Input is one cycle's view of the mechanism. Error is target (or profile
// recommendation) minus current value; Human is the deadbanded axis in
// [-1, 1]. Both are assumed finite.
type Input struct {
	Error      float64
	Human      float64
	Calibrated bool
}

type Arbiter struct {
	cfg     ArbiterConfig
	pid     *PID
	state   State
	latched bool
}

func NewArbiter(cfg ArbiterConfig, pid *PID) (*Arbiter, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if pid == nil {
		return nil, pkgerrors.Wrap(ErrInvalidArbiterConfig, "nil PID")
	}
	return &Arbiter{cfg: cfg, pid: pid, state: Uncalibrated}, nil
}

func (a *Arbiter) Config() ArbiterConfig { return a.cfg }
func (a *Arbiter) PID() *PID             { return a.pid }
func (a *Arbiter) State() State          { return a.state }

// HumanLatched reports whether the hysteresis latch currently holds human
// control.
func (a *Arbiter) HumanLatched() bool { return a.latched }

// Decide runs one cycle of arbitration at time t.
//
// Precedence: calibration veto, then human control (with hysteresis), then
// coast inside tolerance, then closed-loop control.
func (a *Arbiter) Decide(in Input, t float64) Decision {
	human := a.updateLatch(in.Human)

	var d Decision
	switch {
	case !in.Calibrated:
		d = Decision{Kind: UncalibratedFallback}
		if a.cfg.Fallback == FallbackClampedHuman && human {
			d.Power = clamp(a.humanPower(in.Human), -a.cfg.SafePower, a.cfg.SafePower)
		}
	case human:
		d = Decision{Kind: HumanControl, Power: a.humanPower(in.Human)}
	case math.Abs(in.Error) <= a.cfg.Tolerance:
		d = Decision{Kind: Coast}
	default:
		u := a.pid.Update(in.Error, t)
		d = Decision{Kind: MachineControl, Power: clamp(u, -a.cfg.MaxMachinePower, a.cfg.MaxMachinePower)}
	}

	next := stateFor(d.Kind)
	if a.state == MachineControlled && next != MachineControlled {
		a.pid.Reset()
	}
	a.state = next
	return d
}

// updateLatch asserts above AssertThreshold and releases only below
// ReleaseThreshold.
func (a *Arbiter) updateLatch(human float64) bool {
	mag := math.Abs(human)
	if a.latched {
		a.latched = mag >= a.cfg.ReleaseThreshold
	} else {
		a.latched = mag > a.cfg.AssertThreshold
	}
	return a.latched
}

func (a *Arbiter) humanPower(human float64) float64 {
	mag := clamp(math.Abs(human), 0, 1)
	power := a.cfg.MinHumanPower + (a.cfg.MaxHumanPower-a.cfg.MinHumanPower)*mag
	power = clamp(power, a.cfg.MinHumanPower, a.cfg.MaxHumanPower)
	return math.Copysign(power, human)
}

// Reset returns the arbiter to its initial state.
func (a *Arbiter) Reset() {
	a.state = Uncalibrated
	a.latched = false
	a.pid.Reset()
}
