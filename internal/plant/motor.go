// Package plant simulates the physical side of a mechanism: a single motor
// driving one degree of freedom against damping, gravity and hard stops.
package plant

import (
	"math"

	pkgerrors "github.com/pkg/errors"
)

// Gravity selects how gravity loads the motor.
type Gravity string

const (
	GravityNone     Gravity = "none"
	GravityConstant Gravity = "constant"
	// GravityCosine loads a pivoting arm: the torque is largest when the
	// arm is horizontal (position 0).
	GravityCosine Gravity = "cosine"
)

// MotorParams describe a motor and its load. Positions and velocities are
// in the mechanism's unit (radians or meters), StallTorque is the
// generalized force at full power.
type MotorParams struct {
	Inertia       float64 `yaml:"inertia" json:"inertia"`
	StallTorque   float64 `yaml:"stall_torque" json:"stall_torque"`
	Damping       float64 `yaml:"damping" json:"damping"`
	Gravity       Gravity `yaml:"gravity" json:"gravity"`
	GravityTorque float64 `yaml:"gravity_torque" json:"gravity_torque"`
	// MinPosition and MaxPosition are hard stops; equal values disable them.
	MinPosition float64 `yaml:"min_position" json:"min_position"`
	MaxPosition float64 `yaml:"max_position" json:"max_position"`
}

func (p MotorParams) Validate() error {
	switch {
	case !(p.Inertia > 0):
		return pkgerrors.Wrapf(ErrInvalidParams, "inertia %v", p.Inertia)
	case !(p.StallTorque > 0):
		return pkgerrors.Wrapf(ErrInvalidParams, "stall torque %v", p.StallTorque)
	case p.Damping < 0:
		return pkgerrors.Wrapf(ErrInvalidParams, "damping %v", p.Damping)
	case p.MinPosition > p.MaxPosition:
		return pkgerrors.Wrapf(ErrInvalidParams, "hard stops [%v, %v]", p.MinPosition, p.MaxPosition)
	}
	switch p.Gravity {
	case "", GravityNone, GravityConstant, GravityCosine:
	default:
		return pkgerrors.Wrapf(ErrInvalidParams, "unknown gravity model %q", p.Gravity)
	}
	return nil
}

func (p MotorParams) hasStops() bool { return p.MinPosition != p.MaxPosition }

type Motor struct {
	params MotorParams
}

func NewMotor(p MotorParams) (*Motor, error) {
	if err := p.Validate(); err != nil {
		return nil, err
	}
	return &Motor{params: p}, nil
}

func (m *Motor) Params() MotorParams { return m.params }
func (m *Motor) StateDim() int       { return 2 }
func (m *Motor) ControlDim() int     { return 1 }

func (m *Motor) Derive(x State, u Control, t float64) State {
	power := 0.0
	if len(u) > 0 && !math.IsNaN(u[0]) {
		power = math.Max(-1, math.Min(1, u[0]))
	}
	torque := m.params.StallTorque*power - m.params.Damping*x[1] - m.gravity(x[0])
	return State{x[1], torque / m.params.Inertia}
}

func (m *Motor) gravity(pos float64) float64 {
	switch m.params.Gravity {
	case GravityConstant:
		return m.params.GravityTorque
	case GravityCosine:
		return m.params.GravityTorque * math.Cos(pos)
	default:
		return 0
	}
}

// HoldPower is the power that balances gravity at pos.
func (m *Motor) HoldPower(pos float64) float64 {
	return m.gravity(pos) / m.params.StallTorque
}

// Constrain stops the motor dead at either hard stop.
func (m *Motor) Constrain(x State) State {
	if !m.params.hasStops() {
		return x
	}
	switch {
	case x[0] <= m.params.MinPosition:
		x[0] = m.params.MinPosition
		x[1] = math.Max(0, x[1])
	case x[0] >= m.params.MaxPosition:
		x[0] = m.params.MaxPosition
		x[1] = math.Min(0, x[1])
	}
	return x
}

// AtLowerStop reports whether pos rests on the lower hard stop.
func (m *Motor) AtLowerStop(pos float64) bool {
	return m.params.hasStops() && pos <= m.params.MinPosition+1e-9
}

func (m *Motor) GetParams() map[string]float64 {
	return map[string]float64{
		"inertia":        m.params.Inertia,
		"stall_torque":   m.params.StallTorque,
		"damping":        m.params.Damping,
		"gravity_torque": m.params.GravityTorque,
	}
}

func (m *Motor) SetParam(name string, value float64) error {
	next := m.params
	switch name {
	case "inertia":
		next.Inertia = value
	case "stall_torque":
		next.StallTorque = value
	case "damping":
		next.Damping = value
	case "gravity_torque":
		next.GravityTorque = value
	default:
		return pkgerrors.Wrapf(ErrUnknownParam, "%q", name)
	}
	if err := next.Validate(); err != nil {
		return err
	}
	m.params = next
	return nil
}
