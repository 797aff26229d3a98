package mechanism

import (
	"github.com/san-kum/setpoint/internal/calibration"
	"github.com/san-kum/setpoint/internal/clock"
	"github.com/san-kum/setpoint/internal/plant"
	"github.com/san-kum/setpoint/internal/setpoint"
	"github.com/san-kum/setpoint/internal/units"
)

// Joint is a position-controlled mechanism in unit V.
type Joint[V setpoint.Unit] struct {
	kind   string
	params Params
	motor  *plant.Motor
	integ  plant.Integrator
	gate   *calibration.Gate

	x      plant.State
	t      float64
	power  float64
	target V
}

type (
	Arm      = Joint[units.Radians]
	Elevator = Joint[units.Meters]
)

func NewArm(p Params, integ plant.Integrator, clk clock.Clock) (*Arm, error) {
	return newJoint[units.Radians](KindArm, p, integ, clk)
}

func NewElevator(p Params, integ plant.Integrator, clk clock.Clock) (*Elevator, error) {
	return newJoint[units.Meters](KindElevator, p, integ, clk)
}

func newJoint[V setpoint.Unit](kind string, p Params, integ plant.Integrator, clk clock.Clock) (*Joint[V], error) {
	if err := p.Validate(); err != nil {
		return nil, err
	}
	motor, err := plant.NewMotor(p.Motor)
	if err != nil {
		return nil, err
	}

	j := &Joint[V]{
		kind:   kind,
		params: p,
		motor:  motor,
		integ:  integ,
		gate:   calibration.New(kind, clk),
	}
	j.x = motor.Constrain(plant.State{p.StartPosition, 0})
	if p.StartCalibrated {
		j.gate.PinReference(j.raw(), j.x.Position())
	}
	j.observeSwitch()
	j.target = j.CurrentValue()
	return j, nil
}

func (j *Joint[V]) raw() float64 {
	return j.x.Position() - j.params.EncoderOffset
}

func (j *Joint[V]) observeSwitch() {
	if !j.params.ReferenceSwitch {
		return
	}
	pressed := j.motor.AtLowerStop(j.x.Position())
	j.gate.ObserveReferenceSwitch(pressed, j.raw(), j.params.ReferenceValue)
}

func (j *Joint[V]) CurrentValue() V          { return V(j.gate.Apply(j.raw())) }
func (j *Joint[V]) TargetValue() V           { return j.target }
func (j *Joint[V]) SetTargetValue(v V)       { j.target = v }
func (j *Joint[V]) SetPower(p float64)       { j.power = clampPower(p) }
func (j *Joint[V]) IsCalibrated() bool       { return j.gate.IsCalibrated() }
func (j *Joint[V]) ForceCalibratedHere()     { j.gate.ForceCalibratedHere() }
func (j *Joint[V]) CurrentVelocity() float64 { return j.x.Velocity() }

func (j *Joint[V]) AreTwoTargetsEquivalent(a, b V) bool {
	return setpoint.WithinTolerance(a, b, V(j.params.Tolerance))
}

func (j *Joint[V]) Step(dt float64) {
	if dt <= 0 {
		return
	}
	j.x = j.integ.Step(j.motor, j.x, plant.Control{j.power}, j.t, dt)
	j.x = j.motor.Constrain(j.x)
	j.t += dt
	j.observeSwitch()
}

func (j *Joint[V]) Kind() string            { return j.kind }
func (j *Joint[V]) Reading() float64        { return float64(j.CurrentValue()) }
func (j *Joint[V]) Truth() float64          { return j.x.Position() }
func (j *Joint[V]) Target() float64         { return float64(j.target) }
func (j *Joint[V]) SetTarget(v float64)     { j.target = V(v) }
func (j *Joint[V]) Power() float64          { return j.power }
func (j *Joint[V]) Gate() *calibration.Gate { return j.gate }
func (j *Joint[V]) Motor() *plant.Motor     { return j.motor }
func (j *Joint[V]) State() plant.State      { return j.x.Clone() }
