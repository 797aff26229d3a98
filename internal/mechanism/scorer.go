package mechanism

import (
	"github.com/san-kum/setpoint/internal/calibration"
	"github.com/san-kum/setpoint/internal/clock"
	"github.com/san-kum/setpoint/internal/plant"
	"github.com/san-kum/setpoint/internal/setpoint"
	"github.com/san-kum/setpoint/internal/units"
)

// Scorer is a flywheel under velocity control. A rate needs no position
// reference, so it is calibrated from construction.
type Scorer struct {
	params Params
	motor  *plant.Motor
	integ  plant.Integrator
	gate   *calibration.Gate

	x      plant.State
	t      float64
	power  float64
	target units.RadiansPerSecond
}

func NewScorer(p Params, integ plant.Integrator, clk clock.Clock) (*Scorer, error) {
	p.ReferenceSwitch = false
	p.Motor.Gravity = plant.GravityNone
	if err := p.Validate(); err != nil {
		return nil, err
	}
	motor, err := plant.NewMotor(p.Motor)
	if err != nil {
		return nil, err
	}

	s := &Scorer{
		params: p,
		motor:  motor,
		integ:  integ,
		gate:   calibration.New(KindScorer, clk),
		x:      plant.State{0, 0},
	}
	s.gate.ForceCalibratedHere()
	return s, nil
}

func (s *Scorer) CurrentValue() units.RadiansPerSecond {
	return units.RadiansPerSecond(s.x.Velocity())
}

func (s *Scorer) TargetValue() units.RadiansPerSecond     { return s.target }
func (s *Scorer) SetTargetValue(v units.RadiansPerSecond) { s.target = v }
func (s *Scorer) SetPower(p float64)                      { s.power = clampPower(p) }
func (s *Scorer) IsCalibrated() bool                      { return s.gate.IsCalibrated() }
func (s *Scorer) ForceCalibratedHere()                    { s.gate.ForceCalibratedHere() }

func (s *Scorer) AreTwoTargetsEquivalent(a, b units.RadiansPerSecond) bool {
	return setpoint.WithinTolerance(a, b, units.RadiansPerSecond(s.params.Tolerance))
}

func (s *Scorer) Step(dt float64) {
	if dt <= 0 {
		return
	}
	s.x = s.integ.Step(s.motor, s.x, plant.Control{s.power}, s.t, dt)
	s.t += dt
}

func (s *Scorer) Kind() string            { return KindScorer }
func (s *Scorer) Reading() float64        { return s.x.Velocity() }
func (s *Scorer) Truth() float64          { return s.x.Velocity() }
func (s *Scorer) Target() float64         { return float64(s.target) }
func (s *Scorer) SetTarget(v float64)     { s.target = units.RadiansPerSecond(v) }
func (s *Scorer) Power() float64          { return s.power }
func (s *Scorer) Gate() *calibration.Gate { return s.gate }
func (s *Scorer) Motor() *plant.Motor     { return s.motor }
