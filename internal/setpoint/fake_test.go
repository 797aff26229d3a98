package setpoint_test

import (
	"github.com/san-kum/setpoint/internal/setpoint"
	"github.com/san-kum/setpoint/internal/units"
)

// fakeArm is an ideal mechanism: the reading is whatever the test says.
type fakeArm struct {
	current    units.Radians
	target     units.Radians
	velocity   float64
	power      float64
	calibrated bool
	tolerance  units.Radians
	powers     []float64
}

func (f *fakeArm) CurrentValue() units.Radians    { return f.current }
func (f *fakeArm) TargetValue() units.Radians     { return f.target }
func (f *fakeArm) SetTargetValue(v units.Radians) { f.target = v }
func (f *fakeArm) IsCalibrated() bool             { return f.calibrated }
func (f *fakeArm) ForceCalibratedHere()           { f.calibrated = true }
func (f *fakeArm) CurrentVelocity() float64       { return f.velocity }

func (f *fakeArm) SetPower(p float64) {
	f.power = p
	f.powers = append(f.powers, p)
}

func (f *fakeArm) AreTwoTargetsEquivalent(a, b units.Radians) bool {
	return setpoint.WithinTolerance(a, b, f.tolerance)
}

// fixedArm cannot be force-calibrated.
type fixedArm struct {
	current, target units.Radians
}

func (s *fixedArm) CurrentValue() units.Radians    { return s.current }
func (s *fixedArm) TargetValue() units.Radians     { return s.target }
func (s *fixedArm) SetTargetValue(v units.Radians) { s.target = v }
func (s *fixedArm) SetPower(float64)               {}
func (s *fixedArm) IsCalibrated() bool             { return true }

func (s *fixedArm) AreTwoTargetsEquivalent(a, b units.Radians) bool {
	return a == b
}
