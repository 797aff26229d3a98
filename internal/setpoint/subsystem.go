// Package setpoint is the contract shared by every actuated mechanism and
// the per-cycle command that drives it.
//
// A mechanism implements [Subsystem] for its unit type (an angle, a
// length, a velocity). [Command] runs once per control cycle: it validates
// the reading, advances the optional motion profile, asks the
// [control.Arbiter] who is in charge and applies the resulting power.
package setpoint

// Unit is any scalar with a physical unit. Subtraction and comparison are
// all the core needs.
type Unit interface {
	~float64
}

// Subsystem is what a mechanism exposes to the control core.
type Subsystem[V Unit] interface {
	CurrentValue() V
	TargetValue() V
	SetTargetValue(V)
	SetPower(float64)
	IsCalibrated() bool
	// AreTwoTargetsEquivalent compares values with the mechanism's own
	// tolerance.
	AreTwoTargetsEquivalent(a, b V) bool
}

// Calibrator is implemented by mechanisms that accept an operator override
// declaring the current reading correct.
type Calibrator interface {
	ForceCalibratedHere()
}

// VelocityReporter is implemented by mechanisms whose sensor also reports
// a rate, in the unit of the position per second.
type VelocityReporter interface {
	CurrentVelocity() float64
}

func Error[V Unit](target, current V) V {
	return target - current
}

func Magnitude[V Unit](v V) V {
	if v < 0 {
		return -v
	}
	return v
}

func WithinTolerance[V Unit](a, b, tol V) bool {
	return Magnitude(a-b) <= tol
}
