package setpoint

import "math"

// HumanInput supplies the operator's axis for the mechanism, nominally in
// [-1, 1].
type HumanInput interface {
	Axis() float64
}

// HumanInputFunc adapts a function to HumanInput.
type HumanInputFunc func() float64

func (f HumanInputFunc) Axis() float64 { return f() }

// Validator screens sensor readings and human input before they reach the
// arbiter.
type Validator struct {
	// Deadband zeroes axis values whose magnitude is below it.
	Deadband float64
	// Min and Max bound plausible sensor readings; equal values disable
	// the range check.
	Min, Max float64
}

func DefaultValidator() Validator {
	return Validator{Deadband: 0.02}
}

// ValidReading reports whether a sensor value is finite and in range.
func (v Validator) ValidReading(x float64) bool {
	if math.IsNaN(x) || math.IsInf(x, 0) {
		return false
	}
	if v.Min != v.Max && (x < v.Min || x > v.Max) {
		return false
	}
	return true
}

// Target screens a commanded target. Non-finite targets are rejected;
// finite ones are clamped into the reading range.
func (v Validator) Target(x float64) (float64, bool) {
	if math.IsNaN(x) || math.IsInf(x, 0) {
		return 0, false
	}
	if v.Min != v.Max {
		x = math.Max(v.Min, math.Min(v.Max, x))
	}
	return x, true
}

// Human returns a clean axis value: NaN reads as no input, the value is
// clamped to [-1, 1] and the deadband applied.
func (v Validator) Human(x float64) float64 {
	if math.IsNaN(x) {
		return 0
	}
	x = math.Max(-1, math.Min(1, x))
	if math.Abs(x) < v.Deadband {
		return 0
	}
	return x
}
