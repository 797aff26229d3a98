package profile

import (
	"fmt"
	"math"
)

// MotionState is a position and velocity pair in the mechanism's unit.
type MotionState struct {
	Position float64 `json:"position" yaml:"position"`
	Velocity float64 `json:"velocity" yaml:"velocity"`
}

// Near reports whether both components are within tol of other.
func (s MotionState) Near(other MotionState, tol float64) bool {
	return math.Abs(s.Position-other.Position) <= tol && math.Abs(s.Velocity-other.Velocity) <= tol
}

func (s MotionState) IsValid() bool {
	for _, v := range []float64{s.Position, s.Velocity} {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return false
		}
	}
	return true
}

func (s MotionState) scale(f float64) MotionState {
	return MotionState{Position: s.Position * f, Velocity: s.Velocity * f}
}

func (s MotionState) String() string {
	return fmt.Sprintf("(%.4f, %.4f)", s.Position, s.Velocity)
}

// Constraints bounds the profile's velocity and acceleration magnitudes.
type Constraints struct {
	MaxVelocity     float64 `json:"max_velocity" yaml:"max_velocity"`
	MaxAcceleration float64 `json:"max_acceleration" yaml:"max_acceleration"`
}

func (c Constraints) Validate() error {
	for _, v := range []float64{c.MaxVelocity, c.MaxAcceleration} {
		if math.IsNaN(v) || math.IsInf(v, 0) || v <= 0 {
			return ErrInvalidConstraints
		}
	}
	return nil
}
