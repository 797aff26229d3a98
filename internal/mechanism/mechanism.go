package mechanism

import (
	"math"

	pkgerrors "github.com/pkg/errors"

	"github.com/san-kum/setpoint/internal/calibration"
	"github.com/san-kum/setpoint/internal/plant"
)

const (
	KindArm      = "arm"
	KindElevator = "elevator"
	KindScorer   = "scorer"
)

// Kinds lists the mechanisms this package can build.
func Kinds() []string {
	return []string{KindArm, KindElevator, KindScorer}
}

// Params configure a simulated mechanism.
type Params struct {
	Motor plant.MotorParams `yaml:"motor" json:"motor"`
	// Tolerance is the mechanism's own notion of "at target".
	Tolerance float64 `yaml:"tolerance" json:"tolerance"`
	// EncoderOffset is subtracted from the true position to give the raw
	// reading, modelling a relative encoder that powered up somewhere else.
	EncoderOffset float64 `yaml:"encoder_offset" json:"encoder_offset"`
	// ReferenceSwitch puts a limit switch on the lower hard stop that reads
	// as ReferenceValue once calibrated.
	ReferenceSwitch bool    `yaml:"reference_switch" json:"reference_switch"`
	ReferenceValue  float64 `yaml:"reference_value" json:"reference_value"`
	StartPosition   float64 `yaml:"start_position" json:"start_position"`
	// StartCalibrated models an absolute encoder: the reading is trusted
	// from the first cycle.
	StartCalibrated bool `yaml:"start_calibrated" json:"start_calibrated"`
}

func (p Params) Validate() error {
	if err := p.Motor.Validate(); err != nil {
		return err
	}
	if !(p.Tolerance > 0) || math.IsInf(p.Tolerance, 0) {
		return pkgerrors.Wrapf(ErrInvalidParams, "tolerance %v", p.Tolerance)
	}
	if p.ReferenceSwitch && p.Motor.MinPosition == p.Motor.MaxPosition {
		return pkgerrors.Wrap(ErrInvalidParams, "reference switch needs a lower hard stop")
	}
	return nil
}

// Mechanism is the unit-free face of a simulated mechanism, used by the
// bench and the TUI which handle every kind alike.
type Mechanism interface {
	Kind() string
	// Step advances the physics by dt with the last applied power.
	Step(dt float64)
	// Reading is the calibrated sensor value the control core sees.
	Reading() float64
	// Truth is the physical value, for plots and metrics.
	Truth() float64
	Target() float64
	SetTarget(v float64)
	Power() float64
	IsCalibrated() bool
	Gate() *calibration.Gate
}

func clampPower(p float64) float64 {
	if math.IsNaN(p) {
		return 0
	}
	return math.Max(-1, math.Min(1, p))
}
