// Package calibration decides whether a mechanism's absolute position
// reference can be trusted for closed-loop control.
//
// A [Gate] starts uncalibrated. It becomes calibrated when a reference is
// reached ([Gate.ObserveReferenceSwitch], [Gate.PinReference]) or when an
// operator declares the current reading correct ([Gate.ForceCalibratedHere]).
// It never resets on its own.
package calibration

import (
	"fmt"
	"math"

	"github.com/san-kum/setpoint/internal/clock"
)

// Method records how a gate became calibrated.
type Method string

const (
	MethodNone      Method = ""
	MethodReference Method = "Reference"
	MethodSwitch    Method = "ReferenceSwitch"
	MethodForced    Method = "Forced"
)

// Transition is the record of the calibrating event.
type Transition struct {
	Method Method  `json:"method"`
	At     float64 `json:"at"`
	Raw    float64 `json:"raw"`
	Known  float64 `json:"known"`
}

func (t Transition) String() string {
	if t.Method == MethodNone {
		return "uncalibrated"
	}
	return fmt.Sprintf("%s at t=%.3f (raw %.4f -> %.4f)", t.Method, t.At, t.Raw, t.Known)
}

type Gate struct {
	name       string
	clock      clock.Clock
	calibrated bool
	offset     float64
	record     Transition
}

func New(name string, clk clock.Clock) *Gate {
	if clk == nil {
		clk = clock.NewWall()
	}
	return &Gate{name: name, clock: clk}
}

func (g *Gate) Name() string       { return g.name }
func (g *Gate) IsCalibrated() bool { return g.calibrated }
func (g *Gate) Offset() float64    { return g.offset }
func (g *Gate) Record() Transition { return g.record }

// Apply converts a raw sensor reading into the calibrated frame.
func (g *Gate) Apply(raw float64) float64 {
	return raw + g.offset
}

// ForceCalibratedHere trusts the current reading as-is. The offset is left
// alone and nothing moves; callers should also set their target to the
// current value. Calling it on a calibrated gate changes nothing.
func (g *Gate) ForceCalibratedHere() {
	if g.calibrated {
		return
	}
	g.calibrated = true
	g.record = Transition{Method: MethodForced, At: g.clock.Now()}
}

// PinReference declares that rawReading corresponds to the physical value
// known. Non-finite inputs are ignored.
func (g *Gate) PinReference(rawReading, known float64) {
	g.pin(MethodReference, rawReading, known)
}

// ObserveReferenceSwitch pins the reference while the switch is pressed.
// It reports true only on the cycle that first calibrates the gate.
func (g *Gate) ObserveReferenceSwitch(pressed bool, rawReading, referenceValue float64) bool {
	if !pressed {
		return false
	}
	was := g.calibrated
	g.pin(MethodSwitch, rawReading, referenceValue)
	return !was && g.calibrated
}

func (g *Gate) pin(m Method, raw, known float64) {
	if math.IsNaN(raw) || math.IsInf(raw, 0) || math.IsNaN(known) || math.IsInf(known, 0) {
		return
	}
	g.offset = known - raw
	g.calibrated = true
	g.record = Transition{Method: m, At: g.clock.Now(), Raw: raw, Known: known}
}
