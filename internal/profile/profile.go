package profile

import (
	"math"

	pkgerrors "github.com/pkg/errors"

	"github.com/san-kum/setpoint/internal/clock"
)

// Profile tracks one mechanism's trajectory between re-targets. It is not
// safe for concurrent use; each mechanism owns one and drives it from its
// control cycle.
type Profile struct {
	name        string
	constraints Constraints
	clock       clock.Clock

	initial MotionState
	goal    MotionState
	epoch   float64

	lastReported float64
}

// New returns a profile at rest at startingPosition with the epoch set to
// the clock's current time.
func New(name string, c Constraints, startingPosition float64, clk clock.Clock) (*Profile, error) {
	if err := c.Validate(); err != nil {
		return nil, pkgerrors.Wrapf(err, "profile %q: max velocity %v, max acceleration %v",
			name, c.MaxVelocity, c.MaxAcceleration)
	}
	if clk == nil {
		clk = clock.NewWall()
	}
	start := MotionState{Position: startingPosition}
	return &Profile{
		name:         name,
		constraints:  c,
		clock:        clk,
		initial:      start,
		goal:         start,
		epoch:        clk.Now(),
		lastReported: startingPosition,
	}, nil
}

func (p *Profile) Name() string             { return p.name }
func (p *Profile) Constraints() Constraints { return p.constraints }
func (p *Profile) Initial() MotionState     { return p.initial }
func (p *Profile) Goal() MotionState        { return p.goal }

// Elapsed is the time since the last anchor.
func (p *Profile) Elapsed() float64 {
	return math.Max(0, p.clock.Now()-p.epoch)
}

// SetTargetPosition anchors a new segment at the currently recommended
// state and heads for {goalPosition, goalVelocity}. currentPosition is the
// latest sensor reading; it is recorded but does not move the anchor.
// Non-finite goals are ignored. The goal velocity is clamped to the
// velocity limit.
func (p *Profile) SetTargetPosition(goalPosition, goalVelocity, currentPosition float64) {
	goal := MotionState{Position: goalPosition, Velocity: goalVelocity}
	if !goal.IsValid() {
		return
	}
	if math.Abs(goal.Velocity) > p.constraints.MaxVelocity {
		goal.Velocity = math.Copysign(p.constraints.MaxVelocity, goal.Velocity)
	}

	now := p.clock.Now()
	p.initial = Calculate(now-p.epoch, p.initial, p.goal, p.constraints)
	p.goal = goal
	p.epoch = now
	if !math.IsNaN(currentPosition) {
		p.lastReported = currentPosition
	}
}

// ResetState discards the current segment and pins the profile at the
// given state, e.g. after calibration moved the reference.
func (p *Profile) ResetState(position, velocity float64) {
	s := MotionState{Position: position, Velocity: velocity}
	if !s.IsValid() {
		return
	}
	p.initial = s
	p.goal = s
	p.epoch = p.clock.Now()
	p.lastReported = position
}

// RecommendedState evaluates the profile at the current clock time.
func (p *Profile) RecommendedState() MotionState {
	return p.StateAt(p.Elapsed())
}

// RecommendedPosition is the setpoint to hand the closed-loop controller
// this cycle.
func (p *Profile) RecommendedPosition() float64 {
	return p.RecommendedState().Position
}

// StateAt evaluates the current segment t seconds after its anchor.
func (p *Profile) StateAt(t float64) MotionState {
	return Calculate(t, p.initial, p.goal, p.constraints)
}

// TotalTime is the duration of the current segment.
func (p *Profile) TotalTime() float64 {
	return Duration(p.initial, p.goal, p.constraints)
}

func (p *Profile) IsFinished() bool {
	return p.Elapsed() >= p.TotalTime()
}

// LastReportedPosition is the sensor reading passed with the last re-target
// or reset.
func (p *Profile) LastReportedPosition() float64 {
	return p.lastReported
}
