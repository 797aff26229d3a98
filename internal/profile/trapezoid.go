package profile

import "math"

// phases holds the end times of the accel, cruise and decel segments,
// measured from the anchor.
type phases struct {
	endAccel     float64
	endFullSpeed float64
	endDecel     float64
}

// direction is -1 when the profile has to be solved mirrored. The
// positive direction fits only when the accel-then-decel shape can join
// initial to goal: a mechanism already moving faster than it can brake
// before the goal overshoots and comes back, which is the mirrored shape.
func direction(initial, goal MotionState, c Constraints) float64 {
	if fitsForward(initial, goal, c.MaxAcceleration) {
		return 1
	}
	return -1
}

func fitsForward(cur, goal MotionState, accel float64) bool {
	dist := goal.Position - cur.Position
	stopBegin := cur.Velocity * cur.Velocity / (2 * accel)
	stopEnd := goal.Velocity * goal.Velocity / (2 * accel)
	switch {
	case stopBegin+dist+stopEnd < 0:
		return false
	case cur.Velocity > 0 && dist+stopEnd < stopBegin:
		return false
	case goal.Velocity > 0 && dist+stopBegin < stopEnd:
		return false
	}
	return true
}

// solve expects states already mirrored into the positive direction.
func solve(cur, goal MotionState, c Constraints) phases {
	// A nonzero initial or goal velocity truncates a rest-to-rest
	// trapezoid; extend it virtually to rest at both ends.
	cutoffBegin := cur.Velocity / c.MaxAcceleration
	cutoffDistBegin := cutoffBegin * cutoffBegin * c.MaxAcceleration / 2

	cutoffEnd := goal.Velocity / c.MaxAcceleration
	cutoffDistEnd := cutoffEnd * cutoffEnd * c.MaxAcceleration / 2

	fullTrapezoidDist := math.Max(0, cutoffDistBegin+(goal.Position-cur.Position)+cutoffDistEnd)
	accelTime := c.MaxVelocity / c.MaxAcceleration
	fullSpeedDist := fullTrapezoidDist - accelTime*accelTime*c.MaxAcceleration

	// triangular: max velocity is never reached
	if fullSpeedDist < 0 {
		accelTime = math.Sqrt(fullTrapezoidDist / c.MaxAcceleration)
		fullSpeedDist = 0
	}

	var p phases
	p.endAccel = accelTime - cutoffBegin
	p.endFullSpeed = p.endAccel + fullSpeedDist/c.MaxVelocity
	p.endDecel = p.endFullSpeed + accelTime - cutoffEnd
	return p
}

func mirrored(initial, goal MotionState, c Constraints) (float64, MotionState, MotionState) {
	if math.Abs(initial.Velocity) > c.MaxVelocity {
		initial.Velocity = math.Copysign(c.MaxVelocity, initial.Velocity)
	}
	dir := direction(initial, goal, c)
	return dir, initial.scale(dir), goal.scale(dir)
}

// Calculate returns the state t seconds after leaving initial on the way to
// goal. t < 0 is treated as 0; once t passes the end of deceleration the
// goal itself is returned.
func Calculate(t float64, initial, goal MotionState, c Constraints) MotionState {
	if t < 0 {
		t = 0
	}
	dir, cur, g := mirrored(initial, goal, c)
	p := solve(cur, g, c)

	out := cur
	switch {
	case t < p.endAccel:
		out.Velocity += t * c.MaxAcceleration
		out.Position += (cur.Velocity + t*c.MaxAcceleration/2) * t
	case t < p.endFullSpeed:
		out.Velocity = c.MaxVelocity
		out.Position += (cur.Velocity+p.endAccel*c.MaxAcceleration/2)*p.endAccel +
			c.MaxVelocity*(t-p.endAccel)
	case t <= p.endDecel:
		timeLeft := p.endDecel - t
		out.Velocity = g.Velocity + timeLeft*c.MaxAcceleration
		out.Position = g.Position - (g.Velocity+timeLeft*c.MaxAcceleration/2)*timeLeft
	default:
		out = g
	}
	return out.scale(dir)
}

// Duration is the time from initial until the profile settles on goal.
func Duration(initial, goal MotionState, c Constraints) float64 {
	_, cur, g := mirrored(initial, goal, c)
	return math.Max(0, solve(cur, g, c).endDecel)
}
