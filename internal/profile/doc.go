// Package profile generates trapezoidal motion profiles that can be
// re-targeted while a mechanism is moving.
//
// A [Profile] is anchored at an initial [MotionState] and heads toward a goal
// state under velocity and acceleration [Constraints]. The recommended state
// is evaluated analytically from the time elapsed since the last anchor:
//
//	clk := clock.NewWall()
//	p, err := profile.New("elevator", profile.Constraints{MaxVelocity: 1.5, MaxAcceleration: 3}, 0, clk)
//	if err != nil {
//	    return err
//	}
//	p.SetTargetPosition(1.2, 0, sensor.Position())
//	// every control cycle
//	setpoint := p.RecommendedPosition()
//
// # Re-targeting
//
// [Profile.SetTargetPosition] re-anchors at the profile's own recommended
// state, not at the sensor reading passed in. A goal change mid-motion
// therefore never produces a step in position or velocity. If the
// mechanism stalls, the profile keeps moving regardless; callers that need
// to resynchronise use [Profile.ResetState].
//
// [Calculate] is the pure evaluation used by [Profile] and is safe to call
// directly for planning or plotting.
package profile
