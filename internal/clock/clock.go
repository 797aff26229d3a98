// Package clock supplies elapsed seconds to the control core.
//
// The profile engine and the PID read time through [Clock] so the
// trajectory math stays deterministic under test:
//
//	clk := clock.NewManual(0)
//	p, _ := profile.New("arm", profile.Constraints{MaxVelocity: 1, MaxAcceleration: 1}, 0, clk)
//	clk.Advance(0.02)
//	p.RecommendedPosition()
package clock

import "time"

// Clock returns monotonically non-decreasing seconds since an arbitrary epoch.
type Clock interface {
	Now() float64
}

// Wall reads the process monotonic clock.
type Wall struct {
	start time.Time
}

func NewWall() *Wall {
	return &Wall{start: time.Now()}
}

func (w *Wall) Now() float64 {
	return time.Since(w.start).Seconds()
}

// Manual only moves when told to. The bench drives one per run, one
// control period per cycle.
type Manual struct {
	t float64
}

func NewManual(start float64) *Manual {
	return &Manual{t: start}
}

func (m *Manual) Now() float64 { return m.t }

// Advance moves the clock forward by dt seconds. Negative steps are ignored.
func (m *Manual) Advance(dt float64) {
	if dt > 0 {
		m.t += dt
	}
}

// Set jumps to t if it is not in the past.
func (m *Manual) Set(t float64) {
	if t > m.t {
		m.t = t
	}
}
