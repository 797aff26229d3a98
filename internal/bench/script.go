package bench

import (
	"sort"
	"sync"

	"github.com/san-kum/setpoint/internal/config"
)

// Axis is a settable joystick axis. It is the human input for scripted
// runs and for the TUI, which writes it from the key handler.
type Axis struct {
	mu sync.Mutex
	v  float64
}

func (a *Axis) Set(v float64) {
	a.mu.Lock()
	a.v = v
	a.mu.Unlock()
}

func (a *Axis) Axis() float64 {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.v
}

// Script replays timed events against a rig.
type Script struct {
	events []config.Event
	next   int
}

func NewScript(events []config.Event) *Script {
	sorted := append([]config.Event(nil), events...)
	sort.SliceStable(sorted, func(i, j int) bool { return sorted[i].At < sorted[j].At })
	return &Script{events: sorted}
}

// due returns the events that have come due by t and not fired yet. A
// small slack absorbs clock accumulation error.
func (s *Script) due(t float64) []config.Event {
	start := s.next
	for s.next < len(s.events) && s.events[s.next].At <= t+1e-9 {
		s.next++
	}
	return s.events[start:s.next]
}

func (s *Script) Done() bool { return s.next >= len(s.events) }

func (s *Script) Rewind() { s.next = 0 }
