// Package tui is an interactive bench: the keyboard is the joystick and the
// mechanism runs in real time.
package tui

import (
	"io"
	"math"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/sirupsen/logrus"

	"github.com/san-kum/setpoint/internal/bench"
	"github.com/san-kum/setpoint/internal/config"
	"github.com/san-kum/setpoint/internal/mechanism"
	"github.com/san-kum/setpoint/internal/plant"
)

const (
	historyCapacity = 250
	axisStep        = 0.25
	payloadFactor   = 1.5
	gainStep        = 1.1
)

// motorOwner is implemented by the simulated mechanisms.
type motorOwner interface {
	Motor() *plant.Motor
}

type tickMsg time.Time

type model struct {
	cfg   *config.Config
	bench *bench.Bench
	stick *bench.Axis
	log   *logrus.Entry

	targets []float64
	last    bench.Sample
	truth   []float64
	ref     []float64

	paused  bool
	speed   int
	payload bool
	err     error

	width, height int
}

// newModel builds the bench with the keyboard as its human input. Bench
// logging is discarded since it would tear the alt screen.
func newModel(cfg *config.Config) (*model, error) {
	l := logrus.New()
	l.SetOutput(io.Discard)

	m := &model{
		cfg:     cfg,
		stick:   &bench.Axis{},
		log:     logrus.NewEntry(l),
		targets: targetsFor(cfg),
		speed:   1,
		width:   80,
		height:  24,
	}
	if err := m.restart(); err != nil {
		return nil, err
	}
	return m, nil
}

func (m *model) restart() error {
	b, err := bench.New(m.cfg, bench.WithHumanInput(m.stick), bench.WithLogger(m.log))
	if err != nil {
		return err
	}
	m.bench = b
	m.stick.Set(0)
	m.truth = make([]float64, 0, historyCapacity)
	m.ref = make([]float64, 0, historyCapacity)
	m.last = bench.Sample{}
	m.payload = false
	m.err = nil
	return nil
}

// targetsFor spreads five target presets over the mechanism's travel.
func targetsFor(cfg *config.Config) []float64 {
	lo, hi := cfg.Plant.Motor.MinPosition, cfg.Plant.Motor.MaxPosition
	if cfg.Mechanism == mechanism.KindScorer || lo == hi {
		lo, hi = 0, 400
	}
	out := make([]float64, 5)
	for i := range out {
		out[i] = lo + (hi-lo)*float64(i)/4
	}
	return out
}

func (m *model) Init() tea.Cmd { return tick() }

func tick() tea.Cmd {
	return tea.Tick(20*time.Millisecond, func(t time.Time) tea.Msg { return tickMsg(t) })
}

func (m *model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		return m, m.handleKey(msg)
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		return m, nil
	case tickMsg:
		if !m.paused {
			m.advance(m.speed)
		}
		return m, tick()
	}
	return m, nil
}

func (m *model) advance(cycles int) {
	for i := 0; i < cycles; i++ {
		s := m.bench.Step()
		m.last = s
		m.truth = appendCapped(m.truth, s.Truth)
		m.ref = appendCapped(m.ref, s.Reference)
		if math.IsNaN(s.Truth) || math.IsInf(s.Truth, 0) {
			m.err = bench.ErrUnstable
			m.paused = true
			return
		}
	}
}

func appendCapped(h []float64, v float64) []float64 {
	if len(h) == historyCapacity {
		copy(h, h[1:])
		h = h[:len(h)-1]
	}
	return append(h, v)
}

func (m *model) handleKey(msg tea.KeyMsg) tea.Cmd {
	switch key := msg.String(); key {
	case "q", "esc", "ctrl+c":
		m.bench.Rig().Command.End()
		return tea.Quit
	case "up", "k":
		m.nudge(axisStep)
	case "down", "j":
		m.nudge(-axisStep)
	case " ", "0":
		m.stick.Set(0)
	case "1", "2", "3", "4", "5":
		m.bench.Rig().Mechanism.SetTarget(m.targets[key[0]-'1'])
	case "c":
		m.bench.Rig().Command.CalibrateHere()
	case "l":
		m.togglePayload()
	case "[":
		m.scaleGain(1 / gainStep)
	case "]":
		m.scaleGain(gainStep)
	case "p":
		m.paused = !m.paused
	case "+", "=":
		m.speed = min(m.speed*2, 16)
	case "-", "_":
		m.speed = max(m.speed/2, 1)
	case "r":
		if err := m.restart(); err != nil {
			m.err = err
		}
		return tea.ClearScreen
	}
	return nil
}

func (m *model) nudge(d float64) {
	v := math.Max(-1, math.Min(1, m.stick.Axis()+d))
	if math.Abs(v) < 1e-9 {
		v = 0
	}
	m.stick.Set(v)
}

// togglePayload adds or removes a load that scales the gravity torque,
// as when the mechanism picks up a game piece.
func (m *model) togglePayload() {
	mo, ok := m.bench.Rig().Mechanism.(motorOwner)
	if !ok {
		return
	}
	var motor plant.Configurable = mo.Motor()
	g := motor.GetParams()["gravity_torque"]
	if m.payload {
		g /= payloadFactor
	} else {
		g *= payloadFactor
	}
	if err := motor.SetParam("gravity_torque", g); err != nil {
		m.err = err
		return
	}
	m.payload = !m.payload
}

func (m *model) scaleGain(f float64) {
	pid := m.bench.Rig().Arbiter.PID()
	if err := pid.SetParam("Kp", pid.GetParams()["Kp"]*f); err != nil {
		m.err = err
	}
}

func Run(cfg *config.Config) error {
	m, err := newModel(cfg)
	if err != nil {
		return err
	}
	p := tea.NewProgram(m, tea.WithAltScreen())
	_, err = p.Run()
	return err
}
