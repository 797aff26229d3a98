// Package bench drives a mechanism through its control command on a
// simulated clock, one fixed-period cycle at a time.
//
// # Usage
//
//	b, err := bench.New(config.GetPreset("arm", "handoff"))
//	b.AddMetric(metrics.NewTrackingError())
//	result, err := b.Run(ctx)
package bench

import (
	"context"
	"math"

	"github.com/sirupsen/logrus"

	"github.com/san-kum/setpoint/internal/clock"
	"github.com/san-kum/setpoint/internal/config"
	"github.com/san-kum/setpoint/internal/setpoint"
)

type Option func(*Bench)

func WithLogger(l *logrus.Entry) Option {
	return func(b *Bench) { b.log = l }
}

// WithHumanInput replaces the scripted axis, e.g. with a keyboard. Human
// events in the script still write the bench's own axis but no longer
// reach the command.
func WithHumanInput(h setpoint.HumanInput) Option {
	return func(b *Bench) { b.human = h }
}

type Bench struct {
	cfg    *config.Config
	clk    *clock.Manual
	rig    *Rig
	script *Script
	axis   *Axis
	human  setpoint.HumanInput
	log    *logrus.Entry

	metrics   []Metric
	observers []Observer
	cycle     int
}

func New(cfg *config.Config, opts ...Option) (*Bench, error) {
	b := &Bench{
		cfg:       cfg,
		clk:       clock.NewManual(0),
		script:    NewScript(cfg.Script),
		axis:      &Axis{},
		metrics:   make([]Metric, 0),
		observers: make([]Observer, 0),
	}
	b.human = b.axis
	for _, opt := range opts {
		opt(b)
	}
	if b.log == nil {
		b.log = logrus.NewEntry(logrus.StandardLogger())
	}

	rig, err := NewRig(cfg, b.clk, b.human, b.log)
	if err != nil {
		return nil, err
	}
	b.rig = rig
	return b, nil
}

func (b *Bench) AddMetric(m Metric)     { b.metrics = append(b.metrics, m) }
func (b *Bench) AddObserver(o Observer) { b.observers = append(b.observers, o) }

func (b *Bench) Config() *config.Config { return b.cfg }
func (b *Bench) Rig() *Rig              { return b.rig }
func (b *Bench) Axis() *Axis            { return b.axis }
func (b *Bench) Now() float64           { return b.clk.Now() }

// Step runs one control cycle and advances the physics and the clock by
// one period.
func (b *Bench) Step() Sample {
	t := b.clk.Now()
	for _, ev := range b.script.due(t) {
		b.apply(ev)
	}

	d := b.rig.Command.Execute(t)
	cyc := b.rig.Command.Last()
	mech := b.rig.Mechanism

	s := Sample{
		Time:        t,
		Truth:       mech.Truth(),
		Reading:     cyc.Current,
		Target:      cyc.Target,
		Reference:   cyc.Reference,
		Human:       cyc.Human,
		Power:       d.Power,
		Kind:        d.Kind,
		State:       cyc.State,
		Calibrated:  mech.IsCalibrated(),
		SensorFault: cyc.SensorFault,
	}
	if cyc.SensorFault {
		s.Reference = s.Target
	}

	for _, m := range b.metrics {
		m.Observe(s)
	}
	for _, o := range b.observers {
		o.OnCycle(s)
	}

	mech.Step(b.cfg.Cycle)
	b.clk.Advance(b.cfg.Cycle)
	b.cycle++
	return s
}

func (b *Bench) apply(ev config.Event) {
	if ev.Target != nil {
		b.rig.Mechanism.SetTarget(*ev.Target)
		b.log.WithFields(logrus.Fields{"t": ev.At, "target": *ev.Target}).Debug("script: target")
	}
	if ev.Human != nil {
		b.axis.Set(*ev.Human)
		b.log.WithFields(logrus.Fields{"t": ev.At, "human": *ev.Human}).Debug("script: human")
	}
	if ev.Calibrate {
		if !b.rig.Command.CalibrateHere() {
			b.log.WithField("t", ev.At).Warn("script: mechanism cannot be calibrated in place")
		}
	}
}

// Run executes the configured number of cycles. A cancelled context ends
// the run early and returns what was recorded so far with ctx.Err().
func (b *Bench) Run(ctx context.Context) (*Result, error) {
	steps := b.cfg.Steps()
	result := &Result{
		Samples: make([]Sample, 0, steps),
		Metrics: make(map[string]float64),
		Errors:  make([]error, 0),
	}

	for _, m := range b.metrics {
		m.Reset()
	}
	defer b.rig.Command.End()

	log := b.log.WithField("mechanism", b.cfg.Mechanism)
	log.WithFields(logrus.Fields{"cycles": steps, "cycle": b.cfg.Cycle}).Debug("run started")

	var prev Sample
	for i := 0; i < steps; i++ {
		select {
		case <-ctx.Done():
			b.finish(result)
			return result, ctx.Err()
		default:
		}

		s := b.Step()
		if i > 0 && s.State != prev.State {
			result.Transitions++
		}
		prev = s
		result.Samples = append(result.Samples, s)
		result.Cycles++

		if math.IsNaN(s.Truth) || math.IsInf(s.Truth, 0) {
			err := &CycleError{Time: s.Time, Cycle: i, Err: ErrUnstable}
			result.Errors = append(result.Errors, err)
			log.WithError(err).Error("run aborted")
			break
		}
	}

	b.finish(result)
	log.WithFields(logrus.Fields{
		"transitions": result.Transitions,
		"calibration": result.Calibration.String(),
	}).Info("run finished")
	return result, nil
}

func (b *Bench) finish(result *Result) {
	for _, m := range b.metrics {
		result.Metrics[m.Name()] = m.Value()
	}
	result.Calibration = b.rig.Mechanism.Gate().Record()
}
