package setpoint

import (
	"github.com/sirupsen/logrus"

	"github.com/san-kum/setpoint/internal/control"
	"github.com/san-kum/setpoint/internal/profile"
)

// Cycle records what a command saw and decided in one Execute call.
type Cycle struct {
	Time        float64
	Current     float64
	Target      float64
	Reference   float64
	Human       float64
	Decision    control.Decision
	State       control.State
	SensorFault bool
}

type options struct {
	profile       *profile.Profile
	human         HumanInput
	validator     Validator
	log           *logrus.Entry
	holdOnRelease bool
}

type Option func(*options)

// WithProfile routes the target through a motion profile; the arbiter then
// chases the profile's recommendation instead of the raw target.
func WithProfile(p *profile.Profile) Option {
	return func(o *options) { o.profile = p }
}

func WithHumanInput(h HumanInput) Option {
	return func(o *options) { o.human = h }
}

func WithValidator(v Validator) Option {
	return func(o *options) { o.validator = v }
}

func WithLogger(l *logrus.Entry) Option {
	return func(o *options) { o.log = l }
}

// WithHoldOnRelease controls whether the target follows the mechanism
// while a human drives it, so it stays where it was let go. On by default.
func WithHoldOnRelease(hold bool) Option {
	return func(o *options) { o.holdOnRelease = hold }
}

// Command is the default per-cycle behaviour of a setpoint mechanism. It is
// driven from a single control loop and is not safe for concurrent use.
type Command[V Unit] struct {
	name      string
	subsystem Subsystem[V]
	arbiter   *control.Arbiter
	opts      options

	lastTarget V
	anchored   bool
	last       Cycle
}

func NewCommand[V Unit](name string, subsystem Subsystem[V], arbiter *control.Arbiter, opts ...Option) *Command[V] {
	o := options{
		validator:     DefaultValidator(),
		holdOnRelease: true,
	}
	for _, opt := range opts {
		opt(&o)
	}
	if o.log == nil {
		o.log = logrus.NewEntry(logrus.StandardLogger())
	}
	o.log = o.log.WithField("mechanism", name)

	return &Command[V]{
		name:      name,
		subsystem: subsystem,
		arbiter:   arbiter,
		opts:      o,
	}
}

func (c *Command[V]) Name() string              { return c.name }
func (c *Command[V]) Subsystem() Subsystem[V]   { return c.subsystem }
func (c *Command[V]) Arbiter() *control.Arbiter { return c.arbiter }
func (c *Command[V]) Profile() *profile.Profile { return c.opts.profile }
func (c *Command[V]) Last() Cycle               { return c.last }

// Execute runs one control cycle at time t and returns the decision that
// was applied to the mechanism.
func (c *Command[V]) Execute(t float64) control.Decision {
	current := c.subsystem.CurrentValue()
	target := c.subsystem.TargetValue()

	cyc := Cycle{
		Time:    t,
		Current: float64(current),
		Target:  float64(target),
	}
	if c.opts.human != nil {
		cyc.Human = c.opts.validator.Human(c.opts.human.Axis())
	}

	clamped, ok := c.opts.validator.Target(float64(target))
	if !ok || !c.opts.validator.ValidReading(float64(current)) {
		return c.failClosed(cyc)
	}
	target = V(clamped)
	cyc.Target = clamped

	reference := target
	if p := c.opts.profile; p != nil {
		if !c.anchored {
			p.ResetState(float64(current), c.velocity())
		}
		if !c.anchored || target != c.lastTarget {
			p.SetTargetPosition(float64(target), 0, float64(current))
			c.lastTarget = target
			c.anchored = true
		}
		reference = V(p.RecommendedPosition())
	}
	cyc.Reference = float64(reference)

	err := float64(Error(reference, current))
	if c.subsystem.AreTwoTargetsEquivalent(current, target) {
		err = 0
	}

	prev := c.arbiter.State()
	d := c.arbiter.Decide(control.Input{
		Error:      err,
		Human:      cyc.Human,
		Calibrated: c.subsystem.IsCalibrated(),
	}, t)
	c.subsystem.SetPower(d.Power)

	switch d.Kind {
	case control.HumanControl:
		if c.opts.holdOnRelease {
			c.subsystem.SetTargetValue(current)
		}
		c.follow(current)
	case control.UncalibratedFallback:
		c.follow(current)
	}

	cyc.Decision = d
	cyc.State = c.arbiter.State()
	if cyc.State != prev {
		c.opts.log.WithFields(logrus.Fields{
			"from":  prev,
			"to":    cyc.State,
			"error": err,
			"human": cyc.Human,
			"power": d.Power,
		}).Debug("control state changed")
	}
	c.last = cyc
	return d
}

// follow pins the profile to the mechanism while something other than the
// closed loop is moving it. The next closed-loop cycle re-anchors on the
// reading it sees then, which may have jumped if calibration moved the
// frame.
func (c *Command[V]) follow(current V) {
	if p := c.opts.profile; p != nil {
		p.ResetState(float64(current), c.velocity())
	}
	c.anchored = false
}

func (c *Command[V]) velocity() float64 {
	if vr, ok := c.subsystem.(VelocityReporter); ok {
		return vr.CurrentVelocity()
	}
	return 0
}

func (c *Command[V]) failClosed(cyc Cycle) control.Decision {
	d := control.Decision{Kind: control.Coast}
	c.subsystem.SetPower(0)
	c.anchored = false
	if !c.last.SensorFault {
		c.opts.log.WithFields(logrus.Fields{
			"current": cyc.Current,
			"target":  cyc.Target,
		}).Warn("invalid reading or target, coasting")
	}
	cyc.Decision = d
	cyc.State = c.arbiter.State()
	cyc.SensorFault = true
	c.last = cyc
	return d
}

// CalibrateHere trusts the current reading, moves the target onto it and
// pins the profile there so nothing jumps once closed-loop control is
// allowed. It reports false when the mechanism cannot be force-calibrated.
func (c *Command[V]) CalibrateHere() bool {
	cal, ok := c.subsystem.(Calibrator)
	if !ok {
		return false
	}
	cal.ForceCalibratedHere()

	current := c.subsystem.CurrentValue()
	if !c.opts.validator.ValidReading(float64(current)) {
		c.opts.log.Warn("calibrated with an invalid reading; target left unchanged")
		return true
	}
	c.subsystem.SetTargetValue(current)
	if p := c.opts.profile; p != nil {
		p.ResetState(float64(current), 0)
		c.lastTarget = current
		c.anchored = true
	}
	c.opts.log.WithField("value", float64(current)).Info("calibrated here")
	return true
}

// End stops driving the mechanism. The profile keeps its state and resumes
// smoothly if the command runs again.
func (c *Command[V]) End() {
	c.subsystem.SetPower(0)
}
