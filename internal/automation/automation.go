// Package automation runs batches of bench runs: parameter sweeps and Monte
// Carlo robustness trials over perturbed plants.
package automation

import (
	"context"
	"errors"
	"math"
	"math/rand"
	"time"

	pkgerrors "github.com/pkg/errors"

	"github.com/san-kum/setpoint/internal/bench"
	"github.com/san-kum/setpoint/internal/config"
	"github.com/san-kum/setpoint/internal/metrics"
	"github.com/san-kum/setpoint/internal/optim"
	"github.com/san-kum/setpoint/internal/plant"
)

var ErrInvalidBatch = errors.New("automation: invalid batch")

func clone(base *config.Config) *config.Config {
	c := *base
	c.Script = append([]config.Event(nil), base.Script...)
	return &c
}

func attachMetrics(b *bench.Bench) {
	for _, m := range metrics.Default(b.Config().Plant.Tolerance) {
		b.AddMetric(m)
	}
}

// Outcome summarises one run of a batch.
type Outcome struct {
	Metrics     map[string]float64
	Transitions int
	// FinalError is |target - truth| on the last cycle.
	FinalError float64
	// Bounded is false when the run recorded cycle errors or ended with a
	// non-finite position.
	Bounded bool
}

func outcome(r *bench.Result) Outcome {
	o := Outcome{
		Metrics:     r.Metrics,
		Transitions: r.Transitions,
		Bounded:     len(r.Errors) == 0,
	}
	if n := len(r.Samples); n > 0 {
		last := r.Samples[n-1]
		o.FinalError = math.Abs(last.Target - last.Truth)
		if math.IsNaN(o.FinalError) || math.IsInf(o.FinalError, 0) {
			o.Bounded = false
		}
	}
	return o
}

// Sweep varies one tunable parameter evenly between Min and Max.
type Sweep struct {
	Param string
	Min   float64
	Max   float64
	Steps int
}

func (s Sweep) Values() []float64 {
	if s.Steps == 1 {
		return []float64{s.Min}
	}
	step := (s.Max - s.Min) / float64(s.Steps-1)
	out := make([]float64, s.Steps)
	for i := range out {
		out[i] = s.Min + float64(i)*step
	}
	return out
}

type SweepResult struct {
	Value float64
	Outcome
}

// RunSweep runs base once per sweep value, concurrently.
func RunSweep(ctx context.Context, base *config.Config, sweep Sweep, opts ...bench.Option) ([]SweepResult, error) {
	if sweep.Steps < 1 {
		return nil, pkgerrors.Wrapf(ErrInvalidBatch, "%d sweep steps", sweep.Steps)
	}

	values := sweep.Values()
	configs := make([]*config.Config, len(values))
	for i, v := range values {
		configs[i] = clone(base)
		if err := optim.Apply(configs[i], sweep.Param, v); err != nil {
			return nil, err
		}
	}

	results, err := bench.NewEnsemble(configs, attachMetrics, opts...).Run(ctx)
	if err != nil {
		return nil, err
	}

	out := make([]SweepResult, len(results))
	for i, r := range results {
		out[i] = SweepResult{Value: values[i], Outcome: outcome(r)}
	}
	return out, nil
}

// MonteCarlo scales the plant's inertia, stall torque, damping and gravity
// load by independent factors drawn from [1-Perturbation, 1+Perturbation].
type MonteCarlo struct {
	Trials       int
	Perturbation float64
	// Seed zero draws from the wall clock.
	Seed int64
}

type MonteCarloResult struct {
	TrialID int
	Motor   plant.MotorParams
	Outcome
}

func (mc MonteCarlo) perturb(rng *rand.Rand, m plant.MotorParams) plant.MotorParams {
	scale := func(v float64) float64 {
		return v * (1 + (rng.Float64()-0.5)*2*mc.Perturbation)
	}
	m.Inertia = scale(m.Inertia)
	m.StallTorque = scale(m.StallTorque)
	m.Damping = scale(m.Damping)
	m.GravityTorque = scale(m.GravityTorque)
	return m
}

func RunMonteCarlo(ctx context.Context, base *config.Config, mc MonteCarlo, opts ...bench.Option) ([]MonteCarloResult, error) {
	if mc.Trials < 1 {
		return nil, pkgerrors.Wrapf(ErrInvalidBatch, "%d trials", mc.Trials)
	}
	if mc.Perturbation < 0 || mc.Perturbation >= 1 {
		return nil, pkgerrors.Wrapf(ErrInvalidBatch, "perturbation %v outside [0, 1)", mc.Perturbation)
	}

	seed := mc.Seed
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	rng := rand.New(rand.NewSource(seed))

	configs := make([]*config.Config, mc.Trials)
	for i := range configs {
		configs[i] = clone(base)
		configs[i].Plant.Motor = mc.perturb(rng, base.Plant.Motor)
	}

	results, err := bench.NewEnsemble(configs, attachMetrics, opts...).Run(ctx)
	if err != nil {
		return nil, err
	}

	out := make([]MonteCarloResult, len(results))
	for i, r := range results {
		out[i] = MonteCarloResult{TrialID: i, Motor: configs[i].Plant.Motor, Outcome: outcome(r)}
	}
	return out, nil
}

// MonteCarloStats counts trials that stayed bounded and ended within
// tolerance of their target.
func MonteCarloStats(results []MonteCarloResult, tolerance float64) (settled, unsettled int) {
	for _, r := range results {
		if r.Bounded && r.FinalError <= tolerance {
			settled++
		} else {
			unsettled++
		}
	}
	return
}
