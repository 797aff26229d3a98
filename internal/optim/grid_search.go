// Package optim tunes controller gains by running the bench over a grid.
package optim

import (
	"context"
	"errors"
	"math"
	"sort"

	pkgerrors "github.com/pkg/errors"

	"github.com/san-kum/setpoint/internal/bench"
	"github.com/san-kum/setpoint/internal/config"
	"github.com/san-kum/setpoint/internal/metrics"
)

var (
	ErrUnknownParam  = errors.New("optim: unknown parameter")
	ErrUnknownMetric = errors.New("optim: unknown metric")
	ErrNoCandidate   = errors.New("optim: no candidate completed")
)

// Tunable parameters and how each is applied to a configuration.
var setters = map[string]func(*config.Config, float64){
	"kp":            func(c *config.Config, v float64) { c.PID.Kp = v },
	"ki":            func(c *config.Config, v float64) { c.PID.Ki = v },
	"kd":            func(c *config.Config, v float64) { c.PID.Kd = v },
	"max_velocity":  func(c *config.Config, v float64) { c.Profile.MaxVelocity = v },
	"max_accel":     func(c *config.Config, v float64) { c.Profile.MaxAcceleration = v },
	"tolerance":     func(c *config.Config, v float64) { c.Arbiter.Tolerance = v },
	"machine_power": func(c *config.Config, v float64) { c.Arbiter.MaxMachinePower = v },
}

func Params() []string {
	names := make([]string, 0, len(setters))
	for name := range setters {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Apply sets one tunable parameter on cfg.
func Apply(cfg *config.Config, name string, v float64) error {
	set, ok := setters[name]
	if !ok {
		return pkgerrors.Wrapf(ErrUnknownParam, "%q", name)
	}
	set(cfg, v)
	return nil
}

type Candidate struct {
	Params map[string]float64
	Score  float64
}

type GridSearch struct {
	paramNames []string
	ranges     [][]float64
}

func NewGridSearch(params []string, ranges [][]float64) (*GridSearch, error) {
	if len(params) != len(ranges) {
		return nil, pkgerrors.Errorf("optim: %d params but %d ranges", len(params), len(ranges))
	}
	for _, p := range params {
		if _, ok := setters[p]; !ok {
			return nil, pkgerrors.Wrapf(ErrUnknownParam, "%q", p)
		}
	}
	return &GridSearch{paramNames: params, ranges: ranges}, nil
}

// Search runs base once per grid point and returns the point with the
// lowest value of metricName. Points whose configuration is invalid or
// whose run fails are skipped. Lower is better for every metric except
// stability and machine share, which are negated.
func (g *GridSearch) Search(ctx context.Context, base *config.Config, metricName string, opts ...bench.Option) (Candidate, error) {
	if !contains(metrics.Names(), metricName) {
		return Candidate{}, pkgerrors.Wrapf(ErrUnknownMetric, "%q", metricName)
	}

	best := Candidate{Score: math.Inf(1)}
	g.searchRecursive(ctx, 0, make(map[string]float64), base, metricName, opts, &best)

	if err := ctx.Err(); err != nil {
		return best, err
	}
	if best.Params == nil {
		return best, ErrNoCandidate
	}
	return best, nil
}

func (g *GridSearch) searchRecursive(
	ctx context.Context,
	depth int,
	current map[string]float64,
	base *config.Config,
	metricName string,
	opts []bench.Option,
	best *Candidate,
) {
	if ctx.Err() != nil {
		return
	}
	if depth == len(g.paramNames) {
		score, ok := g.evaluate(ctx, current, base, metricName, opts)
		if ok && score < best.Score {
			best.Score = score
			best.Params = make(map[string]float64, len(current))
			for k, v := range current {
				best.Params[k] = v
			}
		}
		return
	}

	paramName := g.paramNames[depth]
	for _, val := range g.ranges[depth] {
		next := make(map[string]float64, len(current)+1)
		for k, v := range current {
			next[k] = v
		}
		next[paramName] = val

		g.searchRecursive(ctx, depth+1, next, base, metricName, opts, best)
	}
}

func (g *GridSearch) evaluate(ctx context.Context, params map[string]float64, base *config.Config, metricName string, opts []bench.Option) (float64, bool) {
	cfg := *base
	cfg.Script = append([]config.Event(nil), base.Script...)
	for name, v := range params {
		setters[name](&cfg, v)
	}

	b, err := bench.New(&cfg, opts...)
	if err != nil {
		return 0, false
	}
	for _, m := range metrics.Default(cfg.Plant.Tolerance) {
		b.AddMetric(m)
	}
	result, err := b.Run(ctx)
	if err != nil || len(result.Errors) > 0 {
		return 0, false
	}

	score := result.Metrics[metricName]
	if HigherIsBetter(metricName) {
		score = -score
	}
	return score, !math.IsNaN(score)
}

// HigherIsBetter reports whether Search negates the metric.
func HigherIsBetter(metric string) bool {
	return metric == "stability" || metric == "machine_share"
}

func contains(names []string, name string) bool {
	for _, n := range names {
		if n == name {
			return true
		}
	}
	return false
}
