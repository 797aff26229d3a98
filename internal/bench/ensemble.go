package bench

import (
	"context"
	"runtime"

	pkgerrors "github.com/pkg/errors"
	"golang.org/x/sync/errgroup"

	"github.com/san-kum/setpoint/internal/config"
)

// Ensemble runs several configurations concurrently, at most one per CPU.
// Every run gets its own bench, clock and mechanism; setup is called on
// each bench before it starts, typically to attach fresh metrics.
type Ensemble struct {
	configs []*config.Config
	setup   func(*Bench)
	opts    []Option
	workers int
}

func NewEnsemble(configs []*config.Config, setup func(*Bench), opts ...Option) *Ensemble {
	return &Ensemble{configs: configs, setup: setup, opts: opts, workers: runtime.NumCPU()}
}

// Run returns one result per configuration, in order. The first failure
// cancels the runs still in flight.
func (e *Ensemble) Run(ctx context.Context) ([]*Result, error) {
	results := make([]*Result, len(e.configs))

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(e.workers)
	for i, cfg := range e.configs {
		i, cfg := i, cfg
		g.Go(func() error {
			b, err := New(cfg, e.opts...)
			if err != nil {
				return pkgerrors.Wrapf(err, "run %d", i)
			}
			if e.setup != nil {
				e.setup(b)
			}
			results[i], err = b.Run(ctx)
			return err
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return results, nil
}
