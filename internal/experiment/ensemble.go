package experiment

import (
	"context"
	"runtime"

	"github.com/san-kum/nebula/internal/config"
	"github.com/san-kum/nebula/internal/nebula"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// Ensemble runs one experiment per seed concurrently and returns the
// results in seed order. The first failure cancels the rest. CPU lanes
// are split between the runs unless cfg.Run.Workers is set. When observe
// is non-nil, the observer it returns for member i watches that run.
func Ensemble(ctx context.Context, cfg *config.Config, seeds []int64, log *zap.Logger, observe func(member int) nebula.Observer) ([]*Result, error) {
	if log == nil {
		log = zap.NewNop()
	}
	results := make([]*Result, len(seeds))

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(runtime.NumCPU())

	workers := cfg.Run.Workers
	if workers <= 0 {
		workers = max(1, runtime.NumCPU()/max(1, len(seeds)))
	}

	for i, seed := range seeds {
		i, seed := i, seed
		g.Go(func() error {
			c := cfg.Clone()
			c.Seed = seed
			c.Run.Workers = workers

			var obs []nebula.Observer
			if observe != nil {
				if o := observe(i); o != nil {
					obs = append(obs, o)
				}
			}
			exp, err := New(c, log.With(zap.Int("member", i)), obs...)
			if err != nil {
				return err
			}
			defer exp.Close()

			res, err := exp.Run(ctx, nil)
			if err != nil {
				return err
			}
			results[i] = res
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return results, nil
}
