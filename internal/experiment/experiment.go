// Package experiment runs configured simulations on a fixed tick schedule
// and samples diagnostics along the way.
package experiment

import (
	"context"
	"fmt"
	"time"

	"github.com/san-kum/nebula/internal/compute"
	"github.com/san-kum/nebula/internal/config"
	"github.com/san-kum/nebula/internal/grid"
	"github.com/san-kum/nebula/internal/metrics"
	"github.com/san-kum/nebula/internal/nebula"
	"github.com/san-kum/nebula/internal/storage"
	"go.uber.org/zap"
)

type Result struct {
	Seed       int64
	Columns    []string
	Samples    []storage.Sample
	Final      map[string]float64
	Shape      grid.Shape
	Positions  []grid.Cell
	Generation uint64
	Elapsed    float64
	Wall       time.Duration
}

type Experiment struct {
	cfg     *config.Config
	log     *zap.Logger
	engine  *nebula.Engine
	metrics []metrics.Metric
}

// New validates cfg and returns an experiment whose engine is already
// seeded with cfg.Seed.
func New(cfg *config.Config, log *zap.Logger, observers ...nebula.Observer) (*Experiment, error) {
	if log == nil {
		log = zap.NewNop()
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	backend, err := compute.NewBackend(cfg.Run.Backend, cfg.Run.Workers)
	if err != nil {
		return nil, err
	}

	opts := []nebula.Option{
		nebula.WithLogger(log.With(zap.Int64("seed", cfg.Seed))),
		nebula.WithBackend(backend),
	}
	for _, o := range observers {
		opts = append(opts, nebula.WithObserver(o))
	}
	engine := nebula.New(opts...)

	if err := engine.Configure(cfg.Params()); err != nil {
		engine.Close()
		return nil, err
	}
	if err := engine.Reset(cfg.Seed); err != nil {
		engine.Close()
		return nil, err
	}

	return &Experiment{
		cfg:     cfg,
		log:     log,
		engine:  engine,
		metrics: metrics.Standard(cfg.Physics.G, cfg.Physics.Softening),
	}, nil
}

func (e *Experiment) Engine() *nebula.Engine { return e.engine }

func (e *Experiment) Close() { e.engine.Close() }

func (e *Experiment) snapshot() metrics.Snapshot {
	return metrics.Snapshot{
		Positions:  e.engine.Positions(),
		Velocities: e.engine.Velocities(),
		Time:       e.engine.Elapsed(),
	}
}

func (e *Experiment) sample(tick int) storage.Sample {
	s := e.snapshot()
	return storage.Sample{
		Tick:   tick,
		Time:   s.Time,
		Values: metrics.ObserveAll(e.metrics, s),
	}
}

// Run advances cfg.Ticks ticks of cfg.Dt, sampling before the first tick,
// every SampleEvery ticks and after the last. onSample may be nil.
// Cancellation is checked between ticks; the partial result is returned
// with the context error.
func (e *Experiment) Run(ctx context.Context, onSample func(storage.Sample)) (*Result, error) {
	for _, m := range e.metrics {
		m.Reset()
	}
	res := &Result{
		Seed:    e.cfg.Seed,
		Columns: metrics.Names(e.metrics),
		Final:   make(map[string]float64),
	}
	record := func(tick int) {
		smp := e.sample(tick)
		res.Samples = append(res.Samples, smp)
		if onSample != nil {
			onSample(smp)
		}
	}

	start := time.Now()
	record(0)

	var err error
	for tick := 1; tick <= e.cfg.Ticks; tick++ {
		if err = ctx.Err(); err != nil {
			break
		}
		e.engine.Advance(e.cfg.Dt)
		if tick%e.cfg.Run.SampleEvery == 0 || tick == e.cfg.Ticks {
			record(tick)
		}
	}

	res.Wall = time.Since(start)
	res.Generation = e.engine.Generation()
	res.Elapsed = e.engine.Elapsed()
	res.Shape = e.engine.Positions().Shape()
	res.Positions = e.engine.Positions().Cells()
	for _, m := range e.metrics {
		res.Final[m.Name()] = m.Value()
	}

	e.log.Info("run finished",
		zap.Int64("seed", res.Seed),
		zap.Uint64("generation", res.Generation),
		zap.Float64("elapsed", res.Elapsed),
		zap.Duration("wall", res.Wall),
		zap.Error(err),
	)
	if err != nil {
		return res, fmt.Errorf("run interrupted at generation %d: %w", res.Generation, err)
	}
	return res, nil
}

// Metadata describes a finished run for storage.
func (e *Experiment) Metadata(preset string, res *Result) storage.RunMetadata {
	return storage.RunMetadata{
		Preset:      preset,
		Seed:        res.Seed,
		Dt:          e.cfg.Dt,
		Ticks:       e.cfg.Ticks,
		Width:       res.Shape.Width,
		Height:      res.Shape.Height,
		Solver:      e.cfg.Physics.Solver,
		Backend:     e.engine.Backend().Name(),
		Workers:     e.engine.Backend().Workers(),
		Generation:  res.Generation,
		Elapsed:     res.Elapsed,
		WallSeconds: res.Wall.Seconds(),
		Metrics:     res.Final,
	}
}
