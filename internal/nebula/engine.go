package nebula

import (
	"math"
	"time"

	"github.com/san-kum/nebula/internal/compute"
	"github.com/san-kum/nebula/internal/grid"
	"github.com/san-kum/nebula/internal/kernel"
	"github.com/san-kum/nebula/internal/seed"
	"go.uber.org/zap"
	"gonum.org/v1/gonum/spatial/r3"
)

type Engine struct {
	params  Params
	log     *zap.Logger
	obs     observers
	backend compute.Backend
	workers int

	store   *grid.Store
	kick    kernel.Kick
	drift   kernel.Drift
	elapsed float64

	isExplicit bool
}

// New returns an engine with DefaultParams. It holds no particles until
// Reset or ResetFrom is called.
func New(opts ...Option) *Engine {
	e := &Engine{
		params: DefaultParams(),
		log:    zap.NewNop(),
	}
	for _, opt := range opts {
		opt(e)
	}
	if e.backend == nil {
		e.backend = compute.NewCPUBackend(e.workers)
	}
	e.build()
	return e
}

func (e *Engine) Params() Params { return e.params }

// Configure validates and applies p. Particle state is kept when the grid
// shape is unchanged; otherwise the engine must be reset before advancing.
func (e *Engine) Configure(p Params) error {
	if p.SpinRamp == "" {
		p.SpinRamp = kernel.RampTick
	}
	if p.Solver == "" {
		p.Solver = "direct"
	}
	if err := p.Validate(); err != nil {
		return err
	}
	if e.store != nil && e.store.Shape() != p.Disk.Grid && !e.isExplicit {
		e.store.Release()
		e.store = nil
	}
	e.params = p
	e.build()
	if e.store != nil {
		e.drift.Contain(e.backend, e.store.Positions(e.store.Current()))
	}

	e.log.Info("configured",
		zap.Float64("g", p.G),
		zap.Float64("softening", p.Softening),
		zap.Float64("damping", p.Damping),
		zap.Float64("pressure", p.Pressure),
		zap.Float64("core_radius", p.CoreRadius),
		zap.Float64("init_spin", p.InitSpin),
		zap.Int("substeps", p.Substeps),
		zap.String("solver", p.Solver),
	)
	return nil
}

// Reset reseeds the configured disk from seed and rewinds time.
func (e *Engine) Reset(seedValue int64) error {
	if err := e.params.Validate(); err != nil {
		return err
	}
	d := e.params.Disk
	d.Seed = seedValue
	if err := e.seed(d); err != nil {
		return err
	}
	e.log.Info("reset",
		zap.Int64("seed", seedValue),
		zap.Int("width", d.Grid.Width),
		zap.Int("height", d.Grid.Height),
	)
	return nil
}

// ResetFrom starts from the given particles at rest, laid out as a single
// row. Particles outside the limit radius are pulled back onto it. The disk
// shape is ignored until the next Reset. On error the previous state is
// kept.
func (e *Engine) ResetFrom(cells []grid.Cell) error {
	if err := e.params.Validate(); err != nil {
		return err
	}
	for i, c := range cells {
		if err := seed.CheckCell(c); err != nil {
			return configErr("cells", i, err.Error())
		}
	}
	if err := e.seed(seed.Explicit(cells)); err != nil {
		return err
	}
	e.log.Info("reset from explicit cells", zap.Int("n", len(cells)))
	return nil
}

// seed fills the write generation and only then promotes it, so a failed
// fill leaves the current state readable.
func (e *Engine) seed(s seed.Seeder) error {
	shape := s.Shape()
	st := e.store
	if st == nil || st.Shape() != shape {
		fresh, err := grid.NewStore(shape)
		if err != nil {
			return err
		}
		st = fresh
	}
	next := st.Next()
	if err := s.Fill(st.Positions(next), st.Velocities(next)); err != nil {
		return err
	}
	e.drift.Contain(e.backend, st.Positions(next))
	st.Restart()
	if e.store != nil && e.store != st {
		e.store.Release()
	}
	e.store = st
	_, e.isExplicit = s.(seed.Explicit)
	e.elapsed = 0
	e.obs.OnReset(shape)
	return nil
}

// Advance moves the simulation forward by delta seconds of simulated time,
// split into Substeps equal steps. A NaN, infinite, negative or zero delta
// leaves the state untouched. Advance panics with ErrNotSeeded if the
// engine was never reset.
func (e *Engine) Advance(delta float64) {
	if e.store == nil {
		panic(ErrNotSeeded)
	}
	if math.IsNaN(delta) || math.IsInf(delta, 0) || delta < 0 {
		e.log.Debug("rejected delta", zap.Float64("delta", delta))
		e.obs.OnRejectedDelta(delta)
		return
	}
	if e.params.FixedDt > 0 {
		delta = e.params.FixedDt
	}
	if e.params.MaxDelta > 0 && delta > e.params.MaxDelta {
		e.log.Debug("clamped delta", zap.Float64("delta", delta), zap.Float64("max", e.params.MaxDelta))
		delta = e.params.MaxDelta
	}
	if delta == 0 {
		return
	}

	dt := delta / float64(e.params.Substeps)
	for i := 0; i < e.params.Substeps; i++ {
		e.step(dt)
	}
}

func (e *Engine) step(dt float64) {
	start := time.Now()
	cur, next := e.store.Current(), e.store.Next()

	e.kick.Run(e.backend,
		e.store.Positions(cur), e.store.Velocities(cur),
		e.store.Velocities(next), dt, e.elapsed)
	e.drift.Run(e.backend,
		e.store.Positions(cur), e.store.Velocities(next),
		e.store.Positions(next), dt)

	e.store.Swap()
	e.elapsed += dt
	e.obs.OnStep(e.store.Generation(), dt, time.Since(start))
}

// Positions returns the current generation. The view is invalidated by the
// next Advance, Reset or Configure.
func (e *Engine) Positions() grid.View {
	if e.store == nil {
		return grid.View{}
	}
	return e.store.View()
}

// Velocities returns a copy of the current velocities.
func (e *Engine) Velocities() []r3.Vec {
	if e.store == nil {
		return nil
	}
	v := e.store.Velocities(e.store.Current())
	out := make([]r3.Vec, len(v))
	copy(out, v)
	return out
}

func (e *Engine) Seeded() bool { return e.store != nil }

func (e *Engine) Generation() uint64 {
	if e.store == nil {
		return 0
	}
	return e.store.Generation()
}

// Elapsed is the simulated time since the last reset.
func (e *Engine) Elapsed() float64 { return e.elapsed }

func (e *Engine) Backend() compute.Backend { return e.backend }

func (e *Engine) Close() {
	if e.store != nil {
		e.store.Release()
		e.store = nil
	}
	e.backend.Close()
}

func (e *Engine) build() {
	p := e.params
	ramp, _ := kernel.ParseRamp(string(p.SpinRamp))
	field, err := kernel.NewField(p.Solver, p.law(), p.Theta)
	if err != nil {
		field = &kernel.Direct{Law: p.law()}
	}
	e.kick = kernel.Kick{
		Field: field,
		Spin: kernel.Spin{
			G:        p.G,
			Fraction: p.InitSpin,
			Rate:     p.SpinRate,
			Ramp:     ramp,
		},
		Damping: p.Damping,
	}
	e.drift = kernel.Drift{LimitRadius: p.LimitRadius}
}
