package nebula_test

import (
	"errors"
	"math"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/san-kum/nebula/internal/compute"
	"github.com/san-kum/nebula/internal/grid"
	"github.com/san-kum/nebula/internal/nebula"
	"github.com/san-kum/nebula/internal/seed"
	"gonum.org/v1/gonum/spatial/r3"
)

func smallDisk() nebula.Params {
	p := nebula.DefaultParams()
	p.Disk.Grid = grid.Shape{Width: 16, Height: 8}
	return p
}

func radius(c grid.Cell) float64 { return r3.Norm(c.Pos()) }

var _ = Describe("Engine", func() {
	var e *nebula.Engine

	BeforeEach(func() {
		e = nebula.New(nebula.WithWorkers(4))
		Expect(e.Configure(smallDisk())).To(Succeed())
	})

	AfterEach(func() {
		e.Close()
	})

	Context("before any reset", func() {
		It("panics on advance", func() {
			Expect(func() { e.Advance(0.016) }).To(PanicWith(nebula.ErrNotSeeded))
		})

		It("exposes an empty view", func() {
			Expect(e.Positions().Len()).To(BeZero())
			Expect(e.Seeded()).To(BeFalse())
		})
	})

	Context("configure", func() {
		DescribeTable("rejects out of range parameters",
			func(field string, edit func(*nebula.Params)) {
				p := smallDisk()
				edit(&p)
				err := e.Configure(p)
				Expect(err).To(MatchError(nebula.ErrConfig))

				var ce *nebula.ConfigError
				Expect(errors.As(err, &ce)).To(BeTrue())
				Expect(ce.Field).To(Equal(field))
			},
			Entry("zero G", "G", func(p *nebula.Params) { p.G = 0 }),
			Entry("negative softening", "softening", func(p *nebula.Params) { p.Softening = -0.1 }),
			Entry("NaN core radius", "coreRadius", func(p *nebula.Params) { p.CoreRadius = math.NaN() }),
			Entry("damping above one", "damping", func(p *nebula.Params) { p.Damping = 1.5 }),
			Entry("negative pressure", "pressure", func(p *nebula.Params) { p.Pressure = -1 }),
			Entry("negative spin", "initSpin", func(p *nebula.Params) { p.InitSpin = -0.1 }),
			Entry("zero substeps", "substeps", func(p *nebula.Params) { p.Substeps = 0 }),
			Entry("unknown ramp", "spinRamp", func(p *nebula.Params) { p.SpinRamp = "wallclock" }),
			Entry("unknown solver", "solver", func(p *nebula.Params) { p.Solver = "fmm" }),
			Entry("empty grid", "disk", func(p *nebula.Params) { p.Disk.Grid = grid.Shape{} }),
			Entry("infinite disk radius", "disk", func(p *nebula.Params) { p.Disk.Radius = math.Inf(1) }),
			Entry("NaN disk thickness", "disk", func(p *nebula.Params) { p.Disk.Thickness = math.NaN() }),
			Entry("infinite base mass", "disk", func(p *nebula.Params) { p.Disk.MassBase = math.Inf(1) }),
			Entry("NaN mass jitter", "disk", func(p *nebula.Params) { p.Disk.MassJitter = math.NaN() }),
			Entry("disk wider than the limit", "disk", func(p *nebula.Params) { p.Disk.Radius = 10 }),
			Entry("disk thicker than the limit", "disk", func(p *nebula.Params) { p.Disk.Thickness = 5 }),
		)

		It("keeps the previous parameters on error", func() {
			p := smallDisk()
			p.G = 0
			Expect(e.Configure(p)).NotTo(Succeed())
			Expect(e.Params().G).To(Equal(smallDisk().G))
		})

		It("drops state when the grid shape changes", func() {
			Expect(e.Reset(1)).To(Succeed())
			p := smallDisk()
			p.Disk.Grid = grid.Shape{Width: 8, Height: 8}
			Expect(e.Configure(p)).To(Succeed())
			Expect(e.Seeded()).To(BeFalse())
		})
	})

	Context("after reset", func() {
		BeforeEach(func() {
			Expect(e.Reset(7)).To(Succeed())
		})

		It("seeds the configured grid at generation zero", func() {
			v := e.Positions()
			Expect(v.Shape()).To(Equal(grid.Shape{Width: 16, Height: 8}))
			Expect(v.Len()).To(Equal(128))
			Expect(e.Generation()).To(BeZero())
			Expect(e.Elapsed()).To(BeZero())
		})

		It("reproduces the same buffers for the same seed", func() {
			first := e.Positions().Cells()
			e.Advance(0.1)
			Expect(e.Reset(7)).To(Succeed())
			Expect(e.Positions().Cells()).To(Equal(first))
			Expect(e.Velocities()).To(HaveEach(r3.Vec{}))
		})

		It("keeps every mass across steps", func() {
			masses := make([]float64, e.Positions().Len())
			for i := range masses {
				masses[i] = e.Positions().At(i).Mass
			}
			for i := 0; i < 50; i++ {
				e.Advance(0.016)
			}
			for i := range masses {
				Expect(e.Positions().At(i).Mass).To(Equal(masses[i]))
			}
		})

		DescribeTable("ignores invalid deltas",
			func(delta float64) {
				before := e.Positions().Cells()
				e.Advance(delta)
				Expect(e.Positions().Cells()).To(Equal(before))
				Expect(e.Generation()).To(BeZero())
			},
			Entry("NaN", math.NaN()),
			Entry("+Inf", math.Inf(1)),
			Entry("-Inf", math.Inf(-1)),
			Entry("negative", -0.016),
			Entry("zero", 0.0),
		)

		It("runs one generation per substep", func() {
			p := smallDisk()
			p.Substeps = 4
			Expect(e.Configure(p)).To(Succeed())
			e.Advance(0.016)
			Expect(e.Generation()).To(Equal(uint64(4)))
			Expect(e.Elapsed()).To(BeNumerically("~", 0.016, 1e-15))
		})

		It("caps oversized deltas", func() {
			e.Advance(10)
			Expect(e.Elapsed()).To(BeNumerically("~", nebula.DefaultParams().MaxDelta, 1e-15))
		})

		It("pulls kept state inside a reduced limit radius", func() {
			e.Advance(0.016)
			p := smallDisk()
			p.LimitRadius = 0.3
			p.Disk.Radius = 0.2
			p.Disk.Thickness = 0.05
			Expect(e.Configure(p)).To(Succeed())
			Expect(e.Seeded()).To(BeTrue())
			Expect(e.Generation()).To(Equal(uint64(1)))

			v := e.Positions()
			var outer float64
			for j := 0; j < v.Len(); j++ {
				outer = math.Max(outer, radius(v.At(j)))
			}
			Expect(outer).To(BeNumerically("~", 0.3, 1e-12))
		})

		It("stays within the limit radius", func() {
			p := smallDisk()
			p.LimitRadius = 0.5
			p.Disk.Radius = 0.4
			p.Disk.Thickness = 0.1
			p.Pressure = 0.2
			p.InitSpin = 1
			Expect(e.Configure(p)).To(Succeed())
			for i := 0; i < 200; i++ {
				e.Advance(0.05)
				v := e.Positions()
				for j := 0; j < v.Len(); j++ {
					Expect(radius(v.At(j))).To(BeNumerically("<=", p.LimitRadius*(1+1e-12)))
				}
			}
		})
	})

	Context("fixed step", func() {
		It("ignores the caller's delta", func() {
			p := smallDisk()
			p.FixedDt = 0.01

			a := nebula.New(nebula.WithBackend(compute.NewSerialBackend()))
			b := nebula.New(nebula.WithBackend(compute.NewSerialBackend()))
			defer a.Close()
			defer b.Close()
			Expect(a.Configure(p)).To(Succeed())
			Expect(b.Configure(p)).To(Succeed())
			Expect(a.Reset(3)).To(Succeed())
			Expect(b.Reset(3)).To(Succeed())

			for i := 0; i < 10; i++ {
				a.Advance(0.016)
				b.Advance(0.2)
			}
			Expect(a.Positions().Cells()).To(Equal(b.Positions().Cells()))
			Expect(a.Elapsed()).To(BeNumerically("~", 0.1, 1e-12))
		})

		It("still rejects invalid deltas", func() {
			p := smallDisk()
			p.FixedDt = 0.01
			Expect(e.Configure(p)).To(Succeed())
			Expect(e.Reset(3)).To(Succeed())
			e.Advance(math.NaN())
			Expect(e.Generation()).To(BeZero())
		})
	})

	Context("with explicit particles", func() {
		It("pulls the corners of a unit square toward the centre", func() {
			p := nebula.DefaultParams()
			p.G = 1
			p.Softening = 0.1
			p.Damping = 0
			p.Pressure = 0
			p.InitSpin = 0
			Expect(e.Configure(p)).To(Succeed())
			corners := []grid.Cell{
				{X: -0.5, Y: -0.5, Mass: 1},
				{X: 0.5, Y: -0.5, Mass: 1},
				{X: 0.5, Y: 0.5, Mass: 1},
				{X: -0.5, Y: 0.5, Mass: 1},
			}
			Expect(e.ResetFrom(corners)).To(Succeed())

			e.Advance(0.01)

			v := e.Positions()
			r0 := radius(corners[0])
			r := radius(v.At(0))
			for i := 0; i < v.Len(); i++ {
				Expect(radius(v.At(i))).To(BeNumerically("<", r0))
				Expect(radius(v.At(i))).To(BeNumerically("~", r, 1e-12))
			}
		})

		It("keeps a lone particle at rest", func() {
			p := nebula.DefaultParams()
			p.InitSpin = 0
			Expect(e.Configure(p)).To(Succeed())
			lone := grid.Cell{X: 0.3, Y: 0.1, Z: -0.2, Mass: 1}
			Expect(e.ResetFrom([]grid.Cell{lone})).To(Succeed())

			for i := 0; i < 1000; i++ {
				e.Advance(0.016)
			}
			Expect(e.Positions().At(0)).To(Equal(lone))
			Expect(e.Velocities()).To(Equal([]r3.Vec{{}}))
		})

		It("accelerates a symmetric pair equally and oppositely", func() {
			p := nebula.DefaultParams()
			p.Damping = 0
			p.Pressure = 0
			p.InitSpin = 0
			Expect(e.Configure(p)).To(Succeed())
			Expect(e.ResetFrom([]grid.Cell{
				{X: -0.4, Y: 0.1, Z: 0.2, Mass: 1},
				{X: 0.4, Y: -0.1, Z: -0.2, Mass: 1},
			})).To(Succeed())

			e.Advance(0.016)

			vel := e.Velocities()
			Expect(vel[1]).To(Equal(r3.Scale(-1, vel[0])))
			Expect(r3.Dot(vel[0], r3.Vec{X: -0.4, Y: 0.1, Z: 0.2})).To(BeNumerically("<", 0))
		})

		It("rejects massless particles", func() {
			err := e.ResetFrom([]grid.Cell{{X: 1}})
			Expect(err).To(MatchError(nebula.ErrConfig))
		})

		It("rejects an empty population", func() {
			Expect(e.ResetFrom(nil)).To(MatchError(nebula.ErrShape))
		})

		DescribeTable("rejects non-finite coordinates and keeps the previous state",
			func(c grid.Cell) {
				Expect(e.Reset(2)).To(Succeed())
				e.Advance(0.016)
				before := e.Positions().Cells()

				err := e.ResetFrom([]grid.Cell{{X: 0.1, Mass: 1}, c})
				Expect(err).To(MatchError(nebula.ErrConfig))
				var ce *nebula.ConfigError
				Expect(errors.As(err, &ce)).To(BeTrue())
				Expect(ce.Field).To(Equal("cells"))

				Expect(e.Seeded()).To(BeTrue())
				Expect(e.Generation()).To(Equal(uint64(1)))
				Expect(e.Positions().Cells()).To(Equal(before))
				e.Advance(0.016)
				Expect(e.Generation()).To(Equal(uint64(2)))
			},
			Entry("NaN x", grid.Cell{X: math.NaN(), Mass: 1}),
			Entry("infinite y", grid.Cell{Y: math.Inf(1), Mass: 1}),
			Entry("infinite z", grid.Cell{Z: math.Inf(-1), Mass: 1}),
			Entry("infinite mass", grid.Cell{Mass: math.Inf(1)}),
		)

		It("pulls particles outside the limit radius onto it", func() {
			Expect(e.ResetFrom([]grid.Cell{
				{X: 0.5, Mass: 1},
				{X: 6, Z: 8, Mass: 2},
			})).To(Succeed())

			v := e.Positions()
			Expect(v.At(0)).To(Equal(grid.Cell{X: 0.5, Mass: 1}))
			Expect(radius(v.At(1))).To(BeNumerically("~", smallDisk().LimitRadius, 1e-12))
			Expect(v.At(1).X / v.At(1).Z).To(BeNumerically("~", 0.75, 1e-12))
			Expect(v.At(1).Mass).To(Equal(2.0))

			e.Advance(0)
			Expect(radius(e.Positions().At(1))).To(BeNumerically("<=", smallDisk().LimitRadius*(1+1e-12)))
		})
	})

	Context("sub-stepping", func() {
		It("converges as the step is refined", func() {
			run := func(substeps int) []grid.Cell {
				p := smallDisk()
				p.Substeps = substeps
				eng := nebula.New(nebula.WithBackend(compute.NewSerialBackend()))
				defer eng.Close()
				Expect(eng.Configure(p)).To(Succeed())
				Expect(eng.Reset(11)).To(Succeed())
				for i := 0; i < 20; i++ {
					eng.Advance(0.05)
				}
				return eng.Positions().Cells()
			}
			dist := func(a, b []grid.Cell) float64 {
				var sum float64
				for i := range a {
					sum += r3.Norm2(r3.Sub(a[i].Pos(), b[i].Pos()))
				}
				return math.Sqrt(sum)
			}

			ref := run(64)
			coarse := dist(run(1), ref)
			fine := dist(run(8), ref)
			Expect(fine).To(BeNumerically("<", coarse))
		})
	})

	It("is independent of the worker count", func() {
		run := func(be compute.Backend) []grid.Cell {
			eng := nebula.New(nebula.WithBackend(be))
			defer eng.Close()
			Expect(eng.Configure(smallDisk())).To(Succeed())
			Expect(eng.Reset(5)).To(Succeed())
			for i := 0; i < 10; i++ {
				eng.Advance(0.016)
			}
			return eng.Positions().Cells()
		}
		Expect(run(compute.NewCPUBackend(7))).To(Equal(run(compute.NewSerialBackend())))
	})

	It("accepts a caller supplied seeder shape", func() {
		Expect(e.ResetFrom(seed.Explicit{{Mass: 1}, {X: 1, Mass: 1}})).To(Succeed())
		Expect(e.Positions().Shape()).To(Equal(grid.Shape{Width: 2, Height: 1}))
	})
})
