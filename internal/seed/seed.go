// Package seed builds the generation-0 particle state.
package seed

import (
	"fmt"
	"math"
	"math/rand"

	"github.com/san-kum/nebula/internal/grid"
	"gonum.org/v1/gonum/spatial/r3"
)

// Seeder fills the position and velocity buffers of a store's first
// generation. Fill is called with slices of Shape().Len() elements.
type Seeder interface {
	Shape() grid.Shape
	Fill(pos []grid.Cell, vel []r3.Vec) error
}

// Disk scatters particles uniformly over a thin disk in the x-z plane.
type Disk struct {
	Grid       grid.Shape
	Radius     float64
	Thickness  float64
	MassBase   float64
	MassJitter float64
	Seed       int64
}

func DefaultDisk() Disk {
	return Disk{
		Grid:       grid.Shape{Width: 96, Height: 48},
		Radius:     1.0,
		Thickness:  0.28,
		MassBase:   0.8,
		MassJitter: 0.4,
	}
}

func (d Disk) Shape() grid.Shape { return d.Grid }

func (d Disk) Validate() error {
	if err := d.Grid.Validate(); err != nil {
		return err
	}
	if !(d.Radius > 0) || math.IsInf(d.Radius, 0) {
		return fmt.Errorf("disk radius must be positive and finite, got %g", d.Radius)
	}
	if !(d.Thickness >= 0) || math.IsInf(d.Thickness, 0) {
		return fmt.Errorf("disk thickness must be non-negative and finite, got %g", d.Thickness)
	}
	if !(d.MassBase > 0) || math.IsInf(d.MassBase, 0) ||
		!(d.MassJitter >= 0) || math.IsInf(d.MassJitter, 0) {
		return fmt.Errorf("particle mass range [%g, %g) must be positive and finite", d.MassBase, d.MassBase+d.MassJitter)
	}
	return nil
}

// Extent bounds the distance of any seeded particle from the origin.
func (d Disk) Extent() float64 { return math.Hypot(d.Radius, d.Thickness) }

// Fill draws, in row-major order, a radius, an angle, a height, three
// jitter factors and a mass per particle. Velocities start at rest.
func (d Disk) Fill(pos []grid.Cell, vel []r3.Vec) error {
	if err := d.Validate(); err != nil {
		return err
	}
	if len(pos) != d.Grid.Len() || len(vel) != d.Grid.Len() {
		return fmt.Errorf("%w: buffers of %d/%d for %dx%d", grid.ErrShape, len(pos), len(vel), d.Grid.Width, d.Grid.Height)
	}

	rng := rand.New(rand.NewSource(d.Seed))
	for y := 0; y < d.Grid.Height; y++ {
		for x := 0; x < d.Grid.Width; x++ {
			r := math.Sqrt(rng.Float64()) * d.Radius
			theta := rng.Float64() * 2 * math.Pi
			h := (rng.Float64()*2 - 1) * d.Thickness

			jx := 0.8 + 0.2*rng.Float64()
			jy := 0.8 + 0.2*rng.Float64()
			jz := 0.8 + 0.2*rng.Float64()

			i := d.Grid.Index(x, y)
			pos[i] = grid.Cell{
				X:    math.Cos(theta) * r * jx,
				Y:    h * jy,
				Z:    math.Sin(theta) * r * jz,
				Mass: d.MassBase + d.MassJitter*rng.Float64(),
			}
			vel[i] = r3.Vec{}
		}
	}
	return nil
}

// Explicit places particles exactly as listed, at rest, in a 1-row grid.
type Explicit []grid.Cell

func (e Explicit) Shape() grid.Shape { return grid.Shape{Width: len(e), Height: 1} }

// Validate reports the first particle without a finite position and a
// positive finite mass.
func (e Explicit) Validate() error {
	if len(e) == 0 {
		return fmt.Errorf("%w: no particles", grid.ErrShape)
	}
	for i, c := range e {
		if err := CheckCell(c); err != nil {
			return fmt.Errorf("particle %d: %w", i, err)
		}
	}
	return nil
}

func (e Explicit) Fill(pos []grid.Cell, vel []r3.Vec) error {
	if err := e.Validate(); err != nil {
		return err
	}
	if len(pos) != len(e) || len(vel) != len(e) {
		return fmt.Errorf("%w: buffers of %d/%d for %d particles", grid.ErrShape, len(pos), len(vel), len(e))
	}
	copy(pos, e)
	clear(vel)
	return nil
}

// CheckCell rejects non-finite coordinates and masses that are not
// positive and finite.
func CheckCell(c grid.Cell) error {
	if !(c.Mass > 0) || math.IsInf(c.Mass, 0) {
		return fmt.Errorf("mass must be positive and finite, got %g", c.Mass)
	}
	for _, v := range []float64{c.X, c.Y, c.Z} {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return fmt.Errorf("non-finite position (%g, %g, %g)", c.X, c.Y, c.Z)
		}
	}
	return nil
}
