package seed

import (
	"errors"
	"math"
	"testing"

	"github.com/san-kum/nebula/internal/grid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/spatial/r3"
)

func fill(t *testing.T, s Seeder) ([]grid.Cell, []r3.Vec) {
	t.Helper()
	n := s.Shape().Len()
	pos := make([]grid.Cell, n)
	vel := make([]r3.Vec, n)
	for i := range vel {
		vel[i] = r3.Vec{X: 1}
	}
	require.NoError(t, s.Fill(pos, vel))
	return pos, vel
}

func TestDiskDeterministic(t *testing.T) {
	d := DefaultDisk()
	d.Seed = 42

	a, _ := fill(t, d)
	b, _ := fill(t, d)
	assert.Equal(t, a, b)

	d.Seed = 43
	c, _ := fill(t, d)
	assert.NotEqual(t, a, c)
}

func TestDiskBounds(t *testing.T) {
	d := DefaultDisk()
	d.Seed = 7
	pos, vel := fill(t, d)

	for i, c := range pos {
		assert.LessOrEqual(t, math.Hypot(c.X, c.Z), d.Radius, "particle %d radius", i)
		assert.LessOrEqual(t, math.Abs(c.Y), d.Thickness, "particle %d height", i)
		assert.GreaterOrEqual(t, c.Mass, d.MassBase)
		assert.Less(t, c.Mass, d.MassBase+d.MassJitter)
		assert.Equal(t, r3.Vec{}, vel[i])
	}
}

func TestDiskValidate(t *testing.T) {
	tests := []struct {
		name string
		edit func(*Disk)
	}{
		{"empty grid", func(d *Disk) { d.Grid = grid.Shape{} }},
		{"zero radius", func(d *Disk) { d.Radius = 0 }},
		{"nan radius", func(d *Disk) { d.Radius = math.NaN() }},
		{"infinite radius", func(d *Disk) { d.Radius = math.Inf(1) }},
		{"negative thickness", func(d *Disk) { d.Thickness = -1 }},
		{"nan thickness", func(d *Disk) { d.Thickness = math.NaN() }},
		{"zero mass", func(d *Disk) { d.MassBase = 0 }},
		{"infinite mass", func(d *Disk) { d.MassBase = math.Inf(1) }},
		{"nan jitter", func(d *Disk) { d.MassJitter = math.NaN() }},
		{"infinite jitter", func(d *Disk) { d.MassJitter = math.Inf(1) }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d := DefaultDisk()
			tt.edit(&d)
			assert.Error(t, d.Validate())
		})
	}
	assert.NoError(t, DefaultDisk().Validate())
}

func TestDiskBufferMismatch(t *testing.T) {
	d := DefaultDisk()
	err := d.Fill(make([]grid.Cell, 3), make([]r3.Vec, 3))
	assert.True(t, errors.Is(err, grid.ErrShape))
}

func TestExplicit(t *testing.T) {
	e := Explicit{{X: 1, Mass: 1}, {Z: -1, Mass: 2}}
	assert.Equal(t, grid.Shape{Width: 2, Height: 1}, e.Shape())

	pos, vel := fill(t, e)
	assert.Equal(t, []grid.Cell(e), pos)
	assert.Equal(t, []r3.Vec{{}, {}}, vel)

	assert.Error(t, Explicit{{Mass: 0}}.Fill(make([]grid.Cell, 1), make([]r3.Vec, 1)))
	assert.Error(t, Explicit{{X: math.Inf(1), Mass: 1}}.Fill(make([]grid.Cell, 1), make([]r3.Vec, 1)))
	assert.ErrorIs(t, Explicit{}.Fill(nil, nil), grid.ErrShape)
}

func TestDiskExtentBoundsSeeds(t *testing.T) {
	d := DefaultDisk()
	d.Radius, d.Thickness = 2, 0.5
	pos, _ := fill(t, d)
	for i, c := range pos {
		assert.LessOrEqual(t, r3.Norm(c.Pos()), d.Extent(), "particle %d", i)
	}
}

func TestCheckCell(t *testing.T) {
	assert.NoError(t, CheckCell(grid.Cell{X: -3, Y: 1, Z: 0.5, Mass: 0.1}))
	for _, c := range []grid.Cell{
		{Mass: -1},
		{Mass: math.NaN()},
		{Mass: math.Inf(1)},
		{X: math.NaN(), Mass: 1},
		{Y: math.Inf(-1), Mass: 1},
		{Z: math.Inf(1), Mass: 1},
	} {
		assert.Error(t, CheckCell(c), "%+v", c)
	}
}
