package kernel

import (
	"fmt"

	"github.com/san-kum/nebula/internal/grid"
	"gonum.org/v1/gonum/spatial/barneshut"
	"gonum.org/v1/gonum/spatial/r3"
)

// Field is the acceleration every particle feels from a position generation.
// Prepare runs once per pass before any Accel call; Accel must be safe for
// concurrent use after that.
type Field interface {
	Name() string
	Prepare(pos []grid.Cell)
	Accel(pos []grid.Cell, i int) r3.Vec
}

// NewField returns the solver registered under name.
func NewField(name string, law Law, theta float64) (Field, error) {
	switch name {
	case "direct", "":
		return &Direct{Law: law}, nil
	case "tree":
		return &Tree{Law: law, Theta: theta}, nil
	default:
		return nil, fmt.Errorf("unknown solver: %s", name)
	}
}

// Direct sums over every other particle: O(N) per particle.
type Direct struct {
	Law Law
}

func (d *Direct) Name() string            { return "direct" }
func (d *Direct) Prepare(pos []grid.Cell) {}

func (d *Direct) Accel(pos []grid.Cell, i int) r3.Vec {
	pi := pos[i].Pos()
	var acc r3.Vec
	for j := range pos {
		dv := r3.Sub(pos[j].Pos(), pi)
		if coincident(dv) {
			continue
		}
		acc = r3.Add(acc, d.Law.PairAccel(dv, pos[j].Mass))
	}
	return acc
}

// Tree approximates distant groups by their centre of mass with a
// Barnes-Hut octree. Theta is the opening angle; zero gives the exact sum.
type Tree struct {
	Law   Law
	Theta float64

	vol       barneshut.Volume
	bodies    []body
	particles []barneshut.Particle3
}

type body struct {
	p r3.Vec
	m float64
}

func (b *body) Coord3() r3.Vec { return b.p }
func (b *body) Mass() float64  { return b.m }

func (t *Tree) Name() string { return "tree" }

func (t *Tree) Prepare(pos []grid.Cell) {
	if len(t.bodies) != len(pos) {
		t.bodies = make([]body, len(pos))
		t.particles = make([]barneshut.Particle3, len(pos))
		for i := range t.bodies {
			t.particles[i] = &t.bodies[i]
		}
	}
	for i, c := range pos {
		t.bodies[i] = body{p: c.Pos(), m: c.Mass}
	}
	t.vol.Particles = t.particles
	// Positions are bounded by the limit radius so the volume is always
	// representable.
	t.vol.Reset()
}

func (t *Tree) Accel(_ []grid.Cell, i int) r3.Vec {
	return t.vol.ForceOn(&t.bodies[i], t.Theta, t.force)
}

func (t *Tree) force(_, _ barneshut.Particle3, _, m2 float64, v r3.Vec) r3.Vec {
	if coincident(v) {
		return r3.Vec{}
	}
	return t.Law.PairAccel(v, m2)
}
