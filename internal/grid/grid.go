package grid

import (
	"errors"
	"fmt"

	"gonum.org/v1/gonum/spatial/r3"
)

// ErrShape is returned for grids that cannot hold a particle.
var ErrShape = errors.New("grid: invalid shape")

// Shape is the fixed width x height layout of the particle population.
type Shape struct {
	Width  int
	Height int
}

func (s Shape) Len() int { return s.Width * s.Height }

func (s Shape) Validate() error {
	if s.Width < 1 || s.Height < 1 {
		return fmt.Errorf("%w: %dx%d", ErrShape, s.Width, s.Height)
	}
	return nil
}

// Index maps a grid coordinate to a flat particle index (row-major).
func (s Shape) Index(x, y int) int { return y*s.Width + x }

// Coord is the inverse of Index.
func (s Shape) Coord(i int) (x, y int) { return i % s.Width, i / s.Width }

// Cell is one particle's position and mass.
type Cell struct {
	X, Y, Z float64
	Mass    float64
}

func (c Cell) Pos() r3.Vec { return r3.Vec{X: c.X, Y: c.Y, Z: c.Z} }

// WithPos returns c moved to p, keeping its mass.
func (c Cell) WithPos(p r3.Vec) Cell {
	return Cell{X: p.X, Y: p.Y, Z: p.Z, Mass: c.Mass}
}

// Store is the double-buffered particle state.
type Store struct {
	shape Shape
	pos   [2][]Cell
	vel   [2][]r3.Vec
	cur   int
	gen   uint64
}

func NewStore(shape Shape) (*Store, error) {
	if err := shape.Validate(); err != nil {
		return nil, err
	}
	n := shape.Len()
	s := &Store{shape: shape}
	for g := 0; g < 2; g++ {
		s.pos[g] = make([]Cell, n)
		s.vel[g] = make([]r3.Vec, n)
	}
	return s, nil
}

func (s *Store) Shape() Shape { return s.shape }
func (s *Store) Len() int     { return s.shape.Len() }

// Current is the readable generation index.
func (s *Store) Current() int { return s.cur }

// Next is the writable generation index.
func (s *Store) Next() int { return 1 - s.cur }

// Positions returns the position buffer of generation g.
func (s *Store) Positions(g int) []Cell { return s.pos[g] }

// Velocities returns the velocity buffer of generation g.
func (s *Store) Velocities(g int) []r3.Vec { return s.vel[g] }

// Swap promotes the next generation to current.
func (s *Store) Swap() {
	s.cur = 1 - s.cur
	s.gen++
}

// Generation counts completed swaps since the last Restart.
func (s *Store) Generation() uint64 { return s.gen }

// Restart promotes the next generation to current as generation zero. The
// previous current generation becomes scratch space.
func (s *Store) Restart() {
	s.cur = 1 - s.cur
	s.gen = 0
}

// View is a read-only window onto the current position generation.
func (s *Store) View() View {
	return View{shape: s.shape, cells: s.pos[s.cur]}
}

// Release drops the buffers. The store is unusable afterwards.
func (s *Store) Release() {
	s.pos = [2][]Cell{}
	s.vel = [2][]r3.Vec{}
	s.shape = Shape{}
}
