package grid

// View exposes positions without handing out the backing slice. It stays
// valid until the owning store is stepped again; use CopyTo to keep a frame.
type View struct {
	shape Shape
	cells []Cell
}

func (v View) Shape() Shape { return v.shape }
func (v View) Len() int     { return len(v.cells) }

func (v View) At(i int) Cell { return v.cells[i] }

func (v View) AtCoord(x, y int) Cell { return v.cells[v.shape.Index(x, y)] }

// CopyTo copies the cells into dst and returns the number copied.
func (v View) CopyTo(dst []Cell) int { return copy(dst, v.cells) }

// Cells returns a fresh copy of every cell.
func (v View) Cells() []Cell {
	out := make([]Cell, len(v.cells))
	copy(out, v.cells)
	return out
}
