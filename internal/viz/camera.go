package viz

import (
	"math"

	"gonum.org/v1/gonum/spatial/r3"
)

// Camera is an orthographic view of the particle cloud. With no rotation
// it looks down the y axis onto the disk plane.
type Camera struct {
	RotX, RotY float64
	// Extent is the world radius mapped to the shorter canvas edge.
	Extent float64
}

func NewCamera(extent float64) *Camera {
	return &Camera{Extent: extent}
}

func (c *Camera) RotateX(a float64) { c.RotX += a }
func (c *Camera) RotateY(a float64) { c.RotY += a }

func (c *Camera) rotate(p r3.Vec) r3.Vec {
	cy, sy := math.Cos(c.RotY), math.Sin(c.RotY)
	p.X, p.Z = p.X*cy+p.Z*sy, -p.X*sy+p.Z*cy
	cx, sx := math.Cos(c.RotX), math.Sin(c.RotX)
	p.Y, p.Z = p.Y*cx-p.Z*sx, p.Y*sx+p.Z*cx
	return p
}

// Project maps p to dot coordinates on a sw by sh canvas and reports
// whether it lands inside.
func (c *Camera) Project(p r3.Vec, sw, sh int) (int, int, bool) {
	r := c.rotate(p)
	half := float64(min(sw, sh)) / 2
	scale := half / c.Extent
	x := int(math.Round(r.X*scale)) + sw/2
	y := int(math.Round(r.Z*scale)) + sh/2
	return x, y, x >= 0 && x < sw && y >= 0 && y < sh
}
