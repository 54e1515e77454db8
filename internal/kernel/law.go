package kernel

import (
	"math"

	"gonum.org/v1/gonum/spatial/r3"
)

// selfGuard is the L1 separation below which a pair is treated as the
// particle interacting with itself.
const selfGuard = 1e-9

// Law is the softened gravity plus short-range repulsion force law.
type Law struct {
	G          float64
	Softening  float64
	Pressure   float64
	CoreRadius float64
}

// PairAccel returns the acceleration that a mass mj displaced by d exerts.
func (l Law) PairAccel(d r3.Vec, mj float64) r3.Vec {
	dist2 := r3.Norm2(d)
	r2 := dist2 + l.Softening*l.Softening
	invR := 1 / math.Sqrt(r2)
	invR3 := invR * invR * invR

	acc := r3.Scale(l.G*mj*invR3, d)

	if l.Pressure > 0 {
		r := math.Sqrt(dist2)
		if r < l.CoreRadius {
			s := clamp01(1 - r/l.CoreRadius)
			acc = r3.Sub(acc, r3.Scale(l.Pressure*s*s*invR3*l.Softening, d))
		}
	}
	return acc
}

func coincident(d r3.Vec) bool {
	return math.Abs(d.X)+math.Abs(d.Y)+math.Abs(d.Z) < selfGuard
}

func clamp01(x float64) float64 {
	return math.Max(0, math.Min(1, x))
}
