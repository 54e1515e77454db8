package kernel

import (
	"github.com/san-kum/nebula/internal/compute"
	"github.com/san-kum/nebula/internal/grid"
	"gonum.org/v1/gonum/spatial/r3"
)

// Kick is the velocity pass: spin seeding, force accumulation, linear drag.
type Kick struct {
	Field   Field
	Spin    Spin
	Damping float64
}

// Run writes velOut from posIn and velIn. It returns after every particle
// has been written.
func (k *Kick) Run(be compute.Backend, posIn []grid.Cell, velIn, velOut []r3.Vec, dt, elapsed float64) {
	k.Field.Prepare(posIn)
	blend := k.Spin.Blend(dt, elapsed)
	drag := 1 - k.Damping*dt

	be.ParallelFor(len(posIn), func(start, end int) {
		for i := start; i < end; i++ {
			v := r3.Add(velIn[i], k.Spin.Kick(posIn[i].Pos(), blend))
			a := k.Field.Accel(posIn, i)
			velOut[i] = r3.Scale(drag, r3.Add(v, r3.Scale(dt, a)))
		}
	})
}

// Drift is the position pass with a soft spherical boundary.
type Drift struct {
	LimitRadius float64
}

// Run writes posOut from posIn and the already-kicked velocities velNew.
// Particles beyond the limit radius are pulled back onto it; their mass and
// velocity are left alone.
func (d Drift) Run(be compute.Backend, posIn []grid.Cell, velNew []r3.Vec, posOut []grid.Cell, dt float64) {
	be.ParallelFor(len(posIn), func(start, end int) {
		for i := start; i < end; i++ {
			p := r3.Add(posIn[i].Pos(), r3.Scale(dt, velNew[i]))
			posOut[i] = posIn[i].WithPos(d.clamp(p))
		}
	})
}

// Contain pulls every cell of pos back inside the limit radius in place.
func (d Drift) Contain(be compute.Backend, pos []grid.Cell) {
	be.ParallelFor(len(pos), func(start, end int) {
		for i := start; i < end; i++ {
			pos[i] = pos[i].WithPos(d.clamp(pos[i].Pos()))
		}
	})
}

func (d Drift) clamp(p r3.Vec) r3.Vec {
	if r := r3.Norm(p); r > d.LimitRadius {
		return r3.Scale(d.LimitRadius/r, p)
	}
	return p
}
