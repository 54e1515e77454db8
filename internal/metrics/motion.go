package metrics

import (
	"math"

	"gonum.org/v1/gonum/spatial/r3"
	"gonum.org/v1/gonum/stat"
)

// Momentum is the magnitude of the total linear momentum.
type Momentum struct {
	value float64
}

func NewMomentum() *Momentum { return &Momentum{} }

func (m *Momentum) Name() string { return "momentum" }

func (m *Momentum) Observe(s Snapshot) {
	var p r3.Vec
	for i, v := range s.Velocities {
		p = r3.Add(p, r3.Scale(s.Positions.At(i).Mass, v))
	}
	m.value = r3.Norm(p)
}

func (m *Momentum) Value() float64 { return m.value }
func (m *Momentum) Reset()         { m.value = 0 }

// AngularMomentum is the y component of the total angular momentum about
// the origin, the disk normal.
type AngularMomentum struct {
	value float64
}

func NewAngularMomentum() *AngularMomentum { return &AngularMomentum{} }

func (a *AngularMomentum) Name() string { return "angular_momentum" }

func (a *AngularMomentum) Observe(s Snapshot) {
	var l float64
	for i, v := range s.Velocities {
		c := s.Positions.At(i)
		l += c.Mass * r3.Cross(c.Pos(), v).Y
	}
	a.value = l
}

func (a *AngularMomentum) Value() float64 { return a.value }
func (a *AngularMomentum) Reset()         { a.value = 0 }

// RMSRadius is the mass-weighted root mean square distance from the origin.
type RMSRadius struct {
	r2, w []float64
	value float64
}

func NewRMSRadius() *RMSRadius { return &RMSRadius{} }

func (r *RMSRadius) Name() string { return "rms_radius" }

func (r *RMSRadius) Observe(s Snapshot) {
	n := s.Positions.Len()
	if n == 0 {
		r.value = 0
		return
	}
	r.r2 = resize(r.r2, n)
	r.w = resize(r.w, n)
	for i := 0; i < n; i++ {
		c := s.Positions.At(i)
		r.r2[i] = r3.Norm2(c.Pos())
		r.w[i] = c.Mass
	}
	r.value = math.Sqrt(stat.Mean(r.r2, r.w))
}

func (r *RMSRadius) Value() float64 { return r.value }
func (r *RMSRadius) Reset()         { r.value = 0 }

type MaxRadius struct {
	value float64
}

func NewMaxRadius() *MaxRadius { return &MaxRadius{} }

func (m *MaxRadius) Name() string { return "max_radius" }

func (m *MaxRadius) Observe(s Snapshot) {
	m.value = 0
	for i := 0; i < s.Positions.Len(); i++ {
		m.value = math.Max(m.value, r3.Norm(s.Positions.At(i).Pos()))
	}
}

func (m *MaxRadius) Value() float64 { return m.value }
func (m *MaxRadius) Reset()         { m.value = 0 }

func resize(s []float64, n int) []float64 {
	if cap(s) < n {
		return make([]float64, n)
	}
	return s[:n]
}
