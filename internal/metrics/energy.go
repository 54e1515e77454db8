package metrics

import (
	"math"

	"gonum.org/v1/gonum/spatial/r3"
)

func kinetic(s Snapshot) float64 {
	var k float64
	for i, v := range s.Velocities {
		k += 0.5 * s.Positions.At(i).Mass * r3.Norm2(v)
	}
	return k
}

// potential uses the same softened distance as the force law.
func potential(s Snapshot, g, eps float64) float64 {
	var u float64
	eps2 := eps * eps
	n := s.Positions.Len()
	for i := 0; i < n; i++ {
		ci := s.Positions.At(i)
		pi := ci.Pos()
		for j := i + 1; j < n; j++ {
			cj := s.Positions.At(j)
			r2 := r3.Norm2(r3.Sub(cj.Pos(), pi)) + eps2
			u -= g * ci.Mass * cj.Mass / math.Sqrt(r2)
		}
	}
	return u
}

type Kinetic struct {
	value float64
}

func NewKinetic() *Kinetic { return &Kinetic{} }

func (k *Kinetic) Name() string       { return "kinetic" }
func (k *Kinetic) Observe(s Snapshot) { k.value = kinetic(s) }
func (k *Kinetic) Value() float64     { return k.value }
func (k *Kinetic) Reset()             { k.value = 0 }

// Potential is the softened pairwise gravitational energy. It costs O(N²)
// per observation.
type Potential struct {
	g, softening float64
	value        float64
}

func NewPotential(g, softening float64) *Potential {
	return &Potential{g: g, softening: softening}
}

func (p *Potential) Name() string       { return "potential" }
func (p *Potential) Observe(s Snapshot) { p.value = potential(s, p.g, p.softening) }
func (p *Potential) Value() float64     { return p.value }
func (p *Potential) Reset()             { p.value = 0 }

// EnergyDrift tracks the largest relative change of kinetic plus potential
// energy since the first observation.
type EnergyDrift struct {
	g, softening float64
	initial      float64
	maxDrift     float64
	samples      int
}

func NewEnergyDrift(g, softening float64) *EnergyDrift {
	return &EnergyDrift{g: g, softening: softening}
}

func (e *EnergyDrift) Name() string { return "energy_drift" }

func (e *EnergyDrift) Observe(s Snapshot) {
	energy := kinetic(s) + potential(s, e.g, e.softening)
	if e.samples == 0 {
		e.initial = energy
	}
	e.samples++

	if e.initial != 0 {
		drift := math.Abs(energy-e.initial) / math.Abs(e.initial)
		e.maxDrift = math.Max(e.maxDrift, drift)
	}
}

func (e *EnergyDrift) Value() float64 { return e.maxDrift }

func (e *EnergyDrift) Reset() {
	e.initial = 0
	e.maxDrift = 0
	e.samples = 0
}
