// Package metrics computes read-only diagnostics of a particle generation.
package metrics

import (
	"github.com/san-kum/nebula/internal/grid"
	"gonum.org/v1/gonum/spatial/r3"
)

// Snapshot is one generation as seen by a diagnostic. Velocities is
// indexed like Positions.
type Snapshot struct {
	Positions  grid.View
	Velocities []r3.Vec
	Time       float64
}

type Metric interface {
	Name() string
	Observe(s Snapshot)
	Value() float64
	Reset()
}

// Standard returns the diagnostics recorded by a run, in column order.
func Standard(g, softening float64) []Metric {
	return []Metric{
		NewKinetic(),
		NewPotential(g, softening),
		NewEnergyDrift(g, softening),
		NewMomentum(),
		NewAngularMomentum(),
		NewRMSRadius(),
		NewMaxRadius(),
	}
}

func Names(ms []Metric) []string {
	names := make([]string, len(ms))
	for i, m := range ms {
		names[i] = m.Name()
	}
	return names
}

// ObserveAll feeds s to every metric and returns their values.
func ObserveAll(ms []Metric, s Snapshot) []float64 {
	out := make([]float64, len(ms))
	for i, m := range ms {
		m.Observe(s)
		out[i] = m.Value()
	}
	return out
}
