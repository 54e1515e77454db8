package kernel

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/spatial/r3"
)

// Ramp selects how the spin-seeding blend depends on time.
type Ramp string

const (
	// RampTick blends by 1-exp(-k*dt) on every step, so the spin added per
	// unit of simulated time depends on the tick size.
	RampTick Ramp = "tick"
	// RampElapsed blends by exp(-k*t)-exp(-k*(t+dt)); the total added by time
	// T is 1-exp(-k*T) whatever the tick sizes were.
	RampElapsed Ramp = "elapsed"
)

func ParseRamp(s string) (Ramp, error) {
	switch Ramp(s) {
	case RampTick, "":
		return RampTick, nil
	case RampElapsed:
		return RampElapsed, nil
	}
	return "", fmt.Errorf("unknown spin ramp: %s", s)
}

const (
	spinCentralMass = 1.0
	spinCoreOffset  = 0.2
	spinGain        = 0.2
	spinMinRadius   = 1e-4
)

// Spin nudges particles toward circular motion about the y axis.
type Spin struct {
	G        float64
	Fraction float64
	Rate     float64
	Ramp     Ramp
}

// Blend is the fraction of the spin target applied by a step of dt that
// starts at simulated time elapsed.
func (s Spin) Blend(dt, elapsed float64) float64 {
	if s.Fraction == 0 || dt <= 0 {
		return 0
	}
	if s.Ramp == RampElapsed {
		return math.Exp(-s.Rate*elapsed) - math.Exp(-s.Rate*(elapsed+dt))
	}
	return 1 - math.Exp(-s.Rate*dt)
}

// Kick is the velocity increment for a particle at p.
func (s Spin) Kick(p r3.Vec, blend float64) r3.Vec {
	if blend == 0 {
		return r3.Vec{}
	}
	r := math.Hypot(p.X, p.Z)
	if r <= spinMinRadius {
		return r3.Vec{}
	}
	tang := r3.Vec{X: -p.Z / r, Z: p.X / r}
	vCirc := math.Sqrt(s.G * spinCentralMass / (r + spinCoreOffset))
	return r3.Scale(s.Fraction*vCirc*blend*spinGain, tang)
}
