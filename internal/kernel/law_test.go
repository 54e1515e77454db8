package kernel

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"gonum.org/v1/gonum/spatial/r3"
)

func finite(v r3.Vec) bool {
	for _, x := range []float64{v.X, v.Y, v.Z} {
		if math.IsNaN(x) || math.IsInf(x, 0) {
			return false
		}
	}
	return true
}

func TestPairAccelFiniteAtCoincidence(t *testing.T) {
	for _, soft := range []float64{1e-6, 1e-3, 0.012, 0.1, 1} {
		for _, pressure := range []float64{0, 0.05, 0.2} {
			law := Law{G: 1, Softening: soft, Pressure: pressure, CoreRadius: 0.03}
			a := law.PairAccel(r3.Vec{}, 1)
			assert.True(t, finite(a), "softening %g pressure %g", soft, pressure)
			assert.Equal(t, r3.Vec{}, a)
		}
	}
}

func TestPairAccelPointsTowardSource(t *testing.T) {
	law := Law{G: 1, Softening: 0.1, CoreRadius: 0.03}
	d := r3.Vec{X: 2}
	a := law.PairAccel(d, 3)

	want := 3 * 2 / math.Pow(4+0.01, 1.5)
	assert.InDelta(t, want, a.X, 1e-12)
	assert.Zero(t, a.Y)
	assert.Zero(t, a.Z)
}

func TestPairAccelRepulsionInsideCore(t *testing.T) {
	d := r3.Vec{X: 0.01}
	attract := Law{G: 1e-4, Softening: 0.012, CoreRadius: 0.03}.PairAccel(d, 1)
	repel := Law{G: 1e-4, Softening: 0.012, Pressure: 0.2, CoreRadius: 0.03}.PairAccel(d, 1)
	assert.Greater(t, attract.X, 0.0)
	assert.Less(t, repel.X, attract.X, "pressure must push apart inside the core")

	outside := r3.Vec{X: 0.05}
	a := Law{G: 1e-4, Softening: 0.012, CoreRadius: 0.03}.PairAccel(outside, 1)
	b := Law{G: 1e-4, Softening: 0.012, Pressure: 0.2, CoreRadius: 0.03}.PairAccel(outside, 1)
	assert.Equal(t, a, b, "no repulsion beyond the core radius")
}

func TestCoincidentGuard(t *testing.T) {
	assert.True(t, coincident(r3.Vec{}))
	assert.True(t, coincident(r3.Vec{X: 1e-10}))
	assert.False(t, coincident(r3.Vec{X: 1e-6}))
}

func TestSpinBlend(t *testing.T) {
	tick := Spin{Fraction: 0.55, Rate: 2, Ramp: RampTick}
	assert.InDelta(t, 1-math.Exp(-2*0.016), tick.Blend(0.016, 0), 1e-15)
	assert.Equal(t, tick.Blend(0.016, 0), tick.Blend(0.016, 100), "tick ramp ignores elapsed time")
	assert.Zero(t, tick.Blend(0, 0))

	elapsed := Spin{Fraction: 0.55, Rate: 2, Ramp: RampElapsed}
	coarse, fine := 0.0, 0.0
	for i := 0; i < 10; i++ {
		coarse += elapsed.Blend(0.1, float64(i)*0.1)
	}
	for i := 0; i < 1000; i++ {
		fine += elapsed.Blend(0.001, float64(i)*0.001)
	}
	assert.InDelta(t, 1-math.Exp(-2), coarse, 1e-12)
	assert.InDelta(t, coarse, fine, 1e-9, "elapsed ramp must not depend on tick size")

	off := Spin{Fraction: 0, Rate: 2}
	assert.Zero(t, off.Blend(0.016, 0))
}

func TestSpinKickIsTangential(t *testing.T) {
	s := Spin{G: 1, Fraction: 1, Rate: 2}
	p := r3.Vec{X: 1, Y: 0.3}
	k := s.Kick(p, 0.5)

	assert.InDelta(t, 0, r3.Dot(k, r3.Vec{X: p.X, Z: p.Z}), 1e-15)
	assert.Zero(t, k.Y)
	assert.InDelta(t, math.Sqrt(1/1.2)*0.5*0.2, r3.Norm(k), 1e-12)

	assert.Equal(t, r3.Vec{}, s.Kick(r3.Vec{Y: 1}, 0.5), "no spin on the axis")
	assert.Equal(t, r3.Vec{}, s.Kick(p, 0))
}

func TestParseRamp(t *testing.T) {
	r, err := ParseRamp("")
	assert.NoError(t, err)
	assert.Equal(t, RampTick, r)

	r, err = ParseRamp("elapsed")
	assert.NoError(t, err)
	assert.Equal(t, RampElapsed, r)

	_, err = ParseRamp("wallclock")
	assert.Error(t, err)
}
