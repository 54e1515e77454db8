package nebula

import (
	"math"

	"github.com/san-kum/nebula/internal/kernel"
	"github.com/san-kum/nebula/internal/seed"
)

// Params are the recognized simulation options.
type Params struct {
	G          float64
	Softening  float64
	Damping    float64
	Pressure   float64
	CoreRadius float64
	InitSpin   float64
	Substeps   int

	LimitRadius float64
	SpinRate    float64
	SpinRamp    kernel.Ramp

	// FixedDt, when positive, replaces every valid delta passed to Advance.
	FixedDt float64
	// MaxDelta caps a single Advance; zero disables the cap.
	MaxDelta float64

	Solver string
	Theta  float64

	Disk seed.Disk
}

func DefaultParams() Params {
	return Params{
		G:           0.00045,
		Softening:   0.012,
		Damping:     0.02,
		Pressure:    0.05,
		CoreRadius:  0.03,
		InitSpin:    0.55,
		Substeps:    1,
		LimitRadius: 4.0,
		SpinRate:    2.0,
		SpinRamp:    kernel.RampTick,
		MaxDelta:    0.25,
		Solver:      "direct",
		Theta:       0.5,
		Disk:        seed.DefaultDisk(),
	}
}

// Validate reports the first parameter that is out of range as a
// *ConfigError. NaN fails every check.
func (p Params) Validate() error {
	positive := []struct {
		name string
		v    float64
	}{
		{"G", p.G},
		{"softening", p.Softening},
		{"coreRadius", p.CoreRadius},
		{"limitRadius", p.LimitRadius},
	}
	for _, f := range positive {
		if !(f.v > 0) || math.IsInf(f.v, 0) {
			return configErr(f.name, f.v, "must be positive and finite")
		}
	}
	if !(p.Damping >= 0 && p.Damping <= 1) {
		return configErr("damping", p.Damping, "must be in [0, 1]")
	}
	if !(p.Pressure >= 0) || math.IsInf(p.Pressure, 0) {
		return configErr("pressure", p.Pressure, "must be non-negative")
	}
	if !(p.InitSpin >= 0) || math.IsInf(p.InitSpin, 0) {
		return configErr("initSpin", p.InitSpin, "must be non-negative")
	}
	if p.Substeps < 1 {
		return configErr("substeps", p.Substeps, "must be at least 1")
	}
	if !(p.SpinRate > 0) || math.IsInf(p.SpinRate, 0) {
		return configErr("spinRate", p.SpinRate, "must be positive")
	}
	if _, err := kernel.ParseRamp(string(p.SpinRamp)); err != nil {
		return configErr("spinRamp", p.SpinRamp, "must be tick or elapsed")
	}
	if !(p.FixedDt >= 0) || math.IsInf(p.FixedDt, 0) {
		return configErr("fixedDt", p.FixedDt, "must be zero or positive")
	}
	if !(p.MaxDelta >= 0) || math.IsInf(p.MaxDelta, 0) {
		return configErr("maxDelta", p.MaxDelta, "must be zero or positive")
	}
	if _, err := kernel.NewField(p.Solver, kernel.Law{}, 0); err != nil {
		return configErr("solver", p.Solver, "must be direct or tree")
	}
	if !(p.Theta >= 0) || math.IsInf(p.Theta, 0) {
		return configErr("theta", p.Theta, "must be non-negative")
	}
	if err := p.Disk.Validate(); err != nil {
		return configErr("disk", p.Disk.Grid, err.Error())
	}
	if ext := p.Disk.Extent(); ext > p.LimitRadius {
		return configErr("disk", ext, "disk extent exceeds the limit radius")
	}
	return nil
}

func (p Params) law() kernel.Law {
	return kernel.Law{
		G:          p.G,
		Softening:  p.Softening,
		Pressure:   p.Pressure,
		CoreRadius: p.CoreRadius,
	}
}
