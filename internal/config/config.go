package config

import (
	"fmt"
	"os"

	"github.com/san-kum/nebula/internal/compute"
	"github.com/san-kum/nebula/internal/grid"
	"github.com/san-kum/nebula/internal/kernel"
	"github.com/san-kum/nebula/internal/nebula"
	"github.com/san-kum/nebula/internal/seed"
	"gopkg.in/yaml.v3"
)

const (
	DefaultDt          = 0.016
	DefaultTicks       = 600
	DefaultSampleEvery = 10
	DefaultBackend     = "cpu"
)

type Config struct {
	Dt      float64       `yaml:"dt"`
	Ticks   int           `yaml:"ticks"`
	Seed    int64         `yaml:"seed"`
	Physics PhysicsConfig `yaml:"physics"`
	Seeding SeedingConfig `yaml:"seeding"`
	Run     RunConfig     `yaml:"run"`
}

type PhysicsConfig struct {
	G           float64 `yaml:"g"`
	Softening   float64 `yaml:"softening"`
	Damping     float64 `yaml:"damping"`
	Pressure    float64 `yaml:"pressure"`
	CoreRadius  float64 `yaml:"core_radius"`
	InitSpin    float64 `yaml:"init_spin"`
	Substeps    int     `yaml:"substeps"`
	LimitRadius float64 `yaml:"limit_radius"`
	SpinRate    float64 `yaml:"spin_rate"`
	SpinRamp    string  `yaml:"spin_ramp"`
	FixedDt     float64 `yaml:"fixed_dt"`
	MaxDelta    float64 `yaml:"max_delta"`
	Solver      string  `yaml:"solver"`
	Theta       float64 `yaml:"theta"`
}

type SeedingConfig struct {
	Width      int     `yaml:"width"`
	Height     int     `yaml:"height"`
	Radius     float64 `yaml:"radius"`
	Thickness  float64 `yaml:"thickness"`
	MassBase   float64 `yaml:"mass_base"`
	MassJitter float64 `yaml:"mass_jitter"`
}

type RunConfig struct {
	Backend     string `yaml:"backend"`
	Workers     int    `yaml:"workers"`
	SampleEvery int    `yaml:"sample_every"`
	LogLevel    string `yaml:"log_level"`
}

func DefaultConfig() *Config {
	p := nebula.DefaultParams()
	return &Config{
		Dt:    DefaultDt,
		Ticks: DefaultTicks,
		Physics: PhysicsConfig{
			G:           p.G,
			Softening:   p.Softening,
			Damping:     p.Damping,
			Pressure:    p.Pressure,
			CoreRadius:  p.CoreRadius,
			InitSpin:    p.InitSpin,
			Substeps:    p.Substeps,
			LimitRadius: p.LimitRadius,
			SpinRate:    p.SpinRate,
			SpinRamp:    string(p.SpinRamp),
			MaxDelta:    p.MaxDelta,
			Solver:      p.Solver,
			Theta:       p.Theta,
		},
		Seeding: SeedingConfig{
			Width:      p.Disk.Grid.Width,
			Height:     p.Disk.Grid.Height,
			Radius:     p.Disk.Radius,
			Thickness:  p.Disk.Thickness,
			MassBase:   p.Disk.MassBase,
			MassJitter: p.Disk.MassJitter,
		},
		Run: RunConfig{
			Backend:     DefaultBackend,
			SampleEvery: DefaultSampleEvery,
			LogLevel:    "info",
		},
	}
}

// Load reads a YAML file over the defaults, so omitted keys keep their
// default values.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	cfg := DefaultConfig()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	return cfg, nil
}

func Save(path string, cfg *Config) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}

func (c *Config) Clone() *Config {
	out := *c
	return &out
}

// Params converts the physics and seeding sections into engine parameters.
func (c *Config) Params() nebula.Params {
	ph := c.Physics
	return nebula.Params{
		G:           ph.G,
		Softening:   ph.Softening,
		Damping:     ph.Damping,
		Pressure:    ph.Pressure,
		CoreRadius:  ph.CoreRadius,
		InitSpin:    ph.InitSpin,
		Substeps:    ph.Substeps,
		LimitRadius: ph.LimitRadius,
		SpinRate:    ph.SpinRate,
		SpinRamp:    kernel.Ramp(ph.SpinRamp),
		FixedDt:     ph.FixedDt,
		MaxDelta:    ph.MaxDelta,
		Solver:      ph.Solver,
		Theta:       ph.Theta,
		Disk:        c.Disk(),
	}
}

func (c *Config) Disk() seed.Disk {
	s := c.Seeding
	return seed.Disk{
		Grid:       grid.Shape{Width: s.Width, Height: s.Height},
		Radius:     s.Radius,
		Thickness:  s.Thickness,
		MassBase:   s.MassBase,
		MassJitter: s.MassJitter,
		Seed:       c.Seed,
	}
}

// Validate checks the run settings and then the engine parameters. Engine
// errors are returned unwrapped so callers can match *nebula.ConfigError.
func (c *Config) Validate() error {
	if !(c.Dt > 0) {
		return &nebula.ConfigError{Field: "dt", Value: c.Dt, Reason: "must be positive"}
	}
	if c.Ticks < 0 {
		return &nebula.ConfigError{Field: "ticks", Value: c.Ticks, Reason: "must be non-negative"}
	}
	if c.Run.SampleEvery < 1 {
		return &nebula.ConfigError{Field: "sample_every", Value: c.Run.SampleEvery, Reason: "must be at least 1"}
	}
	if _, err := compute.NewBackend(c.Run.Backend, 1); err != nil {
		return &nebula.ConfigError{Field: "backend", Value: c.Run.Backend, Reason: err.Error()}
	}
	return c.Params().Validate()
}
