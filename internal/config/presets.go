package config

import "sort"

var Presets = map[string]*Config{
	"nebula": DefaultConfig(),
	"learning-webgl": func() *Config {
		c := DefaultConfig()
		c.Physics.G = 0.0005
		c.Physics.Pressure = 0
		c.Physics.CoreRadius = 0.02
		c.Physics.InitSpin = 0.6
		c.Seeding.Width, c.Seeding.Height = 64, 32
		c.Seeding.Thickness = 0.25
		return c
	}(),
	"cold": func() *Config {
		c := DefaultConfig()
		c.Physics.InitSpin = 0
		c.Physics.Damping = 0
		c.Ticks = 300
		return c
	}(),
	"galaxy": func() *Config {
		c := DefaultConfig()
		c.Seeding.Width, c.Seeding.Height = 192, 96
		c.Physics.Solver = "tree"
		c.Physics.Theta = 0.6
		c.Physics.Substeps = 2
		c.Physics.SpinRamp = "elapsed"
		return c
	}(),
}

// GetPreset returns a copy of the named preset, or nil.
func GetPreset(name string) *Config {
	c, ok := Presets[name]
	if !ok {
		return nil
	}
	return c.Clone()
}

func ListPresets() []string {
	names := make([]string, 0, len(Presets))
	for name := range Presets {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
