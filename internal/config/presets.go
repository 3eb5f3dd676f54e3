package config

import "sort"

// Presets are named flight conditions applied over DefaultConfig.
var Presets = map[string]func(*Config){
	"cruise": func(c *Config) {
		c.Trim = TrimConfig{Airspeed: 55, Altitude: 1500}
		c.Integrator.EndTime = 120
	},
	"approach": func(c *Config) {
		c.Trim = TrimConfig{Airspeed: 35, Altitude: 300}
		c.Integrator.EndTime = 60
	},
	"climb": func(c *Config) {
		c.Trim = TrimConfig{Airspeed: 40, Altitude: 500}
		c.Integrator.EndTime = 90
	},
	"fast": func(c *Config) {
		c.Trim = TrimConfig{Airspeed: 75, Altitude: 3000}
		c.Integrator.Dt = 0.005
		c.Integrator.EndTime = 60
	},
}

func GetPreset(name string) *Config {
	apply, ok := Presets[name]
	if !ok {
		return nil
	}
	cfg := DefaultConfig()
	apply(cfg)
	return cfg
}

func ListPresets() []string {
	names := make([]string, 0, len(Presets))
	for name := range Presets {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
