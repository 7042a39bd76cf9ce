package config

import (
	"sort"

	"github.com/san-kum/casim/internal/experiment"
)

// Presets build fresh configurations, so callers may modify what they get.
var Presets = map[string]func() *Config{
	"nominal": DefaultConfig,

	"turbulence_block": func() *Config {
		cfg := DefaultConfig()
		tb, _ := experiment.NewRegistry().GetTurbulence("block")
		cfg.Episode.Turbulence = tb
		return cfg
	},

	"outage": func() *Config {
		cfg := DefaultConfig()
		cfg.Episode.Failure.Start = 70
		cfg.Episode.Failure.End = 90
		return cfg
	},

	// Attitude limit at half the commanded step: the vehicle must crash.
	"crash_probe": func() *Config {
		cfg := DefaultConfig()
		cfg.Episode.Limits.Attitude = 0.5 * cfg.Episode.Reference.Step
		return cfg
	},

	"full_outage": func() *Config {
		cfg := DefaultConfig()
		cfg.Episode.Failure.Start = 0
		cfg.Episode.Failure.End = cfg.Episode.Horizon
		return cfg
	},
}

func GetPreset(name string) *Config {
	build, ok := Presets[name]
	if !ok {
		return nil
	}
	return build()
}

func ListPresets() []string {
	names := make([]string, 0, len(Presets))
	for name := range Presets {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
