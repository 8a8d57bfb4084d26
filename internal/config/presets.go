package config

import "math"

// Presets are ready-made configurations keyed by data source then name.
var Presets = map[string]map[string]func() *Config{
	"ks": {
		"reference": func() *Config {
			return DefaultConfig()
		},
		"fast": func() *Config {
			cfg := DefaultConfig()
			cfg.KS.TEnd = 1000
			cfg.KS.Transient = 100
			cfg.Pipeline.Reservoir.Size = 300
			cfg.Sweep.Steps = 5
			return cfg
		},
		"structured": func() *Config {
			cfg := DefaultConfig()
			cfg.Pipeline.Reservoir.Structure = "circulant"
			cfg.Pipeline.Reservoir.Size = 2048
			return cfg
		},
		"long-horizon": func() *Config {
			cfg := DefaultConfig()
			cfg.Pipeline.Horizon = 5
			cfg.Pipeline.Recursion = 200
			return cfg
		},
	},
	"sine": {
		"smoke": func() *Config {
			cfg := DefaultConfig()
			cfg.Source = "sine"
			cfg.Sine = SineConfig{Length: 550, Period: 2 * math.Pi * 8}
			cfg.Data.TrainFrac = 500.0 / 550.0
			cfg.Data.Normalize = false
			cfg.Pipeline.Reservoir.Size = 50
			cfg.Pipeline.Recursion = 50
			return cfg
		},
	},
}

func GetPreset(source, preset string) *Config {
	sourcePresets, ok := Presets[source]
	if !ok {
		return nil
	}
	build, ok := sourcePresets[preset]
	if !ok {
		return nil
	}
	return build()
}

func ListPresets(source string) []string {
	sourcePresets, ok := Presets[source]
	if !ok {
		return nil
	}
	names := make([]string, 0, len(sourcePresets))
	for name := range sourcePresets {
		names = append(names, name)
	}
	return names
}
