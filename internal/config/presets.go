package config

import (
	"sort"

	"github.com/san-kum/nbodybench/internal/invoke"
	"github.com/san-kum/nbodybench/internal/sweep"
)

var Presets = map[string]*Config{
	"gpu-bh": {
		Binary: DefaultBinary, Protocol: invoke.ConfigFile, ConfigPath: "config.json",
		Bodies:     sweep.Range{Start: 10, Stop: 90, Step: 10},
		Iterations: IntList{1}, SaveInterval: 10, Dt: FloatList{0.1},
		Output: "output.json", Results: "symulacja_wyniki.xlsx", Workers: 1,
	},
	"gpu-pair": {
		Binary: DefaultBinary, Protocol: invoke.Positional, ConfigPath: "config.json",
		Bodies:     sweep.Range{Start: 10, Stop: 4120, Step: 10},
		Iterations: IntList{1}, SaveInterval: 10, Dt: FloatList{0.8},
		Output: "output.json", Results: "symulacja_wyniki.xlsx", Workers: 1,
	},
	"cpu-bh": {
		Binary: DefaultBinary, Protocol: invoke.Positional, ConfigPath: "config.json",
		Bodies:     sweep.Range{Start: 10, Stop: 90, Step: 10},
		Iterations: IntList{1}, SaveInterval: 10, Dt: FloatList{0.1},
		Output: "output.json", Results: "cpu_bh_wyniki.csv", Workers: 1,
	},
}

// GetPreset returns a copy of the named preset, or nil.
func GetPreset(name string) *Config {
	p, ok := Presets[name]
	if !ok {
		return nil
	}
	cfg := *p
	cfg.Args = append([]string(nil), p.Args...)
	cfg.Env = append([]string(nil), p.Env...)
	cfg.Iterations = append(IntList(nil), p.Iterations...)
	cfg.Dt = append(FloatList(nil), p.Dt...)
	return &cfg
}

func ListPresets() []string {
	names := make([]string, 0, len(Presets))
	for name := range Presets {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
