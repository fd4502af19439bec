package config

import (
	"sort"

	"github.com/samber/lo"

	"github.com/san-kum/velctl/internal/control"
)

func limit(v float64) *float64 { return &v }

var Presets = map[string]*Config{
	"step": {
		Name: "step", Dt: 0.1, Ticks: 100, Envs: 1, Dim: 1,
		Controller: ControllerConfig{Form: control.FormStandard, Params: [3]float64{1, 5, 0}},
		Agents: []AgentConfig{{
			Name: "agent_0", Mass: 1,
			Desired:  Profile{Kind: KindStep, Amplitude: []float64{1}},
			Velocity: Profile{Kind: KindConst, Amplitude: []float64{0}},
		}},
	},
	"windup": {
		Name: "windup", Dt: 0.1, Ticks: 300, Envs: 4, Dim: 2,
		Controller: ControllerConfig{Form: control.FormStandard, Params: [3]float64{2, 1, 0}},
		Agents: []AgentConfig{{
			Name: "saturated", Mass: 1, MaxForce: limit(3),
			Desired:  Profile{Kind: KindSquare, Amplitude: []float64{4, 2}, Frequency: 0.1, Spread: 0.25},
			Velocity: Profile{Kind: KindConst, Amplitude: []float64{0, 0}},
		}},
	},
	"swarm": {
		Name: "swarm", Dt: 0.05, Ticks: 400, Envs: 8, Dim: 2,
		Controller: ControllerConfig{Form: control.FormParallel, Params: [3]float64{3, 0.6, 0.15}},
		Agents: []AgentConfig{
			{
				Name: "leader", Mass: 1, MaxForce: limit(4), ForceRange: limit(3),
				Desired:  Profile{Kind: KindSine, Amplitude: []float64{1, 0.5}, Frequency: 0.2, Spread: 0.1},
				Velocity: Profile{Kind: KindSine, Amplitude: []float64{0.8, 0.4}, Frequency: 0.2, Start: 4, Spread: 0.1},
			},
			{
				Name: "heavy", Mass: 5, MaxForce: limit(10),
				Desired:  Profile{Kind: KindRamp, Amplitude: []float64{0.2, 0.1}, Spread: 0.05},
				Velocity: Profile{Kind: KindConst, Amplitude: []float64{0, 0}},
			},
			{
				Name: "damped", Mass: 0.5,
				Controller: &ControllerConfig{Form: control.FormStandard, Params: [3]float64{1.5, 8, 0.5}},
				Desired:    Profile{Kind: KindStep, Amplitude: []float64{1, 1}, Start: 20},
				Velocity:   Profile{Kind: KindStep, Amplitude: []float64{0.5, 0.25}, Start: 60},
			},
		},
	},
	"clamp": {
		Name: "clamp", Dt: 0.1, Ticks: 50, Envs: 2, Dim: 2,
		Controller: ControllerConfig{Form: control.FormStandard, Params: [3]float64{1, 0, 0}},
		Agents: []AgentConfig{{
			Name: "limited", Mass: 1, MaxForce: limit(2), ForceRange: limit(1),
			Desired:  Profile{Kind: KindConst, Amplitude: []float64{10, 1}, Spread: -0.5},
			Velocity: Profile{Kind: KindConst, Amplitude: []float64{0, 0}},
		}},
	},
}

// GetPreset returns a copy of the named preset, or nil.
func GetPreset(name string) *Config {
	cfg, ok := Presets[name]
	if !ok {
		return nil
	}
	c := *cfg
	c.Agents = append([]AgentConfig(nil), cfg.Agents...)
	return &c
}

func ListPresets() []string {
	names := lo.Keys(Presets)
	sort.Strings(names)
	return names
}
