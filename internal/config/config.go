package config

import (
	"errors"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/san-kum/velctl/internal/control"
)

const (
	DefaultDt    = 0.1
	DefaultTicks = 200
	DefaultEnvs  = 1
	DefaultDim   = 2
	DefaultMass  = 1.0
	DefaultKp    = 1.0
)

var ErrInvalidScenario = errors.New("config: invalid scenario")

// Config describes one controller bench run: the timing, the batch shape and
// the agents whose velocities drive their controllers.
type Config struct {
	Name       string           `yaml:"name"`
	Dt         float64          `yaml:"dt"`
	Ticks      int              `yaml:"ticks"`
	Envs       int              `yaml:"envs"`
	Dim        int              `yaml:"dim"`
	Seed       int64            `yaml:"seed,omitempty"`
	Controller ControllerConfig `yaml:"controller"`
	Agents     []AgentConfig    `yaml:"agents"`
	Trace      string           `yaml:"trace,omitempty"`
}

type ControllerConfig struct {
	Form   control.Form `yaml:"form"`
	Params [3]float64   `yaml:"params,flow"`
}

type AgentConfig struct {
	Name       string            `yaml:"name"`
	Mass       float64           `yaml:"mass"`
	MaxForce   *float64          `yaml:"max_force,omitempty"`
	ForceRange *float64          `yaml:"force_range,omitempty"`
	Desired    Profile           `yaml:"desired"`
	Velocity   Profile           `yaml:"velocity"`
	Controller *ControllerConfig `yaml:"controller,omitempty"`
}

func DefaultConfig() *Config {
	return &Config{
		Name:  "default",
		Dt:    DefaultDt,
		Ticks: DefaultTicks,
		Envs:  DefaultEnvs,
		Dim:   DefaultDim,
		Controller: ControllerConfig{
			Form:   control.FormStandard,
			Params: [3]float64{DefaultKp, 0, 0},
		},
		Agents: []AgentConfig{{
			Name:     "agent_0",
			Mass:     DefaultMass,
			Desired:  Profile{Kind: KindStep, Amplitude: []float64{1, 0}, Start: 10},
			Velocity: Profile{Kind: KindConst, Amplitude: []float64{0, 0}},
		}},
	}
}

func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	cfg := DefaultConfig()
	cfg.Agents = nil
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	if len(cfg.Agents) == 0 {
		cfg.Agents = DefaultConfig().Agents
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
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

// ControllerFor returns the agent's controller override or the scenario default.
func (c *Config) ControllerFor(a AgentConfig) ControllerConfig {
	if a.Controller != nil {
		cc := *a.Controller
		if cc.Form == "" {
			cc.Form = c.Controller.Form
		}
		return cc
	}
	return c.Controller
}

func (c *Config) Duration() float64 {
	return float64(c.Ticks) * c.Dt
}

func (c *Config) Validate() error {
	if c.Dt <= 0 {
		return fmt.Errorf("%w: dt must be positive, got %f", ErrInvalidScenario, c.Dt)
	}
	if c.Ticks <= 0 {
		return fmt.Errorf("%w: ticks must be positive, got %d", ErrInvalidScenario, c.Ticks)
	}
	if c.Envs <= 0 || c.Dim <= 0 {
		return fmt.Errorf("%w: envs and dim must be positive, got %dx%d", ErrInvalidScenario, c.Envs, c.Dim)
	}
	if len(c.Agents) == 0 {
		return fmt.Errorf("%w: no agents", ErrInvalidScenario)
	}

	seen := make(map[string]bool, len(c.Agents))
	for i, a := range c.Agents {
		if a.Name == "" {
			return fmt.Errorf("%w: agent %d has no name", ErrInvalidScenario, i)
		}
		if seen[a.Name] {
			return fmt.Errorf("%w: duplicate agent %q", ErrInvalidScenario, a.Name)
		}
		seen[a.Name] = true
		if a.Mass <= 0 {
			return fmt.Errorf("%w: agent %q mass must be positive", ErrInvalidScenario, a.Name)
		}
		if a.MaxForce != nil && *a.MaxForce < 0 {
			return fmt.Errorf("%w: agent %q max_force is negative", ErrInvalidScenario, a.Name)
		}
		if a.ForceRange != nil && *a.ForceRange < 0 {
			return fmt.Errorf("%w: agent %q force_range is negative", ErrInvalidScenario, a.Name)
		}
		if err := c.ControllerFor(a).Form.Validate(); err != nil {
			return fmt.Errorf("agent %q: %w", a.Name, err)
		}
		if c.Trace != "" {
			continue
		}
		for _, p := range []Profile{a.Desired, a.Velocity} {
			if err := p.Validate(c.Dim); err != nil {
				return fmt.Errorf("agent %q: %w", a.Name, err)
			}
		}
	}
	return nil
}
