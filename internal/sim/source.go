package sim

import (
	"fmt"

	"github.com/san-kum/velctl/internal/agent"
	"github.com/san-kum/velctl/internal/config"
)

// NewSource returns the source a scenario describes: its trace file when one
// is set, its profiles otherwise.
func NewSource(cfg *config.Config) (Source, error) {
	if cfg.Trace != "" {
		return LoadTrace(cfg.Trace, cfg.Dim)
	}
	return NewProfileSource(cfg), nil
}

// ProfileSource drives agents from the excitation profiles in a scenario.
type ProfileSource struct {
	cfg *config.Config
}

func NewProfileSource(cfg *config.Config) *ProfileSource {
	return &ProfileSource{cfg: cfg}
}

func (p *ProfileSource) Fill(tick int, agents []*agent.Agent) error {
	if len(agents) != len(p.cfg.Agents) {
		return fmt.Errorf("profile source has %d agents, run has %d", len(p.cfg.Agents), len(agents))
	}
	for i, a := range agents {
		ac := p.cfg.Agents[i]
		desired, velocity := a.DesiredVelocity(), a.Velocity()
		for env := 0; env < a.Envs(); env++ {
			ac.Desired.Fill(desired.Row(env), tick, env, p.cfg.Dt)
			ac.Velocity.Fill(velocity.Row(env), tick, env, p.cfg.Dt)
		}
	}
	return nil
}
