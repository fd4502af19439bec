package sim

import (
	"fmt"

	"github.com/san-kum/velctl/internal/agent"
	"github.com/san-kum/velctl/internal/config"
	"github.com/san-kum/velctl/internal/control"
)

// Build creates one agent and one batched controller per configured agent.
func Build(cfg *config.Config) ([]*agent.Agent, []*control.VelocityController, error) {
	agents := make([]*agent.Agent, len(cfg.Agents))
	ctrls := make([]*control.VelocityController, len(cfg.Agents))

	for i, ac := range cfg.Agents {
		a := agent.New(ac.Name, cfg.Envs, cfg.Dim, ac.Mass).
			WithMaxForce(ac.MaxForce).
			WithForceRange(ac.ForceRange)

		cc := cfg.ControllerFor(ac)
		c, err := control.NewVelocityController(a, cfg.Dt, cc.Params, cc.Form)
		if err != nil {
			return nil, nil, fmt.Errorf("agent %q: %w", ac.Name, err)
		}

		agents[i] = a
		ctrls[i] = c
	}

	return agents, ctrls, nil
}
