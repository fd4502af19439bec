package metrics

import (
	"github.com/san-kum/velctl/internal/agent"
	"github.com/san-kum/velctl/internal/control"
)

// ControlEffort is the mean force norm over all ticks and environments.
type ControlEffort struct {
	name    string
	sum     float64
	samples int
}

func NewControlEffort() *ControlEffort {
	return &ControlEffort{
		name: "control_effort",
	}
}

func (c *ControlEffort) Name() string {
	return c.name
}

func (c *ControlEffort) Observe(tick int, t float64, a *agent.Agent, ctrl *control.VelocityController) {
	f := a.Force()
	for env := 0; env < f.Rows; env++ {
		c.sum += f.RowNorm(env)
		c.samples++
	}
}

func (c *ControlEffort) Value() float64 {
	if c.samples == 0 {
		return 0
	}
	return c.sum / float64(c.samples)
}

func (c *ControlEffort) Reset() {
	c.sum = 0
	c.samples = 0
}
