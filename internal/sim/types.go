package sim

import (
	"github.com/san-kum/velctl/internal/agent"
	"github.com/san-kum/velctl/internal/control"
	"github.com/san-kum/velctl/internal/dynamo"
)

// Source writes desired and measured velocities into the agents before each tick.
type Source interface {
	Fill(tick int, agents []*agent.Agent) error
}

// Metric accumulates a scalar over the ticks of one agent.
type Metric interface {
	Name() string
	Observe(tick int, t float64, a *agent.Agent, c *control.VelocityController)
	Value() float64
	Reset()
}

// MetricFactory builds a fresh metric for each agent of a run.
type MetricFactory func() Metric

type Observer interface {
	OnStep(tick int, t float64, agents []*agent.Agent, ctrls []*control.VelocityController)
}

type Result struct {
	Name       string
	Times      []float64
	Agents     []string
	Forces     [][]dynamo.Batch // [agent][tick]
	Metrics    map[string]map[string]float64
	Params     map[string]map[string]float64
	StepsTaken int
}

// ForceSeries returns the force component of one agent, env and axis over time.
func (r *Result) ForceSeries(agentIdx, env, axis int) []float64 {
	out := make([]float64, len(r.Forces[agentIdx]))
	for i, f := range r.Forces[agentIdx] {
		out[i] = f.Row(env)[axis]
	}
	return out
}

// ForceNormSeries returns the per-tick force norm of one agent and env.
func (r *Result) ForceNormSeries(agentIdx, env int) []float64 {
	out := make([]float64, len(r.Forces[agentIdx]))
	for i, f := range r.Forces[agentIdx] {
		out[i] = f.RowNorm(env)
	}
	return out
}

func (r *Result) AgentIndex(name string) int {
	for i, n := range r.Agents {
		if n == name {
			return i
		}
	}
	return -1
}
