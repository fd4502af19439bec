// Package agent holds the per-agent state a velocity controller reads and
// writes: desired and measured velocity per environment, mass and optional
// force limits.
package agent

import (
	"fmt"

	"github.com/san-kum/velctl/internal/control"
	"github.com/san-kum/velctl/internal/dynamo"
)

var _ control.Agent = (*Agent)(nil)

type Agent struct {
	Name string

	mass       float64
	maxForce   *float64
	forceRange *float64

	desired  dynamo.Batch
	velocity dynamo.Batch
	force    dynamo.Batch
}

// New creates an agent with envs environments of dim-dimensional velocity.
func New(name string, envs, dim int, mass float64) *Agent {
	return &Agent{
		Name:     name,
		mass:     mass,
		desired:  dynamo.NewBatch(envs, dim),
		velocity: dynamo.NewBatch(envs, dim),
		force:    dynamo.NewBatch(envs, dim),
	}
}

// WithMaxForce sets the Euclidean force bound. A nil limit clears it.
func (a *Agent) WithMaxForce(limit *float64) *Agent {
	a.maxForce = copyLimit(limit)
	return a
}

// WithForceRange sets the symmetric per-component force bound.
func (a *Agent) WithForceRange(limit *float64) *Agent {
	a.forceRange = copyLimit(limit)
	return a
}

func copyLimit(limit *float64) *float64 {
	if limit == nil {
		return nil
	}
	v := *limit
	return &v
}

func (a *Agent) Envs() int { return a.velocity.Rows }
func (a *Agent) Dim() int  { return a.velocity.Cols }

func (a *Agent) SetDesired(env int, v []float64) error {
	return setRow(a.desired, env, v)
}

func (a *Agent) SetVelocity(env int, v []float64) error {
	return setRow(a.velocity, env, v)
}

func setRow(b dynamo.Batch, env int, v []float64) error {
	if env < 0 || env >= b.Rows {
		return fmt.Errorf("%w: env %d outside [0, %d)", dynamo.ErrDimensionMismatch, env, b.Rows)
	}
	if len(v) != b.Cols {
		return fmt.Errorf("%w: got %d axes, want %d", dynamo.ErrDimensionMismatch, len(v), b.Cols)
	}
	copy(b.Row(env), v)
	return nil
}

func (a *Agent) DesiredVelocity() dynamo.Batch { return a.desired }
func (a *Agent) Velocity() dynamo.Batch        { return a.velocity }
func (a *Agent) Mass() float64                 { return a.mass }

func (a *Agent) MaxForce() (float64, bool) {
	if a.maxForce == nil {
		return 0, false
	}
	return *a.maxForce, true
}

func (a *Agent) ForceRange() (float64, bool) {
	if a.forceRange == nil {
		return 0, false
	}
	return *a.forceRange, true
}

// SetForce stores the force written by the controller for this tick.
func (a *Agent) SetForce(force dynamo.Batch) { a.force = force }

// Force returns the last force written to the agent.
func (a *Agent) Force() dynamo.Batch { return a.force }
